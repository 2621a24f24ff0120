package thinfilm_test

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kacperjurak/thinfilm"
)

func fitTargets(t *testing.T, stack string) []thinfilm.Target {
	t.Helper()
	p := defaultParams()
	p.Stack = stack
	f, err := thinfilm.NewFitter(p, []thinfilm.Target{{Wavelength: 450}, {Wavelength: 550}, {Wavelength: 650}})
	require.NoError(t, err)
	values, err := f.Response(f.InitValues)
	require.NoError(t, err)
	targets := make([]thinfilm.Target, len(values))
	for i, v := range values {
		targets[i] = thinfilm.Target{Wavelength: f.Targets[i].Wavelength, Value: v}
	}
	return targets
}

func TestMerit(t *testing.T) {
	targets := []thinfilm.Target{{Wavelength: 500, Value: 0.5}, {Wavelength: 600, Value: 0.2}}
	assert.InDelta(t, (0.01+0.01)/2, thinfilm.Merit(targets, []float64{0.4, 0.3}, thinfilm.UNITY), 1e-12)
	assert.InDelta(t, (0.04+0.25)/2, thinfilm.Merit(targets, []float64{0.4, 0.3}, thinfilm.MODULUS), 1e-12)
	assert.Equal(t, 0.0, thinfilm.Merit(nil, nil, thinfilm.UNITY))
}

func TestFitter_ExactStackHasZeroMerit(t *testing.T) {
	targets := fitTargets(t, "1,1,1")
	p := defaultParams()
	p.Stack = "1,1,1"
	f, err := thinfilm.NewFitter(p, targets)
	require.NoError(t, err)
	values, err := f.Response(f.InitValues)
	require.NoError(t, err)
	assert.InDelta(t, 0, thinfilm.Merit(targets, values, f.Weighting), 1e-15)
}

func TestFitter_NelderMeadImproves(t *testing.T) {
	targets := fitTargets(t, "1,1,1")
	p := defaultParams()
	p.Stack = "1.2,0.8,1.1"
	f, err := thinfilm.NewFitter(p, targets)
	require.NoError(t, err)

	start, err := f.Response(f.InitValues)
	require.NoError(t, err)
	initial := thinfilm.Merit(targets, start, f.Weighting)

	res := f.Solve(context.Background(), 1e-10, 2)
	require.Equal(t, thinfilm.OK, res.Status)
	require.Len(t, res.Factors, 3)
	assert.Less(t, res.Min, initial)
	for _, v := range res.Factors {
		assert.GreaterOrEqual(t, v, 0.0)
	}
}

func TestFitter_UnknownMethodFallsBack(t *testing.T) {
	targets := fitTargets(t, "1,1")
	p := defaultParams()
	p.Stack = "1.1,1"
	f, err := thinfilm.NewFitter(p, targets)
	require.NoError(t, err)
	f.Method = "simulated-annealing"
	res := f.Solve(context.Background(), 1e-10, 1)
	assert.Equal(t, thinfilm.NelderMead, res.Method)
	assert.False(t, math.IsInf(res.Min, 0))
}

func TestNewFitter_Errors(t *testing.T) {
	p := defaultParams()
	_, err := thinfilm.NewFitter(p, nil)
	require.Error(t, err)

	_, err = thinfilm.NewFitter(p, []thinfilm.Target{{Wavelength: -1}})
	require.ErrorIs(t, err, thinfilm.ErrInvalidRange)

	p.Stack = ""
	_, err = thinfilm.NewFitter(p, []thinfilm.Target{{Wavelength: 550}})
	require.ErrorIs(t, err, thinfilm.ErrParse)
}
