package thinfilm_test

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kacperjurak/thinfilm"
)

func defaultParams() thinfilm.Params {
	return thinfilm.Params{
		NH:               thinfilm.Index(2.25, 0),
		NL:               thinfilm.Index(1.48, 0),
		NSub:             thinfilm.Index(1.52, 0),
		DesignWavelength: 550,
		Stack:            "1,1,1,1,1,2,1,1,1,1,1",
		Wavelengths:      thinfilm.Grid{Start: 400, Stop: 700, Step: 1},
		Angles:           thinfilm.Grid{Start: 0, Stop: 89, Step: 1},
		Incidence:        0,
		Super:            1.0,
	}
}

func TestEvaluate_NormalIncidenceHasNoPolarizationSplit(t *testing.T) {
	res, d, err := thinfilm.Evaluate(context.Background(), defaultParams())
	require.NoError(t, err)
	require.Len(t, d, 11)
	require.Len(t, res.Spectral.X, 301)
	require.Len(t, res.Spectral.Rs, 301)
	require.Len(t, res.Spectral.Rp, 301)
	assert.Equal(t, res.Spectral.Rs, res.Spectral.Rp)
	assert.Equal(t, res.Spectral.Ts, res.Spectral.Tp)
	assert.Equal(t, 0.0, res.Spectral.Fixed)

	require.Len(t, res.Angular.X, 90)
	assert.Equal(t, 550.0, res.Angular.Fixed)
	for i := range res.Spectral.X {
		assert.InDelta(t, 1, res.Spectral.Rs[i]+res.Spectral.Ts[i], 1e-9)
	}
}

func TestEvaluate_SpectralAndAngularAgreeAtDesignPoint(t *testing.T) {
	p := defaultParams()
	p.Incidence = 20
	p.Angles = thinfilm.Grid{Start: 0, Stop: 40, Step: 10}
	p.Wavelengths = thinfilm.Grid{Start: 500, Stop: 600, Step: 50}
	res, _, err := thinfilm.Evaluate(context.Background(), p)
	require.NoError(t, err)

	// spectral sample 550 nm at 20° and angular sample 20° at 550 nm are the same point
	assert.InDelta(t, res.Spectral.Rs[1], res.Angular.Rs[2], 1e-12)
	assert.InDelta(t, res.Spectral.Tp[1], res.Angular.Tp[2], 1e-12)
	assert.NotEqual(t, res.Angular.Rs[4], res.Angular.Rp[4])
}

func TestEvaluate_EmptyStackIsBareInterface(t *testing.T) {
	p := defaultParams()
	p.Stack = ""
	res, d, err := thinfilm.Evaluate(context.Background(), p)
	require.NoError(t, err)
	require.Empty(t, d)
	want := math.Pow(0.52/2.52, 2)
	for i := range res.Spectral.X {
		assert.InDelta(t, want, res.Spectral.Rs[i], 1e-12)
		assert.InDelta(t, 1-want, res.Spectral.Ts[i], 1e-12)
	}
}

func TestEvaluate_SeparatorsOnlyIsParseError(t *testing.T) {
	p := defaultParams()
	p.Stack = " , ,"
	_, _, err := thinfilm.Evaluate(context.Background(), p)
	require.ErrorIs(t, err, thinfilm.ErrParse)
}

func TestEvaluate_FailsBeforeSweeping(t *testing.T) {
	p := defaultParams()
	p.Stack = "1,-1"
	res, d, err := thinfilm.Evaluate(context.Background(), p)
	require.ErrorIs(t, err, thinfilm.ErrParse)
	assert.Nil(t, res)
	assert.Nil(t, d)

	p = defaultParams()
	p.NL = thinfilm.Index(0, 0)
	_, _, err = thinfilm.Evaluate(context.Background(), p)
	require.ErrorIs(t, err, thinfilm.ErrInvalidMaterial)
}

func TestEvaluate_EmptyGridsAreNotErrors(t *testing.T) {
	p := defaultParams()
	p.Wavelengths = thinfilm.Grid{Start: 700, Stop: 400, Step: 1}
	p.Angles = thinfilm.Grid{Start: 0, Stop: 10, Step: 0}
	res, d, err := thinfilm.Evaluate(context.Background(), p)
	require.NoError(t, err)
	require.Len(t, d, 11)
	assert.Empty(t, res.Spectral.Rs)
	assert.Empty(t, res.Angular.Rs)

	require.True(t, errors.Is(p.Validate(), thinfilm.ErrInvalidRange))
}

func TestEvaluate_Deterministic(t *testing.T) {
	p := defaultParams()
	p.NH = thinfilm.Index(2.25, 0.0001)
	p.NL = thinfilm.Index(1.48, 0.0001)
	p.Incidence = 35
	p.FiniteSubstrate = true

	p.Workers = 1
	a, _, err := thinfilm.Evaluate(context.Background(), p)
	require.NoError(t, err)
	p.Workers = 8
	b, _, err := thinfilm.Evaluate(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestEvaluate_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res, _, err := thinfilm.Evaluate(ctx, defaultParams())
	require.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, res)
}

func TestParams_Validate(t *testing.T) {
	require.NoError(t, defaultParams().Validate())

	p := defaultParams()
	p.Super = 0
	require.ErrorIs(t, p.Validate(), thinfilm.ErrInvalidMaterial)
}
