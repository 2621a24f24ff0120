package thinfilm_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kacperjurak/thinfilm"
)

var (
	nH = thinfilm.Index(2.25, 0)
	nL = thinfilm.Index(1.48, 0)
)

func TestIndex_Convention(t *testing.T) {
	n := thinfilm.Index(2.25, 0.0001)
	assert.Equal(t, 2.25, real(n))
	assert.Equal(t, -0.0001, imag(n))
}

func TestResolve_NormalIncidenceQuarterWave(t *testing.T) {
	d, err := thinfilm.Resolve([]float64{1}, nH, nL, 1.0, 550, 0)
	require.NoError(t, err)
	require.Len(t, d, 1)
	assert.InDelta(t, 61.111, d[0], 1e-3)
}

func TestResolve_AlternatesMaterials(t *testing.T) {
	d, err := thinfilm.Resolve([]float64{1, 2, 0.5}, nH, nL, 1.0, 600, 0)
	require.NoError(t, err)
	assert.InDelta(t, 600/(4*2.25), d[0], 1e-9)
	assert.InDelta(t, 2*600/(4*1.48), d[1], 1e-9)
	assert.InDelta(t, 0.5*600/(4*2.25), d[2], 1e-9)
}

func TestResolve_ObliqueDesign(t *testing.T) {
	d, err := thinfilm.Resolve([]float64{1}, nH, nL, 1.0, 550, 30)
	require.NoError(t, err)
	assert.InDelta(t, 62.6783, d[0], 1e-3)
}

func TestResolve_Empty(t *testing.T) {
	d, err := thinfilm.Resolve(nil, nH, nL, 1.0, 550, 0)
	require.NoError(t, err)
	require.Empty(t, d)
}

func TestResolve_Errors(t *testing.T) {
	_, err := thinfilm.Resolve([]float64{1, 1}, nH, thinfilm.Index(-1.2, 0), 1.0, 550, 0)
	require.True(t, errors.Is(err, thinfilm.ErrInvalidMaterial))
	var le *thinfilm.LayerError
	require.ErrorAs(t, err, &le)
	assert.Equal(t, 2, le.Layer)

	// glass superstrate at 80° cannot couple into a 1.2 layer
	_, err = thinfilm.Resolve([]float64{1}, thinfilm.Index(1.2, 0), nL, 1.52, 550, 80)
	require.True(t, errors.Is(err, thinfilm.ErrDesignAngleInfeasible))

	// exactly critical: alpha equals the layer index
	_, err = thinfilm.Resolve([]float64{1}, thinfilm.Index(1.0, 0), nL, 1.0, 550, 90)
	require.True(t, errors.Is(err, thinfilm.ErrCriticalAngleAtDesign))

	d, err := thinfilm.Resolve([]float64{0}, thinfilm.Index(1.0, 0), nL, 1.0, 550, 90)
	require.NoError(t, err)
	assert.Equal(t, []float64{0}, d)
}
