package thinfilm_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kacperjurak/thinfilm"
)

func TestProfile_Layout(t *testing.T) {
	s := thinfilm.NewStack([]float64{60, 90, 30}, nH, nL, 1.0, complex(1.52, 0))
	prof := thinfilm.Profile(s)

	require.Len(t, prof.Layers, 3)
	// the last layer faces the superstrate
	assert.Equal(t, "C3", prof.Layers[0].Label)
	assert.Equal(t, 0.0, prof.Layers[0].Top)
	assert.Equal(t, 30.0, prof.Layers[0].Bottom)
	assert.Equal(t, "C1", prof.Layers[2].Label)
	assert.Equal(t, 180.0, prof.Layers[2].Bottom)
	assert.Equal(t, 180.0, prof.Total)

	require.Len(t, prof.Depth, len(prof.N))
	assert.Equal(t, -thinfilm.ProfileMargin, prof.Depth[0])
	assert.Equal(t, 180+thinfilm.ProfileMargin, prof.Depth[len(prof.Depth)-1])
	assert.Equal(t, 1.0, prof.MinN)
	assert.Equal(t, 2.25, prof.MaxN)
}

func TestProfile_NoLayers(t *testing.T) {
	prof := thinfilm.Profile(thinfilm.NewStack(nil, nH, nL, 1.0, complex(1.52, 0)))
	assert.Empty(t, prof.Layers)
	assert.Equal(t, 0.0, prof.Total)
	assert.Equal(t, []float64{-50, 0, 0, 50}, prof.Depth)
	assert.Equal(t, []float64{1, 1, 1.52, 1.52}, prof.N)
}
