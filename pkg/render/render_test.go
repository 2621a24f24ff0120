package render_test

import (
	"bytes"
	"context"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kacperjurak/thinfilm"
	"github.com/kacperjurak/thinfilm/pkg/config"
	"github.com/kacperjurak/thinfilm/pkg/export"
	"github.com/kacperjurak/thinfilm/pkg/render"
)

func evaluate(t *testing.T) (*thinfilm.Result, *thinfilm.Stack) {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Wavelengths = thinfilm.Grid{Start: 400, Stop: 700, Step: 10}
	cfg.Angles = thinfilm.Grid{Start: 0, Stop: 80, Step: 10}
	res, _, err := thinfilm.Evaluate(context.Background(), cfg.Params())
	require.NoError(t, err)
	stack, err := thinfilm.Prepare(cfg.Params())
	require.NoError(t, err)
	return res, stack
}

func TestSweepPNG(t *testing.T) {
	res, _ := evaluate(t)
	for _, sweep := range []export.Sweep{export.Spectral, export.Angular} {
		p, err := render.Sweep(sweep.Pick(res), sweep, nil)
		require.NoError(t, err)

		var buf bytes.Buffer
		require.NoError(t, render.WritePNG(&buf, p, 400, 300))
		img, err := png.Decode(&buf)
		require.NoError(t, err)
		assert.Equal(t, 400, img.Bounds().Dx())
		assert.Equal(t, 300, img.Bounds().Dy())
	}
}

func TestProfilePNG(t *testing.T) {
	_, stack := evaluate(t)
	p, err := render.Profile(thinfilm.Profile(stack))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, render.WritePNG(&buf, p, 0, 0))
	img, err := png.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, render.DefaultWidth, img.Bounds().Dx())
}

func TestEmpty(t *testing.T) {
	_, err := render.Sweep(thinfilm.Series{}, export.Spectral, nil)
	assert.ErrorIs(t, err, render.ErrEmpty)
}

func TestStepTicks(t *testing.T) {
	ticks := render.StepTicks{Step: 0.25, Format: "%.2f"}.Ticks(0.1, 1)
	require.Len(t, ticks, 4)
	assert.Equal(t, "0.25", ticks[0].Label)
	assert.Equal(t, "1.00", ticks[3].Label)
}
