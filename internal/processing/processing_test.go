package processing_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kacperjurak/thinfilm"
	"github.com/kacperjurak/thinfilm/internal/processing"
	"github.com/kacperjurak/thinfilm/pkg/config"
)

func smallConfig() config.Config {
	cfg := config.DefaultConfig()
	cfg.Wavelengths = thinfilm.Grid{Start: 500, Stop: 600, Step: 10}
	cfg.Angles = thinfilm.Grid{Start: 0, Stop: 60, Step: 20}
	return cfg
}

func TestProcessorEvaluate(t *testing.T) {
	p := processing.NewProcessor(true)
	res, thicknesses, err := p.Evaluate(context.Background(), smallConfig())
	require.NoError(t, err)
	assert.Len(t, thicknesses, 11)
	assert.Equal(t, 11, res.Spectral.Len())
	assert.Equal(t, 4, res.Angular.Len())
}

func TestProcessorEvaluateInvalid(t *testing.T) {
	p := processing.NewProcessor(true)

	cfg := smallConfig()
	cfg.Wavelengths.Step = 0
	_, _, err := p.Evaluate(context.Background(), cfg)
	assert.ErrorIs(t, err, thinfilm.ErrInvalidRange)

	cfg = smallConfig()
	cfg.Stack = "1,x"
	_, _, err = p.Evaluate(context.Background(), cfg)
	assert.ErrorIs(t, err, thinfilm.ErrParse)
}

func TestProcessorFit(t *testing.T) {
	p := processing.NewProcessor(true)
	cfg := smallConfig()
	cfg.Stack = "1.2,0.8"
	targets := []thinfilm.Target{{Wavelength: 550, Value: 0.2896}}

	fitted, res, err := p.Fit(context.Background(), cfg, processing.FitSettings{
		Targets:      targets,
		Polarization: "s",
	})
	require.NoError(t, err)
	assert.Equal(t, thinfilm.OK, res.Status)
	assert.Len(t, res.Factors, 2)
	assert.NotEqual(t, cfg.Stack, fitted.Stack)

	factors, err := thinfilm.ParseStackSpec(fitted.Stack)
	require.NoError(t, err)
	assert.Len(t, factors, 2)
}

func TestProcessorFitErrors(t *testing.T) {
	p := processing.NewProcessor(true)
	_, _, err := p.Fit(context.Background(), smallConfig(), processing.FitSettings{})
	assert.Error(t, err)

	_, _, err = p.Fit(context.Background(), smallConfig(), processing.FitSettings{
		Targets:      []thinfilm.Target{{Wavelength: 550, Value: 0.5}},
		Polarization: "x",
	})
	assert.Error(t, err)
}

func TestFormatStack(t *testing.T) {
	assert.Equal(t, "1,0.98,2", processing.FormatStack([]float64{1, 0.98, 2}))
	assert.Equal(t, "", processing.FormatStack(nil))
}

func TestSessionSubmitAndUndo(t *testing.T) {
	ctx := context.Background()
	s := processing.NewSession(processing.NewProcessor(true), smallConfig())
	defer s.Close()

	_, ok := s.Latest()
	assert.False(t, ok)

	second := smallConfig()
	second.Stack = "1,1,2,1,1"
	out, ok := s.Submit(ctx, second)
	require.True(t, ok)
	require.NoError(t, out.Err)
	assert.Len(t, out.Thicknesses, 5)

	latest, ok := s.Latest()
	require.True(t, ok)
	assert.Equal(t, out.Generation, latest.Generation)

	out, ok, current := s.Undo(ctx)
	require.True(t, ok)
	assert.True(t, current)
	assert.Len(t, out.Thicknesses, 11)
	assert.True(t, s.History().CanRedo())

	out, ok, current = s.Redo(ctx)
	require.True(t, ok)
	assert.True(t, current)
	assert.Equal(t, "1,1,2,1,1", out.Config.Stack)

	_, ok, _ = s.Redo(ctx)
	assert.False(t, ok)
}

func TestSessionFailedSubmitNotRecorded(t *testing.T) {
	ctx := context.Background()
	s := processing.NewSession(processing.NewProcessor(true), smallConfig())

	bad := smallConfig()
	bad.Stack = "1,-1"
	out, ok := s.Submit(ctx, bad)
	require.True(t, ok)
	assert.ErrorIs(t, out.Err, thinfilm.ErrParse)
	assert.False(t, s.History().CanUndo())
}

func TestSessionFailedSubmitKeepsLastResult(t *testing.T) {
	ctx := context.Background()
	s := processing.NewSession(processing.NewProcessor(true), smallConfig())

	good, ok := s.Submit(ctx, smallConfig())
	require.True(t, ok)
	require.NoError(t, good.Err)

	bad := smallConfig()
	bad.Stack = "1,-1"
	out, ok := s.Submit(ctx, bad)
	require.True(t, ok)
	assert.ErrorIs(t, out.Err, thinfilm.ErrParse)
	assert.Greater(t, out.Generation, good.Generation)

	latest, ok := s.Latest()
	require.True(t, ok)
	assert.NoError(t, latest.Err)
	assert.Equal(t, smallConfig().Stack, latest.Config.Stack)
	assert.Equal(t, good.Generation, latest.Generation)
	require.NotNil(t, latest.Result)
	assert.Equal(t, 11, latest.Result.Spectral.Len())
}

func TestSessionCancelledParent(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s := processing.NewSession(processing.NewProcessor(true), smallConfig())

	out, ok := s.Submit(ctx, smallConfig())
	require.True(t, ok)
	assert.ErrorIs(t, out.Err, context.Canceled)
}

func TestSessionGenerationsIncrease(t *testing.T) {
	ctx := context.Background()
	s := processing.NewSession(processing.NewProcessor(true), smallConfig())

	first, _ := s.Submit(ctx, smallConfig())
	second, _ := s.Submit(ctx, smallConfig())
	assert.Greater(t, second.Generation, first.Generation)
}
