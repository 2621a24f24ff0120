package processing

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"strings"
	"time"

	"github.com/kacperjurak/thinfilm"
	"github.com/kacperjurak/thinfilm/pkg/config"
)

// Fit defaults when a request leaves them unset.
const (
	DefaultMinFunc       = 1e-4
	DefaultMaxIterations = 10
)

// AllMethods runs every fit method and keeps the best.
const AllMethods = "all"

var fitMethods = []string{thinfilm.NelderMead, thinfilm.LevenbergMarq, thinfilm.GradDescent, thinfilm.LBFGS, thinfilm.Newton}

// Processor runs evaluations and fits for the HTTP handlers, the worker pool and the CLI.
type Processor struct {
	quiet bool
}

// NewProcessor creates a new processor
func NewProcessor(quiet bool) *Processor {
	return &Processor{quiet: quiet}
}

// Evaluate validates cfg and runs both sweeps.
func (p *Processor) Evaluate(ctx context.Context, cfg config.Config) (*thinfilm.Result, []float64, error) {
	params := cfg.Params()
	if err := params.Validate(); err != nil {
		return nil, nil, err
	}

	start := time.Now()
	res, thicknesses, err := thinfilm.Evaluate(ctx, params)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			log.Printf("❌ Evaluation failed - stack %q: %v", cfg.Stack, err)
		}
		return nil, nil, err
	}

	if !p.quiet {
		log.Printf("✅ Evaluated %d layers: %d spectral + %d angular samples in %v",
			len(thicknesses), res.Spectral.Len(), res.Angular.Len(), time.Since(start))
	}
	return res, thicknesses, nil
}

// FitSettings selects what a fit optimizes.
type FitSettings struct {
	Targets       []thinfilm.Target
	Method        string
	Polarization  string
	Transmit      bool
	Relative      bool
	MinFunc       float64
	MaxIterations int
}

// Fit refines the QWOT factors of cfg towards the targets. The returned config
// carries the refined stack text.
func (p *Processor) Fit(ctx context.Context, cfg config.Config, s FitSettings) (config.Config, thinfilm.FitResult, error) {
	fitter, err := thinfilm.NewFitter(cfg.Params(), s.Targets)
	if err != nil {
		return cfg, thinfilm.FitResult{}, err
	}
	if s.Relative {
		fitter.Weighting = thinfilm.MODULUS
	}
	fitter.Transmit = s.Transmit
	if s.Polarization != "" {
		pol, err := thinfilm.ParsePolarization(s.Polarization)
		if err != nil {
			return cfg, thinfilm.FitResult{}, err
		}
		fitter.Pol = pol
		fitter.Unpolarized = false
	}
	if s.MinFunc <= 0 {
		s.MinFunc = DefaultMinFunc
	}
	if s.MaxIterations <= 0 {
		s.MaxIterations = DefaultMaxIterations
	}

	method := strings.ToLower(s.Method)
	if method == "" {
		method = thinfilm.NelderMead
	}

	var res thinfilm.FitResult
	if method == AllMethods {
		res = p.runAllMethods(ctx, fitter, s)
	} else {
		res = p.runMethod(ctx, fitter, method, s)
	}
	if err := ctx.Err(); err != nil {
		return cfg, res, err
	}
	if res.Status != thinfilm.OK {
		return cfg, res, fmt.Errorf("fit %s did not converge", method)
	}

	cfg.Stack = FormatStack(res.Factors)
	return cfg, res, nil
}

func (p *Processor) runMethod(ctx context.Context, fitter *thinfilm.Fitter, method string, s FitSettings) thinfilm.FitResult {
	f := fitter.Clone()
	f.Method = method

	start := time.Now()
	res := f.Solve(ctx, s.MinFunc, s.MaxIterations)
	if res.Status == thinfilm.ERROR {
		log.Printf("Fit FAILED - Method: %s", method)
	} else if !p.quiet {
		log.Printf("Fit completed - Method: %s, MSE: %.6e, Factors: %v, Time: %v", res.Method, res.Min, res.Factors, time.Since(start))
	}
	return res
}

func (p *Processor) runAllMethods(ctx context.Context, fitter *thinfilm.Fitter, s FitSettings) thinfilm.FitResult {
	best := thinfilm.FitResult{Status: thinfilm.ERROR, Min: math.Inf(1)}
	for _, method := range fitMethods {
		if ctx.Err() != nil {
			break
		}
		res := p.runMethod(ctx, fitter, method, s)
		if res.Status == thinfilm.OK && res.Min < best.Min {
			best = res
			log.Printf("New best method: %s with MSE: %.6e", method, res.Min)
		}
	}
	return best
}

// FormatStack renders QWOT factors as stack text, e.g. "1,0.98,2".
func FormatStack(factors []float64) string {
	parts := make([]string, len(factors))
	for i, f := range factors {
		parts[i] = fmt.Sprintf("%.6g", f)
	}
	return strings.Join(parts, ",")
}
