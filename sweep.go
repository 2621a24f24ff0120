package thinfilm

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"strings"

	"golang.org/x/sync/errgroup"
)

// Params is the complete input of one evaluation.
type Params struct {
	NH               complex128
	NL               complex128
	NSub             complex128
	DesignWavelength float64 // nm, also the fixed wavelength of the angular sweep
	Stack            string  // QWOT factors, e.g. "1,1,2,1"
	Wavelengths      Grid    // nm
	Angles           Grid    // degrees in the superstrate
	Incidence        float64 // nominal incidence (degrees): QWOT design and spectral sweep
	Super            float64
	FiniteSubstrate  bool
	Workers          int // sample fan-out, defaults to runtime.NumCPU()
}

// Validate reports the user-facing range errors Evaluate itself tolerates:
// an empty grid is a valid (empty) sweep for the engine but usually a typo for a caller.
func (p Params) Validate() error {
	if err := p.Wavelengths.validate("wavelength range"); err != nil {
		return err
	}
	if err := p.Angles.validate("angle range"); err != nil {
		return err
	}
	if p.DesignWavelength <= 0 {
		return fmt.Errorf("design wavelength %g nm: %w", p.DesignWavelength, ErrInvalidRange)
	}
	if p.Super <= 0 {
		return fmt.Errorf("superstrate index %g: %w", p.Super, ErrInvalidMaterial)
	}
	return nil
}

// Series holds R/T for both polarizations co-indexed with X.
type Series struct {
	X     []float64 `json:"x"`
	Fixed float64   `json:"fixed"`
	Rs    []float64 `json:"rs"`
	Rp    []float64 `json:"rp"`
	Ts    []float64 `json:"ts"`
	Tp    []float64 `json:"tp"`
}

func newSeries(x []float64, fixed float64) Series {
	return Series{
		X:     x,
		Fixed: fixed,
		Rs:    make([]float64, len(x)),
		Rp:    make([]float64, len(x)),
		Ts:    make([]float64, len(x)),
		Tp:    make([]float64, len(x)),
	}
}

func (s Series) Len() int { return len(s.X) }

// Result is the spectral sweep (wavelength at fixed incidence) and the angular
// sweep (incidence at fixed design wavelength).
type Result struct {
	Spectral Series `json:"spectral"`
	Angular  Series `json:"angular"`
}

// Prepare parses and resolves the stack of p. Text holding only separators
// (",,") is rejected: it is neither blank nor a usable stack.
func Prepare(p Params) (*Stack, error) {
	factors, err := ParseStackSpec(p.Stack)
	if err != nil {
		return nil, err
	}
	if len(factors) == 0 && strings.TrimSpace(p.Stack) != "" {
		return nil, &ParseError{Reason: "stack contains no valid value"}
	}
	thicknesses, err := Resolve(factors, p.NH, p.NL, p.Super, p.DesignWavelength, p.Incidence)
	if err != nil {
		return nil, err
	}
	return NewStack(thicknesses, p.NH, p.NL, p.Super, p.NSub), nil
}

// Evaluate runs both sweeps of p and returns them with the physical
// thicknesses. Stack errors and grids above MaxSamples abort before any
// sample is computed; numerically degenerate samples are not errors.
func Evaluate(ctx context.Context, p Params) (*Result, []float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	stack, err := Prepare(p)
	if err != nil {
		return nil, nil, err
	}
	if p.Wavelengths.oversized() {
		return nil, nil, p.Wavelengths.validate("wavelength range")
	}
	if p.Angles.oversized() {
		return nil, nil, p.Angles.validate("angle range")
	}

	res := &Result{
		Spectral: newSeries(p.Wavelengths.Points(), p.Incidence),
		Angular:  newSeries(p.Angles.Points(), p.DesignWavelength),
	}

	spectralAlpha := snell(p.Super, p.Incidence)
	spectral := func(i int) (float64, float64) { return spectralAlpha, res.Spectral.X[i] }
	angular := func(i int) (float64, float64) { return snell(p.Super, res.Angular.X[i]), p.DesignWavelength }

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers(p.Workers))
	schedule(gctx, g, stack, &res.Spectral, spectral, p.FiniteSubstrate)
	schedule(gctx, g, stack, &res.Angular, angular, p.FiniteSubstrate)
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return res, stack.Thicknesses, nil
}

// chunk is the number of consecutive samples one goroutine evaluates.
const chunk = 16

// schedule queues the samples of one sweep. Every task owns a disjoint index
// range of the output series.
func schedule(ctx context.Context, g *errgroup.Group, stack *Stack, out *Series, sample func(int) (alpha, lambda float64), finite bool) {
	for lo := 0; lo < out.Len(); lo += chunk {
		lo, hi := lo, min(lo+chunk, out.Len())
		g.Go(func() error {
			for i := lo; i < hi; i++ {
				if err := ctx.Err(); err != nil {
					return err
				}
				alpha, lambda := sample(i)
				out.Rs[i], out.Ts[i] = stack.Intensities(S, alpha, lambda, finite)
				out.Rp[i], out.Tp[i] = stack.Intensities(P, alpha, lambda, finite)
			}
			return nil
		})
	}
}

// snell is the invariant n·sinθ, held within ±n against rounding.
func snell(nSuper, thetaDeg float64) float64 {
	alpha := nSuper * math.Sin(thetaDeg*math.Pi/180)
	if math.Abs(alpha) > nSuper && !isClose(math.Abs(alpha), nSuper) {
		alpha = math.Copysign(nSuper, alpha)
	}
	return alpha
}

func workers(n int) int {
	if n <= 0 {
		return runtime.NumCPU()
	}
	return n
}
