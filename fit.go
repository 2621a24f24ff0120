package thinfilm

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"strings"
	"time"

	"github.com/maorshutman/lm"
	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"
)

type Weighting int

const (
	MODULUS Weighting = iota
	UNITY
)

const (
	OK    = "OK"
	ERROR = "ERROR"
)

// Fit methods accepted by Fitter.Method.
const (
	NelderMead    = "nelder-mead"
	LevenbergMarq = "lm"
	GradDescent   = "gd"
	LBFGS         = "lbfgs"
	Newton        = "newton"
)

// FitResult is the outcome of a QWOT refinement.
type FitResult struct {
	Factors  []float64 `json:"factors"`
	Min      float64   `json:"min"`
	MinUnit  string    `json:"min_unit"`
	Method   string    `json:"method"`
	Status   string    `json:"status"`
	Iters    int       `json:"iterations"`
	FuncEval int       `json:"func_evaluations"`
	Runtime  float64   `json:"runtime_s"`
}

// Target is the desired value of the fitted quantity at one wavelength (nm).
type Target struct {
	Wavelength float64 `json:"wavelength"`
	Value      float64 `json:"value"`
}

// Fitter adjusts the QWOT factors of Params.Stack so the spectral response at
// the nominal incidence approaches the targets. The layer count and materials
// stay fixed.
type Fitter struct {
	params      Params
	Targets     []Target
	InitValues  []float64
	Method      string
	Weighting   Weighting
	Pol         Polarization
	Unpolarized bool // average s and p instead of using Pol
	Transmit    bool // fit T instead of R

	alpha float64
}

func NewFitter(p Params, targets []Target) (*Fitter, error) {
	if len(targets) == 0 {
		return nil, errors.New("fit: no target provided")
	}
	for i, t := range targets {
		if t.Wavelength <= 0 {
			return nil, fmt.Errorf("fit: target %d wavelength %g nm: %w", i+1, t.Wavelength, ErrInvalidRange)
		}
	}
	factors, err := ParseStackSpec(p.Stack)
	if err != nil {
		return nil, err
	}
	if len(factors) == 0 {
		return nil, &ParseError{Reason: "stack contains no valid value"}
	}
	// resolving once surfaces material and design-angle errors before optimizing
	if _, err := Resolve(factors, p.NH, p.NL, p.Super, p.DesignWavelength, p.Incidence); err != nil {
		return nil, err
	}
	return &Fitter{
		params:      p,
		Targets:     targets,
		InitValues:  factors,
		Method:      NelderMead,
		Weighting:   UNITY,
		Unpolarized: true,
		alpha:       snell(p.Super, p.Incidence),
	}, nil
}

// Response evaluates the fitted quantity of a candidate stack at the target wavelengths.
func (f *Fitter) Response(factors []float64) ([]float64, error) {
	x := make([]float64, len(factors))
	for i, v := range factors {
		x[i] = math.Max(v, 0)
	}
	p := f.params
	thicknesses, err := Resolve(x, p.NH, p.NL, p.Super, p.DesignWavelength, p.Incidence)
	if err != nil {
		return nil, err
	}
	stack := NewStack(thicknesses, p.NH, p.NL, p.Super, p.NSub)

	out := make([]float64, len(f.Targets))
	for i, t := range f.Targets {
		out[i] = f.quantity(stack, t.Wavelength)
	}
	return out, nil
}

func (f *Fitter) quantity(stack *Stack, lambda float64) float64 {
	pick := func(pol Polarization) float64 {
		r, t := stack.Intensities(pol, f.alpha, lambda, f.params.FiniteSubstrate)
		if f.Transmit {
			return t
		}
		return r
	}
	if f.Unpolarized {
		return (pick(S) + pick(P)) / 2
	}
	return pick(f.Pol)
}

func (f *Fitter) residual(i int, calculated float64) float64 {
	d := f.Targets[i].Value - calculated
	if f.Weighting == MODULUS && f.Targets[i].Value > 0 {
		return d / f.Targets[i].Value
	}
	return d
}

func (f *Fitter) problem(x []float64) float64 {
	calculated, err := f.Response(x)
	if err != nil {
		return math.Inf(1)
	}
	return Merit(f.Targets, calculated, f.Weighting)
}

// Merit is the mean squared deviation between targets and calculated values,
// relative to the target under MODULUS weighting.
func Merit(targets []Target, calculated []float64, weighting Weighting) float64 {
	if len(targets) != len(calculated) {
		panic("fit merit: slice length mismatch")
	}
	if len(targets) == 0 {
		return 0
	}
	sum := 0.0
	for i, t := range targets {
		d2 := math.Pow(t.Value-calculated[i], 2)
		if weighting == MODULUS && t.Value > 0 {
			d2 /= t.Value * t.Value
		}
		sum += d2
	}
	return sum / float64(len(targets))
}

// Solve runs the configured method, restarting from perturbed factors until the
// merit drops below minFunc or maxIterations restarts were spent.
func (f *Fitter) Solve(ctx context.Context, minFunc float64, maxIterations int) FitResult {
	method := strings.ToLower(f.Method)
	primary := append([]float64(nil), f.InitValues...)
	init := append([]float64(nil), f.InitValues...)
	best := FitResult{Min: math.Inf(1), Status: ERROR, Method: method}

	for iter := 0; iter < max(1, maxIterations); iter++ {
		if ctx.Err() != nil {
			break
		}
		res := f.solveOnce(method, init)
		log.Println("fit iter:", iter, "method:", method, "res:", res.Min, "best:", best.Min)
		if res.Status == OK && res.Min < best.Min {
			best = res
		}
		if best.Min < minFunc {
			break
		}
		init = perturb(res.Factors, primary)
	}
	for i, v := range best.Factors {
		best.Factors[i] = math.Max(v, 0)
	}
	return best
}

func (f *Fitter) solveOnce(method string, init []float64) FitResult {
	switch method {
	case LevenbergMarq, "levenberg-marquardt":
		return f.lmSolve(init)
	case GradDescent, "gradient-descent":
		return f.gradientSolve(GradDescent, init, &optimize.GradientDescent{}, false)
	case LBFGS:
		return f.gradientSolve(LBFGS, init, &optimize.LBFGS{}, false)
	case Newton:
		return f.gradientSolve(Newton, init, &optimize.Newton{}, true)
	case NelderMead, "":
	default:
		log.Printf("Unknown fit method '%s', using Nelder-Mead", method)
	}
	return f.nmSolve(init)
}

func (f *Fitter) nmSolve(init []float64) FitResult {
	problem := optimize.Problem{Func: f.problem}
	res, err := optimize.Minimize(problem, init, &optimize.Settings{}, &optimize.NelderMead{})
	if err != nil && res == nil {
		log.Printf("Nelder-Mead fit failed: %v", err)
		return FitResult{Min: math.Inf(1), Status: ERROR, Method: NelderMead}
	}
	return f.fromOptimize(NelderMead, res)
}

func (f *Fitter) gradientSolve(name string, init []float64, method optimize.Method, withHessian bool) FitResult {
	grad := func(grad, x []float64) {
		fd.Gradient(grad, f.problem, x, &fd.Settings{Formula: fd.Central})
	}
	problem := optimize.Problem{
		Func: f.problem,
		Grad: grad,
	}
	if withHessian {
		problem.Hess = func(h *mat.SymDense, x []float64) {
			fd.Hessian(h, f.problem, x, nil)
		}
	}

	res, err := optimize.Minimize(problem, init, &optimize.Settings{}, method)
	if err != nil && res == nil {
		log.Printf("%s fit error: %v", name, err)
		return FitResult{Min: math.Inf(1), Status: ERROR, Method: name}
	}
	return f.fromOptimize(name, res)
}

func (f *Fitter) fromOptimize(method string, res *optimize.Result) FitResult {
	if math.IsNaN(res.F) || math.IsInf(res.F, 0) {
		return FitResult{Min: math.Inf(1), Status: ERROR, Method: method}
	}
	return FitResult{
		Factors:  res.X,
		Min:      res.F,
		MinUnit:  "MSE",
		Method:   method,
		Status:   OK,
		Iters:    res.MajorIterations,
		FuncEval: res.FuncEvaluations,
		Runtime:  res.Runtime.Seconds(),
	}
}

func (f *Fitter) lmSolve(init []float64) (out FitResult) {
	start := time.Now()
	evals := 0
	fnc := func(dst, x []float64) {
		evals++
		calculated, err := f.Response(x)
		for i := range dst {
			if err != nil {
				dst[i] = 1
				continue
			}
			dst[i] = f.residual(i, calculated[i])
		}
	}

	jac := lm.NumJac{Func: fnc}
	problem := lm.LMProblem{
		Dim:        len(init),
		Size:       len(f.Targets),
		Func:       fnc,
		Jac:        jac.Jac,
		InitParams: init,
		Tau:        1e-6,
		Eps1:       1e-10,
		Eps2:       1e-10,
	}

	// lm panics on singular normal equations
	defer func() {
		if r := recover(); r != nil {
			log.Printf("LM fit panicked: %v", r)
			out = FitResult{Min: math.Inf(1), Status: ERROR, Method: LevenbergMarq}
		}
	}()

	res, err := lm.LM(problem, &lm.Settings{Iterations: 1000, ObjectiveTol: 1e-16})
	if err != nil {
		log.Printf("LM fit failed: %v", err)
		return FitResult{Min: math.Inf(1), Status: ERROR, Method: LevenbergMarq}
	}

	return FitResult{
		Factors:  res.X,
		Min:      f.problem(res.X),
		MinUnit:  "MSE",
		Method:   LevenbergMarq,
		Status:   OK,
		FuncEval: evals,
		Runtime:  time.Since(start).Seconds(),
	}
}

// perturb restarts from the last solution, resetting negative factors to their
// initial value and nudging the rest by 10%.
func perturb(values, primary []float64) []float64 {
	if len(values) != len(primary) {
		return append([]float64(nil), primary...)
	}
	next := make([]float64, len(values))
	for i, v := range values {
		if v < 0 {
			v = primary[i]
		}
		next[i] = v * 1.1
	}
	return next
}

// Clone copies the fitter so concurrent runs do not share slices.
func (f *Fitter) Clone() *Fitter {
	c := *f
	c.Targets = append([]Target(nil), f.Targets...)
	c.InitValues = append([]float64(nil), f.InitValues...)
	return &c
}
