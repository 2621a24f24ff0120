package thinfilm

import (
	"fmt"
	"math"
)

// Grid is an inclusive sweep range sampled every Step.
type Grid struct {
	Start float64 `json:"start" yaml:"start"`
	Stop  float64 `json:"stop" yaml:"stop"`
	Step  float64 `json:"step" yaml:"step"`
}

// MaxSamples bounds the number of points of one grid.
const MaxSamples = 1 << 20

// Valid reports whether the grid is ordered and holds at most MaxSamples points.
func (g Grid) Valid() bool {
	return g.ordered() && g.count() <= MaxSamples
}

func (g Grid) ordered() bool {
	return g.Start < g.Stop && g.Step > 0 && !math.IsInf(g.Step, 0) && !math.IsNaN(g.Start+g.Stop)
}

// count is the sample count in float64 so huge ranges cannot overflow int.
func (g Grid) count() float64 {
	return math.Ceil((g.Stop + g.Step - g.Start) / g.Step)
}

// oversized reports an ordered grid with too many samples.
func (g Grid) oversized() bool {
	return g.ordered() && !g.Valid()
}

// Len is the number of samples produced by Points.
func (g Grid) Len() int {
	if !g.Valid() {
		return 0
	}
	return int(g.count())
}

// Points samples start, start+step, ... while the index stays below
// ceil((stop+step-start)/step). The last sample can overshoot Stop when
// Step does not divide the range: 0..1 by 0.3 ends at 1.2.
func (g Grid) Points() []float64 {
	n := g.Len()
	points := make([]float64, n)
	for i := range points {
		points[i] = g.Start + float64(i)*g.Step
	}
	return points
}

func (g Grid) validate(name string) error {
	if g.oversized() {
		return fmt.Errorf("%s [%g, %g] step %g: more than %d samples: %w", name, g.Start, g.Stop, g.Step, MaxSamples, ErrInvalidRange)
	}
	if !g.Valid() {
		return fmt.Errorf("%s [%g, %g] step %g: %w", name, g.Start, g.Stop, g.Step, ErrInvalidRange)
	}
	return nil
}
