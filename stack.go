package thinfilm

import (
	"math"
)

// Index builds the complex refractive index n - i·k used throughout the package.
func Index(n, k float64) complex128 {
	return complex(n, -k)
}

// LayerIndex returns the material of layer i: H on even positions, L on odd ones.
func LayerIndex(i int, nH, nL complex128) complex128 {
	if i%2 == 0 {
		return nH
	}
	return nL
}

// isClose mirrors numpy.isclose with its default tolerances.
func isClose(a, b float64) bool {
	return math.Abs(a-b) <= 1e-8+1e-5*math.Abs(b)
}

// Resolve converts QWOT factors into physical thicknesses (nm) for a stack
// designed at lambda0 under theta0Deg of incidence in the superstrate.
// The thicknesses are geometry: they are computed once and reused for every
// wavelength and angle of a sweep.
func Resolve(factors []float64, nH, nL complex128, nSuper, lambda0, theta0Deg float64) ([]float64, error) {
	thicknesses := make([]float64, 0, len(factors))
	alpha := nSuper * math.Sin(theta0Deg*math.Pi/180)

	for i, f := range factors {
		nr := real(LayerIndex(i, nH, nL))
		if nr <= 0 {
			return nil, &LayerError{Layer: i + 1, Err: ErrInvalidMaterial}
		}

		if math.Abs(alpha) > nr && !isClose(math.Abs(alpha), nr) {
			return nil, &LayerError{Layer: i + 1, Err: ErrDesignAngleInfeasible}
		}

		ratio := alpha / nr
		cosTheta := math.Sqrt(math.Max(0, 1-ratio*ratio))

		var d float64
		if isClose(cosTheta, 0) {
			if f != 0 {
				return nil, &LayerError{Layer: i + 1, Err: ErrCriticalAngleAtDesign}
			}
		} else {
			d = f * lambda0 / (4 * nr * cosTheta)
		}
		thicknesses = append(thicknesses, d)
	}
	return thicknesses, nil
}
