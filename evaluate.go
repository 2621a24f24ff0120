package thinfilm

import (
	"math"
	"math/cmplx"
)

// MaxIntensity is the clip ceiling for R and T. It sits slightly above 1 so
// numerical overshoot stays visible instead of being hidden by a hard clip.
const MaxIntensity = 1.001

// Stack is a resolved multilayer: indices and thicknesses co-indexed. Layer 0
// sits on the substrate and the last layer faces the superstrate.
type Stack struct {
	Indices     []complex128
	Thicknesses []float64
	Super       float64
	Substrate   complex128
}

// NewStack pairs resolved thicknesses with the alternating H/L materials.
func NewStack(thicknesses []float64, nH, nL complex128, nSuper float64, nSub complex128) *Stack {
	indices := make([]complex128, len(thicknesses))
	for i := range indices {
		indices[i] = LayerIndex(i, nH, nL)
	}
	return &Stack{
		Indices:     indices,
		Thicknesses: thicknesses,
		Super:       nSuper,
		Substrate:   nSub,
	}
}

// Matrix multiplies the layer matrices, each new layer on the left.
func (s *Stack) Matrix(pol Polarization, alpha, lambda float64) Matrix2 {
	m := Identity()
	for i, n := range s.Indices {
		m = LayerMatrix(pol, alpha, n, s.Thicknesses[i], lambda).Mul(m)
	}
	return m
}

// Amplitudes returns the complex reflection and transmission coefficients of the
// stack on a semi-infinite substrate, plus the boundary admittances used.
// A degenerate denominator gives r = Inf and t = 0.
func (s *Stack) Amplitudes(pol Polarization, alpha, lambda float64) (r, t, etaSuper, etaSub complex128) {
	m := s.Matrix(pol, alpha, lambda)
	etaSuper, _ = Admittance(pol, complex(s.Super, 0), alpha)
	etaSub, _ = Admittance(pol, s.Substrate, alpha)

	m00, m01 := m[0][0], m[0][1]
	m10, m11 := m[1][0], m[1][1]

	den := etaSuper*m00 + etaSub*m11 + etaSuper*etaSub*m01 + m10
	if degenerate(den) {
		return cmplx.Inf(), 0, etaSuper, etaSub
	}
	r = (etaSuper*m00 - etaSub*m11 + etaSuper*etaSub*m01 - m10) / den
	t = 2 * etaSuper / den
	return r, t, etaSuper, etaSub
}

// Intensities returns R and T for one polarization, wavelength and Snell
// invariant, optionally corrected for a finite incoherent substrate.
func (s *Stack) Intensities(pol Polarization, alpha, lambda float64, finite bool) (float64, float64) {
	r, t, etaSuper, etaSub := s.Amplitudes(pol, alpha, lambda)

	rInf := 1.0
	if !cmplx.IsInf(r) && !cmplx.IsNaN(r) {
		rInf = sq(cmplx.Abs(r))
	}

	tInf := 0.0
	if real(etaSuper) != 0 && !cmplx.IsInf(etaSuper) && !cmplx.IsNaN(etaSuper) && !cmplx.IsInf(t) && !cmplx.IsNaN(t) {
		tInf = real(etaSub) / real(etaSuper) * sq(cmplx.Abs(t))
	}

	rv, tv := rInf, tInf
	if finite {
		rv, tv = FiniteSubstrate(rInf, tInf, etaSuper, etaSub)
	}
	return clip(rv), clip(tv)
}

// FiniteSubstrate adds the incoherent back-face contribution of a thick
// substrate to the semi-infinite result:
//
//	R = R∞ + T∞²·Rb / (1 - R∞·Rb)
//	T = T∞·(1 - Rb) / (1 - R∞·Rb)
//
// Rb is the substrate/superstrate reflectivity of the back face. This is an
// intensity sum over back-and-forth passes, not a coherent solution; it also
// takes the film's backward response to equal its forward response, which only
// holds for lossless films and degrades as the layers absorb.
func FiniteSubstrate(rInf, tInf float64, etaSuper, etaSub complex128) (float64, float64) {
	rb := 1.0
	if sum := etaSub + etaSuper; !degenerate(sum) {
		rb = sq(cmplx.Abs((etaSub - etaSuper) / sum))
	}
	den := 1 - rInf*rb
	if den == 0 || math.IsInf(den, 0) || math.IsNaN(den) {
		return rInf, tInf
	}
	return rInf + tInf*tInf*rb/den, tInf * (1 - rb) / den
}

func sq(x float64) float64 { return x * x }

func clip(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Min(math.Max(v, 0), MaxIntensity)
}
