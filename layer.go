package thinfilm

import (
	"fmt"
	"math"
	"math/cmplx"
	"strings"
)

type Polarization int

const (
	S Polarization = iota
	P
)

func (p Polarization) String() string {
	if p == P {
		return "p"
	}
	return "s"
}

func ParsePolarization(s string) (Polarization, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "s", "te":
		return S, nil
	case "p", "tm":
		return P, nil
	}
	return S, fmt.Errorf("unknown polarization %q", s)
}

// Matrix2 is a 2x2 complex characteristic matrix, row-major.
type Matrix2 [2][2]complex128

func Identity() Matrix2 {
	return Matrix2{{1, 0}, {0, 1}}
}

// Mul returns m·o.
func (m Matrix2) Mul(o Matrix2) Matrix2 {
	return Matrix2{
		{m[0][0]*o[0][0] + m[0][1]*o[1][0], m[0][0]*o[0][1] + m[0][1]*o[1][1]},
		{m[1][0]*o[0][0] + m[1][1]*o[1][0], m[1][0]*o[0][1] + m[1][1]*o[1][1]},
	}
}

func (m Matrix2) Det() complex128 {
	return m[0][0]*m[1][1] - m[0][1]*m[1][0]
}

func degenerate(z complex128) bool {
	return z == 0 || cmplx.IsInf(z) || cmplx.IsNaN(z)
}

// Admittance returns the tilted optical admittance of a medium of index n for the
// Snell invariant alpha, together with the normal wavevector factor
// gamma = sqrt(n² - alpha²). The principal root keeps Re(gamma) >= 0 so that an
// evanescent layer decays instead of growing.
func Admittance(pol Polarization, n complex128, alpha float64) (eta, gamma complex128) {
	a := complex(alpha, 0)
	gamma = cmplx.Sqrt(n*n - a*a)
	if pol == S {
		return gamma, gamma
	}
	if gamma == 0 {
		return cmplx.Inf(), gamma
	}
	return n * n / gamma, gamma
}

// LayerMatrix builds the characteristic matrix of one homogeneous layer of index n
// and physical thickness d (nm) at wavelength lambda (nm).
func LayerMatrix(pol Polarization, alpha float64, n complex128, d, lambda float64) Matrix2 {
	eta, gamma := Admittance(pol, n, alpha)
	if degenerate(eta) {
		return Identity()
	}
	phi := complex(2*math.Pi/lambda*d, 0) * gamma
	c, s := cmplx.Cos(phi), cmplx.Sin(phi)
	return Matrix2{
		{c, complex(0, 1) / eta * s},
		{complex(0, 1) * eta * s, c},
	}
}
