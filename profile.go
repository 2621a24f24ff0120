package thinfilm

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
)

// ProfileMargin is the depth (nm) of superstrate and substrate drawn around the layers.
const ProfileMargin = 50.0

type LayerSpan struct {
	Label     string  `json:"label"`
	Top       float64 `json:"top"`
	Bottom    float64 `json:"bottom"`
	Thickness float64 `json:"thickness"`
	Index     float64 `json:"index"`
}

// IndexProfile is the real refractive index against depth measured from the
// superstrate interface. Depth and N are step-function vertices: segment k
// spans Depth[2k]..Depth[2k+1] at N[2k].
type IndexProfile struct {
	Depth  []float64   `json:"depth"`
	N      []float64   `json:"n"`
	Layers []LayerSpan `json:"layers"`
	Total  float64     `json:"total"`
	MinN   float64     `json:"min_n"`
	MaxN   float64     `json:"max_n"`
}

// Profile lays out a resolved stack from the superstrate down to the substrate.
// The last layer of the stack faces the superstrate, so it comes first:
// Layers runs C<n> ... C1, not in stack order. Reverse it for a
// substrate-first listing.
func Profile(s *Stack) IndexProfile {
	n := len(s.Thicknesses)
	prof := IndexProfile{
		Depth:  []float64{-ProfileMargin, 0},
		N:      []float64{s.Super, s.Super},
		Layers: make([]LayerSpan, 0, n),
	}

	depth := make([]float64, n)
	for k := 0; k < n; k++ {
		depth[k] = s.Thicknesses[n-1-k]
	}
	floats.CumSum(depth, depth)

	top := 0.0
	for k := 0; k < n; k++ {
		layer := n - 1 - k
		nr := real(s.Indices[layer])
		prof.Depth = append(prof.Depth, top, depth[k])
		prof.N = append(prof.N, nr, nr)
		prof.Layers = append(prof.Layers, LayerSpan{
			Label:     fmt.Sprintf("C%d", layer+1),
			Top:       top,
			Bottom:    depth[k],
			Thickness: s.Thicknesses[layer],
			Index:     nr,
		})
		top = depth[k]
	}

	prof.Total = top
	nSub := real(s.Substrate)
	prof.Depth = append(prof.Depth, top, top+ProfileMargin)
	prof.N = append(prof.N, nSub, nSub)
	prof.MinN = floats.Min(prof.N)
	prof.MaxN = floats.Max(prof.N)
	return prof
}
