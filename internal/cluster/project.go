package cluster

import (
	"math"
	"math/rand/v2"
)

// normalize returns unit-length copies of the vectors. Zero vectors are kept as is.
func normalize(vectors [][]float64) [][]float64 {
	out := make([][]float64, len(vectors))
	for i, v := range vectors {
		var sum float64
		for _, x := range v {
			sum += x * x
		}
		norm := math.Sqrt(sum)
		u := make([]float64, len(v))
		for k, x := range v {
			if norm > 0 {
				u[k] = x / norm
			} else {
				u[k] = x
			}
		}
		out[i] = u
	}
	return out
}

// project applies a Gaussian random projection to dims dimensions. The
// projection matrix depends only on the input dimension, dims and seed.
func project(vectors [][]float64, dims int, seed uint64) [][]float64 {
	if len(vectors) == 0 {
		return vectors
	}
	in := len(vectors[0])

	rng := rand.New(rand.NewPCG(seed, seed))
	scale := 1 / math.Sqrt(float64(dims))
	matrix := make([][]float64, dims)
	for r := range matrix {
		row := make([]float64, in)
		for k := range row {
			row[k] = rng.NormFloat64() * scale
		}
		matrix[r] = row
	}

	out := make([][]float64, len(vectors))
	for i, v := range vectors {
		p := make([]float64, dims)
		for r, row := range matrix {
			var s float64
			for k, x := range v {
				s += row[k] * x
			}
			p[r] = s
		}
		out[i] = p
	}
	return out
}
