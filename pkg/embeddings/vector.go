// Package embeddings provides vector math shared by the embedding providers and the in-process store.
package embeddings

import "math"

// MaxCosineDistance is returned for vectors that cannot be compared.
const MaxCosineDistance = 2.0

// NormalizeL2 scales vector in place to unit length. Zero vectors are left as is.
func NormalizeL2(vector []float32) {
	norm := magnitude(vector)
	if norm == 0 {
		return
	}

	for i := range vector {
		vector[i] = float32(float64(vector[i]) / norm)
	}
}

// CosineDistance returns 1 - cos(a, b), in [0, 2]. Vectors of different length, empty vectors
// and zero vectors are MaxCosineDistance apart.
func CosineDistance(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return MaxCosineDistance
	}

	na, nb := magnitude(a), magnitude(b)
	if na == 0 || nb == 0 {
		return MaxCosineDistance
	}

	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}

	// Rounding can push cos slightly past ±1.
	return 1 - max(-1, min(1, dot/(na*nb)))
}

func magnitude(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}

	return math.Sqrt(sum)
}
