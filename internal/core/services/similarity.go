package services

import "math"

// similarityEpsilon keeps cosine similarity defined for zero vectors.
const similarityEpsilon = 1e-8

// CosineSimilarity returns a·b / (|a||b| + ε). Vectors of different length
// score 0.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	return dot / (math.Sqrt(na)*math.Sqrt(nb) + similarityEpsilon)
}
