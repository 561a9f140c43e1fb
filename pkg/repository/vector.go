package repository

import "math"

// cosineDistance calculates cosine distance (1 - cosine similarity).
// Mismatched or zero-norm vectors yield the maximum distance so they sort
// after every real match.
func cosineDistance(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 2
	}

	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 2
	}

	return 1 - dotProduct/(math.Sqrt(normA)*math.Sqrt(normB))
}
