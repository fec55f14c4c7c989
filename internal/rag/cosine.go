package rag

import (
	"errors"
	"fmt"
	"math"
)

// ErrDimensionMismatch means two vectors of different length were compared.
// It indicates corrupted records, not bad user input.
var ErrDimensionMismatch = errors.New("vector dimension mismatch")

// CosineSimilarity returns dot(a,b) / (|a|*|b|), clamped to [-1,1].
// It is 0 when either vector has zero magnitude.
func CosineSimilarity(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: %d vs %d", ErrDimensionMismatch, len(a), len(b))
	}

	var dot, normA, normB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}

	if normA == 0 || normB == 0 {
		return 0, nil
	}

	sim := dot / math.Sqrt(normA*normB)
	if sim > 1 {
		return 1, nil
	}
	if sim < -1 {
		return -1, nil
	}
	return sim, nil
}
