// Package distance implements the vector similarity kernels used by
// the HNSW graph. Every kernel returns a
// score where SMALLER is closer, so cosine and dot-product results are
// expressed as 1-minus-similarity and negated-dot respectively.
package distance

import (
	"math"

	vecerr "github.com/rdmurugan/d-vecDB/pkg/errors"
)

// Kind identifies which kernel a collection was created with. The
// kernel a collection uses is fixed at creation time and stored in its
// manifest; callers must not mix kernels within a single collection.
type Kind string

const (
	Cosine    Kind = "cosine"
	Euclidean Kind = "euclidean"
	Dot       Kind = "dot"
	Manhattan Kind = "manhattan"
)

// Func computes the distance between two vectors of equal length.
type Func func(a, b []float32) (float32, error)

// For resolves a Kind to its kernel, defaulting to Cosine for an empty
// or unrecognized value so callers with a zero-value manifest field
// still get a usable kernel.
func For(kind Kind) Func {
	switch kind {
	case Euclidean:
		return EuclideanDistance
	case Dot:
		return DotDistance
	case Manhattan:
		return ManhattanDistance
	default:
		return CosineDistance
	}
}

func checkDims(op string, a, b []float32) error {
	if len(a) != len(b) {
		return vecerr.New(vecerr.KindDimensionMismatch, op,
			"vector dimensions do not match")
	}
	return nil
}

// CosineDistance returns 1 - cos(a, b). A zero-norm vector is treated
// as maximally distant (1.0) from everything rather than producing NaN.
func CosineDistance(a, b []float32) (float32, error) {
	if err := checkDims("distance.cosine", a, b); err != nil {
		return 0, err
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 1.0, nil
	}
	return float32(1 - dot/(math.Sqrt(normA)*math.Sqrt(normB))), nil
}

// EuclideanDistance returns the L2 distance between a and b.
func EuclideanDistance(a, b []float32) (float32, error) {
	if err := checkDims("distance.euclidean", a, b); err != nil {
		return 0, err
	}
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return float32(math.Sqrt(sum)), nil
}

// DotDistance returns the negated dot product so that, consistent with
// the other kernels, a smaller value means "closer".
func DotDistance(a, b []float32) (float32, error) {
	if err := checkDims("distance.dot", a, b); err != nil {
		return 0, err
	}
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	return float32(-dot), nil
}

// ManhattanDistance returns the L1 distance between a and b.
func ManhattanDistance(a, b []float32) (float32, error) {
	if err := checkDims("distance.manhattan", a, b); err != nil {
		return 0, err
	}
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		if d < 0 {
			d = -d
		}
		sum += d
	}
	return float32(sum), nil
}
