package index

import (
	"fmt"

	"curvetour/internal/mathutil"
)

// Flat is an exhaustive-scan index. It is exact and serves small point sets
// and as a reference for the tree.
type Flat struct {
	points [][]float64
	dim    int
}

// NewFlat indexes a copy of points.
func NewFlat(points [][]float64) (*Flat, error) {
	dim, err := validate(points)
	if err != nil {
		return nil, err
	}
	return &Flat{points: copyPoints(points), dim: dim}, nil
}

// Len returns the number of indexed points.
func (f *Flat) Len() int { return len(f.points) }

// Dim returns the point dimension.
func (f *Flat) Dim() int { return f.dim }

// Neighbors returns the k points nearest to point i, i included.
func (f *Flat) Neighbors(i, k int) ([]Neighbor, error) {
	if i < 0 || i >= len(f.points) {
		return nil, fmt.Errorf("%w: %d", ErrOutOfRange, i)
	}
	return f.Search(f.points[i], k)
}

// Search returns the k points nearest to query by scanning every point.
// k is clamped to Len.
func (f *Flat) Search(query []float64, k int) ([]Neighbor, error) {
	if len(query) != f.dim {
		return nil, fmt.Errorf("%w: query has %d values, want %d", ErrDimension, len(query), f.dim)
	}
	if k > len(f.points) {
		k = len(f.points)
	}
	if k <= 0 {
		return nil, nil
	}

	h := newBoundedHeap(k)
	for i, p := range f.points {
		h.offer(candidate{idx: i, dist: mathutil.SquaredEuclidean(query, p)})
	}
	return h.sorted(), nil
}
