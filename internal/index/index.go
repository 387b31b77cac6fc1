// Package index answers k-nearest-neighbour queries over a fixed set of
// equal-length vectors by Euclidean distance.
//
// Results are ordered nearest first. Points at the same distance are ordered
// by ascending point index, so a query over an unchanged point set always
// returns the same ranking and the top k is always a prefix of the top k+1.
package index

import (
	"errors"
	"fmt"
)

var (
	// ErrEmpty is returned when building over zero points.
	ErrEmpty = errors.New("index: no points")

	// ErrDimension is returned for ragged input or a query of the wrong length.
	ErrDimension = errors.New("index: dimension mismatch")

	// ErrOutOfRange is returned for a point index outside [0, Len).
	ErrOutOfRange = errors.New("index: point index out of range")
)

// Kind names an index implementation.
type Kind string

const (
	KindKDTree Kind = "kdtree"
	KindFlat   Kind = "flat"
)

// Neighbor is one query result.
type Neighbor struct {
	Index    int
	Distance float64
}

// Index provides nearest neighbour search over an immutable point set.
type Index interface {
	// Len is the number of indexed points.
	Len() int
	// Dim is the length of every point.
	Dim() int
	// Search returns the k points nearest to query.
	Search(query []float64, k int) ([]Neighbor, error)
	// Neighbors returns the k points nearest to point i, i itself included.
	Neighbors(i, k int) ([]Neighbor, error)
}

// Config selects and tunes an index.
type Config struct {
	Kind     Kind // default KindKDTree
	LeafSize int  // max points per k-d tree leaf (default 16)
}

func (c *Config) withDefaults() Config {
	cfg := *c
	if cfg.Kind == "" {
		cfg.Kind = KindKDTree
	}
	if cfg.LeafSize <= 0 {
		cfg.LeafSize = 16
	}
	return cfg
}

// New builds the index selected by cfg over points.
func New(points [][]float64, cfg Config) (Index, error) {
	cfg = cfg.withDefaults()
	switch cfg.Kind {
	case KindKDTree:
		return Build(points, cfg)
	case KindFlat:
		return NewFlat(points)
	default:
		return nil, fmt.Errorf("index: unknown kind %q", cfg.Kind)
	}
}

// validate checks points are non-empty and rectangular and returns their dimension.
func validate(points [][]float64) (int, error) {
	if len(points) == 0 {
		return 0, ErrEmpty
	}
	dim := len(points[0])
	if dim == 0 {
		return 0, fmt.Errorf("%w: zero-length point", ErrDimension)
	}
	for i, p := range points {
		if len(p) != dim {
			return 0, fmt.Errorf("%w: point %d has %d values, want %d", ErrDimension, i, len(p), dim)
		}
	}
	return dim, nil
}

func copyPoints(points [][]float64) [][]float64 {
	out := make([][]float64, len(points))
	for i, p := range points {
		out[i] = append([]float64(nil), p...)
	}
	return out
}
