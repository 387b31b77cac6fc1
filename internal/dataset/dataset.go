// Package dataset holds the normalised light-curve collection: parallel
// sequences of file identifiers, raw curves, folded curves and regressed
// vectors that share index positions for their whole lifetime.
package dataset

import (
	"errors"
	"fmt"

	"curvetour/internal/curve"
	"curvetour/internal/index"
)

var (
	// ErrEmpty is returned when no curve survives loading.
	ErrEmpty = errors.New("dataset: no usable curves")

	// ErrIndexOutOfRange is returned for a curve position outside [0, Len).
	ErrIndexOutOfRange = errors.New("dataset: index out of range")

	// ErrInconsistent is returned when the parallel sequences disagree.
	ErrInconsistent = errors.New("dataset: inconsistent sequences")
)

// Dataset is write-once: nothing mutates it after New or Load returns.
type Dataset struct {
	files       []string
	raw         []curve.Raw
	folded      []curve.Folded
	vectors     [][]float64
	resolution  int
	stats       LoadStats
	fingerprint string
}

// Result is the aggregate handed to presentation layers for one curve.
type Result struct {
	Index  int
	File   string
	Raw    curve.Raw
	Folded curve.Folded
	Vector curve.Vector
}

// New assembles a dataset from parallel sequences. All sequences must have
// the same non-zero length and every vector the same length.
func New(files []string, raw []curve.Raw, folded []curve.Folded, vectors []curve.Vector) (*Dataset, error) {
	n := len(files)
	if n == 0 {
		return nil, ErrEmpty
	}
	if len(raw) != n || len(folded) != n || len(vectors) != n {
		return nil, fmt.Errorf("%w: files=%d raw=%d folded=%d vectors=%d",
			ErrInconsistent, n, len(raw), len(folded), len(vectors))
	}

	resolution := len(vectors[0])
	matrix := make([][]float64, n)
	for i, v := range vectors {
		if len(v) != resolution || resolution == 0 {
			return nil, fmt.Errorf("%w: vector %d has %d values, want %d",
				ErrInconsistent, i, len(v), resolution)
		}
		matrix[i] = append([]float64(nil), v...)
	}

	return &Dataset{
		files:      append([]string(nil), files...),
		raw:        append([]curve.Raw(nil), raw...),
		folded:     append([]curve.Folded(nil), folded...),
		vectors:    matrix,
		resolution: resolution,
		stats:      LoadStats{Selected: n, Loaded: n},
	}, nil
}

// Len returns the number of curves.
func (d *Dataset) Len() int { return len(d.files) }

// Resolution returns the regressed vector length.
func (d *Dataset) Resolution() int { return d.resolution }

// Fingerprint returns Options.Fingerprint of the settings the dataset was
// loaded with, or "" for datasets assembled with New.
func (d *Dataset) Fingerprint() string { return d.fingerprint }

// Stats describes how the dataset was loaded.
func (d *Dataset) Stats() LoadStats { return d.stats }

// Files returns a copy of the file identifiers in index order.
func (d *Dataset) Files() []string { return append([]string(nil), d.files...) }

// Matrix returns the N x R regressed matrix. Callers must not modify it.
func (d *Dataset) Matrix() [][]float64 { return d.vectors }

// Result returns the curve at position i.
func (d *Dataset) Result(i int) (Result, error) {
	if i < 0 || i >= len(d.files) {
		return Result{}, fmt.Errorf("%w: %d not in [0, %d)", ErrIndexOutOfRange, i, len(d.files))
	}
	return Result{
		Index:  i,
		File:   d.files[i],
		Raw:    d.raw[i],
		Folded: d.folded[i],
		Vector: curve.Vector(d.vectors[i]),
	}, nil
}

// BuildIndex builds the similarity index over the regressed matrix.
func BuildIndex(d *Dataset, cfg index.Config) (index.Index, error) {
	idx, err := index.New(d.vectors, cfg)
	if err != nil {
		return nil, fmt.Errorf("dataset: build index: %w", err)
	}
	return idx, nil
}
