// Package storage persists computed datasets and index snapshots so a tour
// can start without re-normalising every curve file.
package storage

import (
	"context"
	"errors"

	"curvetour/internal/curve"
)

// ErrNoSnapshot is returned by Load when nothing has been saved.
var ErrNoSnapshot = errors.New("storage: no snapshot")

// Curve is one stored dataset row.
type Curve struct {
	File   string
	Raw    curve.Raw
	Folded curve.Folded
	Vector curve.Vector
}

// Snapshot is a complete dataset in index order.
type Snapshot struct {
	Root       string
	Resolution int

	// Fingerprint identifies the load settings the curves were computed with.
	Fingerprint string

	Curves []Curve
}

// Storage persists dataset snapshots and the index graph.
type Storage interface {
	// Save replaces any stored snapshot.
	Save(ctx context.Context, snap *Snapshot) error
	Load(ctx context.Context) (*Snapshot, error)

	// Index snapshot operations
	SaveIndex(ctx context.Context, data []byte) error
	LoadIndex(ctx context.Context) ([]byte, error)

	// Lifecycle
	Close() error
}
