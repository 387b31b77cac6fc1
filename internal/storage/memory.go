package storage

import (
	"context"
	"sync"

	"curvetour/internal/curve"
)

// Memory is an in-memory storage implementation.
type Memory struct {
	snap  *Snapshot
	index []byte
	mu    sync.RWMutex
}

// NewMemory creates a new in-memory storage.
func NewMemory() *Memory {
	return &Memory{}
}

// Save stores a deep copy of snap.
func (m *Memory) Save(ctx context.Context, snap *Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snap = cloneSnapshot(snap)
	m.index = nil
	return nil
}

// Load returns a copy of the stored snapshot.
func (m *Memory) Load(ctx context.Context) (*Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.snap == nil {
		return nil, ErrNoSnapshot
	}
	return cloneSnapshot(m.snap), nil
}

// SaveIndex stores the index snapshot.
func (m *Memory) SaveIndex(ctx context.Context, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.index = append([]byte(nil), data...)
	return nil
}

// LoadIndex returns the stored index snapshot, or nil if there is none.
func (m *Memory) LoadIndex(ctx context.Context) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.index == nil {
		return nil, nil
	}
	return append([]byte(nil), m.index...), nil
}

// Close is a no-op for memory storage.
func (m *Memory) Close() error {
	return nil
}

func cloneSnapshot(s *Snapshot) *Snapshot {
	if s == nil {
		return nil
	}
	out := &Snapshot{
		Root:        s.Root,
		Resolution:  s.Resolution,
		Fingerprint: s.Fingerprint,
		Curves:      make([]Curve, len(s.Curves)),
	}
	for i, c := range s.Curves {
		out.Curves[i] = Curve{
			File:   c.File,
			Raw:    append(c.Raw[:0:0], c.Raw...),
			Folded: curve.Folded{
				Period:  c.Folded.Period,
				Samples: append(c.Folded.Samples[:0:0], c.Folded.Samples...),
			},
			Vector: append(c.Vector[:0:0], c.Vector...),
		}
	}
	return out
}
