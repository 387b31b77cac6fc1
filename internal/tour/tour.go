// Package tour walks a dataset in order of shape similarity: from the current
// curve it always moves to the nearest curve not yet visited in this walk.
//
// A Tour is owned by a single caller and is not safe for concurrent use; run
// one Tour per session (see Registry).
package tour

import (
	"errors"
	"fmt"

	"curvetour/internal/dataset"
	"curvetour/internal/index"
)

var (
	// ErrExhausted is returned by Next once every curve has been visited.
	// It ends a walk; call Start to begin another.
	ErrExhausted = errors.New("tour: exhausted")

	// ErrNotStarted is returned by Next before the first Start.
	ErrNotStarted = errors.New("tour: not started")

	// ErrIndexOutOfRange is returned for a seed outside the dataset.
	ErrIndexOutOfRange = dataset.ErrIndexOutOfRange

	// ErrMismatch is returned when the index and dataset sizes differ.
	ErrMismatch = errors.New("tour: index does not match dataset")
)

// Phase is the walk lifecycle state.
type Phase string

const (
	PhaseIdle      Phase = "idle"
	PhaseStarted   Phase = "started"
	PhaseAdvancing Phase = "advancing"
	PhaseExhausted Phase = "exhausted"
)

// initialFanout is the first neighbour count requested per step. It doubles
// until an unvisited curve shows up or the whole dataset has been ranked.
const initialFanout = 16

// State is a read-only view of a walk.
type State struct {
	Phase   Phase `json:"phase"`
	Current int   `json:"current"`
	Visited []int `json:"visited"` // in visit order
}

// Tour is the traversal state for one walk plus read-only handles on the
// index and dataset it walks.
type Tour struct {
	idx index.Index
	ds  *dataset.Dataset

	phase   Phase
	current int
	visited map[int]struct{}
	order   []int
}

// New returns an idle tour over ds.
func New(idx index.Index, ds *dataset.Dataset) (*Tour, error) {
	if idx.Len() != ds.Len() {
		return nil, fmt.Errorf("%w: index has %d points, dataset %d curves", ErrMismatch, idx.Len(), ds.Len())
	}
	return &Tour{idx: idx, ds: ds, phase: PhaseIdle, current: -1}, nil
}

// Start creates a tour and starts it at seed.
func Start(idx index.Index, ds *dataset.Dataset, seed int) (*Tour, dataset.Result, error) {
	t, err := New(idx, ds)
	if err != nil {
		return nil, dataset.Result{}, err
	}
	res, err := t.Start(seed)
	if err != nil {
		return nil, dataset.Result{}, err
	}
	return t, res, nil
}

// Start discards any previous walk and begins a new one at seed.
func (t *Tour) Start(seed int) (dataset.Result, error) {
	res, err := t.ds.Result(seed)
	if err != nil {
		return dataset.Result{}, err
	}

	t.visited = map[int]struct{}{seed: {}}
	t.order = []int{seed}
	t.current = seed
	t.phase = PhaseStarted
	return res, nil
}

// Next moves to the nearest unvisited curve, measured from the current curve.
func (t *Tour) Next() (dataset.Result, error) {
	switch t.phase {
	case PhaseIdle:
		return dataset.Result{}, ErrNotStarted
	case PhaseExhausted:
		return dataset.Result{}, ErrExhausted
	}

	next, err := t.nearestUnvisited()
	if err != nil {
		return dataset.Result{}, err
	}
	if next < 0 {
		t.phase = PhaseExhausted
		return dataset.Result{}, ErrExhausted
	}

	res, err := t.ds.Result(next)
	if err != nil {
		return dataset.Result{}, err
	}
	t.visited[next] = struct{}{}
	t.order = append(t.order, next)
	t.current = next
	t.phase = PhaseAdvancing
	return res, nil
}

// nearestUnvisited returns -1 when every curve has been visited. The index
// ranks ties by ascending position, so each top-k is a prefix of the full
// ranking and growing k never reorders candidates already scanned.
func (t *Tour) nearestUnvisited() (int, error) {
	n := t.idx.Len()
	if len(t.visited) >= n {
		return -1, nil
	}

	scanned := 0
	k := min(initialFanout, n)
	for {
		ranked, err := t.idx.Neighbors(t.current, k)
		if err != nil {
			return -1, fmt.Errorf("tour: query neighbours of %d: %w", t.current, err)
		}
		for _, nb := range ranked[scanned:] {
			if _, seen := t.visited[nb.Index]; !seen {
				return nb.Index, nil
			}
		}
		if k >= n {
			return -1, nil
		}
		scanned = len(ranked)
		k = min(2*k, n)
	}
}

// State returns a snapshot of the walk.
func (t *Tour) State() State {
	return State{
		Phase:   t.phase,
		Current: t.current,
		Visited: append([]int(nil), t.order...),
	}
}

// Visited returns how many curves this walk has returned.
func (t *Tour) Visited() int { return len(t.order) }
