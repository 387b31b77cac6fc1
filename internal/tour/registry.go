package tour

import (
	"errors"
	"sync"
	"time"

	"curvetour/internal/dataset"
	"curvetour/internal/index"
	"curvetour/internal/logger"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

// ErrUnknownSession is returned for a session id that was never opened,
// was closed or expired.
var ErrUnknownSession = errors.New("tour: unknown session")

type session struct {
	mu   sync.Mutex
	tour *Tour
}

// Registry hands out one Tour per session over a shared index and dataset.
// Each session is serialised by its own lock; different sessions proceed in
// parallel. Sessions idle for longer than the configured timeout are dropped.
type Registry struct {
	idx      index.Index
	ds       *dataset.Dataset
	sessions *cache.Cache
}

// NewRegistry creates a registry. idleTimeout <= 0 keeps sessions until Close.
func NewRegistry(idx index.Index, ds *dataset.Dataset, idleTimeout time.Duration) (*Registry, error) {
	if idx.Len() != ds.Len() {
		return nil, ErrMismatch
	}

	expiration, cleanup := cache.NoExpiration, time.Duration(0)
	if idleTimeout > 0 {
		expiration, cleanup = idleTimeout, idleTimeout/2
	}
	sessions := cache.New(expiration, cleanup)
	sessions.OnEvicted(func(id string, _ interface{}) {
		logger.Debug("tour session ended", "session", id)
	})

	return &Registry{idx: idx, ds: ds, sessions: sessions}, nil
}

// Open starts a new session at seed and returns its id and first curve.
func (r *Registry) Open(seed int) (string, dataset.Result, error) {
	t, res, err := Start(r.idx, r.ds, seed)
	if err != nil {
		return "", dataset.Result{}, err
	}

	id := uuid.NewString()
	r.sessions.Set(id, &session{tour: t}, cache.DefaultExpiration)
	logger.Debug("tour session opened", "session", id, "seed", seed)
	return id, res, nil
}

// Next advances the session's walk.
func (r *Registry) Next(id string) (dataset.Result, error) {
	s, err := r.get(id)
	if err != nil {
		return dataset.Result{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	defer r.touch(id, s)
	return s.tour.Next()
}

// Restart begins a fresh walk at seed inside an existing session.
func (r *Registry) Restart(id string, seed int) (dataset.Result, error) {
	s, err := r.get(id)
	if err != nil {
		return dataset.Result{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	defer r.touch(id, s)
	return s.tour.Start(seed)
}

// State returns the session's walk state.
func (r *Registry) State(id string) (State, error) {
	s, err := r.get(id)
	if err != nil {
		return State{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tour.State(), nil
}

// Close ends a session. Closing an unknown session is a no-op.
func (r *Registry) Close(id string) {
	r.sessions.Delete(id)
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	return r.sessions.ItemCount()
}

func (r *Registry) get(id string) (*session, error) {
	v, ok := r.sessions.Get(id)
	if !ok {
		return nil, ErrUnknownSession
	}
	return v.(*session), nil
}

// touch renews the idle timeout without resurrecting a closed session.
func (r *Registry) touch(id string, s *session) {
	_ = r.sessions.Replace(id, s, cache.DefaultExpiration)
}
