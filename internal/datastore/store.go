package datastore

import (
	"context"
	"errors"
	"sync"
	"time"

	"smartmob-dashboard/internal/backend"
	"smartmob-dashboard/internal/logger"
	"smartmob-dashboard/internal/notify"
)

var ErrBusy = errors.New("operazione già in corso, attendere")

// Loader fetches the whole collection from the backend.
type Loader[T any] func(ctx context.Context) ([]T, error)

type Options struct {
	Bus    *notify.Bus
	Logger *logger.Logger
	// MaxAge makes Records refetch when the cached list is older. Zero means
	// the list is only refetched explicitly.
	MaxAge time.Duration
}

type Snapshot[T any] struct {
	Records  []T       `json:"records"`
	Loading  bool      `json:"loading"`
	Error    string    `json:"error,omitempty"`
	Loaded   bool      `json:"loaded"`
	LoadedAt time.Time `json:"loaded_at"`
}

// Store caches one entity list. It loads on first use, refetches exactly once
// after each successful mutation and leaves the list untouched when a
// mutation fails.
type Store[T any] struct {
	name   string
	load   Loader[T]
	bus    *notify.Bus
	log    *logger.Logger
	maxAge time.Duration
	now    func() time.Time

	mu       sync.Mutex
	records  []T
	loading  bool
	err      error
	loaded   bool
	loadedAt time.Time
	seq      uint64
	fetches  int
	inflight map[string]struct{}
}

func New[T any](name string, load Loader[T], opts Options) *Store[T] {
	log := opts.Logger
	if log == nil {
		log = logger.Discard()
	}
	return &Store[T]{
		name:     name,
		load:     load,
		bus:      opts.Bus,
		log:      log,
		maxAge:   opts.MaxAge,
		now:      time.Now,
		records:  []T{},
		inflight: map[string]struct{}{},
	}
}

// Records returns the cached list, loading it first when it was never loaded
// or is older than MaxAge. An error is returned only when no list was ever
// loaded; later failures keep serving the previous list.
func (s *Store[T]) Records(ctx context.Context) ([]T, error) {
	s.mu.Lock()
	stale := !s.loaded || (s.maxAge > 0 && s.now().Sub(s.loadedAt) > s.maxAge)
	s.mu.Unlock()

	if stale {
		if err := s.Refresh(ctx); err != nil {
			s.mu.Lock()
			loaded := s.loaded
			s.mu.Unlock()
			if !loaded {
				return []T{}, err
			}
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]T{}, s.records...), nil
}

// Refresh refetches the list. When fetches overlap, the last one issued wins.
func (s *Store[T]) Refresh(ctx context.Context) error {
	s.mu.Lock()
	s.seq++
	mine := s.seq
	s.loading = true
	s.fetches++
	s.mu.Unlock()

	recs, err := s.load(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if mine != s.seq {
		return err
	}
	s.loading = false
	if err != nil {
		s.err = err
		s.log.Warning("%s: fetch failed: %v", s.name, err)
		return err
	}
	if recs == nil {
		recs = []T{}
	}
	s.records = recs
	s.err = nil
	s.loaded = true
	s.loadedAt = s.now()
	return nil
}

// Invalidate drops the cached list by refetching it once.
func (s *Store[T]) Invalidate(ctx context.Context) error {
	return s.Refresh(ctx)
}

// Mutate runs fn as the mutation identified by key. A second call with the
// same key while the first is running fails with ErrBusy. The returned error
// is the raw cause, for status mapping; Result is what views display.
func (s *Store[T]) Mutate(ctx context.Context, key, successMsg string, fn func(context.Context) (any, error)) (backend.Result[any], error) {
	s.mu.Lock()
	if _, busy := s.inflight[key]; busy {
		s.mu.Unlock()
		return backend.Fail[any](ErrBusy), ErrBusy
	}
	s.inflight[key] = struct{}{}
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.inflight, key)
		s.mu.Unlock()
	}()

	data, err := fn(ctx)
	if err != nil {
		s.log.Error("%s: %s failed: %v", s.name, key, err)
		s.bus.Error(backend.ErrorMessage(err))
		return backend.Fail[any](err), err
	}

	s.bus.Success(successMsg)
	if err := s.Invalidate(ctx); err != nil {
		s.log.Warning("%s: refetch after %s failed: %v", s.name, key, err)
	}
	return backend.Ok(data, successMsg), nil
}

func (s *Store[T]) Snapshot() Snapshot[T] {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := Snapshot[T]{
		Records:  append([]T{}, s.records...),
		Loading:  s.loading,
		Loaded:   s.loaded,
		LoadedAt: s.loadedAt,
	}
	if s.err != nil {
		snap.Error = backend.ErrorMessage(s.err)
	}
	return snap
}

// Fetches counts load calls issued so far.
func (s *Store[T]) Fetches() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fetches
}
