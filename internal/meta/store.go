package meta

import (
	"sync"
	"sync/atomic"
)

// Store owns the live index. Readers call Current and keep using the index
// they got even if a reload swaps in a new one underneath them.
type Store struct {
	paths []string
	opts  Options

	mu      sync.Mutex // serializes reloads and hook registration
	current atomic.Pointer[Index]
	hooks   []func(*Index)
}

// NewStore prepares a store over paths. Until the first Reload, Current
// returns an empty index.
func NewStore(paths []string, opts Options) *Store {
	s := &Store{paths: append([]string(nil), paths...), opts: opts}
	s.current.Store(New(opts))
	return s
}

func (s *Store) Paths() []string { return append([]string(nil), s.paths...) }

func (s *Store) Current() *Index { return s.current.Load() }

// OnReload registers fn to run after every successful swap.
func (s *Store) OnReload(fn func(*Index)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hooks = append(s.hooks, fn)
}

// Reload rebuilds the index from the configured paths and publishes it.
// The outgoing index's cache is cleared first; readers still holding it
// recompute against its unchanged maps.
func (s *Store) Reload() *Index {
	s.mu.Lock()
	defer s.mu.Unlock()

	if old := s.current.Load(); old != nil {
		old.ClearCache()
	}
	ix := Load(s.paths, s.opts)
	s.current.Store(ix)
	for _, fn := range s.hooks {
		fn(ix)
	}
	return ix
}
