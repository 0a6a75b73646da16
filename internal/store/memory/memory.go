package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/wonny/marketsim/internal/simulation"
	"github.com/wonny/marketsim/internal/store"
)

// Store keeps results in process memory, newest last
type Store struct {
	mu    sync.RWMutex
	runs  map[string]*simulation.Result
	order []string
}

// New creates an empty store
func New() *Store {
	return &Store{runs: make(map[string]*simulation.Result)}
}

// Save stores res. Saving an existing run id replaces it in place.
func (s *Store) Save(_ context.Context, res *simulation.Result) error {
	if res == nil || res.RunID == "" {
		return errors.New("result without run id")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.runs[res.RunID]; !exists {
		s.order = append(s.order, res.RunID)
	}
	cp := *res
	s.runs[res.RunID] = &cp
	return nil
}

// Get returns a copy of a stored run
func (s *Store) Get(_ context.Context, runID string) (*simulation.Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	res, ok := s.runs[runID]
	if !ok {
		return nil, fmt.Errorf("run %s: %w", runID, store.ErrRunNotFound)
	}
	cp := *res
	return &cp, nil
}

// List returns summaries, newest first
func (s *Store) List(_ context.Context, limit int) ([]store.RunSummary, error) {
	limit = store.NormalizeLimit(limit)

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]store.RunSummary, 0, min(limit, len(s.order)))
	for i := len(s.order) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, store.Summarize(s.runs[s.order[i]]))
	}
	return out, nil
}
