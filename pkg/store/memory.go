package store

import (
	"context"
	"sync"

	"github.com/causalite/causalite/pkg/observability"
)

// MemoryStore is an in-process run store for development and testing.
// Safe for concurrent use.
type MemoryStore struct {
	mu   sync.RWMutex
	runs map[string]*Record
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{runs: make(map[string]*Record)}
}

func (s *MemoryStore) Save(ctx context.Context, rec *Record) error {
	s.mu.Lock()
	dup := *rec
	s.runs[rec.ID] = &dup
	s.mu.Unlock()
	observability.Store().OnSave(ctx, "memory", rec.ID)
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, id string) (*Record, error) {
	s.mu.RLock()
	rec, ok := s.runs[id]
	s.mu.RUnlock()
	observability.Store().OnLoad(ctx, "memory", id, ok)
	if !ok {
		return nil, ErrNotFound
	}
	dup := *rec
	return &dup, nil
}

func (s *MemoryStore) List(ctx context.Context) ([]*Record, error) {
	s.mu.RLock()
	out := make([]*Record, 0, len(s.runs))
	for _, rec := range s.runs {
		dup := *rec
		out = append(out, &dup)
	}
	s.mu.RUnlock()

	sortNewestFirst(out)
	return out, nil
}

func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	delete(s.runs, id)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Close() error { return nil }

var _ Store = (*MemoryStore)(nil)
