package record

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// MemoryStore keeps records in process memory. List returns records in the
// order they were first put; replacing a record keeps its position.
type MemoryStore struct {
	mu     sync.RWMutex
	kinds  map[string]*memoryKind
	closed bool
}

type memoryKind struct {
	order []string
	byID  map[string]Record
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{kinds: make(map[string]*memoryKind)}
}

// Put implements Store.
func (s *MemoryStore) Put(_ context.Context, records ...Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}

	for _, rec := range records {
		err := rec.Validate()
		if err != nil {
			return fmt.Errorf("put %q: %w", rec.ID, err)
		}

		bucket, ok := s.kinds[rec.Kind]
		if !ok {
			bucket = &memoryKind{byID: make(map[string]Record)}
			s.kinds[rec.Kind] = bucket
		}

		if _, exists := bucket.byID[rec.ID]; !exists {
			bucket.order = append(bucket.order, rec.ID)
		}

		bucket.byID[rec.ID] = rec
	}

	return nil
}

// List implements Lister.
func (s *MemoryStore) List(_ context.Context, kind string) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrClosed
	}

	bucket, ok := s.kinds[kind]
	if !ok {
		return nil, nil
	}

	out := make([]Record, 0, len(bucket.order))
	for _, id := range bucket.order {
		out = append(out, bucket.byID[id])
	}

	return out, nil
}

// Kinds implements Store.
func (s *MemoryStore) Kinds(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrClosed
	}

	kinds := make([]string, 0, len(s.kinds))
	for kind := range s.kinds {
		kinds = append(kinds, kind)
	}

	sort.Strings(kinds)

	return kinds, nil
}

// Close implements Store. Further calls fail with ErrClosed.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	s.kinds = nil

	return nil
}
