package event

import (
	"context"
	"sort"
	"sync"
)

// MemStore implements Store with a per-event lock so mutations on one event
// never serialize mutations on another.
type MemStore struct {
	mu     sync.RWMutex
	events map[string]*memEntry
}

type memEntry struct {
	mu      sync.Mutex
	ev      *Event
	deleted bool
}

// NewMemStore creates an empty event store.
func NewMemStore() *MemStore {
	return &MemStore{events: make(map[string]*memEntry)}
}

var _ Store = (*MemStore)(nil)

func (s *MemStore) Insert(ctx context.Context, ev *Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.events[ev.ID]; ok {
		return ErrInvalidInput
	}
	s.events[ev.ID] = &memEntry{ev: ev.Clone()}
	return nil
}

func (s *MemStore) Get(ctx context.Context, id string) (*Event, error) {
	s.mu.RLock()
	e, ok := s.events[id]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.deleted {
		return nil, ErrNotFound
	}
	return e.ev.Clone(), nil
}

func (s *MemStore) List(ctx context.Context) ([]Event, error) {
	s.mu.RLock()
	entries := make([]*memEntry, 0, len(s.events))
	for _, e := range s.events {
		entries = append(entries, e)
	}
	s.mu.RUnlock()

	out := make([]Event, 0, len(entries))
	for _, e := range entries {
		e.mu.Lock()
		if !e.deleted {
			out = append(out, *e.ev.Clone())
		}
		e.mu.Unlock()
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (s *MemStore) Update(ctx context.Context, id string, mutate func(*Event) error) (*Event, error) {
	s.mu.RLock()
	e, ok := s.events[id]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.deleted {
		return nil, ErrNotFound
	}
	// Mutate a copy so a failed mutator leaves the committed state intact.
	next := e.ev.Clone()
	if err := mutate(next); err != nil {
		return nil, err
	}
	e.ev = next
	return next.Clone(), nil
}

func (s *MemStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	e, ok := s.events[id]
	if ok {
		delete(s.events, id)
	}
	s.mu.Unlock()
	if !ok {
		return ErrNotFound
	}
	// Wait for any in-flight mutation, then mark the entry so late Updates
	// holding a stale pointer observe NotFound instead of writing to a purged
	// record.
	e.mu.Lock()
	e.deleted = true
	e.mu.Unlock()
	return nil
}
