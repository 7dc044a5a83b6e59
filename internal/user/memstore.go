package user

import (
	"context"
	"sync"
)

// MemStore implements Store with in-process concurrency safety.
type MemStore struct {
	mu         sync.RWMutex
	byID       map[string]*User
	byUsername map[string]string // username -> id
}

// NewMemStore creates an empty user store.
func NewMemStore() *MemStore {
	return &MemStore{
		byID:       make(map[string]*User),
		byUsername: make(map[string]string),
	}
}

var _ Store = (*MemStore)(nil)

func (s *MemStore) Insert(ctx context.Context, u *User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byUsername[u.Username]; ok {
		return ErrUsernameTaken
	}
	cp := *u
	s.byID[u.ID] = &cp
	s.byUsername[u.Username] = u.ID
	return nil
}

func (s *MemStore) Find(ctx context.Context, id string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *MemStore) FindByUsername(ctx context.Context, username string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byUsername[username]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *s.byID[id]
	return &cp, nil
}

func (s *MemStore) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.byUsername[username]
	return ok, nil
}
