// Package presence defines the shared per-user connection set that decides
// when a user goes online or offline.
package presence

import (
	"context"
	"sync"
)

// Set holds the live connection ids of each user. Add and Remove are atomic
// and report the size on the far side of the zero boundary, so exactly one
// caller observes each online and offline transition.
type Set interface {
	// Add inserts connID and returns the set size before the insert.
	Add(ctx context.Context, userID, connID string) (int64, error)
	// Remove deletes connID. It reports whether connID was present and the
	// set size after the delete.
	Remove(ctx context.Context, userID, connID string) (bool, int64, error)
	Count(ctx context.Context, userID string) (int64, error)
}

// MemorySet is a process-local Set.
type MemorySet struct {
	mu    sync.Mutex
	conns map[string]map[string]struct{}
}

func NewMemorySet() *MemorySet {
	return &MemorySet{conns: make(map[string]map[string]struct{})}
}

func (s *MemorySet) Add(_ context.Context, userID, connID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	set, ok := s.conns[userID]
	if !ok {
		set = make(map[string]struct{})
		s.conns[userID] = set
	}
	before := int64(len(set))
	set[connID] = struct{}{}
	return before, nil
}

func (s *MemorySet) Remove(_ context.Context, userID, connID string) (bool, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	set := s.conns[userID]
	_, removed := set[connID]
	delete(set, connID)
	after := int64(len(set))
	if after == 0 {
		delete(s.conns, userID)
	}
	return removed, after, nil
}

func (s *MemorySet) Count(_ context.Context, userID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.conns[userID])), nil
}
