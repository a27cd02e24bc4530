// Package memory provides an in-memory TreeStore for tests and local
// development.
package memory

import (
	"context"
	"sync"

	"familytree-backend/domain/tree"
)

// TreeStore keeps snapshots in a map. Snapshots are deep-cloned on the way
// in and out, matching the value semantics of a real store.
type TreeStore struct {
	mu    sync.RWMutex
	trees map[string]*tree.Snapshot
}

// NewTreeStore creates an empty in-memory store
func NewTreeStore() *TreeStore {
	return &TreeStore{trees: make(map[string]*tree.Snapshot)}
}

// Load returns the user's snapshot, or (nil, nil) when absent
func (s *TreeStore) Load(_ context.Context, userID string) (*tree.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap, ok := s.trees[userID]
	if !ok {
		return nil, nil
	}
	return snap.Clone(), nil
}

// Save stores the user's snapshot, replacing any previous one
func (s *TreeStore) Save(_ context.Context, userID string, snapshot *tree.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.trees[userID] = snapshot.Clone()
	return nil
}
