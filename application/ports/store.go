// Package ports defines the interfaces the application layer depends on.
// Infrastructure provides the implementations.
package ports

import (
	"context"

	"familytree-backend/domain/tree"
)

// TreeStore persists one snapshot per user. The store treats the snapshot as
// an opaque blob keyed by user id; it never inspects the graph.
type TreeStore interface {
	// Load returns the user's snapshot, or (nil, nil) when the user has no
	// saved tree yet.
	Load(ctx context.Context, userID string) (*tree.Snapshot, error)

	// Save writes the user's snapshot, replacing any previous one.
	Save(ctx context.Context, userID string, snapshot *tree.Snapshot) error
}
