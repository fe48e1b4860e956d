package docsystem

import (
	"context"

	"docvault/internal/domain/models/docsystem"
)

// CollectionService handles collection listing and tree views
type CollectionService interface {
	// LatestCollection returns the most recently updated collection with its
	// nodes (no snapshots), or nil when no collection exists
	LatestCollection(ctx context.Context) (*docsystem.CollectionWithNodes, error)

	// GetTree builds the ordered node forest of a collection
	GetTree(ctx context.Context, collectionID string) (*CollectionTree, error)
}

// CollectionTree is a collection with its ordered forest. Warnings lists
// integrity problems that were recovered while building the tree.
type CollectionTree struct {
	Collection docsystem.Collection  `json:"collection"`
	Roots      []*docsystem.TreeNode `json:"roots"`
	Warnings   []string              `json:"warnings,omitempty"`
}
