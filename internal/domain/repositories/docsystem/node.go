package docsystem

import (
	"context"
	"time"

	"docvault/internal/domain/models/docsystem"
)

// NodeRepository defines data access operations for folder and file nodes
type NodeRepository interface {
	// Create inserts a node with a caller-assigned ID.
	// A duplicate ID yields a *domain.ConflictError.
	Create(ctx context.Context, node *docsystem.Node) error

	// GetByID retrieves a node including its snapshot
	GetByID(ctx context.Context, id string) (*docsystem.Node, error)

	// ListByCollection retrieves all nodes of a collection (no snapshots)
	ListByCollection(ctx context.Context, collectionID string) ([]docsystem.Node, error)

	// UpdateSnapshot replaces a file node's snapshot as one complete write
	UpdateSnapshot(ctx context.Context, id string, snapshot []byte, at time.Time) error

	// UpdateName renames a node
	UpdateName(ctx context.Context, id, name string, at time.Time) error
}
