package docsystem

import (
	"context"
	"time"

	"docvault/internal/domain/models/docsystem"
)

// CollectionRepository defines data access operations for collections
type CollectionRepository interface {
	// Create inserts a collection with a caller-assigned ID
	Create(ctx context.Context, collection *docsystem.Collection) error

	// GetByID retrieves a collection by ID
	GetByID(ctx context.Context, id string) (*docsystem.Collection, error)

	// GetLatest returns the most recently updated collection, or ErrNotFound when there is none
	GetLatest(ctx context.Context) (*docsystem.Collection, error)

	// Touch bumps updated_at, used when a node of the collection changes
	Touch(ctx context.Context, id string, at time.Time) error
}
