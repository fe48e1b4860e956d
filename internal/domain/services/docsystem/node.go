package docsystem

import (
	"context"

	"docvault/internal/domain/models/docsystem"
)

// NodeService is the persistence boundary for single nodes
type NodeService interface {
	// LoadNode retrieves a node including its snapshot
	LoadNode(ctx context.Context, id string) (*docsystem.Node, error)

	// CreateNode creates a node with a caller-supplied ID, creating the
	// collection implicitly when no collection ID is given
	CreateNode(ctx context.Context, req *CreateNodeRequest) (*docsystem.Node, error)

	// SaveSnapshot replaces a file node's snapshot after checking it decodes
	SaveSnapshot(ctx context.Context, id string, snapshot []byte) error

	// UpdateTitle renames a node
	UpdateTitle(ctx context.Context, id, name string) error
}

// CreateNodeRequest represents a node creation request.
// Collection precedence: CollectionID (must exist), then CollectionName
// (creates a collection), then a new "Untitled Collection".
type CreateNodeRequest struct {
	ID             string             `json:"id"`
	Name           string             `json:"name"`
	Kind           docsystem.NodeKind `json:"kind"`
	ParentID       *string            `json:"parentId,omitempty"`
	CollectionID   *string            `json:"collectionId,omitempty"`
	CollectionName *string            `json:"collectionName,omitempty"`
	Snapshot       []byte             `json:"-"`
	Metadata       docsystem.Metadata `json:"metadata,omitempty"`
}
