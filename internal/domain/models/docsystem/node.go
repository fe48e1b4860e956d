package docsystem

import (
	"fmt"
	"time"
)

// NodeKind tags a node as a folder or a file.
type NodeKind string

const (
	NodeKindFolder NodeKind = "folder"
	NodeKindFile   NodeKind = "file"
)

// Valid reports whether k is a known kind.
func (k NodeKind) Valid() bool {
	return k == NodeKindFolder || k == NodeKindFile
}

// Metadata is an opaque, schema-less key/value bag. The core round-trips it
// but never interprets it beyond the keys it writes itself during import.
type Metadata map[string]any

// Clone returns a shallow copy; nil stays nil.
func (m Metadata) Clone() Metadata {
	if m == nil {
		return nil
	}
	out := make(Metadata, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Node is one entry of a collection's hierarchy.
//
// Identity is assigned by the creator before persistence, which is what lets
// the import pipeline compute parent/child relationships up front.
type Node struct {
	ID           string    `json:"id" db:"id"`
	Name         string    `json:"name" db:"name"`
	Kind         NodeKind  `json:"kind" db:"kind"`
	ParentID     *string   `json:"parentId" db:"parent_id"` // NULL = collection root
	CollectionID string    `json:"collectionId" db:"collection_id"`
	Snapshot     []byte    `json:"-" db:"snapshot"` // CRDT export, file nodes only
	Metadata     Metadata  `json:"metadata" db:"metadata"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt" db:"updated_at"`
}

// NewFolderNode builds a folder node. Folders never carry a snapshot.
func NewFolderNode(id, collectionID, name string, parentID *string, metadata Metadata) *Node {
	return &Node{
		ID:           id,
		Name:         name,
		Kind:         NodeKindFolder,
		ParentID:     parentID,
		CollectionID: collectionID,
		Metadata:     metadata,
	}
}

// NewFileNode builds a file node carrying its CRDT snapshot (may be empty
// before the first edit).
func NewFileNode(id, collectionID, name string, parentID *string, snapshot []byte, metadata Metadata) *Node {
	return &Node{
		ID:           id,
		Name:         name,
		Kind:         NodeKindFile,
		ParentID:     parentID,
		CollectionID: collectionID,
		Snapshot:     snapshot,
		Metadata:     metadata,
	}
}

// IsFolder reports whether the node is a folder.
func (n *Node) IsFolder() bool { return n.Kind == NodeKindFolder }

// Validate checks the per-kind invariants that do not need other nodes.
func (n *Node) Validate() error {
	if n.ID == "" {
		return fmt.Errorf("node id is required")
	}
	if !n.Kind.Valid() {
		return fmt.Errorf("node %s: unknown kind %q", n.ID, n.Kind)
	}
	if n.Kind == NodeKindFolder && len(n.Snapshot) > 0 {
		return fmt.Errorf("node %s: folders cannot carry a content snapshot", n.ID)
	}
	if n.ParentID != nil && *n.ParentID == n.ID {
		return fmt.Errorf("node %s: node cannot be its own parent", n.ID)
	}
	return nil
}
