package docsystem

import "time"

// TreeNode is a read-only view of a Node with its ordered children.
// It is derived on demand and never persisted.
type TreeNode struct {
	ID        string      `json:"id"`
	Name      string      `json:"name"`
	Kind      NodeKind    `json:"kind"`
	ParentID  *string     `json:"parentId"`
	Metadata  Metadata    `json:"metadata,omitempty"`
	UpdatedAt time.Time   `json:"updatedAt"`
	Children  []*TreeNode `json:"children"`
}

// Walk visits t and its descendants depth-first, parents before children.
func (t *TreeNode) Walk(fn func(n *TreeNode, depth int)) {
	t.walk(fn, 0)
}

func (t *TreeNode) walk(fn func(n *TreeNode, depth int), depth int) {
	fn(t, depth)
	for _, child := range t.Children {
		child.walk(fn, depth+1)
	}
}
