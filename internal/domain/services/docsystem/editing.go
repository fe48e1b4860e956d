package docsystem

import (
	"context"
	"time"

	"docvault/internal/editor"
)

// EditingService keeps at most one open document lifecycle per file node and
// writes edits back through debounced saves
type EditingService interface {
	// ApplyContent replaces the node's document, opening it on first use, and schedules a save
	ApplyContent(ctx context.Context, nodeID string, doc editor.Node) (*EditingStatus, error)

	// Content returns the node's current document (open session or stored snapshot)
	Content(ctx context.Context, nodeID string) (editor.Node, error)

	// Markdown renders the node's current document as markdown
	Markdown(ctx context.Context, nodeID string) (*MarkdownExport, error)

	// Flush saves the node immediately
	Flush(ctx context.Context, nodeID string) (*EditingStatus, error)

	// Close disposes the node's session, flushing pending edits or dropping them
	Close(ctx context.Context, nodeID string, flush bool) error

	// Status reports the node's session state
	Status(ctx context.Context, nodeID string) (*EditingStatus, error)

	// Shutdown flushes and closes every open session
	Shutdown(ctx context.Context) error
}

// EditingStatus is the externally visible state of an editing session
type EditingStatus struct {
	NodeID      string     `json:"nodeId"`
	Open        bool       `json:"open"`
	State       string     `json:"state"`
	Dirty       bool       `json:"dirty"`
	Saving      bool       `json:"saving"`
	LastSavedAt *time.Time `json:"lastSavedAt,omitempty"`
	Error       string     `json:"error,omitempty"`
}

// MarkdownExport is a node's document rendered as markdown
type MarkdownExport struct {
	NodeID         string `json:"nodeId"`
	Name           string `json:"name"`
	Markdown       string `json:"markdown"`
	WordCount      int    `json:"wordCount"`
	CharacterCount int    `json:"characterCount"`
	ReadingMinutes int    `json:"readingMinutes"`
}
