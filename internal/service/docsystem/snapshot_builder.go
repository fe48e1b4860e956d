package docsystem

import (
	"fmt"

	"docvault/internal/crdt"
	"docvault/internal/editor"
	"docvault/internal/snapshot"
)

// BuildSnapshot feeds a structural document into a fresh CRDT document
// through a bound editing session, commits and exports it. Nothing is
// shared between calls, so it is safe to run in parallel.
func BuildSnapshot(doc editor.Node) ([]byte, error) {
	lc := snapshot.New("", nil, snapshot.Options{})
	if err := lc.Create(); err != nil {
		return nil, err
	}
	defer lc.Dispose(false)

	err := lc.Mutate(func(d *crdt.Doc) error {
		session := editor.NewSession(editor.EmptyDoc())
		if err := session.Bind(d); err != nil {
			return err
		}
		defer session.Destroy()
		return session.SetContent(doc)
	})
	if err != nil {
		return nil, fmt.Errorf("apply document: %w", err)
	}
	if err := lc.Commit(); err != nil {
		return nil, err
	}
	return lc.ExportSnapshot()
}

// EmptySnapshot is the snapshot of a document with no content.
func EmptySnapshot() ([]byte, error) {
	return BuildSnapshot(editor.EmptyDoc())
}
