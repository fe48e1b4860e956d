package editor

import (
	"bytes"
	"errors"
	"fmt"

	"docvault/internal/crdt"
)

var (
	ErrAlreadyBound  = errors.New("editor: document already bound to a session")
	ErrNotBound      = errors.New("editor: session is not bound")
	ErrSessionClosed = errors.New("editor: session destroyed")
)

// Session is an editing session bound 1:1 to a CRDT document. Each top-level
// block of the structural document is one element of the CRDT sequence.
type Session struct {
	initial   Node
	doc       *crdt.Doc
	destroyed bool
}

// NewSession initializes a session against a structural document.
// The content reaches a CRDT document only once the session is bound.
func NewSession(initial Node) *Session {
	return &Session{initial: initial}
}

// Bind attaches the session to doc. A non-empty doc keeps its content;
// an empty one is seeded with the session's initial document.
func (s *Session) Bind(doc *crdt.Doc) error {
	if s.destroyed {
		return ErrSessionClosed
	}
	if s.doc != nil {
		return ErrAlreadyBound
	}
	if !doc.TryBind() {
		return ErrAlreadyBound
	}
	s.doc = doc
	if doc.IsEmpty() && !s.initial.IsEmpty() {
		if err := s.SetContent(s.initial); err != nil {
			s.doc = nil
			doc.Unbind()
			return fmt.Errorf("seed document: %w", err)
		}
	}
	return nil
}

// SetContent applies a whole document without user input. Blocks shared
// with the current content (common prefix and suffix) keep their CRDT
// identity; only the differing middle is replaced.
func (s *Session) SetContent(doc Node) error {
	if s.destroyed {
		return ErrSessionClosed
	}
	if s.doc == nil {
		return ErrNotBound
	}
	if err := doc.Validate(); err != nil {
		return err
	}

	next := make([][]byte, len(doc.Content))
	for i, block := range doc.Content {
		data, err := encodeBlock(block)
		if err != nil {
			return fmt.Errorf("encode block %d: %w", i, err)
		}
		next[i] = data
	}
	current := s.doc.Blocks()

	prefix := 0
	for prefix < len(current) && prefix < len(next) && bytes.Equal(current[prefix].Value, next[prefix]) {
		prefix++
	}
	suffix := 0
	for suffix < len(current)-prefix && suffix < len(next)-prefix &&
		bytes.Equal(current[len(current)-1-suffix].Value, next[len(next)-1-suffix]) {
		suffix++
	}

	for _, block := range current[prefix : len(current)-suffix] {
		if err := s.doc.Delete(block.ID); err != nil {
			return fmt.Errorf("delete block: %w", err)
		}
	}

	ref := crdt.Head
	if prefix > 0 {
		ref = current[prefix-1].ID
	}
	for _, data := range next[prefix : len(next)-suffix] {
		id, err := s.doc.InsertAfter(ref, data)
		if err != nil {
			return fmt.Errorf("insert block: %w", err)
		}
		ref = id
	}
	return nil
}

// Content reads the current structural document from the bound CRDT document.
func (s *Session) Content() (Node, error) {
	if s.destroyed {
		return Node{}, ErrSessionClosed
	}
	if s.doc == nil {
		return s.initial, nil
	}
	return DocumentOf(s.doc)
}

// Destroy unbinds the session. Further calls fail with ErrSessionClosed.
func (s *Session) Destroy() {
	if s.destroyed {
		return
	}
	if s.doc != nil {
		s.doc.Unbind()
		s.doc = nil
	}
	s.destroyed = true
}

// DocumentOf decodes the structural document held by a CRDT document.
func DocumentOf(doc *crdt.Doc) (Node, error) {
	blocks := doc.Blocks()
	out := NewDoc()
	out.Content = make([]Node, 0, len(blocks))
	for _, b := range blocks {
		n, err := decodeBlock(b.Value)
		if err != nil {
			return Node{}, fmt.Errorf("block %s: %w", b.ID, err)
		}
		out.Content = append(out.Content, n)
	}
	return out, nil
}
