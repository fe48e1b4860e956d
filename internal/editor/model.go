// Package editor is the structural document side of the editing boundary:
// the TipTap/ProseMirror style JSON model, markdown conversion in both
// directions, and editing sessions bound to a CRDT document.
package editor

import (
	"encoding/json"
	"errors"
	"fmt"
)

const (
	TypeDoc            = "doc"
	TypeParagraph      = "paragraph"
	TypeHeading        = "heading"
	TypeBulletList     = "bulletList"
	TypeOrderedList    = "orderedList"
	TypeListItem       = "listItem"
	TypeCodeBlock      = "codeBlock"
	TypeBlockquote     = "blockquote"
	TypeHorizontalRule = "horizontalRule"
	TypeHardBreak      = "hardBreak"
	TypeImage          = "image"
	TypeTable          = "table"
	TypeTableRow       = "tableRow"
	TypeTableHeader    = "tableHeader"
	TypeTableCell      = "tableCell"
	TypeText           = "text"

	MarkBold   = "bold"
	MarkItalic = "italic"
	MarkCode   = "code"
	MarkStrike = "strike"
	MarkLink   = "link"
)

// ErrInvalidDocument is returned for payloads that are not a structural document.
var ErrInvalidDocument = errors.New("invalid document")

type Mark struct {
	Type  string         `json:"type"`
	Attrs map[string]any `json:"attrs,omitempty"`
}

// Node is one node of a structural document.
type Node struct {
	Type    string         `json:"type"`
	Attrs   map[string]any `json:"attrs,omitempty"`
	Content []Node         `json:"content,omitempty"`
	Text    string         `json:"text,omitempty"`
	Marks   []Mark         `json:"marks,omitempty"`
}

// NewDoc wraps top-level blocks in a document node.
func NewDoc(blocks ...Node) Node {
	return Node{Type: TypeDoc, Content: blocks}
}

// EmptyDoc is the document every new file node starts from.
func EmptyDoc() Node {
	return NewDoc()
}

// Parse decodes a JSON payload into a document.
func Parse(data []byte) (Node, error) {
	var doc Node
	if err := json.Unmarshal(data, &doc); err != nil {
		return Node{}, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	if err := doc.Validate(); err != nil {
		return Node{}, err
	}
	return doc, nil
}

// Validate checks the shape the CRDT binding relies on: a doc root whose
// children are typed blocks.
func (n Node) Validate() error {
	if n.Type != TypeDoc {
		return fmt.Errorf("%w: root type %q, want %q", ErrInvalidDocument, n.Type, TypeDoc)
	}
	for i, block := range n.Content {
		if err := block.validate(); err != nil {
			return fmt.Errorf("block %d: %w", i, err)
		}
	}
	return nil
}

func (n Node) validate() error {
	if n.Type == "" {
		return fmt.Errorf("%w: node without type", ErrInvalidDocument)
	}
	if n.Type == TypeDoc {
		return fmt.Errorf("%w: nested doc node", ErrInvalidDocument)
	}
	for _, child := range n.Content {
		if err := child.validate(); err != nil {
			return err
		}
	}
	return nil
}

// IsEmpty reports whether the document has no blocks.
func (n Node) IsEmpty() bool { return len(n.Content) == 0 }

// PlainText concatenates the text of all descendants, separating blocks by newlines.
func (n Node) PlainText() string {
	var out []byte
	var walk func(Node)
	walk = func(node Node) {
		switch node.Type {
		case TypeText:
			out = append(out, node.Text...)
			return
		case TypeHardBreak:
			out = append(out, '\n')
			return
		}
		for _, child := range node.Content {
			walk(child)
		}
		if node.Type != TypeDoc && len(node.Content) > 0 && !isInline(node.Type) {
			out = append(out, '\n')
		}
	}
	walk(n)
	return string(out)
}

func isInline(t string) bool {
	return t == TypeText || t == TypeHardBreak || t == TypeImage
}

// encodeBlock is the canonical byte form of a block stored in the CRDT.
func encodeBlock(n Node) ([]byte, error) {
	return json.Marshal(n)
}

func decodeBlock(data []byte) (Node, error) {
	var n Node
	if err := json.Unmarshal(data, &n); err != nil {
		return Node{}, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	return n, nil
}

func attrString(attrs map[string]any, key string) string {
	s, _ := attrs[key].(string)
	return s
}

func attrInt(attrs map[string]any, key string) int {
	switch v := attrs[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}
