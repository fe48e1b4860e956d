package editor

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docvault/internal/crdt"
)

func para(text string) Node {
	return Node{Type: TypeParagraph, Content: []Node{{Type: TypeText, Text: text}}}
}

func TestSessionSeedsEmptyDocument(t *testing.T) {
	doc := crdt.New()
	s := NewSession(NewDoc(para("a"), para("b")))
	require.NoError(t, s.Bind(doc))

	assert.Equal(t, 2, doc.Len())
	got, err := s.Content()
	require.NoError(t, err)
	assert.Equal(t, NewDoc(para("a"), para("b")), got)
}

func TestSessionBindsOneToOne(t *testing.T) {
	doc := crdt.New()
	first := NewSession(EmptyDoc())
	require.NoError(t, first.Bind(doc))

	second := NewSession(EmptyDoc())
	assert.ErrorIs(t, second.Bind(doc), ErrAlreadyBound)

	first.Destroy()
	assert.NoError(t, second.Bind(doc))
	assert.ErrorIs(t, first.SetContent(EmptyDoc()), ErrSessionClosed)
}

func TestSetContentKeepsUnchangedBlocks(t *testing.T) {
	doc := crdt.New()
	s := NewSession(NewDoc(para("a"), para("b"), para("c")))
	require.NoError(t, s.Bind(doc))
	doc.Commit()
	before := doc.Blocks()

	require.NoError(t, s.SetContent(NewDoc(para("a"), para("B"), para("c"))))
	after := doc.Blocks()
	require.Len(t, after, 3)
	assert.Equal(t, before[0].ID, after[0].ID)
	assert.Equal(t, before[2].ID, after[2].ID)
	assert.NotEqual(t, before[1].ID, after[1].ID)
	assert.Equal(t, 2, doc.Commit(), "one delete and one insert")

	require.NoError(t, s.SetContent(NewDoc(para("a"), para("B"), para("c"))))
	assert.False(t, doc.HasPending(), "identical content is a no-op")
}

func TestSetContentFromDecodedJSON(t *testing.T) {
	doc := crdt.New()
	s := NewSession(EmptyDoc())
	require.NoError(t, s.Bind(doc))

	built := NewDoc(Node{Type: TypeHeading, Attrs: map[string]any{"level": 2}, Content: []Node{{Type: TypeText, Text: "x"}}})
	require.NoError(t, s.SetContent(built))
	doc.Commit()

	raw, err := json.Marshal(built)
	require.NoError(t, err)
	decoded, err := Parse(raw)
	require.NoError(t, err)
	require.NoError(t, s.SetContent(decoded))
	assert.False(t, doc.HasPending(), "decoded payload encodes to the same block bytes")
}

func TestSetContentRejectsInvalidDocument(t *testing.T) {
	s := NewSession(EmptyDoc())
	assert.ErrorIs(t, s.SetContent(EmptyDoc()), ErrNotBound)

	require.NoError(t, s.Bind(crdt.New()))
	assert.ErrorIs(t, s.SetContent(Node{Type: TypeParagraph}), ErrInvalidDocument)
}

func TestParse(t *testing.T) {
	_, err := Parse([]byte(`{"type":"paragraph"}`))
	assert.ErrorIs(t, err, ErrInvalidDocument)
	_, err = Parse([]byte(`not json`))
	assert.ErrorIs(t, err, ErrInvalidDocument)

	doc, err := Parse([]byte(`{"type":"doc","content":[{"type":"paragraph","content":[{"type":"text","text":"hi"}]}]}`))
	require.NoError(t, err)
	assert.Equal(t, "hi", doc.Content[0].Content[0].Text)
}
