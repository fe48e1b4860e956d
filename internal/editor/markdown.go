package editor

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	extast "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
)

var mdParser = goldmark.New(goldmark.WithExtensions(extension.GFM))

// FromMarkdown parses markdown (CommonMark + GFM) into a structural document.
func FromMarkdown(src []byte) (Node, error) {
	root := mdParser.Parser().Parse(text.NewReader(src))
	c := &mdConverter{source: src}
	return NewDoc(c.blocks(root)...), nil
}

type mdConverter struct {
	source []byte
}

func (c *mdConverter) blocks(parent ast.Node) []Node {
	var out []Node
	for child := parent.FirstChild(); child != nil; child = child.NextSibling() {
		if n, ok := c.block(child); ok {
			out = append(out, n)
		}
	}
	return out
}

func (c *mdConverter) block(n ast.Node) (Node, bool) {
	switch n := n.(type) {
	case *ast.Heading:
		return Node{
			Type:    TypeHeading,
			Attrs:   map[string]any{"level": n.Level},
			Content: c.inlines(n, nil),
		}, true

	case *ast.Paragraph, *ast.TextBlock:
		return Node{Type: TypeParagraph, Content: c.inlines(n, nil)}, true

	case *ast.List:
		list := Node{Type: TypeBulletList}
		if n.IsOrdered() {
			list.Type = TypeOrderedList
			list.Attrs = map[string]any{"start": n.Start}
		}
		list.Content = c.blocks(n)
		return list, true

	case *ast.ListItem:
		return Node{Type: TypeListItem, Content: c.blocks(n)}, true

	case *ast.FencedCodeBlock:
		block := Node{Type: TypeCodeBlock, Attrs: map[string]any{"language": string(n.Language(c.source))}}
		if code := c.lines(n); code != "" {
			block.Content = []Node{{Type: TypeText, Text: code}}
		}
		return block, true

	case *ast.CodeBlock:
		block := Node{Type: TypeCodeBlock, Attrs: map[string]any{"language": ""}}
		if code := c.lines(n); code != "" {
			block.Content = []Node{{Type: TypeText, Text: code}}
		}
		return block, true

	case *ast.HTMLBlock:
		raw := c.lines(n)
		if n.HasClosure() {
			raw += string(n.ClosureLine.Value(c.source))
		}
		raw = strings.TrimRight(raw, "\n")
		if raw == "" {
			return Node{}, false
		}
		return Node{Type: TypeParagraph, Content: []Node{{Type: TypeText, Text: raw}}}, true

	case *ast.Blockquote:
		return Node{Type: TypeBlockquote, Content: c.blocks(n)}, true

	case *ast.ThematicBreak:
		return Node{Type: TypeHorizontalRule}, true

	case *extast.Table:
		return c.table(n), true

	default:
		// unknown container: keep its text
		if content := c.inlines(n, nil); len(content) > 0 {
			return Node{Type: TypeParagraph, Content: content}, true
		}
		return Node{}, false
	}
}

func (c *mdConverter) table(t *extast.Table) Node {
	table := Node{Type: TypeTable}
	for row := t.FirstChild(); row != nil; row = row.NextSibling() {
		cellType := TypeTableCell
		if _, ok := row.(*extast.TableHeader); ok {
			cellType = TypeTableHeader
		}
		tr := Node{Type: TypeTableRow}
		for cell := row.FirstChild(); cell != nil; cell = cell.NextSibling() {
			tr.Content = append(tr.Content, Node{
				Type:    cellType,
				Content: []Node{{Type: TypeParagraph, Content: c.inlines(cell, nil)}},
			})
		}
		table.Content = append(table.Content, tr)
	}
	return table
}

func (c *mdConverter) lines(n ast.Node) string {
	var b strings.Builder
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		b.Write(seg.Value(c.source))
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// inlines flattens inline children into text nodes carrying marks.
func (c *mdConverter) inlines(parent ast.Node, marks []Mark) []Node {
	var out []Node
	for child := parent.FirstChild(); child != nil; child = child.NextSibling() {
		out = append(out, c.inline(child, marks)...)
	}
	return mergeText(out)
}

func (c *mdConverter) inline(n ast.Node, marks []Mark) []Node {
	switch n := n.(type) {
	case *ast.Text:
		var out []Node
		value := string(n.Segment.Value(c.source))
		if n.SoftLineBreak() {
			value += " "
		}
		if value != "" {
			out = append(out, textNode(value, marks))
		}
		if n.HardLineBreak() {
			out = append(out, Node{Type: TypeHardBreak})
		}
		return out

	case *ast.String:
		if len(n.Value) == 0 {
			return nil
		}
		return []Node{textNode(string(n.Value), marks)}

	case *ast.CodeSpan:
		var b strings.Builder
		for child := n.FirstChild(); child != nil; child = child.NextSibling() {
			switch t := child.(type) {
			case *ast.Text:
				b.Write(t.Segment.Value(c.source))
			case *ast.String:
				b.Write(t.Value)
			}
		}
		if b.Len() == 0 {
			return nil
		}
		return []Node{textNode(b.String(), withMark(marks, Mark{Type: MarkCode}))}

	case *ast.Emphasis:
		mark := Mark{Type: MarkItalic}
		if n.Level >= 2 {
			mark = Mark{Type: MarkBold}
		}
		return c.inlines(n, withMark(marks, mark))

	case *extast.Strikethrough:
		return c.inlines(n, withMark(marks, Mark{Type: MarkStrike}))

	case *ast.Link:
		attrs := map[string]any{"href": string(n.Destination)}
		if len(n.Title) > 0 {
			attrs["title"] = string(n.Title)
		}
		return c.inlines(n, withMark(marks, Mark{Type: MarkLink, Attrs: attrs}))

	case *ast.AutoLink:
		url := string(n.URL(c.source))
		href := url
		if n.AutoLinkType == ast.AutoLinkEmail && !strings.HasPrefix(strings.ToLower(url), "mailto:") {
			href = "mailto:" + url
		}
		return []Node{textNode(string(n.Label(c.source)), withMark(marks, Mark{Type: MarkLink, Attrs: map[string]any{"href": href}}))}

	case *ast.Image:
		attrs := map[string]any{
			"src": string(n.Destination),
			"alt": c.plain(n),
		}
		if len(n.Title) > 0 {
			attrs["title"] = string(n.Title)
		}
		return []Node{{Type: TypeImage, Attrs: attrs}}

	case *ast.RawHTML:
		var b strings.Builder
		for i := 0; i < n.Segments.Len(); i++ {
			seg := n.Segments.At(i)
			b.Write(seg.Value(c.source))
		}
		if b.Len() == 0 {
			return nil
		}
		return []Node{textNode(b.String(), marks)}

	case *extast.TaskCheckBox:
		box := "[ ] "
		if n.IsChecked {
			box = "[x] "
		}
		return []Node{textNode(box, marks)}

	default:
		return c.inlines(n, marks)
	}
}

func (c *mdConverter) plain(n ast.Node) string {
	var b strings.Builder
	for _, child := range c.inlines(n, nil) {
		b.WriteString(child.Text)
	}
	return b.String()
}

func textNode(value string, marks []Mark) Node {
	n := Node{Type: TypeText, Text: value}
	if len(marks) > 0 {
		n.Marks = append([]Mark(nil), marks...)
	}
	return n
}

func withMark(marks []Mark, m Mark) []Mark {
	out := make([]Mark, 0, len(marks)+1)
	out = append(out, marks...)
	return append(out, m)
}

// mergeText joins adjacent text nodes with identical marks.
func mergeText(nodes []Node) []Node {
	if len(nodes) < 2 {
		return nodes
	}
	out := nodes[:1]
	for _, n := range nodes[1:] {
		last := &out[len(out)-1]
		if n.Type == TypeText && last.Type == TypeText && sameMarks(last.Marks, n.Marks) {
			last.Text += n.Text
			continue
		}
		out = append(out, n)
	}
	return out
}

func sameMarks(a, b []Mark) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Type != b[i].Type || attrString(a[i].Attrs, "href") != attrString(b[i].Attrs, "href") {
			return false
		}
	}
	return true
}
