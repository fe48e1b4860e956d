package editor

import (
	"fmt"
	"strings"
)

// ToMarkdown renders a structural document as markdown.
func ToMarkdown(doc Node) string {
	return strings.TrimSpace(renderBlocks(doc.Content, "\n\n"))
}

func renderBlocks(blocks []Node, sep string) string {
	parts := make([]string, 0, len(blocks))
	for _, block := range blocks {
		if s := renderBlock(block); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, sep)
}

func renderBlock(node Node) string {
	switch node.Type {
	case TypeHeading:
		level := attrInt(node.Attrs, "level")
		if level < 1 {
			level = 1
		}
		if level > 6 {
			level = 6
		}
		return strings.Repeat("#", level) + " " + renderInline(node.Content)
	case TypeParagraph:
		return renderInline(node.Content)
	case TypeBulletList:
		items := make([]string, 0, len(node.Content))
		for _, item := range node.Content {
			items = append(items, renderListItem(item, "- "))
		}
		return strings.Join(items, "\n")
	case TypeOrderedList:
		start := attrInt(node.Attrs, "start")
		if start < 1 {
			start = 1
		}
		items := make([]string, 0, len(node.Content))
		for i, item := range node.Content {
			items = append(items, renderListItem(item, fmt.Sprintf("%d. ", start+i)))
		}
		return strings.Join(items, "\n")
	case TypeListItem:
		return renderListItem(node, "- ")
	case TypeCodeBlock:
		var b strings.Builder
		b.WriteString("```")
		b.WriteString(attrString(node.Attrs, "language"))
		b.WriteString("\n")
		for _, child := range node.Content {
			b.WriteString(child.Text)
		}
		b.WriteString("\n```")
		return b.String()
	case TypeBlockquote:
		inner := renderBlocks(node.Content, "\n\n")
		lines := strings.Split(inner, "\n")
		for i, line := range lines {
			if line == "" {
				lines[i] = ">"
			} else {
				lines[i] = "> " + line
			}
		}
		return strings.Join(lines, "\n")
	case TypeHorizontalRule:
		return "---"
	case TypeTable:
		return renderTable(node)
	case TypeImage, TypeText, TypeHardBreak:
		return renderInline([]Node{node})
	default:
		if len(node.Content) > 0 && isInline(node.Content[0].Type) {
			return renderInline(node.Content)
		}
		return renderBlocks(node.Content, "\n\n")
	}
}

func renderListItem(item Node, marker string) string {
	body := renderBlocks(item.Content, "\n")
	indent := strings.Repeat(" ", len(marker))
	lines := strings.Split(body, "\n")
	for i, line := range lines {
		switch {
		case i == 0:
			lines[i] = marker + line
		case line != "":
			lines[i] = indent + line
		}
	}
	return strings.Join(lines, "\n")
}

func renderTable(table Node) string {
	var rows []string
	for i, row := range table.Content {
		cells := make([]string, 0, len(row.Content))
		for _, cell := range row.Content {
			text := strings.ReplaceAll(renderBlocks(cell.Content, " "), "|", `\|`)
			cells = append(cells, text)
		}
		rows = append(rows, "| "+strings.Join(cells, " | ")+" |")
		if i == 0 {
			sep := make([]string, len(cells))
			for j := range sep {
				sep[j] = "---"
			}
			rows = append(rows, "| "+strings.Join(sep, " | ")+" |")
		}
	}
	return strings.Join(rows, "\n")
}

func renderInline(content []Node) string {
	var b strings.Builder
	for _, node := range content {
		switch node.Type {
		case TypeText:
			b.WriteString(applyMarks(node.Text, node.Marks))
		case TypeHardBreak:
			b.WriteString("  \n")
		case TypeImage:
			b.WriteString("![")
			b.WriteString(attrString(node.Attrs, "alt"))
			b.WriteString("](")
			b.WriteString(attrString(node.Attrs, "src"))
			if title := attrString(node.Attrs, "title"); title != "" {
				fmt.Fprintf(&b, " %q", title)
			}
			b.WriteString(")")
		default:
			b.WriteString(renderInline(node.Content))
		}
	}
	return b.String()
}

func applyMarks(text string, marks []Mark) string {
	result := text
	for i := len(marks) - 1; i >= 0; i-- {
		switch marks[i].Type {
		case MarkBold:
			result = "**" + result + "**"
		case MarkItalic:
			result = "*" + result + "*"
		case MarkCode:
			result = "`" + result + "`"
		case MarkStrike:
			result = "~~" + result + "~~"
		case MarkLink:
			href := attrString(marks[i].Attrs, "href")
			if title := attrString(marks[i].Attrs, "title"); title != "" {
				result = fmt.Sprintf("[%s](%s %q)", result, href, title)
			} else {
				result = fmt.Sprintf("[%s](%s)", result, href)
			}
		}
	}
	return result
}
