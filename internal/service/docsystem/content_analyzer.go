package docsystem

import (
	"strings"
	"unicode/utf8"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"

	"docvault/internal/config"
	docsysSvc "docvault/internal/domain/services/docsystem"
)

type contentAnalyzerService struct {
	md goldmark.Markdown
}

// NewContentAnalyzer creates a new content analyzer service
func NewContentAnalyzer() docsysSvc.ContentAnalyzer {
	return &contentAnalyzerService{
		md: goldmark.New(goldmark.WithExtensions(extension.GFM)),
	}
}

// CountWords counts whitespace-separated words of the readable text
func (s *contentAnalyzerService) CountWords(markdown string) int {
	return len(strings.Fields(s.CleanMarkdown(markdown)))
}

// CountCharacters counts the characters of the readable text
func (s *contentAnalyzerService) CountCharacters(markdown string) int {
	return utf8.RuneCountInString(s.CleanMarkdown(markdown))
}

// ReadingMinutes estimates reading time at a fixed words-per-minute rate,
// rounded up; empty content reads in zero minutes.
func (s *contentAnalyzerService) ReadingMinutes(words int) int {
	if words <= 0 {
		return 0
	}
	return (words + config.WordsPerMinute - 1) / config.WordsPerMinute
}

// CleanMarkdown reduces markdown to its readable text: markup is dropped,
// code blocks and raw HTML are skipped, and whitespace collapses to single spaces.
func (s *contentAnalyzerService) CleanMarkdown(markdown string) string {
	source := []byte(markdown)
	root := s.md.Parser().Parse(text.NewReader(source))

	var b strings.Builder
	_ = ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		switch node := n.(type) {
		case *ast.FencedCodeBlock, *ast.CodeBlock, *ast.HTMLBlock, *ast.RawHTML:
			return ast.WalkSkipChildren, nil
		case *ast.Text:
			if entering {
				b.Write(node.Segment.Value(source))
				if node.SoftLineBreak() || node.HardLineBreak() {
					b.WriteByte(' ')
				}
			}
		case *ast.String:
			if entering {
				b.Write(node.Value)
			}
		case *ast.AutoLink:
			if entering {
				b.Write(node.Label(source))
			}
		}
		// Blocks never run together
		if !entering && n.Type() == ast.TypeBlock {
			b.WriteByte(' ')
		}
		return ast.WalkContinue, nil
	})
	return strings.Join(strings.Fields(b.String()), " ")
}
