package docsystem

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContentAnalyzer(t *testing.T) {
	analyzer := NewContentAnalyzer()

	tests := []struct {
		name     string
		markdown string
		words    int
		clean    string
	}{
		{"empty", "", 0, ""},
		{"heading and paragraph", "# Title\n\nTwo words", 3, "Title Two words"},
		{"emphasis", "**bold** and _italic_", 3, "bold and italic"},
		{"list", "- one\n- two\n1. three", 3, "one two three"},
		{"code block ignored", "before\n```\nfunc main() {}\n```\nafter", 2, "before after"},
		{"link text kept", "see [the docs](https://example.com)", 3, "see the docs"},
		{"soft break", "line one\nline two", 4, "line one line two"},
		{"table cells", "| a | b |\n|---|---|\n| c | d |", 4, "a b c d"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.words, analyzer.CountWords(tt.markdown))
			assert.Equal(t, tt.clean, analyzer.CleanMarkdown(tt.markdown))
		})
	}

	assert.Equal(t, 11, analyzer.CountCharacters("# Héllo\n\nworld"))

	assert.Equal(t, 0, analyzer.ReadingMinutes(0))
	assert.Equal(t, 1, analyzer.ReadingMinutes(1))
	assert.Equal(t, 1, analyzer.ReadingMinutes(225))
	assert.Equal(t, 2, analyzer.ReadingMinutes(226))
	assert.Equal(t, 5, analyzer.ReadingMinutes(analyzer.CountWords(strings.Repeat("word ", 1000))))
}
