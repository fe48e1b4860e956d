package converter

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	docsysSvc "docvault/internal/domain/services/docsystem"
)

var (
	utf8BOM    = []byte{0xEF, 0xBB, 0xBF}
	errNotUTF8 = errors.New("content is not valid UTF-8")
)

// passthroughConverter serves formats that already are markdown. Content is
// only normalized: a leading byte order mark is dropped and line endings
// become "\n".
type passthroughConverter struct {
	name       string
	extensions []string
}

// NewMarkdownConverter handles .md and .markdown files
func NewMarkdownConverter() docsysSvc.ContentConverter {
	return &passthroughConverter{name: "markdown", extensions: []string{".md", ".markdown"}}
}

// NewTextConverter handles plain text, which reads as markdown paragraphs
func NewTextConverter() docsysSvc.ContentConverter {
	return &passthroughConverter{name: "plaintext", extensions: []string{".txt", ".text"}}
}

func (c *passthroughConverter) Convert(ctx context.Context, input []byte) (string, error) {
	return normalizeText(input)
}

func (c *passthroughConverter) SupportedExtensions() []string { return c.extensions }

func (c *passthroughConverter) Name() string { return c.name }

// normalizeText rejects content that is not UTF-8 so binary files renamed
// to a text extension fail conversion instead of producing garbage.
func normalizeText(input []byte) (string, error) {
	input = bytes.TrimPrefix(input, utf8BOM)
	if !utf8.Valid(input) {
		return "", errNotUTF8
	}
	s := strings.ReplaceAll(string(input), "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n"), nil
}
