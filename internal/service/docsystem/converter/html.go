package converter

import (
	"context"
	"fmt"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/JohannesKaufmann/html-to-markdown/plugin"
	"github.com/microcosm-cc/bluemonday"

	docsysSvc "docvault/internal/domain/services/docsystem"
)

// htmlConverter sanitizes HTML and converts what is left to GitHub flavored
// markdown, so tables and strikethrough survive the import.
type htmlConverter struct {
	policy    *bluemonday.Policy
	converter *md.Converter
}

// NewHTMLConverter creates the converter for .html and .htm files
func NewHTMLConverter() docsysSvc.ContentConverter {
	// UGC keeps formatting, headings, lists, links, images and tables while
	// removing scripts, event handlers and javascript: URLs.
	policy := bluemonday.UGCPolicy()
	policy.AllowDataURIImages()

	converter := md.NewConverter("", true, nil)
	converter.Use(plugin.GitHubFlavored())

	return &htmlConverter{policy: policy, converter: converter}
}

func (c *htmlConverter) Convert(ctx context.Context, input []byte) (string, error) {
	text, err := normalizeText(input)
	if err != nil {
		return "", err
	}

	sanitized := c.policy.Sanitize(text)
	markdown, err := c.converter.ConvertString(sanitized)
	if err != nil {
		return "", fmt.Errorf("convert html: %w", err)
	}
	return strings.TrimSpace(markdown), nil
}

func (c *htmlConverter) SupportedExtensions() []string {
	return []string{".html", ".htm"}
}

func (c *htmlConverter) Name() string {
	return "html"
}
