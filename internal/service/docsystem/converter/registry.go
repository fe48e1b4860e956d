// Package converter turns imported file content into markdown.
package converter

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	docsysSvc "docvault/internal/domain/services/docsystem"
)

// ConverterRegistry routes files to converters by lowercased extension.
// It is safe for concurrent use.
type ConverterRegistry struct {
	mu         sync.RWMutex
	converters map[string]docsysSvc.ContentConverter
}

// NewConverterRegistry creates a registry with the markdown, plain text and
// HTML converters registered.
func NewConverterRegistry() *ConverterRegistry {
	registry := &ConverterRegistry{
		converters: make(map[string]docsysSvc.ContentConverter),
	}
	registry.Register(NewMarkdownConverter())
	registry.Register(NewTextConverter())
	registry.Register(NewHTMLConverter())
	return registry
}

// Register maps every extension of converter to it, replacing any previous
// converter for the same extension.
func (r *ConverterRegistry) Register(converter docsysSvc.ContentConverter) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, ext := range converter.SupportedExtensions() {
		r.converters[normalizeExt(ext)] = converter
	}
}

// GetConverter returns the converter for ext, or nil when the type is unsupported
func (r *ConverterRegistry) GetConverter(ext string) docsysSvc.ContentConverter {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.converters[normalizeExt(ext)]
}

// Convert converts content with the converter registered for filename's extension
func (r *ConverterRegistry) Convert(ctx context.Context, filename string, content []byte) (string, error) {
	ext := filepath.Ext(filename)
	converter := r.GetConverter(ext)
	if converter == nil {
		return "", fmt.Errorf("unsupported file type %q", ext)
	}

	markdown, err := converter.Convert(ctx, content)
	if err != nil {
		return "", fmt.Errorf("%s converter: %w", converter.Name(), err)
	}
	return markdown, nil
}

// SupportedExtensions returns the registered extensions in sorted order
func (r *ConverterRegistry) SupportedExtensions() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	exts := make([]string, 0, len(r.converters))
	for ext := range r.converters {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

func normalizeExt(ext string) string {
	ext = strings.ToLower(ext)
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}
