package docsystem

import "context"

// ContentConverter turns the bytes of one imported file into markdown, which
// the import pipeline then parses into a structural document.
// Implementations are selected by file extension and must be safe for
// concurrent use by the import workers.
type ContentConverter interface {
	// Convert returns the markdown form of input
	Convert(ctx context.Context, input []byte) (markdown string, err error)

	// SupportedExtensions lists handled extensions with their leading dot
	SupportedExtensions() []string

	// Name identifies the converter in logs
	Name() string
}
