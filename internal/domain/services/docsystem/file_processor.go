package docsystem

import (
	"context"
	"io"
)

// FileProcessor turns one uploaded file into the entries it holds. A plain
// file yields itself; an archive yields its members.
type FileProcessor interface {
	CanProcess(filename string) bool
	Extract(ctx context.Context, file io.Reader, filename string) ([]ImportEntry, error)
	// Name identifies the processor in logs
	Name() string
}
