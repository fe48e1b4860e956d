package docsystem

import (
	docsysSvc "docvault/internal/domain/services/docsystem"
)

// FileProcessorRegistry picks the processor that expands an upload. The
// processor list is fixed at construction and checked in order, so archives
// are claimed before the single-file fallback sees them.
type FileProcessorRegistry struct {
	processors []docsysSvc.FileProcessor
}

// NewFileProcessorRegistry returns the zip and individual-file processors,
// both bounded by maxBytes per extracted entry.
func NewFileProcessorRegistry(maxBytes int64) *FileProcessorRegistry {
	return &FileProcessorRegistry{processors: []docsysSvc.FileProcessor{
		NewZipFileProcessor(maxBytes),
		NewIndividualFileProcessor(maxBytes),
	}}
}

// GetProcessor returns nil when no processor accepts filename.
func (r *FileProcessorRegistry) GetProcessor(filename string) docsysSvc.FileProcessor {
	for _, p := range r.processors {
		if p.CanProcess(filename) {
			return p
		}
	}
	return nil
}
