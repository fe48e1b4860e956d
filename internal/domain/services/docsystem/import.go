package docsystem

import (
	"context"
	"errors"
	"io"

	"docvault/internal/domain"
)

// ImportService turns a flat set of (path, content) entries into a persisted collection
type ImportService interface {
	// Import normalizes the entries, converts every file into a CRDT snapshot
	// and persists one new collection with its folders and files.
	// Per-node failures are reported in the result; an error is returned only
	// when nothing could be imported (invalid input, collection not created).
	Import(ctx context.Context, req *ImportRequest) (*ImportResult, error)

	// ProcessFiles expands uploads (zip archives or individual files) with the
	// registered file processors and imports them as one collection.
	ProcessFiles(ctx context.Context, files []UploadedFile, collectionName string, onProgress ProgressFunc) (*ImportResult, error)
}

// UploadedFile is one upload of an import request: a zip archive or a
// single file named by its relative path
type UploadedFile struct {
	Filename string
	Content  io.Reader
}

// ImportEntry is one raw (relative path, content) pair.
// Content is nil for explicit folder placeholders.
type ImportEntry struct {
	Path    string
	Content []byte
}

// IsFolder reports whether the entry is a folder placeholder.
func (e ImportEntry) IsFolder() bool { return e.Content == nil }

// ImportRequest carries the entries of one import
type ImportRequest struct {
	Entries        []ImportEntry
	CollectionName string
	OnProgress     ProgressFunc
}

// Progress reports snapshot generation. Fraction is non-decreasing and
// reaches 1 exactly when every file has been processed.
type Progress struct {
	Done     int     `json:"done"`
	Total    int     `json:"total"`
	Fraction float64 `json:"fraction"`
	Path     string  `json:"path"`
}

// ProgressFunc receives progress updates. Calls are serialized.
type ProgressFunc func(Progress)

// ImportResult represents the result of an import
type ImportResult struct {
	CollectionID   string        `json:"collectionId"`
	CollectionName string        `json:"collectionName"`
	FileCount      int           `json:"fileCount"`
	FolderCount    int           `json:"folderCount"`
	Skipped        int           `json:"skipped"`
	Failed         int           `json:"failed"`
	Errors         []ImportError `json:"errors"`
}

// ImportError represents an error that occurred during import
type ImportError struct {
	File  string `json:"file"`
	Error string `json:"error"`
	err   error
}

// NewImportError records a failure for one path
func NewImportError(file string, err error) ImportError {
	return ImportError{File: file, Error: err.Error(), err: err}
}

// Unwrap returns the underlying error when the ImportError was built in-process
func (e ImportError) Unwrap() error { return e.err }

// Err summarizes node failures as a *domain.ImportPartialFailure, or nil.
func (r *ImportResult) Err() error {
	if r.Failed == 0 {
		return nil
	}
	errs := make([]error, 0, len(r.Errors))
	for _, e := range r.Errors {
		if e.err != nil {
			errs = append(errs, e.err)
		} else {
			errs = append(errs, errors.New(e.Error))
		}
	}
	return &domain.ImportPartialFailure{Failed: r.Failed, Errors: errs}
}
