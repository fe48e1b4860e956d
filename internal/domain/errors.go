package domain

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// HTTPError defines errors that can be mapped to HTTP status codes.
type HTTPError interface {
	error
	StatusCode() int
}

// Domain error types implementing HTTPError interface
type (
	// NotFoundError indicates a resource was not found
	NotFoundError struct {
		Message string
	}

	// ValidationError indicates invalid input
	ValidationError struct {
		Message string
	}
)

func (e *NotFoundError) Error() string   { return e.Message }
func (e *ValidationError) Error() string { return e.Message }

func (e *NotFoundError) StatusCode() int   { return http.StatusNotFound }
func (e *ValidationError) StatusCode() int { return http.StatusBadRequest }

func (e *NotFoundError) Is(target error) bool   { return target == ErrNotFound }
func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// Sentinel errors - use with errors.Is()
var (
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("already exists")
	ErrValidation      = errors.New("validation failed")
	ErrCorruptSnapshot = errors.New("corrupt snapshot")
	ErrPersistence     = errors.New("persistence failure")
	ErrDanglingParent  = errors.New("dangling parent")
	ErrPartialImport   = errors.New("import partially failed")
)

// ConflictError represents a resource conflict with details about the existing resource
type ConflictError struct {
	Message      string // Human-readable error message
	ResourceType string // Type of resource (node, collection)
	ResourceID   string // ID of the existing/conflicting resource
}

func (e *ConflictError) Error() string { return e.Message }

func (e *ConflictError) StatusCode() int { return http.StatusConflict }

// Is allows errors.Is() to match against ErrConflict
func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}

// InvalidPathError reports a malformed import path. The normalizer never
// guesses intent, so any such path rejects the import before anything is written.
type InvalidPathError struct {
	Path   string
	Reason string
}

func (e *InvalidPathError) Error() string {
	return fmt.Sprintf("invalid path %q: %s", e.Path, e.Reason)
}

func (e *InvalidPathError) StatusCode() int { return http.StatusBadRequest }

func (e *InvalidPathError) Is(target error) bool {
	return target == ErrValidation
}

// DanglingParentError reports a node whose parent is missing from the node set
// (or is not a folder). Tree building recovers by promoting the node to root.
type DanglingParentError struct {
	NodeID   string
	ParentID string
	Reason   string
}

func (e *DanglingParentError) Error() string {
	return fmt.Sprintf("node %s: parent %s %s", e.NodeID, e.ParentID, e.Reason)
}

func (e *DanglingParentError) Is(target error) bool {
	return target == ErrDanglingParent
}

// CorruptSnapshotError reports a persisted snapshot that could not be decoded.
// Callers recover by starting from an empty document.
type CorruptSnapshotError struct {
	NodeID string
	Err    error
}

func (e *CorruptSnapshotError) Error() string {
	if e.NodeID == "" {
		return fmt.Sprintf("corrupt snapshot: %v", e.Err)
	}
	return fmt.Sprintf("corrupt snapshot for node %s: %v", e.NodeID, e.Err)
}

func (e *CorruptSnapshotError) Unwrap() error { return e.Err }

func (e *CorruptSnapshotError) StatusCode() int { return http.StatusUnprocessableEntity }

func (e *CorruptSnapshotError) Is(target error) bool {
	return target == ErrCorruptSnapshot
}

// PersistenceError wraps a store failure (unreachable or rejected write).
// It is always surfaced to the caller and is retryable.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

func (e *PersistenceError) StatusCode() int { return http.StatusServiceUnavailable }

func (e *PersistenceError) Is(target error) bool {
	return target == ErrPersistence
}

// NewPersistenceError wraps err unless it already carries a domain meaning
// (not found, conflict, validation) that callers branch on.
func NewPersistenceError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrConflict) || errors.Is(err, ErrValidation) {
		return err
	}
	var pe *PersistenceError
	if errors.As(err, &pe) {
		return err
	}
	return &PersistenceError{Op: op, Err: err}
}

// ImportPartialFailure summarizes node-level failures of an import that still
// completed. The import result carries accurate counts of what landed.
type ImportPartialFailure struct {
	Failed int
	Errors []error
}

func (e *ImportPartialFailure) Error() string {
	msgs := make([]string, 0, len(e.Errors))
	for _, err := range e.Errors {
		msgs = append(msgs, err.Error())
	}
	return fmt.Sprintf("%d node(s) failed during import: %s", e.Failed, strings.Join(msgs, "; "))
}

func (e *ImportPartialFailure) Unwrap() []error { return e.Errors }

func (e *ImportPartialFailure) Is(target error) bool {
	return target == ErrPartialImport
}
