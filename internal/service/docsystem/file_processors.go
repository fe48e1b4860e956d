package docsystem

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"docvault/internal/domain"
	docsysSvc "docvault/internal/domain/services/docsystem"
)

// zipFileProcessor expands zip archives, preserving their folder structure.
// Directory entries become folder placeholders.
type zipFileProcessor struct {
	maxBytes int64
}

// NewZipFileProcessor creates a zip processor; archives larger than maxBytes
// (compressed or expanded) are rejected.
func NewZipFileProcessor(maxBytes int64) docsysSvc.FileProcessor {
	return &zipFileProcessor{maxBytes: maxBytes}
}

// CanProcess returns true for .zip files
func (p *zipFileProcessor) CanProcess(filename string) bool {
	return strings.ToLower(filepath.Ext(filename)) == ".zip"
}

// Extract reads every entry of the archive
func (p *zipFileProcessor) Extract(ctx context.Context, file io.Reader, filename string) ([]docsysSvc.ImportEntry, error) {
	zipData, err := readLimited(file, p.maxBytes, filename)
	if err != nil {
		return nil, err
	}

	zipFile, err := zip.NewReader(bytes.NewReader(zipData), int64(len(zipData)))
	if err != nil {
		return nil, &domain.ValidationError{Message: fmt.Sprintf("open zip %s: %v", filename, err)}
	}

	var (
		entries []docsysSvc.ImportEntry
		total   int64
	)
	for _, zipEntry := range zipFile.File {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if isArchiveJunk(zipEntry.Name) {
			continue
		}
		if zipEntry.FileInfo().IsDir() {
			entries = append(entries, docsysSvc.ImportEntry{Path: zipEntry.Name})
			continue
		}

		content, err := p.readEntry(zipEntry)
		if err != nil {
			return nil, err
		}
		total += int64(len(content))
		if p.maxBytes > 0 && total > p.maxBytes {
			return nil, &domain.ValidationError{Message: fmt.Sprintf("zip %s expands beyond %d bytes", filename, p.maxBytes)}
		}
		entries = append(entries, docsysSvc.ImportEntry{Path: zipEntry.Name, Content: content})
	}
	return entries, nil
}

func (p *zipFileProcessor) readEntry(zipEntry *zip.File) ([]byte, error) {
	fileReader, err := zipEntry.Open()
	if err != nil {
		return nil, &domain.ValidationError{Message: fmt.Sprintf("open %s: %v", zipEntry.Name, err)}
	}
	defer fileReader.Close()
	return readLimited(fileReader, p.maxBytes, zipEntry.Name)
}

// Name returns the processor name
func (p *zipFileProcessor) Name() string {
	return "ZipFileProcessor"
}

// individualFileProcessor passes a single uploaded file through as one entry.
// Whether its type is supported is decided by the converter registry during import.
type individualFileProcessor struct {
	maxBytes int64
}

// NewIndividualFileProcessor creates the fallback processor for single files
func NewIndividualFileProcessor(maxBytes int64) docsysSvc.FileProcessor {
	return &individualFileProcessor{maxBytes: maxBytes}
}

// CanProcess accepts any file the zip processor did not claim
func (p *individualFileProcessor) CanProcess(filename string) bool {
	return filename != ""
}

// Extract returns the file as a single entry at its relative path
func (p *individualFileProcessor) Extract(ctx context.Context, file io.Reader, filename string) ([]docsysSvc.ImportEntry, error) {
	content, err := readLimited(file, p.maxBytes, filename)
	if err != nil {
		return nil, err
	}
	return []docsysSvc.ImportEntry{{Path: filename, Content: content}}, nil
}

// Name returns the processor name
func (p *individualFileProcessor) Name() string {
	return "IndividualFileProcessor"
}

func readLimited(r io.Reader, maxBytes int64, name string) ([]byte, error) {
	if maxBytes > 0 {
		r = io.LimitReader(r, maxBytes+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	if maxBytes > 0 && int64(len(data)) > maxBytes {
		return nil, &domain.ValidationError{Message: fmt.Sprintf("%s exceeds %d bytes", name, maxBytes)}
	}
	return data, nil
}

// isArchiveJunk reports OS metadata entries that are never user content
func isArchiveJunk(name string) bool {
	base := filepath.Base(strings.TrimSuffix(name, "/"))
	return strings.HasPrefix(name, "__MACOSX/") || base == ".DS_Store" || base == "Thumbs.db"
}
