package docsystem

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"docvault/internal/domain"
	docsysSvc "docvault/internal/domain/services/docsystem"
)

// ReadDirectory walks root and returns its contents as import entries with
// slash-separated paths relative to root. Directories become folder
// placeholders so empty ones survive the import. Hidden entries and OS
// metadata files are skipped. Files larger than maxBytes reject the walk.
func ReadDirectory(ctx context.Context, root string, maxBytes int64) ([]docsysSvc.ImportEntry, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("read directory: %w", err)
	}
	if !info.IsDir() {
		return nil, &domain.ValidationError{Message: fmt.Sprintf("%s is not a directory", root)}
	}

	var entries []docsysSvc.ImportEntry
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if path == root {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		if strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if isArchiveJunk(rel) {
			return nil
		}

		if d.IsDir() {
			entries = append(entries, docsysSvc.ImportEntry{Path: rel + "/"})
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}

		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		content, err := readLimited(f, maxBytes, rel)
		if err != nil {
			return err
		}
		if content == nil {
			content = []byte{}
		}
		entries = append(entries, docsysSvc.ImportEntry{Path: rel, Content: content})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}
