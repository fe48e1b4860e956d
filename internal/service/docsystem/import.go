package docsystem

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"strings"
	"sync"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"docvault/internal/config"
	"docvault/internal/domain"
	models "docvault/internal/domain/models/docsystem"
	docsysRepo "docvault/internal/domain/repositories/docsystem"
	docsysSvc "docvault/internal/domain/services/docsystem"
	"docvault/internal/editor"
	"docvault/internal/service/docsystem/converter"
)

// importService implements the ImportService interface
type importService struct {
	collectionRepo  docsysRepo.CollectionRepository
	nodeRepo        docsysRepo.NodeRepository
	converters      *converter.ConverterRegistry
	processors      *FileProcessorRegistry
	contentAnalyzer docsysSvc.ContentAnalyzer
	workers         int
	logger          *slog.Logger
	now             func() time.Time
}

// NewImportService creates a new import service. workers bounds the number
// of files converted in parallel.
func NewImportService(
	collectionRepo docsysRepo.CollectionRepository,
	nodeRepo docsysRepo.NodeRepository,
	converters *converter.ConverterRegistry,
	processors *FileProcessorRegistry,
	contentAnalyzer docsysSvc.ContentAnalyzer,
	workers int,
	logger *slog.Logger,
) docsysSvc.ImportService {
	if workers < 1 {
		workers = 1
	}
	return &importService{
		collectionRepo:  collectionRepo,
		nodeRepo:        nodeRepo,
		converters:      converters,
		processors:      processors,
		contentAnalyzer: contentAnalyzer,
		workers:         workers,
		logger:          logger,
		now:             time.Now,
	}
}

// convertedFile is the outcome of converting one file leaf
type convertedFile struct {
	snapshot []byte
	metadata models.Metadata
	err      error
}

// ProcessFiles expands uploads and imports them as one collection
func (s *importService) ProcessFiles(ctx context.Context, files []docsysSvc.UploadedFile, collectionName string, onProgress docsysSvc.ProgressFunc) (*docsysSvc.ImportResult, error) {
	var entries []docsysSvc.ImportEntry
	for _, file := range files {
		processor := s.processors.GetProcessor(file.Filename)
		if processor == nil {
			return nil, &domain.ValidationError{Message: fmt.Sprintf("no processor for %q", file.Filename)}
		}
		extracted, err := processor.Extract(ctx, file.Content, file.Filename)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", processor.Name(), err)
		}
		s.logger.Debug("upload expanded",
			"processor", processor.Name(),
			"filename", file.Filename,
			"entries", len(extracted),
		)
		entries = append(entries, extracted...)
	}

	return s.Import(ctx, &docsysSvc.ImportRequest{
		Entries:        entries,
		CollectionName: collectionName,
		OnProgress:     onProgress,
	})
}

// Import runs the pipeline: normalize, convert every file into a snapshot,
// then persist the collection, folders parents-first and files.
func (s *importService) Import(ctx context.Context, req *docsysSvc.ImportRequest) (*docsysSvc.ImportResult, error) {
	if err := s.validateImportRequest(req); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	result := &docsysSvc.ImportResult{Errors: []docsysSvc.ImportError{}}

	// Unsupported file types never reach the tree
	supported := make([]docsysSvc.ImportEntry, 0, len(req.Entries))
	for _, entry := range req.Entries {
		if !entry.IsFolder() && s.converters.GetConverter(path.Ext(entry.Path)) == nil {
			s.logger.Debug("skipping unsupported file type", "file", entry.Path)
			result.Skipped++
			continue
		}
		supported = append(supported, entry)
	}
	if len(supported) == 0 {
		return nil, &domain.ValidationError{Message: "import contains no supported files"}
	}

	tree, err := NormalizeEntries(supported)
	if err != nil {
		return nil, err
	}

	files := tree.Files()
	converted, err := s.convertAll(ctx, tree, files, req.OnProgress)
	if err != nil {
		return nil, err
	}

	now := s.now()
	collection := &models.Collection{
		ID:   uuid.NewString(),
		Name: s.collectionName(req.CollectionName, tree, now),
		Metadata: models.Metadata{
			"importedAt": now.UTC().Format(time.RFC3339),
			"fileCount":  len(files),
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.collectionRepo.Create(ctx, collection); err != nil {
		s.logger.Error("import aborted: collection not created", "error", err)
		return nil, domain.NewPersistenceError("create collection", err)
	}
	result.CollectionID = collection.ID
	result.CollectionName = collection.Name

	// Identity is assigned up front so every parent id is known before any write
	ids := make([]string, len(tree.Nodes))
	for i := 1; i < len(tree.Nodes); i++ {
		ids[i] = uuid.NewString()
	}
	failed := make(map[int]bool)
	parentOf := func(idx int) *string {
		p := tree.Nodes[idx].Parent
		if p == rootIndex {
			return nil
		}
		id := ids[p]
		return &id
	}

	for _, idx := range tree.FoldersByDepth() {
		node := tree.Nodes[idx]
		if failed[node.Parent] {
			failed[idx] = true
			s.recordFailure(result, node.Path, fmt.Errorf("skipped: parent folder %q was not created", tree.Nodes[node.Parent].Path))
			continue
		}
		folder := models.NewFolderNode(ids[idx], collection.ID, node.Name, parentOf(idx), models.Metadata{"path": node.Path})
		folder.CreatedAt, folder.UpdatedAt = now, now
		if err := s.nodeRepo.Create(ctx, folder); err != nil {
			failed[idx] = true
			s.recordFailure(result, node.Path, fmt.Errorf("create folder: %w", domain.NewPersistenceError("create folder", err)))
			continue
		}
		result.FolderCount++
	}

	for i, idx := range files {
		node := tree.Nodes[idx]
		out := converted[i]
		if out.err != nil {
			result.Errors = append(result.Errors, docsysSvc.NewImportError(node.Path, out.err))
		}
		if failed[node.Parent] {
			s.recordFailure(result, node.Path, fmt.Errorf("skipped: parent folder %q was not created", tree.Nodes[node.Parent].Path))
			continue
		}
		file := models.NewFileNode(ids[idx], collection.ID, node.Name, parentOf(idx), out.snapshot, out.metadata)
		file.CreatedAt, file.UpdatedAt = now, now
		if err := s.nodeRepo.Create(ctx, file); err != nil {
			s.recordFailure(result, node.Path, fmt.Errorf("create file: %w", domain.NewPersistenceError("create file", err)))
			continue
		}
		result.FileCount++
	}

	s.logger.Info("import complete",
		"collection_id", collection.ID,
		"collection_name", collection.Name,
		"files", result.FileCount,
		"folders", result.FolderCount,
		"skipped", result.Skipped,
		"failed", result.Failed,
	)
	return result, nil
}

// convertAll converts every file leaf with bounded parallelism. Each file
// gets its own document and session. Progress is reported per file.
func (s *importService) convertAll(ctx context.Context, tree *FileTree, files []int, onProgress docsysSvc.ProgressFunc) ([]convertedFile, error) {
	out := make([]convertedFile, len(files))
	progress := newProgressReporter(len(files), onProgress)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, idx := range files {
		node := tree.Nodes[idx]
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			out[i] = s.convertFile(gctx, node)
			progress.step(node.Path)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("convert files: %w", err)
	}
	progress.finish()
	return out, nil
}

// convertFile turns one file's raw content into a snapshot. A failure still
// yields an empty-document snapshot so the node can be created.
func (s *importService) convertFile(ctx context.Context, node FileTreeNode) convertedFile {
	ext := path.Ext(node.Name)
	metadata := models.Metadata{
		"path":              node.Path,
		"originalExtension": strings.TrimPrefix(strings.ToLower(ext), "."),
	}

	fail := func(err error) convertedFile {
		s.logger.Warn("file conversion failed, using empty document", "file", node.Path, "error", err)
		snap, emptyErr := EmptySnapshot()
		if emptyErr != nil {
			err = errors.Join(err, emptyErr)
		}
		metadata["wordCount"] = 0
		metadata["readingMinutes"] = 0
		return convertedFile{snapshot: snap, metadata: metadata, err: err}
	}

	frontmatter, body, err := SplitFrontmatter(node.Content)
	if err != nil {
		s.logger.Debug("ignoring malformed frontmatter", "file", node.Path, "error", err)
	}
	if frontmatter != nil {
		metadata["frontmatter"] = frontmatter
	}

	markdown, err := s.converters.Convert(ctx, node.Name, body)
	if err != nil {
		return fail(fmt.Errorf("convert: %w", err))
	}
	doc, err := editor.FromMarkdown([]byte(markdown))
	if err != nil {
		return fail(fmt.Errorf("parse markdown: %w", err))
	}
	snap, err := BuildSnapshot(doc)
	if err != nil {
		return fail(fmt.Errorf("build snapshot: %w", err))
	}

	words := s.contentAnalyzer.CountWords(markdown)
	metadata["wordCount"] = words
	metadata["readingMinutes"] = s.contentAnalyzer.ReadingMinutes(words)
	return convertedFile{snapshot: snap, metadata: metadata}
}

// collectionName picks, in order: the explicit name, the top-level folder of
// the first sorted path, the stem of a lone file, a timestamped default.
func (s *importService) collectionName(explicit string, tree *FileTree, now time.Time) string {
	if name := strings.TrimSpace(explicit); name != "" {
		return name
	}
	first, isFolder := tree.FirstPath()
	if top, _, nested := strings.Cut(first, "/"); nested || isFolder {
		return top
	}
	if files := tree.Files(); len(files) == 1 && tree.Nodes[files[0]].Depth == 1 {
		return fileStem(tree.Nodes[files[0]].Name)
	}
	return "Import " + now.Format("2006-01-02 15:04:05")
}

func (s *importService) recordFailure(result *docsysSvc.ImportResult, file string, err error) {
	result.Failed++
	result.Errors = append(result.Errors, docsysSvc.NewImportError(file, err))
	s.logger.Warn("import node failed", "file", file, "error", err)
}

func (s *importService) validateImportRequest(req *docsysSvc.ImportRequest) error {
	return validation.ValidateStruct(req,
		validation.Field(&req.Entries, validation.Required),
		validation.Field(&req.CollectionName, validation.Length(0, config.MaxCollectionNameLength)),
	)
}

// fileStem strips the extension from a file name; dotfiles keep their name.
func fileStem(filename string) string {
	stem := strings.TrimSuffix(filename, path.Ext(filename))
	if stem == "" {
		return filename
	}
	return stem
}

// progressReporter serializes progress callbacks so fractions never go backwards
type progressReporter struct {
	mu    sync.Mutex
	done  int
	total int
	fn    docsysSvc.ProgressFunc
}

func newProgressReporter(total int, fn docsysSvc.ProgressFunc) *progressReporter {
	return &progressReporter{total: total, fn: fn}
}

func (p *progressReporter) step(path string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.done++
	if p.fn != nil {
		p.fn(docsysSvc.Progress{
			Done:     p.done,
			Total:    p.total,
			Fraction: float64(p.done) / float64(p.total),
			Path:     path,
		})
	}
}

// finish reports completion for imports without files
func (p *progressReporter) finish() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.total == 0 && p.fn != nil {
		p.fn(docsysSvc.Progress{Fraction: 1})
	}
}
