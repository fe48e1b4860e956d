package docsystem

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"docvault/internal/crdt"
	"docvault/internal/domain"
	models "docvault/internal/domain/models/docsystem"
	docsysSvc "docvault/internal/domain/services/docsystem"
	"docvault/internal/editor"
	"docvault/internal/snapshot"
)

// ErrWorkspaceClosed is returned once the editing workspace has shut down.
var ErrWorkspaceClosed = errors.New("editing workspace is shut down")

// openDocument is one node's live document and the session bound to it
type openDocument struct {
	lifecycle *snapshot.Lifecycle
	session   *editor.Session
}

type editingService struct {
	nodes    docsysSvc.NodeService
	analyzer docsysSvc.ContentAnalyzer
	opts     snapshot.Options
	logger   *slog.Logger

	opening singleflight.Group

	mu     sync.Mutex
	open   map[string]*openDocument
	closed bool
}

// NewEditingService creates the editing workspace. saveDelay is the autosave
// debounce, saveTimeout bounds each snapshot write.
func NewEditingService(
	nodes docsysSvc.NodeService,
	analyzer docsysSvc.ContentAnalyzer,
	saveDelay, saveTimeout time.Duration,
	logger *slog.Logger,
) docsysSvc.EditingService {
	return &editingService{
		nodes:    nodes,
		analyzer: analyzer,
		opts: snapshot.Options{
			SaveDelay:   saveDelay,
			SaveTimeout: saveTimeout,
			Logger:      logger,
		},
		logger: logger,
		open:   make(map[string]*openDocument),
	}
}

// ApplyContent replaces the node's document and schedules a debounced save
func (s *editingService) ApplyContent(ctx context.Context, nodeID string, doc editor.Node) (*docsysSvc.EditingStatus, error) {
	if err := doc.Validate(); err != nil {
		return nil, &domain.ValidationError{Message: err.Error()}
	}

	od, err := s.acquire(ctx, nodeID)
	if err != nil {
		return nil, err
	}
	return s.applyTo(ctx, nodeID, od, doc)
}

// applyTo writes doc into od. A concurrent Close can dispose od after it was
// acquired; the node is then reopened once and the edit applied there.
func (s *editingService) applyTo(ctx context.Context, nodeID string, od *openDocument, doc editor.Node) (*docsysSvc.EditingStatus, error) {
	err := applyDocument(od, doc)
	if errors.Is(err, snapshot.ErrNotReady) {
		s.logger.Debug("document closed during edit, reopening", "node_id", nodeID)
		if od, err = s.acquire(ctx, nodeID); err != nil {
			return nil, err
		}
		err = applyDocument(od, doc)
	}
	if err != nil {
		return nil, fmt.Errorf("apply content to %s: %w", nodeID, err)
	}
	od.lifecycle.ScheduleSave(0)

	return statusOf(od.lifecycle.Status()), nil
}

func applyDocument(od *openDocument, doc editor.Node) error {
	if err := od.lifecycle.Mutate(func(*crdt.Doc) error {
		return od.session.SetContent(doc)
	}); err != nil {
		return err
	}
	return od.lifecycle.Commit()
}

// Content returns the open document, or the stored one when the node is not open
func (s *editingService) Content(ctx context.Context, nodeID string) (editor.Node, error) {
	if od := s.lookup(nodeID); od != nil {
		return readSession(od)
	}

	node, err := s.nodes.LoadNode(ctx, nodeID)
	if err != nil {
		return editor.Node{}, err
	}
	return storedContent(node)
}

// Markdown renders the node's current document
func (s *editingService) Markdown(ctx context.Context, nodeID string) (*docsysSvc.MarkdownExport, error) {
	node, err := s.nodes.LoadNode(ctx, nodeID)
	if err != nil {
		return nil, err
	}

	var doc editor.Node
	if od := s.lookup(nodeID); od != nil {
		doc, err = readSession(od)
	} else {
		doc, err = storedContent(node)
	}
	if err != nil {
		return nil, err
	}

	markdown := editor.ToMarkdown(doc)
	words := s.analyzer.CountWords(markdown)
	return &docsysSvc.MarkdownExport{
		NodeID:         node.ID,
		Name:           node.Name,
		Markdown:       markdown,
		WordCount:      words,
		CharacterCount: s.analyzer.CountCharacters(markdown),
		ReadingMinutes: s.analyzer.ReadingMinutes(words),
	}, nil
}

// Flush saves an open node immediately. A node that is not open has
// nothing to flush.
func (s *editingService) Flush(ctx context.Context, nodeID string) (*docsysSvc.EditingStatus, error) {
	od := s.lookup(nodeID)
	if od == nil {
		return closedStatus(nodeID), nil
	}
	err := od.lifecycle.SaveNow()
	return statusOf(od.lifecycle.Status()), err
}

// Close disposes the node's document. Closing a node that is not open is a no-op.
func (s *editingService) Close(ctx context.Context, nodeID string, flush bool) error {
	s.mu.Lock()
	od, ok := s.open[nodeID]
	delete(s.open, nodeID)
	s.mu.Unlock()
	if !ok {
		return nil
	}
	return s.dispose(nodeID, od, flush)
}

func (s *editingService) Status(ctx context.Context, nodeID string) (*docsysSvc.EditingStatus, error) {
	od := s.lookup(nodeID)
	if od == nil {
		return closedStatus(nodeID), nil
	}
	return statusOf(od.lifecycle.Status()), nil
}

// Shutdown flushes and closes every open document. Later calls that would
// open a document fail with ErrWorkspaceClosed.
func (s *editingService) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.closed = true
	open := s.open
	s.open = make(map[string]*openDocument)
	s.mu.Unlock()

	var errs []error
	for nodeID, od := range open {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		if err := s.dispose(nodeID, od, true); err != nil {
			errs = append(errs, fmt.Errorf("node %s: %w", nodeID, err))
		}
	}
	s.logger.Info("editing workspace shut down", "documents", len(open), "errors", len(errs))
	return errors.Join(errs...)
}

func (s *editingService) lookup(nodeID string) *openDocument {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.open[nodeID]
}

// acquire returns the node's open document, loading it on first use.
// Concurrent first uses share one load.
func (s *editingService) acquire(ctx context.Context, nodeID string) (*openDocument, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrWorkspaceClosed
	}
	if od, ok := s.open[nodeID]; ok {
		s.mu.Unlock()
		return od, nil
	}
	s.mu.Unlock()

	v, err, _ := s.opening.Do(nodeID, func() (interface{}, error) {
		if od := s.lookup(nodeID); od != nil {
			return od, nil
		}
		od, err := s.load(ctx, nodeID)
		if err != nil {
			return nil, err
		}

		s.mu.Lock()
		defer s.mu.Unlock()
		if s.closed {
			od.session.Destroy()
			od.lifecycle.Dispose(false)
			return nil, ErrWorkspaceClosed
		}
		s.open[nodeID] = od
		return od, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*openDocument), nil
}

func (s *editingService) load(ctx context.Context, nodeID string) (*openDocument, error) {
	node, err := s.nodes.LoadNode(ctx, nodeID)
	if err != nil {
		return nil, err
	}
	if node.IsFolder() {
		return nil, &domain.ValidationError{Message: fmt.Sprintf("node %s is a folder and cannot be edited", nodeID)}
	}

	lc := snapshot.New(nodeID, func(ctx context.Context, data []byte) error {
		return s.nodes.SaveSnapshot(ctx, nodeID, data)
	}, s.opts)
	if err := lc.Load(node.Snapshot); err != nil {
		if !errors.Is(err, domain.ErrCorruptSnapshot) {
			return nil, err
		}
		// Editing continues from an empty document; the first save replaces the bad snapshot
		s.logger.Warn("opened node with corrupt snapshot", "node_id", nodeID, "error", err)
	}

	session := editor.NewSession(editor.EmptyDoc())
	if err := lc.View(session.Bind); err != nil {
		lc.Dispose(false)
		return nil, fmt.Errorf("bind session to %s: %w", nodeID, err)
	}
	s.logger.Debug("document opened", "node_id", nodeID)
	return &openDocument{lifecycle: lc, session: session}, nil
}

func (s *editingService) dispose(nodeID string, od *openDocument, flush bool) error {
	_ = od.lifecycle.View(func(*crdt.Doc) error {
		od.session.Destroy()
		return nil
	})
	err := od.lifecycle.Dispose(flush)
	if err != nil {
		s.logger.Warn("document closed with save error", "node_id", nodeID, "flush", flush, "error", err)
		return err
	}
	s.logger.Debug("document closed", "node_id", nodeID, "flush", flush)
	return nil
}

func readSession(od *openDocument) (editor.Node, error) {
	var doc editor.Node
	err := od.lifecycle.View(func(*crdt.Doc) error {
		var err error
		doc, err = od.session.Content()
		return err
	})
	return doc, err
}

// storedContent decodes a node's persisted snapshot without opening it
func storedContent(node *models.Node) (editor.Node, error) {
	if node.IsFolder() {
		return editor.Node{}, &domain.ValidationError{Message: fmt.Sprintf("node %s is a folder and has no content", node.ID)}
	}
	doc, err := crdt.Load(node.Snapshot)
	if err != nil {
		return editor.Node{}, &domain.CorruptSnapshotError{NodeID: node.ID, Err: err}
	}
	return editor.DocumentOf(doc)
}

func statusOf(st snapshot.Status) *docsysSvc.EditingStatus {
	out := &docsysSvc.EditingStatus{
		NodeID: st.NodeID,
		Open:   st.State != snapshot.StateUnloaded,
		State:  st.State.String(),
		Dirty:  st.Dirty,
		Saving: st.InFlight || st.State == snapshot.StateSaving,
	}
	if !st.LastSaved.IsZero() {
		saved := st.LastSaved
		out.LastSavedAt = &saved
	}
	if st.Err != nil {
		out.Error = st.Err.Error()
	}
	return out
}

func closedStatus(nodeID string) *docsysSvc.EditingStatus {
	return &docsysSvc.EditingStatus{
		NodeID: nodeID,
		State:  snapshot.StateUnloaded.String(),
	}
}
