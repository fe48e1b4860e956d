package docsystem

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docvault/internal/domain"
	models "docvault/internal/domain/models/docsystem"
	docsysSvc "docvault/internal/domain/services/docsystem"
	"docvault/internal/editor"
)

func markdownDoc(t *testing.T, src string) editor.Node {
	t.Helper()
	doc, err := editor.FromMarkdown([]byte(src))
	require.NoError(t, err)
	return doc
}

func (f *fixture) editingService(delay time.Duration) *editingService {
	return NewEditingService(f.nodeService(), NewContentAnalyzer(), delay, time.Second, testLogger()).(*editingService)
}

func (f *fixture) fileNode(t *testing.T, id, markdown string) {
	t.Helper()
	req := &docsysSvc.CreateNodeRequest{ID: id, Name: id, Kind: models.NodeKindFile}
	if markdown != "" {
		req.Snapshot = mustSnapshot(t, markdown)
	}
	_, err := f.nodeService().CreateNode(context.Background(), req)
	require.NoError(t, err)
}

func storedMarkdown(t *testing.T, f *fixture, id string) string {
	t.Helper()
	node, err := f.store.Nodes().GetByID(context.Background(), id)
	require.NoError(t, err)
	return editor.ToMarkdown(documentOf(t, node.Snapshot))
}

func TestEditingApplyAndFlush(t *testing.T) {
	f := newFixture()
	f.fileNode(t, "n", "# Title\n\nfirst")
	svc := f.editingService(time.Hour)
	ctx := context.Background()

	status, err := svc.ApplyContent(ctx, "n", markdownDoc(t, "# Title\n\nsecond"))
	require.NoError(t, err)
	assert.True(t, status.Open)
	assert.True(t, status.Dirty)
	assert.Equal(t, "# Title\n\nfirst", storedMarkdown(t, f, "n"), "nothing saved before the debounce fires")

	status, err = svc.Flush(ctx, "n")
	require.NoError(t, err)
	assert.False(t, status.Dirty)
	assert.NotNil(t, status.LastSavedAt)
	assert.Equal(t, "# Title\n\nsecond", storedMarkdown(t, f, "n"))
}

func TestEditingDebouncesSaves(t *testing.T) {
	f := newFixture()
	f.fileNode(t, "n", "")
	svc := f.editingService(50 * time.Millisecond)
	ctx := context.Background()

	for _, text := range []string{"a", "ab", "abc", "abcd", "abcde"} {
		_, err := svc.ApplyContent(ctx, "n", markdownDoc(t, text))
		require.NoError(t, err)
	}

	require.Eventually(t, func() bool { return f.nodes.saveCount() == 1 }, 2*time.Second, 10*time.Millisecond)
	time.Sleep(150 * time.Millisecond)
	assert.Equal(t, 1, f.nodes.saveCount())
	assert.Equal(t, "abcde", storedMarkdown(t, f, "n"))
}

func TestEditingContentAndMarkdown(t *testing.T) {
	f := newFixture()
	f.fileNode(t, "n", "# Notes\n\nsome words here")
	svc := f.editingService(time.Hour)
	ctx := context.Background()

	stored, err := svc.Content(ctx, "n")
	require.NoError(t, err)
	assert.Equal(t, "# Notes\n\nsome words here", editor.ToMarkdown(stored))

	_, err = svc.ApplyContent(ctx, "n", markdownDoc(t, "# Notes\n\nedited"))
	require.NoError(t, err)

	open, err := svc.Content(ctx, "n")
	require.NoError(t, err)
	assert.Equal(t, "# Notes\n\nedited", editor.ToMarkdown(open))

	export, err := svc.Markdown(ctx, "n")
	require.NoError(t, err)
	assert.Equal(t, "n", export.Name)
	assert.Equal(t, "# Notes\n\nedited", export.Markdown)
	assert.Equal(t, 2, export.WordCount)
	assert.Equal(t, 1, export.ReadingMinutes)
}

func TestEditingClose(t *testing.T) {
	f := newFixture()
	f.fileNode(t, "keep", "original")
	f.fileNode(t, "drop", "original")
	svc := f.editingService(time.Hour)
	ctx := context.Background()

	for _, id := range []string{"keep", "drop"} {
		_, err := svc.ApplyContent(ctx, id, markdownDoc(t, "changed"))
		require.NoError(t, err)
	}

	require.NoError(t, svc.Close(ctx, "keep", true))
	require.NoError(t, svc.Close(ctx, "drop", false))
	assert.Equal(t, "changed", storedMarkdown(t, f, "keep"))
	assert.Equal(t, "original", storedMarkdown(t, f, "drop"))

	status, err := svc.Status(ctx, "keep")
	require.NoError(t, err)
	assert.False(t, status.Open)
	assert.Equal(t, "unloaded", status.State)

	assert.NoError(t, svc.Close(ctx, "keep", true), "closing twice is a no-op")
}

func TestEditingReopensDocumentClosedMidEdit(t *testing.T) {
	f := newFixture()
	f.fileNode(t, "n", "first")
	svc := f.editingService(time.Hour)
	ctx := context.Background()

	od, err := svc.acquire(ctx, "n")
	require.NoError(t, err)
	require.NoError(t, svc.Close(ctx, "n", true))

	status, err := svc.applyTo(ctx, "n", od, markdownDoc(t, "second"))
	require.NoError(t, err)
	assert.True(t, status.Open)
	assert.True(t, status.Dirty)

	reopened := svc.lookup("n")
	require.NotNil(t, reopened)
	assert.NotSame(t, od, reopened)

	content, err := svc.Content(ctx, "n")
	require.NoError(t, err)
	assert.Equal(t, "second", editor.ToMarkdown(content))

	require.NoError(t, svc.Close(ctx, "n", true))
	assert.Equal(t, "second", storedMarkdown(t, f, "n"))
}

func TestEditingSaveFailureKeepsEdits(t *testing.T) {
	f := newFixture()
	f.fileNode(t, "n", "v1")
	svc := f.editingService(time.Hour)
	ctx := context.Background()

	_, err := svc.ApplyContent(ctx, "n", markdownDoc(t, "v2"))
	require.NoError(t, err)

	f.nodes.setFailSaves(true)
	status, err := svc.Flush(ctx, "n")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrPersistence)
	assert.True(t, status.Dirty)
	assert.NotEmpty(t, status.Error)
	assert.Equal(t, "v1", storedMarkdown(t, f, "n"))

	f.nodes.setFailSaves(false)
	status, err = svc.Flush(ctx, "n")
	require.NoError(t, err)
	assert.False(t, status.Dirty)
	assert.Empty(t, status.Error)
	assert.Equal(t, "v2", storedMarkdown(t, f, "n"))
}

func TestEditingRecoversCorruptSnapshot(t *testing.T) {
	f := newFixture()
	f.fileNode(t, "n", "")
	require.NoError(t, f.store.Nodes().UpdateSnapshot(context.Background(), "n", []byte("garbage"), time.Now()))
	svc := f.editingService(time.Hour)
	ctx := context.Background()

	_, err := svc.Content(ctx, "n")
	assert.ErrorIs(t, err, domain.ErrCorruptSnapshot)

	_, err = svc.ApplyContent(ctx, "n", markdownDoc(t, "fresh start"))
	require.NoError(t, err)
	_, err = svc.Flush(ctx, "n")
	require.NoError(t, err)
	assert.Equal(t, "fresh start", storedMarkdown(t, f, "n"))
}

func TestEditingRejectsFoldersAndInvalidDocuments(t *testing.T) {
	f := newFixture()
	_, err := f.nodeService().CreateNode(context.Background(), &docsysSvc.CreateNodeRequest{ID: "dir", Name: "dir", Kind: models.NodeKindFolder})
	require.NoError(t, err)
	f.fileNode(t, "n", "")
	svc := f.editingService(time.Hour)
	ctx := context.Background()

	_, err = svc.ApplyContent(ctx, "dir", markdownDoc(t, "x"))
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = svc.ApplyContent(ctx, "n", editor.Node{Type: "paragraph"})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = svc.ApplyContent(ctx, "ghost", markdownDoc(t, "x"))
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestEditingShutdown(t *testing.T) {
	f := newFixture()
	f.fileNode(t, "a", "")
	f.fileNode(t, "b", "")
	svc := f.editingService(time.Hour)
	ctx := context.Background()

	for _, id := range []string{"a", "b"} {
		_, err := svc.ApplyContent(ctx, id, markdownDoc(t, "saved on shutdown"))
		require.NoError(t, err)
	}

	require.NoError(t, svc.Shutdown(ctx))
	assert.Equal(t, "saved on shutdown", storedMarkdown(t, f, "a"))
	assert.Equal(t, "saved on shutdown", storedMarkdown(t, f, "b"))

	_, err := svc.ApplyContent(ctx, "a", markdownDoc(t, "late"))
	assert.ErrorIs(t, err, ErrWorkspaceClosed)
}

func TestEditingOpensEachNodeOnce(t *testing.T) {
	f := newFixture()
	f.fileNode(t, "n", "")
	svc := f.editingService(time.Hour)
	ctx := context.Background()

	done := make(chan *openDocument, 8)
	for i := 0; i < 8; i++ {
		go func() {
			od, err := svc.acquire(ctx, "n")
			assert.NoError(t, err)
			done <- od
		}()
	}
	first := <-done
	for i := 1; i < 8; i++ {
		assert.Same(t, first, <-done)
	}
}
