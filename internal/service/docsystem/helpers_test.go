package docsystem

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"docvault/internal/crdt"
	models "docvault/internal/domain/models/docsystem"
	docsysRepo "docvault/internal/domain/repositories/docsystem"
	"docvault/internal/editor"
	"docvault/internal/repository/memory"
	"docvault/internal/service/docsystem/converter"
)

var errStoreDown = errors.New("store unavailable")

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// flakyNodes fails Create for nodes whose name is listed, and every
// UpdateSnapshot while failSaves is set.
type flakyNodes struct {
	docsysRepo.NodeRepository

	mu        sync.Mutex
	failNames map[string]bool
	failSaves bool
	saves     int
}

func (f *flakyNodes) Create(ctx context.Context, node *models.Node) error {
	f.mu.Lock()
	fail := f.failNames[node.Name]
	f.mu.Unlock()
	if fail {
		return errStoreDown
	}
	return f.NodeRepository.Create(ctx, node)
}

func (f *flakyNodes) UpdateSnapshot(ctx context.Context, id string, snapshot []byte, at time.Time) error {
	f.mu.Lock()
	fail := f.failSaves
	if !fail {
		f.saves++
	}
	f.mu.Unlock()
	if fail {
		return errStoreDown
	}
	return f.NodeRepository.UpdateSnapshot(ctx, id, snapshot, at)
}

func (f *flakyNodes) setFailSaves(fail bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failSaves = fail
}

func (f *flakyNodes) saveCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.saves
}

type failingCollections struct {
	docsysRepo.CollectionRepository
}

func (failingCollections) Create(ctx context.Context, collection *models.Collection) error {
	return errStoreDown
}

type fixture struct {
	store       *memory.Store
	nodes       *flakyNodes
	collections docsysRepo.CollectionRepository
	converters  *converter.ConverterRegistry
}

func newFixture() *fixture {
	store := memory.NewStore()
	return &fixture{
		store:       store,
		nodes:       &flakyNodes{NodeRepository: store.Nodes(), failNames: map[string]bool{}},
		collections: store.Collections(),
		converters:  converter.NewConverterRegistry(),
	}
}

func (f *fixture) importService() *importService {
	return NewImportService(f.collections, f.nodes, f.converters, NewFileProcessorRegistry(1<<20), NewContentAnalyzer(), 4, testLogger()).(*importService)
}

func (f *fixture) nodeService() *nodeService {
	return NewNodeService(f.collections, f.nodes, f.store, testLogger()).(*nodeService)
}

// documentOf decodes a stored snapshot into its structural document
func documentOf(t *testing.T, snapshot []byte) editor.Node {
	t.Helper()
	doc, err := crdt.Load(snapshot)
	require.NoError(t, err)
	out, err := editor.DocumentOf(doc)
	require.NoError(t, err)
	return out
}
