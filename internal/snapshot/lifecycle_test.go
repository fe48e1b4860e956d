package snapshot

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docvault/internal/crdt"
	"docvault/internal/domain"
)

type fakeStore struct {
	mu        sync.Mutex
	saves     [][]byte
	attempts  int
	fail      error
	block     chan struct{}
	active    int
	maxActive int
}

func (f *fakeStore) persist(ctx context.Context, data []byte) error {
	f.mu.Lock()
	f.attempts++
	f.active++
	if f.active > f.maxActive {
		f.maxActive = f.active
	}
	block := f.block
	f.mu.Unlock()

	if block != nil {
		<-block
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.active--
	if f.fail != nil {
		return f.fail
	}
	f.saves = append(f.saves, data)
	return nil
}

func (f *fakeStore) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.saves)
}

func (f *fakeStore) last(t *testing.T) *crdt.Doc {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.saves)
	doc, err := crdt.Load(f.saves[len(f.saves)-1])
	require.NoError(t, err)
	return doc
}

func appendBlock(l *Lifecycle, value string) error {
	return l.Mutate(func(doc *crdt.Doc) error {
		ref := crdt.Head
		if blocks := doc.Blocks(); len(blocks) > 0 {
			ref = blocks[len(blocks)-1].ID
		}
		_, err := doc.InsertAfter(ref, []byte(value))
		return err
	})
}

func newReady(t *testing.T, store *fakeStore, delay time.Duration) *Lifecycle {
	t.Helper()
	var persist PersistFunc
	if store != nil {
		persist = store.persist
	}
	l := New("node-1", persist, Options{SaveDelay: delay})
	require.NoError(t, l.Create())
	return l
}

func TestCreateAndMutate(t *testing.T) {
	l := New("node-1", nil, Options{})
	assert.Equal(t, StateUnloaded, l.State())
	assert.ErrorIs(t, appendBlock(l, "x"), ErrNotReady)

	require.NoError(t, l.Create())
	assert.Equal(t, StateReady, l.State())
	assert.Error(t, l.Create(), "create twice")

	require.NoError(t, appendBlock(l, "x"))
	assert.True(t, l.Dirty())
}

func TestLoadCorruptSnapshot(t *testing.T) {
	l := New("node-7", nil, Options{})

	err := l.Load([]byte("garbage bytes"))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrCorruptSnapshot)

	var corrupt *domain.CorruptSnapshotError
	require.ErrorAs(t, err, &corrupt)
	assert.Equal(t, "node-7", corrupt.NodeID)

	assert.Equal(t, StateReady, l.State())
	require.NoError(t, l.View(func(doc *crdt.Doc) error {
		assert.True(t, doc.IsEmpty())
		return nil
	}))
	assert.NoError(t, appendBlock(l, "fresh start"))
}

func TestLoadSameSnapshotTwice(t *testing.T) {
	src := newReady(t, nil, 0)
	for _, v := range []string{"a", "b", "c"} {
		require.NoError(t, appendBlock(src, v))
	}
	require.NoError(t, src.Commit())
	snap, err := src.ExportSnapshot()
	require.NoError(t, err)

	first := New("n", nil, Options{})
	require.NoError(t, first.Load(snap))
	second := New("n", nil, Options{})
	require.NoError(t, second.Load(snap))

	a, err := first.ExportSnapshot()
	require.NoError(t, err)
	b, err := second.ExportSnapshot()
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestCommitBeforeExport(t *testing.T) {
	l := newReady(t, nil, 0)
	empty, err := l.ExportSnapshot()
	require.NoError(t, err)

	require.NoError(t, appendBlock(l, "edit"))
	uncommitted, err := l.ExportSnapshot()
	require.NoError(t, err)
	assert.Equal(t, empty, uncommitted)

	require.NoError(t, l.Commit())
	first, err := l.ExportSnapshot()
	require.NoError(t, err)
	second, err := l.ExportSnapshot()
	require.NoError(t, err)
	assert.NotEqual(t, empty, first)
	assert.Equal(t, first, second)
}

func TestScheduleSaveCollapses(t *testing.T) {
	store := &fakeStore{}
	l := newReady(t, store, 40*time.Millisecond)

	for i := 0; i < 10; i++ {
		require.NoError(t, appendBlock(l, "edit"))
		l.ScheduleSave(0)
	}

	require.Eventually(t, func() bool { return store.count() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, 1, store.count())
	assert.Equal(t, 10, store.last(t).Len(), "save reflects the state at the last call")
	assert.False(t, l.Dirty())
}

func TestSaveRequestedWhileInFlightIsQueued(t *testing.T) {
	store := &fakeStore{block: make(chan struct{})}
	l := newReady(t, store, time.Millisecond)

	require.NoError(t, appendBlock(l, "one"))
	l.ScheduleSave(0)
	require.Eventually(t, func() bool {
		store.mu.Lock()
		defer store.mu.Unlock()
		return store.active == 1
	}, time.Second, time.Millisecond)

	require.NoError(t, appendBlock(l, "two"))
	l.ScheduleSave(0)
	time.Sleep(20 * time.Millisecond)
	assert.True(t, l.Status().InFlight)

	close(store.block)
	require.Eventually(t, func() bool { return store.count() == 2 }, time.Second, time.Millisecond)

	store.mu.Lock()
	assert.Equal(t, 1, store.maxActive, "saves never overlap")
	store.mu.Unlock()
	assert.Equal(t, 2, store.last(t).Len())
}

func TestSaveFailureKeepsLocalEdits(t *testing.T) {
	store := &fakeStore{fail: errors.New("connection refused")}
	l := newReady(t, store, time.Hour)

	require.NoError(t, appendBlock(l, "a"))
	err := l.SaveNow()
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrPersistence)

	status := l.Status()
	assert.ErrorIs(t, status.Err, domain.ErrPersistence)
	assert.True(t, status.Dirty)
	assert.Equal(t, StateReady, status.State)
	assert.True(t, status.LastSaved.IsZero())

	store.mu.Lock()
	store.fail = nil
	store.mu.Unlock()

	require.NoError(t, appendBlock(l, "b"))
	require.NoError(t, l.SaveNow())
	assert.Equal(t, 2, store.last(t).Len(), "next save carries all accumulated edits")
	assert.False(t, l.Dirty())
	assert.NoError(t, l.Status().Err)
	assert.False(t, l.Status().LastSaved.IsZero())
}

func TestDisposeFlushesPendingSave(t *testing.T) {
	store := &fakeStore{}
	l := newReady(t, store, time.Hour)

	require.NoError(t, appendBlock(l, "a"))
	l.ScheduleSave(0)
	require.NoError(t, l.Dispose(true))

	assert.Equal(t, 1, store.count())
	assert.Equal(t, StateUnloaded, l.State())
	assert.ErrorIs(t, appendBlock(l, "late"), ErrNotReady)
}

func TestDisposeDropsPendingSave(t *testing.T) {
	store := &fakeStore{}
	l := newReady(t, store, 20*time.Millisecond)

	require.NoError(t, appendBlock(l, "a"))
	l.ScheduleSave(0)
	require.NoError(t, l.Dispose(false))

	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, 0, store.count())
}

func TestDisposeWithoutChangesSkipsSave(t *testing.T) {
	store := &fakeStore{}
	l := newReady(t, store, time.Hour)
	require.NoError(t, l.Dispose(true))
	assert.Equal(t, 0, store.count())
}
