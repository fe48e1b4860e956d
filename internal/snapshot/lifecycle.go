package snapshot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"docvault/internal/crdt"
	"docvault/internal/domain"
)

// State is the lifecycle phase of a document.
type State int

const (
	StateUnloaded State = iota
	StateLoading
	StateReady
	StateSaving
)

func (s State) String() string {
	switch s {
	case StateUnloaded:
		return "unloaded"
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateSaving:
		return "saving"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// ErrNotReady is returned by operations that need a loaded document.
var ErrNotReady = errors.New("document is not ready")

// PersistFunc writes one complete snapshot to the store.
type PersistFunc func(ctx context.Context, snapshot []byte) error

const (
	DefaultSaveDelay   = 2 * time.Second
	DefaultSaveTimeout = 10 * time.Second
)

// Options configures a Lifecycle.
type Options struct {
	SaveDelay   time.Duration
	SaveTimeout time.Duration
	Logger      *slog.Logger
}

// Status is a point-in-time view of a lifecycle.
type Status struct {
	NodeID    string
	State     State
	Dirty     bool
	InFlight  bool
	LastSaved time.Time
	Err       error
}

// Lifecycle owns the single CRDT document bound to one node.
type Lifecycle struct {
	nodeID  string
	persist PersistFunc
	delay   time.Duration
	timeout time.Duration
	logger  *slog.Logger
	queue   *saveQueue

	mu           sync.Mutex
	state        State
	doc          *crdt.Doc
	version      uint64
	savedVersion uint64
	inFlight     bool
	lastSaved    time.Time
	lastErr      error
}

// New returns an Unloaded lifecycle for nodeID. persist may be nil for
// documents that are only exported, never saved.
func New(nodeID string, persist PersistFunc, opts Options) *Lifecycle {
	if opts.SaveDelay <= 0 {
		opts.SaveDelay = DefaultSaveDelay
	}
	if opts.SaveTimeout <= 0 {
		opts.SaveTimeout = DefaultSaveTimeout
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	l := &Lifecycle{
		nodeID:  nodeID,
		persist: persist,
		delay:   opts.SaveDelay,
		timeout: opts.SaveTimeout,
		logger:  opts.Logger.With("node_id", nodeID),
	}
	l.queue = newSaveQueue(l.runSave)
	return l
}

func (l *Lifecycle) NodeID() string { return l.nodeID }

// Create allocates a fresh empty document.
func (l *Lifecycle) Create() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.state != StateUnloaded {
		return fmt.Errorf("create %s: already %s", l.nodeID, l.state)
	}
	l.doc = crdt.New()
	l.state = StateReady
	return nil
}

// Load imports a persisted snapshot into a fresh document. An undecodable
// snapshot still leaves an empty, Ready document and returns a
// *domain.CorruptSnapshotError.
func (l *Lifecycle) Load(persisted []byte) error {
	l.mu.Lock()
	if l.state != StateUnloaded {
		l.mu.Unlock()
		return fmt.Errorf("load %s: already %s", l.nodeID, l.state)
	}
	l.state = StateLoading
	l.mu.Unlock()

	doc, err := crdt.Load(persisted)

	l.mu.Lock()
	defer l.mu.Unlock()
	if err != nil {
		corrupt := &domain.CorruptSnapshotError{NodeID: l.nodeID, Err: err}
		l.logger.Warn("corrupt snapshot, starting from an empty document", "error", err)
		l.doc = crdt.New()
		l.state = StateReady
		l.lastErr = corrupt
		return corrupt
	}
	l.doc = doc
	l.state = StateReady
	return nil
}

// Mutate applies a local edit. It is accepted only while Ready.
func (l *Lifecycle) Mutate(fn func(doc *crdt.Doc) error) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.state != StateReady {
		return fmt.Errorf("mutate %s (%s): %w", l.nodeID, l.state, ErrNotReady)
	}
	if err := fn(l.doc); err != nil {
		return err
	}
	l.version++
	return nil
}

// View runs fn against the working document without marking it dirty.
func (l *Lifecycle) View(fn func(doc *crdt.Doc) error) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.doc == nil {
		return fmt.Errorf("view %s: %w", l.nodeID, ErrNotReady)
	}
	return fn(l.doc)
}

// Commit materializes pending edits so the next export reflects them.
func (l *Lifecycle) Commit() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.doc == nil {
		return fmt.Errorf("commit %s: %w", l.nodeID, ErrNotReady)
	}
	l.doc.Commit()
	return nil
}

// ExportSnapshot returns the committed document state. It never mutates the document.
func (l *Lifecycle) ExportSnapshot() ([]byte, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.doc == nil {
		return nil, fmt.Errorf("export %s: %w", l.nodeID, ErrNotReady)
	}
	return l.doc.Export()
}

// ScheduleSave debounces a save. Calls within delay collapse into one save
// that commits and exports the state current when the timer fires.
func (l *Lifecycle) ScheduleSave(delay time.Duration) {
	if delay <= 0 {
		delay = l.delay
	}
	l.queue.schedule(delay)
}

// SaveNow cancels any armed timer and saves immediately, or right after
// the in-flight save. It returns the outcome of the last save.
func (l *Lifecycle) SaveNow() error {
	l.queue.flush()

	l.mu.Lock()
	defer l.mu.Unlock()
	return l.saveErr()
}

// Dispose releases the document. With flush, pending or unsaved edits are
// saved first; otherwise they are dropped and the store keeps its last
// complete snapshot.
func (l *Lifecycle) Dispose(flush bool) error {
	pending := l.queue.stop()

	var err error
	if flush && (pending || l.Dirty()) {
		l.runSave()
		l.mu.Lock()
		err = l.saveErr()
		l.mu.Unlock()
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.doc != nil {
		l.doc.Unbind()
	}
	l.doc = nil
	l.state = StateUnloaded
	return err
}

// Dirty reports whether the document holds edits not yet persisted.
func (l *Lifecycle) Dirty() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.version != l.savedVersion
}

func (l *Lifecycle) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

func (l *Lifecycle) Status() Status {
	l.mu.Lock()
	defer l.mu.Unlock()
	return Status{
		NodeID:    l.nodeID,
		State:     l.state,
		Dirty:     l.version != l.savedVersion,
		InFlight:  l.inFlight,
		LastSaved: l.lastSaved,
		Err:       l.lastErr,
	}
}

// saveErr is lastErr unless it only records a recovered load.
func (l *Lifecycle) saveErr() error {
	if errors.Is(l.lastErr, domain.ErrCorruptSnapshot) {
		return nil
	}
	return l.lastErr
}

// runSave is one commit+export+persist pass. Saving covers only the
// commit and export; persist runs with the document back in Ready.
func (l *Lifecycle) runSave() {
	l.mu.Lock()
	if l.doc == nil || l.persist == nil {
		l.mu.Unlock()
		return
	}
	l.state = StateSaving
	l.doc.Commit()
	data, err := l.doc.Export()
	version := l.version
	l.state = StateReady
	if err != nil {
		l.lastErr = fmt.Errorf("export snapshot: %w", err)
		l.mu.Unlock()
		l.logger.Error("export snapshot failed", "error", err)
		return
	}
	l.inFlight = true
	l.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), l.timeout)
	err = l.persist(ctx, data)
	cancel()

	l.mu.Lock()
	defer l.mu.Unlock()
	l.inFlight = false
	if err != nil {
		l.lastErr = domain.NewPersistenceError("save snapshot", err)
		l.logger.Warn("snapshot save failed, keeping local edits", "error", err)
		return
	}
	l.lastErr = nil
	l.lastSaved = time.Now()
	l.savedVersion = version
	l.logger.Debug("snapshot saved", "bytes", len(data))
}
