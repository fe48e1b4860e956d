// Package crdt implements the replicated document engine backing file nodes.
//
// A document is a replicated growable array (RGA) of opaque block values.
// Local mutations apply to the working state at once but only enter the
// exportable log on Commit. Snapshots carry the full committed log, so
// importing a snapshot into any document is a merge: operations already seen
// are skipped and the rest are integrated in Lamport order.
package crdt

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

var (
	// ErrCorrupt is returned when a snapshot cannot be decoded or replayed.
	ErrCorrupt = errors.New("crdt: corrupt snapshot")
	// ErrUnknownElement is returned when an operation references an element the document has never seen.
	ErrUnknownElement = errors.New("crdt: unknown element")
)

type element struct {
	id      ID
	value   []byte
	deleted bool
}

// Block is a visible element of the sequence.
type Block struct {
	ID    ID
	Value []byte
}

// Doc is a single CRDT document instance. It is safe for concurrent use.
type Doc struct {
	mu        sync.Mutex
	peer      PeerID
	clock     uint64
	elems     []*element
	index     map[ID]*element
	applied   map[ID]struct{}
	committed []Op
	pending   []Op
	bound     bool
}

// New allocates an empty document with a random peer id.
func New() *Doc {
	return NewWithPeer(NewPeerID())
}

// NewWithPeer allocates an empty document for the given peer.
func NewWithPeer(peer PeerID) *Doc {
	return &Doc{
		peer:    peer,
		index:   make(map[ID]*element),
		applied: make(map[ID]struct{}),
	}
}

// Load allocates a fresh document and merges data into it.
// Empty data yields an empty document.
func Load(data []byte) (*Doc, error) {
	d := New()
	if len(data) == 0 {
		return d, nil
	}
	if err := d.Import(data); err != nil {
		return nil, err
	}
	return d, nil
}

// Peer returns the document's replica id.
func (d *Doc) Peer() PeerID { return d.peer }

// Blocks returns the visible elements in sequence order.
func (d *Doc) Blocks() []Block {
	d.mu.Lock()
	defer d.mu.Unlock()

	blocks := make([]Block, 0, len(d.elems))
	for _, e := range d.elems {
		if !e.deleted {
			blocks = append(blocks, Block{ID: e.id, Value: e.value})
		}
	}
	return blocks
}

// Len returns the number of visible elements.
func (d *Doc) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()

	n := 0
	for _, e := range d.elems {
		if !e.deleted {
			n++
		}
	}
	return n
}

// IsEmpty reports whether the document has no visible elements.
func (d *Doc) IsEmpty() bool { return d.Len() == 0 }

// InsertAfter inserts value after the element ref (Head for the front) and returns the new element id.
func (d *Doc) InsertAfter(ref ID, value []byte) (ID, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.clock++
	op := Op{
		Kind:  OpInsert,
		ID:    ID{Peer: d.peer, Counter: d.clock},
		Ref:   ref,
		Value: append([]byte(nil), value...),
	}
	if err := d.apply(op); err != nil {
		d.clock--
		return ID{}, err
	}
	d.pending = append(d.pending, op)
	return op.ID, nil
}

// Delete tombstones the element target. Deleting an already deleted element is a no-op.
func (d *Doc) Delete(target ID) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	e, ok := d.index[target]
	if !ok {
		return fmt.Errorf("delete %s: %w", target, ErrUnknownElement)
	}
	if e.deleted {
		return nil
	}
	d.clock++
	op := Op{
		Kind: OpDelete,
		ID:   ID{Peer: d.peer, Counter: d.clock},
		Ref:  target,
	}
	if err := d.apply(op); err != nil {
		d.clock--
		return err
	}
	d.pending = append(d.pending, op)
	return nil
}

// Commit moves pending local operations into the exportable log and returns how many were committed.
func (d *Doc) Commit() int {
	d.mu.Lock()
	defer d.mu.Unlock()

	n := len(d.pending)
	d.committed = append(d.committed, d.pending...)
	d.pending = nil
	return n
}

// HasPending reports whether there are uncommitted local operations.
func (d *Doc) HasPending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.pending) > 0
}

// Export encodes the committed log. Output depends only on the set of
// committed operations, so equal histories export identical bytes.
func (d *Doc) Export() ([]byte, error) {
	d.mu.Lock()
	ops := make([]Op, len(d.committed))
	copy(ops, d.committed)
	d.mu.Unlock()

	sortOps(ops)
	return encodeSnapshot(ops)
}

// Import merges a snapshot into the document. On failure the document is left unchanged.
func (d *Doc) Import(data []byte) error {
	ops, err := decodeSnapshot(data)
	if err != nil {
		return err
	}
	sortOps(ops)

	d.mu.Lock()
	defer d.mu.Unlock()

	next := d.clone()
	for _, op := range ops {
		if next.seen(op) {
			continue
		}
		if err := next.apply(op); err != nil {
			return fmt.Errorf("%w: replay %s: %v", ErrCorrupt, op.ID, err)
		}
		next.committed = append(next.committed, op)
		if op.ID.Counter > next.clock {
			next.clock = op.ID.Counter
		}
	}

	d.clock = next.clock
	d.elems = next.elems
	d.index = next.index
	d.applied = next.applied
	d.committed = next.committed
	return nil
}

// TryBind marks the document as bound to an editing session.
// It returns false if another session already holds it.
func (d *Doc) TryBind() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.bound {
		return false
	}
	d.bound = true
	return true
}

// Unbind releases the editing-session binding.
func (d *Doc) Unbind() {
	d.mu.Lock()
	d.bound = false
	d.mu.Unlock()
}

func (d *Doc) seen(op Op) bool {
	_, ok := d.applied[op.ID]
	return ok
}

func (d *Doc) apply(op Op) error {
	switch op.Kind {
	case OpInsert:
		if err := d.integrate(op); err != nil {
			return err
		}
	case OpDelete:
		e, ok := d.index[op.Ref]
		if !ok {
			return fmt.Errorf("delete %s: %w", op.Ref, ErrUnknownElement)
		}
		e.deleted = true
	default:
		return fmt.Errorf("unknown op kind %d", op.Kind)
	}
	d.applied[op.ID] = struct{}{}
	return nil
}

// integrate places an insert after its reference, skipping concurrent
// inserts at the same position that carry a greater id.
func (d *Doc) integrate(op Op) error {
	if op.ID.IsZero() {
		return fmt.Errorf("insert with zero id")
	}
	if _, dup := d.applied[op.ID]; dup {
		return fmt.Errorf("duplicate element %s", op.ID)
	}

	pos := 0
	if !op.Ref.IsZero() {
		found := false
		for i, e := range d.elems {
			if e.id == op.Ref {
				pos = i + 1
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("insert after %s: %w", op.Ref, ErrUnknownElement)
		}
	}
	for pos < len(d.elems) && op.ID.Less(d.elems[pos].id) {
		pos++
	}

	e := &element{id: op.ID, value: op.Value}
	d.elems = append(d.elems, nil)
	copy(d.elems[pos+1:], d.elems[pos:])
	d.elems[pos] = e
	d.index[op.ID] = e
	return nil
}

func (d *Doc) clone() *Doc {
	c := &Doc{
		peer:      d.peer,
		clock:     d.clock,
		elems:     make([]*element, len(d.elems)),
		index:     make(map[ID]*element, len(d.index)),
		applied:   make(map[ID]struct{}, len(d.applied)),
		committed: append([]Op(nil), d.committed...),
		pending:   d.pending,
	}
	for i, e := range d.elems {
		cp := *e
		c.elems[i] = &cp
		c.index[cp.id] = &cp
	}
	for id := range d.applied {
		c.applied[id] = struct{}{}
	}
	return c
}

func sortOps(ops []Op) {
	sort.Slice(ops, func(i, j int) bool { return ops[i].ID.Less(ops[j].ID) })
}
