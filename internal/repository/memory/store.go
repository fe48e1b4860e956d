// Package memory is a process-local store used for tests and the
// in-memory server mode. Data is lost on exit.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"docvault/internal/domain"
	models "docvault/internal/domain/models/docsystem"
	"docvault/internal/domain/repositories"
	docsysRepo "docvault/internal/domain/repositories/docsystem"
)

// Store holds collections and nodes. Transactions are serialized and roll
// back by restoring a copy of the maps; writes outside a transaction are
// visible to it.
type Store struct {
	mu          sync.RWMutex
	collections map[string]models.Collection
	nodes       map[string]models.Node

	txMu sync.Mutex
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{
		collections: make(map[string]models.Collection),
		nodes:       make(map[string]models.Node),
	}
}

type txKey struct{}

// ExecTx implements repositories.TransactionManager
func (s *Store) ExecTx(ctx context.Context, fn repositories.TxFn) error {
	if ctx.Value(txKey{}) != nil {
		return fn(ctx)
	}

	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.RLock()
	collections := make(map[string]models.Collection, len(s.collections))
	for k, v := range s.collections {
		collections[k] = v
	}
	nodes := make(map[string]models.Node, len(s.nodes))
	for k, v := range s.nodes {
		nodes[k] = v
	}
	s.mu.RUnlock()

	if err := fn(context.WithValue(ctx, txKey{}, true)); err != nil {
		s.mu.Lock()
		s.collections, s.nodes = collections, nodes
		s.mu.Unlock()
		return err
	}
	return nil
}

// TransactionManager returns the store as a repositories.TransactionManager
func (s *Store) TransactionManager() repositories.TransactionManager { return s }

// Collections returns the collection repository view of the store
func (s *Store) Collections() docsysRepo.CollectionRepository { return collectionRepo{s} }

// Nodes returns the node repository view of the store
func (s *Store) Nodes() docsysRepo.NodeRepository { return nodeRepo{s} }

type collectionRepo struct{ s *Store }

func (r collectionRepo) Create(ctx context.Context, collection *models.Collection) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.collections[collection.ID]; ok {
		return &domain.ConflictError{
			Message:      fmt.Sprintf("collection %s already exists", collection.ID),
			ResourceType: "collection",
			ResourceID:   collection.ID,
		}
	}
	c := *collection
	c.Metadata = c.Metadata.Clone()
	r.s.collections[c.ID] = c
	return nil
}

func (r collectionRepo) GetByID(ctx context.Context, id string) (*models.Collection, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	c, ok := r.s.collections[id]
	if !ok {
		return nil, fmt.Errorf("collection %s: %w", id, domain.ErrNotFound)
	}
	c.Metadata = c.Metadata.Clone()
	return &c, nil
}

func (r collectionRepo) GetLatest(ctx context.Context) (*models.Collection, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var latest *models.Collection
	for _, c := range r.s.collections {
		c := c
		if latest == nil || newer(&c, latest) {
			latest = &c
		}
	}
	if latest == nil {
		return nil, fmt.Errorf("latest collection: %w", domain.ErrNotFound)
	}
	latest.Metadata = latest.Metadata.Clone()
	return latest, nil
}

// newer orders by updated_at, then created_at, then id so ties are deterministic
func newer(a, b *models.Collection) bool {
	if !a.UpdatedAt.Equal(b.UpdatedAt) {
		return a.UpdatedAt.After(b.UpdatedAt)
	}
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.ID > b.ID
}

func (r collectionRepo) Touch(ctx context.Context, id string, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.collections[id]
	if !ok {
		return fmt.Errorf("collection %s: %w", id, domain.ErrNotFound)
	}
	if at.After(c.UpdatedAt) {
		c.UpdatedAt = at
		r.s.collections[id] = c
	}
	return nil
}

type nodeRepo struct{ s *Store }

func (r nodeRepo) Create(ctx context.Context, node *models.Node) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.nodes[node.ID]; ok {
		return &domain.ConflictError{
			Message:      fmt.Sprintf("node %s already exists", node.ID),
			ResourceType: "node",
			ResourceID:   node.ID,
		}
	}
	if _, ok := r.s.collections[node.CollectionID]; !ok {
		return fmt.Errorf("collection %s: %w", node.CollectionID, domain.ErrNotFound)
	}
	r.s.nodes[node.ID] = copyNode(*node, true)
	return nil
}

func (r nodeRepo) GetByID(ctx context.Context, id string) (*models.Node, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	n, ok := r.s.nodes[id]
	if !ok {
		return nil, fmt.Errorf("node %s: %w", id, domain.ErrNotFound)
	}
	n = copyNode(n, true)
	return &n, nil
}

func (r nodeRepo) ListByCollection(ctx context.Context, collectionID string) ([]models.Node, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := []models.Node{}
	for _, n := range r.s.nodes {
		if n.CollectionID == collectionID {
			out = append(out, copyNode(n, false))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r nodeRepo) UpdateSnapshot(ctx context.Context, id string, snapshot []byte, at time.Time) error {
	return r.update(id, func(n *models.Node) {
		n.Snapshot = append([]byte(nil), snapshot...)
		n.UpdatedAt = at
	})
}

func (r nodeRepo) UpdateName(ctx context.Context, id, name string, at time.Time) error {
	return r.update(id, func(n *models.Node) {
		n.Name = name
		n.UpdatedAt = at
	})
}

func (r nodeRepo) update(id string, fn func(n *models.Node)) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n, ok := r.s.nodes[id]
	if !ok {
		return fmt.Errorf("node %s: %w", id, domain.ErrNotFound)
	}
	fn(&n)
	r.s.nodes[id] = n
	return nil
}

// copyNode detaches a node from the caller's slices and maps
func copyNode(n models.Node, withSnapshot bool) models.Node {
	if n.ParentID != nil {
		p := *n.ParentID
		n.ParentID = &p
	}
	if withSnapshot && n.Snapshot != nil {
		n.Snapshot = append([]byte(nil), n.Snapshot...)
	} else if !withSnapshot {
		n.Snapshot = nil
	}
	n.Metadata = n.Metadata.Clone()
	return n
}
