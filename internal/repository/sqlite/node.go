package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"docvault/internal/domain"
	models "docvault/internal/domain/models/docsystem"
	docsysRepo "docvault/internal/domain/repositories/docsystem"
)

// NodeRepository implements docsystem.NodeRepository on SQLite
type NodeRepository struct {
	db *sql.DB
}

// NewNodeRepository creates a new node repository
func NewNodeRepository(db *sql.DB) docsysRepo.NodeRepository {
	return &NodeRepository{db: db}
}

func (r *NodeRepository) Create(ctx context.Context, node *models.Node) error {
	metadata, err := encodeMetadata(node.Metadata)
	if err != nil {
		return err
	}
	_, err = getExecutor(ctx, r.db).ExecContext(ctx, `
		INSERT INTO nodes (id, collection_id, parent_id, kind, name, snapshot, metadata, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		node.ID,
		node.CollectionID,
		nullString(node.ParentID),
		string(node.Kind),
		node.Name,
		node.Snapshot,
		metadata,
		node.CreatedAt.UnixNano(),
		node.UpdatedAt.UnixNano(),
	)
	if err != nil {
		if isDuplicateError(err) {
			return &domain.ConflictError{
				Message:      fmt.Sprintf("node %s already exists", node.ID),
				ResourceType: "node",
				ResourceID:   node.ID,
			}
		}
		if isForeignKeyError(err) {
			return fmt.Errorf("collection %s: %w", node.CollectionID, domain.ErrNotFound)
		}
		return fmt.Errorf("create node: %w", err)
	}
	return nil
}

func (r *NodeRepository) GetByID(ctx context.Context, id string) (*models.Node, error) {
	row := getExecutor(ctx, r.db).QueryRowContext(ctx, `
		SELECT id, collection_id, parent_id, kind, name, snapshot, metadata, created_at, updated_at
		FROM nodes WHERE id = ?`, id)

	var (
		node             models.Node
		parentID         sql.NullString
		kind, metadata   string
		created, updated int64
	)
	err := row.Scan(&node.ID, &node.CollectionID, &parentID, &kind, &node.Name, &node.Snapshot, &metadata, &created, &updated)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("node %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get node: %w", err)
	}
	if err := fillNode(&node, parentID, kind, metadata, created, updated); err != nil {
		return nil, err
	}
	return &node, nil
}

func (r *NodeRepository) ListByCollection(ctx context.Context, collectionID string) ([]models.Node, error) {
	rows, err := getExecutor(ctx, r.db).QueryContext(ctx, `
		SELECT id, collection_id, parent_id, kind, name, metadata, created_at, updated_at
		FROM nodes WHERE collection_id = ?
		ORDER BY created_at, id`, collectionID)
	if err != nil {
		return nil, fmt.Errorf("list nodes: %w", err)
	}
	defer rows.Close()

	nodes := []models.Node{}
	for rows.Next() {
		var (
			node             models.Node
			parentID         sql.NullString
			kind, metadata   string
			created, updated int64
		)
		if err := rows.Scan(&node.ID, &node.CollectionID, &parentID, &kind, &node.Name, &metadata, &created, &updated); err != nil {
			return nil, fmt.Errorf("scan node: %w", err)
		}
		if err := fillNode(&node, parentID, kind, metadata, created, updated); err != nil {
			return nil, err
		}
		nodes = append(nodes, node)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate nodes: %w", err)
	}
	return nodes, nil
}

func (r *NodeRepository) UpdateSnapshot(ctx context.Context, id string, snapshot []byte, at time.Time) error {
	result, err := getExecutor(ctx, r.db).ExecContext(ctx,
		`UPDATE nodes SET snapshot = ?, updated_at = ? WHERE id = ?`,
		snapshot, at.UnixNano(), id)
	if err != nil {
		return fmt.Errorf("update snapshot: %w", err)
	}
	return requireRow(result, "node", id)
}

func (r *NodeRepository) UpdateName(ctx context.Context, id, name string, at time.Time) error {
	result, err := getExecutor(ctx, r.db).ExecContext(ctx,
		`UPDATE nodes SET name = ?, updated_at = ? WHERE id = ?`,
		name, at.UnixNano(), id)
	if err != nil {
		return fmt.Errorf("update name: %w", err)
	}
	return requireRow(result, "node", id)
}

func fillNode(node *models.Node, parentID sql.NullString, kind, metadata string, created, updated int64) error {
	if parentID.Valid {
		p := parentID.String
		node.ParentID = &p
	}
	node.Kind = models.NodeKind(kind)
	m, err := decodeMetadata(metadata)
	if err != nil {
		return fmt.Errorf("node %s: %w", node.ID, err)
	}
	node.Metadata = m
	node.CreatedAt = time.Unix(0, created).UTC()
	node.UpdatedAt = time.Unix(0, updated).UTC()
	return nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
