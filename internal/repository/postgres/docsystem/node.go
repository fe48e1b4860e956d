package docsystem

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"docvault/internal/domain"
	models "docvault/internal/domain/models/docsystem"
	docsysRepo "docvault/internal/domain/repositories/docsystem"
	"docvault/internal/repository/postgres"
)

// PostgresNodeRepository implements the NodeRepository interface
type PostgresNodeRepository struct {
	pool   *pgxpool.Pool
	tables *postgres.TableNames
}

// NewNodeRepository creates a new node repository
func NewNodeRepository(config *postgres.RepositoryConfig) docsysRepo.NodeRepository {
	return &PostgresNodeRepository{
		pool:   config.Pool,
		tables: config.Tables,
	}
}

// Create inserts a node with a caller-assigned ID
func (r *PostgresNodeRepository) Create(ctx context.Context, node *models.Node) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, collection_id, parent_id, kind, name, snapshot, metadata, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, r.tables.Nodes)

	executor := postgres.GetExecutor(ctx, r.pool)
	_, err := executor.Exec(ctx, query,
		node.ID,
		node.CollectionID,
		node.ParentID,
		string(node.Kind),
		node.Name,
		node.Snapshot,
		metadataOrEmpty(node.Metadata),
		node.CreatedAt,
		node.UpdatedAt,
	)
	if err != nil {
		if postgres.IsPgDuplicateError(err) {
			return &domain.ConflictError{
				Message:      fmt.Sprintf("node %s already exists", node.ID),
				ResourceType: "node",
				ResourceID:   node.ID,
			}
		}
		if postgres.IsPgForeignKeyError(err) {
			return fmt.Errorf("collection %s: %w", node.CollectionID, domain.ErrNotFound)
		}
		if postgres.IsPgCheckError(err) {
			return &domain.ValidationError{Message: fmt.Sprintf("node %s: unknown kind %q", node.ID, node.Kind)}
		}
		return fmt.Errorf("create node: %w", err)
	}
	return nil
}

// GetByID retrieves a node including its snapshot
func (r *PostgresNodeRepository) GetByID(ctx context.Context, id string) (*models.Node, error) {
	query := fmt.Sprintf(`
		SELECT id, collection_id, parent_id, kind, name, snapshot, metadata, created_at, updated_at
		FROM %s
		WHERE id = $1
	`, r.tables.Nodes)

	var node models.Node
	executor := postgres.GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query, id).Scan(
		&node.ID,
		&node.CollectionID,
		&node.ParentID,
		&node.Kind,
		&node.Name,
		&node.Snapshot,
		&node.Metadata,
		&node.CreatedAt,
		&node.UpdatedAt,
	)
	if err != nil {
		if postgres.IsPgNoRowsError(err) {
			return nil, fmt.Errorf("node %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get node: %w", err)
	}
	return &node, nil
}

// ListByCollection retrieves all nodes of a collection without snapshots
func (r *PostgresNodeRepository) ListByCollection(ctx context.Context, collectionID string) ([]models.Node, error) {
	query := fmt.Sprintf(`
		SELECT id, collection_id, parent_id, kind, name, metadata, created_at, updated_at
		FROM %s
		WHERE collection_id = $1
		ORDER BY created_at, id
	`, r.tables.Nodes)

	executor := postgres.GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, collectionID)
	if err != nil {
		return nil, fmt.Errorf("list nodes: %w", err)
	}

	nodes, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.Node, error) {
		var node models.Node
		err := row.Scan(
			&node.ID,
			&node.CollectionID,
			&node.ParentID,
			&node.Kind,
			&node.Name,
			&node.Metadata,
			&node.CreatedAt,
			&node.UpdatedAt,
		)
		return node, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan nodes: %w", err)
	}
	if nodes == nil {
		nodes = []models.Node{}
	}
	return nodes, nil
}

// UpdateSnapshot replaces a node's snapshot in a single statement
func (r *PostgresNodeRepository) UpdateSnapshot(ctx context.Context, id string, snapshot []byte, at time.Time) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET snapshot = $2, updated_at = $3
		WHERE id = $1
	`, r.tables.Nodes)

	return r.update(ctx, "update snapshot", query, id, snapshot, at)
}

// UpdateName renames a node
func (r *PostgresNodeRepository) UpdateName(ctx context.Context, id, name string, at time.Time) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET name = $2, updated_at = $3
		WHERE id = $1
	`, r.tables.Nodes)

	return r.update(ctx, "update name", query, id, name, at)
}

func (r *PostgresNodeRepository) update(ctx context.Context, op, query, id string, args ...any) error {
	executor := postgres.GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, append([]any{id}, args...)...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("node %s: %w", id, domain.ErrNotFound)
	}
	return nil
}
