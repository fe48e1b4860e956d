package docsystem

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"docvault/internal/domain"
	models "docvault/internal/domain/models/docsystem"
	docsysRepo "docvault/internal/domain/repositories/docsystem"
	"docvault/internal/repository/postgres"
)

// PostgresCollectionRepository implements the CollectionRepository interface
type PostgresCollectionRepository struct {
	pool   *pgxpool.Pool
	tables *postgres.TableNames
}

// NewCollectionRepository creates a new collection repository
func NewCollectionRepository(config *postgres.RepositoryConfig) docsysRepo.CollectionRepository {
	return &PostgresCollectionRepository{
		pool:   config.Pool,
		tables: config.Tables,
	}
}

// Create inserts a collection with a caller-assigned ID
func (r *PostgresCollectionRepository) Create(ctx context.Context, collection *models.Collection) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, name, metadata, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
	`, r.tables.Collections)

	executor := postgres.GetExecutor(ctx, r.pool)
	_, err := executor.Exec(ctx, query,
		collection.ID,
		collection.Name,
		metadataOrEmpty(collection.Metadata),
		collection.CreatedAt,
		collection.UpdatedAt,
	)
	if err != nil {
		if postgres.IsPgDuplicateError(err) {
			return &domain.ConflictError{
				Message:      fmt.Sprintf("collection %s already exists", collection.ID),
				ResourceType: "collection",
				ResourceID:   collection.ID,
			}
		}
		return fmt.Errorf("create collection: %w", err)
	}
	return nil
}

// GetByID retrieves a collection by ID
func (r *PostgresCollectionRepository) GetByID(ctx context.Context, id string) (*models.Collection, error) {
	query := fmt.Sprintf(`
		SELECT id, name, metadata, created_at, updated_at
		FROM %s
		WHERE id = $1
	`, r.tables.Collections)

	return r.getOne(ctx, query, id)
}

// GetLatest retrieves the most recently updated collection
func (r *PostgresCollectionRepository) GetLatest(ctx context.Context) (*models.Collection, error) {
	query := fmt.Sprintf(`
		SELECT id, name, metadata, created_at, updated_at
		FROM %s
		ORDER BY updated_at DESC, created_at DESC
		LIMIT 1
	`, r.tables.Collections)

	collection, err := r.getOne(ctx, query)
	if err != nil && postgres.IsPgNoRowsError(err) {
		return nil, fmt.Errorf("latest collection: %w", domain.ErrNotFound)
	}
	return collection, err
}

func (r *PostgresCollectionRepository) getOne(ctx context.Context, query string, args ...any) (*models.Collection, error) {
	var collection models.Collection
	executor := postgres.GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query, args...).Scan(
		&collection.ID,
		&collection.Name,
		&collection.Metadata,
		&collection.CreatedAt,
		&collection.UpdatedAt,
	)
	if err != nil {
		if postgres.IsPgNoRowsError(err) && len(args) > 0 {
			return nil, fmt.Errorf("collection %v: %w", args[0], domain.ErrNotFound)
		}
		return nil, err
	}
	return &collection, nil
}

// Touch bumps updated_at
func (r *PostgresCollectionRepository) Touch(ctx context.Context, id string, at time.Time) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET updated_at = GREATEST(updated_at, $2)
		WHERE id = $1
	`, r.tables.Collections)

	executor := postgres.GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, id, at)
	if err != nil {
		return fmt.Errorf("touch collection: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("collection %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

func metadataOrEmpty(m models.Metadata) models.Metadata {
	if m == nil {
		return models.Metadata{}
	}
	return m
}
