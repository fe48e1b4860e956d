package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"docvault/internal/domain"
	models "docvault/internal/domain/models/docsystem"
	docsysRepo "docvault/internal/domain/repositories/docsystem"
)

// CollectionRepository implements docsystem.CollectionRepository on SQLite
type CollectionRepository struct {
	db *sql.DB
}

// NewCollectionRepository creates a new collection repository
func NewCollectionRepository(db *sql.DB) docsysRepo.CollectionRepository {
	return &CollectionRepository{db: db}
}

func (r *CollectionRepository) Create(ctx context.Context, collection *models.Collection) error {
	metadata, err := encodeMetadata(collection.Metadata)
	if err != nil {
		return err
	}
	_, err = getExecutor(ctx, r.db).ExecContext(ctx, `
		INSERT INTO collections (id, name, metadata, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)`,
		collection.ID,
		collection.Name,
		metadata,
		collection.CreatedAt.UnixNano(),
		collection.UpdatedAt.UnixNano(),
	)
	if err != nil {
		if isDuplicateError(err) {
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

func (r *CollectionRepository) GetByID(ctx context.Context, id string) (*models.Collection, error) {
	row := getExecutor(ctx, r.db).QueryRowContext(ctx, `
		SELECT id, name, metadata, created_at, updated_at
		FROM collections WHERE id = ?`, id)
	collection, err := scanCollection(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("collection %s: %w", id, domain.ErrNotFound)
	}
	return collection, err
}

func (r *CollectionRepository) GetLatest(ctx context.Context) (*models.Collection, error) {
	row := getExecutor(ctx, r.db).QueryRowContext(ctx, `
		SELECT id, name, metadata, created_at, updated_at
		FROM collections
		ORDER BY updated_at DESC, created_at DESC
		LIMIT 1`)
	collection, err := scanCollection(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("latest collection: %w", domain.ErrNotFound)
	}
	return collection, err
}

func (r *CollectionRepository) Touch(ctx context.Context, id string, at time.Time) error {
	result, err := getExecutor(ctx, r.db).ExecContext(ctx, `
		UPDATE collections SET updated_at = MAX(updated_at, ?) WHERE id = ?`,
		at.UnixNano(), id)
	if err != nil {
		return fmt.Errorf("touch collection: %w", err)
	}
	return requireRow(result, "collection", id)
}

func scanCollection(row *sql.Row) (*models.Collection, error) {
	var (
		collection       models.Collection
		metadata         string
		created, updated int64
	)
	if err := row.Scan(&collection.ID, &collection.Name, &metadata, &created, &updated); err != nil {
		return nil, err
	}
	m, err := decodeMetadata(metadata)
	if err != nil {
		return nil, fmt.Errorf("collection %s: %w", collection.ID, err)
	}
	collection.Metadata = m
	collection.CreatedAt = time.Unix(0, created).UTC()
	collection.UpdatedAt = time.Unix(0, updated).UTC()
	return &collection, nil
}

func requireRow(result sql.Result, kind, id string) error {
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", kind, id, domain.ErrNotFound)
	}
	return nil
}

func encodeMetadata(m models.Metadata) (string, error) {
	if m == nil {
		return "{}", nil
	}
	data, err := json.Marshal(m)
	if err != nil {
		return "", fmt.Errorf("encode metadata: %w", err)
	}
	return string(data), nil
}

func decodeMetadata(s string) (models.Metadata, error) {
	var m models.Metadata
	if err := json.Unmarshal([]byte(s), &m); err != nil {
		return nil, fmt.Errorf("decode metadata: %w", err)
	}
	return m, nil
}
