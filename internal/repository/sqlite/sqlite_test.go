package sqlite

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docvault/internal/domain"
	models "docvault/internal/domain/models/docsystem"
)

func openTestDB(t *testing.T) (*CollectionRepository, *NodeRepository, *TransactionManager) {
	t.Helper()
	db, err := Open(context.Background(), filepath.Join(t.TempDir(), "docvault.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewCollectionRepository(db).(*CollectionRepository),
		NewNodeRepository(db).(*NodeRepository),
		NewTransactionManager(db, logger).(*TransactionManager)
}

func TestCollections(t *testing.T) {
	collections, _, _ := openTestDB(t)
	ctx := context.Background()
	base := time.Date(2025, 1, 2, 3, 4, 5, 6, time.UTC)

	_, err := collections.GetLatest(ctx)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	require.NoError(t, collections.Create(ctx, &models.Collection{ID: "a", Name: "A", CreatedAt: base, UpdatedAt: base}))
	require.NoError(t, collections.Create(ctx, &models.Collection{
		ID: "b", Name: "B", Metadata: models.Metadata{"importedAt": "x"},
		CreatedAt: base, UpdatedAt: base.Add(time.Minute),
	}))

	latest, err := collections.GetLatest(ctx)
	require.NoError(t, err)
	assert.Equal(t, "b", latest.ID)
	assert.Equal(t, "x", latest.Metadata["importedAt"])
	assert.True(t, latest.UpdatedAt.Equal(base.Add(time.Minute)))

	require.NoError(t, collections.Touch(ctx, "a", base.Add(time.Hour)))
	latest, err = collections.GetLatest(ctx)
	require.NoError(t, err)
	assert.Equal(t, "a", latest.ID)

	// Touch never moves updated_at backwards
	require.NoError(t, collections.Touch(ctx, "a", base))
	got, err := collections.GetByID(ctx, "a")
	require.NoError(t, err)
	assert.True(t, got.UpdatedAt.Equal(base.Add(time.Hour)))

	err = collections.Create(ctx, &models.Collection{ID: "a", Name: "again", CreatedAt: base, UpdatedAt: base})
	assert.ErrorIs(t, err, domain.ErrConflict)
	assert.ErrorIs(t, collections.Touch(ctx, "zzz", base), domain.ErrNotFound)
}

func TestNodes(t *testing.T) {
	collections, nodes, _ := openTestDB(t)
	ctx := context.Background()
	now := time.Now().UTC()
	require.NoError(t, collections.Create(ctx, &models.Collection{ID: "c", Name: "C", CreatedAt: now, UpdatedAt: now}))

	folder := models.NewFolderNode("f", "c", "docs", nil, nil)
	folder.CreatedAt, folder.UpdatedAt = now, now
	require.NoError(t, nodes.Create(ctx, folder))

	parent := "f"
	file := models.NewFileNode("n", "c", "intro", &parent, []byte("snap"), models.Metadata{"wordCount": 3})
	file.CreatedAt, file.UpdatedAt = now, now
	require.NoError(t, nodes.Create(ctx, file))

	got, err := nodes.GetByID(ctx, "n")
	require.NoError(t, err)
	assert.Equal(t, []byte("snap"), got.Snapshot)
	assert.Equal(t, "f", *got.ParentID)
	assert.Equal(t, models.NodeKindFile, got.Kind)
	assert.EqualValues(t, 3, got.Metadata["wordCount"])

	gotFolder, err := nodes.GetByID(ctx, "f")
	require.NoError(t, err)
	assert.Nil(t, gotFolder.ParentID)
	assert.True(t, gotFolder.IsFolder())

	list, err := nodes.ListByCollection(ctx, "c")
	require.NoError(t, err)
	assert.Len(t, list, 2)
	for _, n := range list {
		assert.Nil(t, n.Snapshot)
	}

	require.NoError(t, nodes.UpdateSnapshot(ctx, "n", []byte("next"), now))
	require.NoError(t, nodes.UpdateName(ctx, "n", "renamed", now))
	got, err = nodes.GetByID(ctx, "n")
	require.NoError(t, err)
	assert.Equal(t, []byte("next"), got.Snapshot)
	assert.Equal(t, "renamed", got.Name)

	var conflict *domain.ConflictError
	assert.ErrorAs(t, nodes.Create(ctx, file), &conflict)
	assert.Equal(t, "n", conflict.ResourceID)

	stray := models.NewFileNode("s", "missing", "s", nil, nil, nil)
	assert.ErrorIs(t, nodes.Create(ctx, stray), domain.ErrNotFound)

	_, err = nodes.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, nodes.UpdateSnapshot(ctx, "missing", nil, now), domain.ErrNotFound)
}

func TestExecTx(t *testing.T) {
	collections, _, tx := openTestDB(t)
	ctx := context.Background()
	now := time.Now()

	boom := errors.New("boom")
	err := tx.ExecTx(ctx, func(txCtx context.Context) error {
		if err := collections.Create(txCtx, &models.Collection{ID: "r", Name: "R", CreatedAt: now, UpdatedAt: now}); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)
	_, err = collections.GetByID(ctx, "r")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	err = tx.ExecTx(ctx, func(txCtx context.Context) error {
		// Nested calls join the outer transaction
		return tx.ExecTx(txCtx, func(inner context.Context) error {
			return collections.Create(inner, &models.Collection{ID: "k", Name: "K", CreatedAt: now, UpdatedAt: now})
		})
	})
	require.NoError(t, err)
	_, err = collections.GetByID(ctx, "k")
	assert.NoError(t, err)
}
