package docsystem

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docvault/internal/domain"
	models "docvault/internal/domain/models/docsystem"
	docsysSvc "docvault/internal/domain/services/docsystem"
)

func TestLatestCollection(t *testing.T) {
	f := newFixture()
	svc := NewCollectionService(f.collections, f.nodes, testLogger())
	ctx := context.Background()

	latest, err := svc.LatestCollection(ctx)
	require.NoError(t, err)
	assert.Nil(t, latest)

	result, err := f.importService().Import(ctx, &docsysSvc.ImportRequest{
		Entries: []docsysSvc.ImportEntry{file("docs/a.md", "a"), file("b.md", "b")},
	})
	require.NoError(t, err)

	latest, err = svc.LatestCollection(ctx)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, result.CollectionID, latest.ID)
	assert.Len(t, latest.Nodes, 3)
}

func TestGetTree(t *testing.T) {
	f := newFixture()
	svc := NewCollectionService(f.collections, f.nodes, testLogger())
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, f.store.Collections().Create(ctx, &models.Collection{ID: "c", Name: "C", CreatedAt: now, UpdatedAt: now}))
	for _, n := range []*models.Node{
		models.NewFolderNode("docs", "c", "docs", nil, nil),
		models.NewFileNode("a", "c", "a", strPtr("docs"), nil, nil),
		models.NewFileNode("orphan", "c", "orphan", strPtr("deleted-folder"), nil, nil),
	} {
		n.CreatedAt, n.UpdatedAt = now, now
		require.NoError(t, f.store.Nodes().Create(ctx, n))
	}

	tree, err := svc.GetTree(ctx, "c")
	require.NoError(t, err)
	assert.Equal(t, "C", tree.Collection.Name)
	assert.Equal(t, []string{"docs", "orphan"}, names(tree.Roots))
	assert.Equal(t, []string{"a"}, names(tree.Roots[0].Children))
	require.Len(t, tree.Warnings, 1)
	assert.Contains(t, tree.Warnings[0], "deleted-folder")

	_, err = svc.GetTree(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
