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
	"docvault/internal/editor"
)

func strPtr(s string) *string { return &s }

func mustSnapshot(t *testing.T, markdown string) []byte {
	t.Helper()
	doc, err := editor.FromMarkdown([]byte(markdown))
	require.NoError(t, err)
	snap, err := BuildSnapshot(doc)
	require.NoError(t, err)
	return snap
}

func TestCreateNodeCollectionPrecedence(t *testing.T) {
	f := newFixture()
	svc := f.nodeService()
	ctx := context.Background()

	untitled, err := svc.CreateNode(ctx, &docsysSvc.CreateNodeRequest{ID: "n1", Name: "first", Kind: models.NodeKindFile})
	require.NoError(t, err)
	c, err := f.store.Collections().GetByID(ctx, untitled.CollectionID)
	require.NoError(t, err)
	assert.Equal(t, DefaultCollectionName, c.Name)

	named, err := svc.CreateNode(ctx, &docsysSvc.CreateNodeRequest{
		ID: "n2", Name: "second", Kind: models.NodeKindFile, CollectionName: strPtr("Drafts"),
	})
	require.NoError(t, err)
	c, err = f.store.Collections().GetByID(ctx, named.CollectionID)
	require.NoError(t, err)
	assert.Equal(t, "Drafts", c.Name)
	assert.NotEqual(t, untitled.CollectionID, named.CollectionID)

	existing, err := svc.CreateNode(ctx, &docsysSvc.CreateNodeRequest{
		ID: "n3", Name: "third", Kind: models.NodeKindFolder,
		CollectionID: strPtr(named.CollectionID), CollectionName: strPtr("ignored"),
	})
	require.NoError(t, err)
	assert.Equal(t, named.CollectionID, existing.CollectionID)

	_, err = svc.CreateNode(ctx, &docsysSvc.CreateNodeRequest{
		ID: "n4", Name: "fourth", Kind: models.NodeKindFile, CollectionID: strPtr("missing"),
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCreateNodeRollsBackImplicitCollection(t *testing.T) {
	f := newFixture()
	svc := f.nodeService()
	ctx := context.Background()

	first, err := svc.CreateNode(ctx, &docsysSvc.CreateNodeRequest{ID: "dup", Name: "a", Kind: models.NodeKindFile})
	require.NoError(t, err)

	time.Sleep(time.Millisecond)
	_, err = svc.CreateNode(ctx, &docsysSvc.CreateNodeRequest{
		ID: "dup", Name: "b", Kind: models.NodeKindFile, CollectionName: strPtr("Never"),
	})
	var conflict *domain.ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, "dup", conflict.ResourceID)

	latest, err := f.store.Collections().GetLatest(ctx)
	require.NoError(t, err)
	assert.Equal(t, first.CollectionID, latest.ID)
}

func TestCreateNodeValidation(t *testing.T) {
	f := newFixture()
	svc := f.nodeService()
	ctx := context.Background()

	folder, err := svc.CreateNode(ctx, &docsysSvc.CreateNodeRequest{ID: "folder", Name: "docs", Kind: models.NodeKindFolder})
	require.NoError(t, err)
	fileNode, err := svc.CreateNode(ctx, &docsysSvc.CreateNodeRequest{
		ID: "file", Name: "a", Kind: models.NodeKindFile, CollectionID: strPtr(folder.CollectionID),
	})
	require.NoError(t, err)
	other, err := svc.CreateNode(ctx, &docsysSvc.CreateNodeRequest{ID: "other", Name: "x", Kind: models.NodeKindFolder})
	require.NoError(t, err)

	tests := []struct {
		name string
		req  docsysSvc.CreateNodeRequest
	}{
		{"empty name", docsysSvc.CreateNodeRequest{Name: "  ", Kind: models.NodeKindFile}},
		{"slash in name", docsysSvc.CreateNodeRequest{Name: "a/b", Kind: models.NodeKindFile}},
		{"unknown kind", docsysSvc.CreateNodeRequest{Name: "a", Kind: "link"}},
		{"folder with snapshot", docsysSvc.CreateNodeRequest{Name: "a", Kind: models.NodeKindFolder, Snapshot: mustSnapshot(t, "x")}},
		{"missing parent", docsysSvc.CreateNodeRequest{Name: "a", Kind: models.NodeKindFile, ParentID: strPtr("ghost"), CollectionID: strPtr(folder.CollectionID)}},
		{"file parent", docsysSvc.CreateNodeRequest{Name: "a", Kind: models.NodeKindFile, ParentID: strPtr(fileNode.ID), CollectionID: strPtr(folder.CollectionID)}},
		{"parent in another collection", docsysSvc.CreateNodeRequest{Name: "a", Kind: models.NodeKindFile, ParentID: strPtr(other.ID), CollectionID: strPtr(folder.CollectionID)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := tt.req
			_, err := svc.CreateNode(ctx, &req)
			assert.ErrorIs(t, err, domain.ErrValidation)
		})
	}

	_, err = svc.CreateNode(ctx, &docsysSvc.CreateNodeRequest{Name: "a", Kind: models.NodeKindFile, Snapshot: []byte("garbage")})
	assert.ErrorIs(t, err, domain.ErrCorruptSnapshot)
}

func TestSaveSnapshot(t *testing.T) {
	f := newFixture()
	svc := f.nodeService()
	ctx := context.Background()

	node, err := svc.CreateNode(ctx, &docsysSvc.CreateNodeRequest{ID: "n", Name: "a", Kind: models.NodeKindFile})
	require.NoError(t, err)
	before, err := f.store.Collections().GetByID(ctx, node.CollectionID)
	require.NoError(t, err)

	time.Sleep(time.Millisecond)
	snap := mustSnapshot(t, "hello")
	require.NoError(t, svc.SaveSnapshot(ctx, "n", snap))

	loaded, err := svc.LoadNode(ctx, "n")
	require.NoError(t, err)
	assert.Equal(t, snap, loaded.Snapshot)
	after, err := f.store.Collections().GetByID(ctx, node.CollectionID)
	require.NoError(t, err)
	assert.True(t, after.UpdatedAt.After(before.UpdatedAt))

	err = svc.SaveSnapshot(ctx, "n", []byte("not a snapshot"))
	assert.ErrorIs(t, err, domain.ErrCorruptSnapshot)
	loaded, err = svc.LoadNode(ctx, "n")
	require.NoError(t, err)
	assert.Equal(t, snap, loaded.Snapshot, "a rejected save leaves the stored snapshot intact")

	_, err = svc.CreateNode(ctx, &docsysSvc.CreateNodeRequest{ID: "dir", Name: "d", Kind: models.NodeKindFolder})
	require.NoError(t, err)
	assert.ErrorIs(t, svc.SaveSnapshot(ctx, "dir", snap), domain.ErrValidation)
	assert.ErrorIs(t, svc.SaveSnapshot(ctx, "ghost", snap), domain.ErrNotFound)

	f.nodes.setFailSaves(true)
	err = svc.SaveSnapshot(ctx, "n", snap)
	assert.ErrorIs(t, err, domain.ErrPersistence)
}

func TestUpdateTitle(t *testing.T) {
	f := newFixture()
	svc := f.nodeService()
	ctx := context.Background()

	_, err := svc.CreateNode(ctx, &docsysSvc.CreateNodeRequest{ID: "n", Name: "a", Kind: models.NodeKindFile})
	require.NoError(t, err)

	require.NoError(t, svc.UpdateTitle(ctx, "n", "  Renamed  "))
	node, err := svc.LoadNode(ctx, "n")
	require.NoError(t, err)
	assert.Equal(t, "Renamed", node.Name)

	assert.ErrorIs(t, svc.UpdateTitle(ctx, "n", ""), domain.ErrValidation)
	assert.ErrorIs(t, svc.UpdateTitle(ctx, "n", "a/b"), domain.ErrValidation)
	assert.ErrorIs(t, svc.UpdateTitle(ctx, "ghost", "x"), domain.ErrNotFound)

	_, err = svc.LoadNode(ctx, "")
	assert.ErrorIs(t, err, domain.ErrValidation)
}
