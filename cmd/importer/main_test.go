package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	models "docvault/internal/domain/models/docsystem"
	docsysSvc "docvault/internal/domain/services/docsystem"
)

func TestRenderTree(t *testing.T) {
	tree := &docsysSvc.CollectionTree{
		Collection: models.Collection{Name: "Notes"},
		Roots: []*models.TreeNode{
			{Name: "docs", Kind: models.NodeKindFolder, Children: []*models.TreeNode{
				{Name: "b.md", Kind: models.NodeKindFile},
			}},
			{Name: "a.md", Kind: models.NodeKindFile},
		},
	}

	out := renderTree(tree)
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "Notes", lines[0])
	assert.True(t, strings.HasSuffix(lines[1], "docs/"))
	assert.True(t, strings.HasSuffix(lines[2], "b.md"))
	assert.True(t, strings.HasSuffix(lines[3], "a.md"))
}

func TestRun(t *testing.T) {
	t.Setenv("ENVIRONMENT", "test")
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("LOG_DIR", "")

	root := t.TempDir()
	for rel, content := range map[string]string{
		"a.md":          "# A",
		"docs/b.md":     "# B",
		"docs/logo.png": "png",
	} {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}

	var out, errOut bytes.Buffer
	code := run([]string{"-name", "Notes", root}, &out, &errOut)
	require.Equal(t, 0, code, errOut.String())

	assert.True(t, strings.HasPrefix(out.String(), "Notes\n"))
	assert.Contains(t, out.String(), "docs/")
	assert.Contains(t, out.String(), "2 files, 1 folders, 1 skipped")
}

func TestRunUsage(t *testing.T) {
	var out, errOut bytes.Buffer
	assert.Equal(t, 2, run(nil, &out, &errOut))
	assert.Contains(t, errOut.String(), "Usage")
}
