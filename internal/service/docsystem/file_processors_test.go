package docsystem

import (
	"archive/zip"
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docvault/internal/domain"
)

func zipArchive(t *testing.T, files map[string]string) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return &buf
}

func TestFileProcessorRegistry(t *testing.T) {
	registry := NewFileProcessorRegistry(1024)

	assert.Equal(t, "ZipFileProcessor", registry.GetProcessor("vault.ZIP").Name())
	assert.Equal(t, "IndividualFileProcessor", registry.GetProcessor("notes.md").Name())
	assert.Nil(t, registry.GetProcessor(""))
}

func TestZipFileProcessor(t *testing.T) {
	archive := zipArchive(t, map[string]string{
		"book/":             "",
		"book/ch1.md":       "one",
		"book/.DS_Store":    "x",
		"__MACOSX/book/._x": "x",
	})

	entries, err := NewZipFileProcessor(1024).Extract(context.Background(), archive, "book.zip")
	require.NoError(t, err)

	got := map[string]string{}
	for _, e := range entries {
		if e.IsFolder() {
			got[e.Path] = "<folder>"
			continue
		}
		got[e.Path] = string(e.Content)
	}
	assert.Equal(t, map[string]string{"book/": "<folder>", "book/ch1.md": "one"}, got)
}

func TestZipFileProcessorLimits(t *testing.T) {
	archive := zipArchive(t, map[string]string{"big.md": strings.Repeat("x", 4096)})
	_, err := NewZipFileProcessor(1024).Extract(context.Background(), archive, "big.zip")
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = NewZipFileProcessor(1024).Extract(context.Background(), strings.NewReader("not a zip"), "bad.zip")
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestIndividualFileProcessor(t *testing.T) {
	p := NewIndividualFileProcessor(8)

	entries, err := p.Extract(context.Background(), strings.NewReader("hi"), "a.md")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "a.md", entries[0].Path)
	assert.False(t, entries[0].IsFolder())

	_, err = p.Extract(context.Background(), strings.NewReader("too long for the limit"), "a.md")
	assert.ErrorIs(t, err, domain.ErrValidation)
}
