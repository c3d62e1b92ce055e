package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hirescope/hirescope/pkg/hirescope"
)

func TestFindPDFs(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "nested"), 0o755))

	for _, name := range []string{"b.pdf", "a.PDF", "notes.txt", filepath.Join("nested", "c.pdf")} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o600))
	}

	paths, err := findPDFs(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "a.PDF"),
		filepath.Join(dir, "b.pdf"),
		filepath.Join(dir, "nested", "c.pdf"),
	}, paths)
}

func TestSplitList(t *testing.T) {
	assert.Nil(t, splitList(""))
	assert.Equal(t, []string{"Jane Doe", "old.pdf"}, splitList(" Jane Doe , ,old.pdf "))
}

func TestAddStats(t *testing.T) {
	var total hirescope.IngestStats

	addStats(&total, hirescope.IngestStats{TotalUploaded: 2, Processed: 1, Errors: 1})
	addStats(&total, hirescope.IngestStats{TotalUploaded: 3, Duplicates: 1, Queued: 2})

	assert.Equal(t, hirescope.IngestStats{TotalUploaded: 5, Processed: 1, Duplicates: 1, Errors: 1, Queued: 2}, total)
}
