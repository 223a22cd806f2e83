package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pstuifzand/zcode/internal/storage"
)

func setup(t *testing.T) (*storage.BackupManager, string) {
	t.Helper()
	bm, err := storage.NewBackupManager(t.TempDir())
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("first\n"), 0644))
	_, err = bm.CreateSet([]string{path})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, []byte("second\n"), 0644))
	return bm, path
}

func TestList(t *testing.T) {
	bm, path := setup(t)

	var out bytes.Buffer
	require.NoError(t, list(&out, bm, ""))
	assert.Contains(t, out.String(), "  0  ")
	abs, _ := filepath.Abs(path)
	assert.Contains(t, out.String(), abs)
}

func TestRestoreDryRunLeavesFile(t *testing.T) {
	bm, path := setup(t)

	var out bytes.Buffer
	require.NoError(t, restore(&out, bm, path, options{dryRun: true}))
	assert.Contains(t, out.String(), "-second")
	assert.Contains(t, out.String(), "+first")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "second\n", string(data))
}

func TestRestore(t *testing.T) {
	bm, path := setup(t)

	var out bytes.Buffer
	require.NoError(t, restore(&out, bm, path, options{}))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "first\n", string(data))

	out.Reset()
	require.NoError(t, restore(&out, bm, path, options{}))
	assert.Contains(t, out.String(), "already matches")

	assert.Error(t, restore(&out, bm, path, options{index: 3}))
}
