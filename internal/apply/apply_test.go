package apply

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pstuifzand/zcode/internal/diff"
	"github.com/pstuifzand/zcode/internal/model"
	"github.com/pstuifzand/zcode/internal/storage"
)

type fixture struct {
	dir     string
	applier *Applier
	hunks   []model.Hunk
	pending map[string]model.FileChange
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	bm, err := storage.NewBackupManager(t.TempDir())
	require.NoError(t, err)
	return &fixture{
		dir:     t.TempDir(),
		applier: NewApplier(bm),
		pending: make(map[string]model.FileChange),
	}
}

// propose writes original to disk (unless create) and records accepted hunks
func (f *fixture) propose(t *testing.T, name, original, proposed string, create bool) string {
	t.Helper()
	path := filepath.Join(f.dir, name)
	fc := model.FileChange{Path: path, ProposedContent: proposed, Type: model.ChangeModify}
	if create {
		fc.Type = model.ChangeCreate
	} else {
		require.NoError(t, os.WriteFile(path, []byte(original), 0o644))
		fc.OriginalContent = &original
	}
	f.pending[path] = fc

	hunks, err := diff.Hunks(path, original, proposed, diff.DefaultOptions())
	require.NoError(t, err)
	f.hunks = append(f.hunks, acceptAll(hunks)...)
	return path
}

func readString(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestApplyNothingAccepted(t *testing.T) {
	f := newFixture(t)
	f.propose(t, "a.txt", "a", "b", false)
	for i := range f.hunks {
		f.hunks[i].Status = model.HunkRejected
	}

	_, err := f.applier.ApplyAccepted(f.hunks, f.pending, true)
	assert.ErrorIs(t, err, ErrNoAcceptedHunks)
}

func TestApplyWritesFilesInSortedOrder(t *testing.T) {
	f := newFixture(t)
	b := f.propose(t, "b.txt", "1\n2\n3\n", "1\ntwo\n3\n", false)
	a := f.propose(t, "a.txt", "x", "y", false)
	c := f.propose(t, "c.txt", "", "new file\n", true)

	result, err := f.applier.ApplyAccepted(f.hunks, f.pending, true)
	require.NoError(t, err)

	assert.Equal(t, []string{a, b, c}, result.FilesModified)
	assert.Equal(t, len(f.hunks), result.HunksApplied)
	assert.Len(t, result.BackupsCreated, 2, "new files have nothing to back up")

	assert.Equal(t, "y", readString(t, a))
	assert.Equal(t, "1\ntwo\n3\n", readString(t, b))
	assert.Equal(t, "new file\n", readString(t, c))
}

func TestApplyTwiceIsNoop(t *testing.T) {
	f := newFixture(t)
	path := f.propose(t, "a.txt", "a\nb\nc", "a\nB\nc", false)

	_, err := f.applier.ApplyAccepted(f.hunks, f.pending, false)
	require.NoError(t, err)

	again, err := diff.Hunks(path, readString(t, path), "a\nB\nc", diff.DefaultOptions())
	require.NoError(t, err)
	assert.Empty(t, again)

	_, err = f.applier.ApplyAccepted(acceptAll(again), f.pending, false)
	assert.ErrorIs(t, err, ErrNoAcceptedHunks)
}

func TestApplyOnlyTouchesAcceptedFiles(t *testing.T) {
	f := newFixture(t)
	a := f.propose(t, "a.txt", "a", "A", false)
	b := f.propose(t, "b.txt", "b", "B", false)
	for i := range f.hunks {
		if f.hunks[i].FilePath == b {
			f.hunks[i].Status = model.HunkRejected
		}
	}

	result, err := f.applier.ApplyAccepted(f.hunks, f.pending, false)
	require.NoError(t, err)
	assert.Equal(t, []string{a}, result.FilesModified)
	assert.Equal(t, "b", readString(t, b))
}

func TestApplyRollsBackOnFailure(t *testing.T) {
	f := newFixture(t)
	first := f.propose(t, "1.txt", "one\n", "ONE\n", false)
	second := f.propose(t, "2.txt", "two\n", "TWO\n", false)
	require.NoError(t, os.Chmod(second, 0o444))

	_, err := f.applier.ApplyAccepted(f.hunks, f.pending, true)
	require.Error(t, err)

	var failed *ApplyFailedError
	require.ErrorAs(t, err, &failed)
	assert.Equal(t, second, failed.Path)
	assert.Nil(t, failed.Restore)
	assert.True(t, errors.Is(err, os.ErrPermission))

	assert.Equal(t, "one\n", readString(t, first))
	assert.Equal(t, "two\n", readString(t, second))
}

func TestApplyRollbackRemovesCreatedFiles(t *testing.T) {
	f := newFixture(t)
	created := f.propose(t, "0-new.txt", "", "hello", true)
	locked := f.propose(t, "1-locked.txt", "x", "y", false)
	require.NoError(t, os.Chmod(locked, 0o444))

	_, err := f.applier.ApplyAccepted(f.hunks, f.pending, true)
	var failed *ApplyFailedError
	require.ErrorAs(t, err, &failed)
	assert.Equal(t, locked, failed.Path)

	_, statErr := os.Stat(created)
	assert.True(t, errors.Is(statErr, os.ErrNotExist))
}

func TestApplyWithoutBackupsLeavesEarlierWrites(t *testing.T) {
	f := newFixture(t)
	first := f.propose(t, "1.txt", "one", "ONE", false)
	second := f.propose(t, "2.txt", "two", "TWO", false)
	require.NoError(t, os.Chmod(second, 0o444))

	_, err := f.applier.ApplyAccepted(f.hunks, f.pending, false)
	var failed *ApplyFailedError
	require.ErrorAs(t, err, &failed)
	assert.Equal(t, "ONE", readString(t, first))
}

func TestApplyBackupFailureWritesNothing(t *testing.T) {
	f := newFixture(t)
	a := f.propose(t, "a.txt", "a", "A", false)
	dirPath := filepath.Join(f.dir, "b-dir")
	require.NoError(t, os.Mkdir(dirPath, 0o755))
	f.hunks = append(f.hunks, model.Hunk{
		FilePath: dirPath,
		Status:   model.HunkAccepted,
		Changes: []model.LineChange{
			{Tag: model.TagInsert, Content: "x", NewLineNum: model.LineNum(1)},
		},
	})

	_, err := f.applier.ApplyAccepted(f.hunks, f.pending, true)
	var backupErr *BackupFailedError
	require.ErrorAs(t, err, &backupErr)
	assert.Equal(t, dirPath, backupErr.Path)
	assert.Equal(t, "a", readString(t, a))
}

func TestApplyReportsPartialRestore(t *testing.T) {
	f := newFixture(t)
	first := f.propose(t, "1.txt", "one", "ONE", false)
	second := f.propose(t, "2.txt", "two", "TWO", false)

	f.applier.write = func(path string, content []byte) error {
		if path == second {
			// the first file can no longer be rolled back
			require.NoError(t, os.Chmod(first, 0o444))
			return os.ErrPermission
		}
		return storage.AtomicWrite(path, content)
	}

	_, err := f.applier.ApplyAccepted(f.hunks, f.pending, true)
	var failed *ApplyFailedError
	require.ErrorAs(t, err, &failed)
	assert.Equal(t, second, failed.Path)

	var partial *storage.RestorePartialError
	require.ErrorAs(t, err, &partial)
	assert.Equal(t, []string{first}, partial.Paths())
	assert.Equal(t, "two", readString(t, second))
}
