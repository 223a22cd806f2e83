package history

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNavigation(t *testing.T) {
	h := New()
	h.Add("one")
	h.Add("two")
	h.Add("three")

	tests := []struct {
		step string
		want string
		ok   bool
	}{
		{"prev", "three", true},
		{"prev", "two", true},
		{"prev", "one", true},
		{"prev", "one", true},
		{"next", "two", true},
		{"next", "three", true},
		{"next", "draft", true},
		{"next", "", false},
	}
	for i, tt := range tests {
		var got string
		var ok bool
		if tt.step == "prev" {
			got, ok = h.Previous("draft")
		} else {
			got, ok = h.Next()
		}
		assert.Equal(t, tt.ok, ok, "step %d", i)
		assert.Equal(t, tt.want, got, "step %d", i)
	}
}

func TestAddMovesDuplicatesAndSkipsEmpty(t *testing.T) {
	h := New()
	h.Add("a")
	h.Add("b")
	h.Add("")
	h.Add("a")
	assert.Equal(t, []string{"b", "a"}, h.Entries())
}

func TestCapAndPersistence(t *testing.T) {
	dir := t.TempDir()
	m, err := NewManager(dir)
	require.NoError(t, err)

	h := Open(m, PromptFile)
	for i := 0; i < MaxEntries+20; i++ {
		h.Add(fmt.Sprintf("prompt %d", i))
	}
	assert.Equal(t, MaxEntries, h.Len())

	reopened := Open(m, PromptFile)
	entries := reopened.Entries()
	require.Len(t, entries, MaxEntries)
	assert.Equal(t, "prompt 20", entries[0])
	assert.Equal(t, fmt.Sprintf("prompt %d", MaxEntries+19), entries[len(entries)-1])
}

func TestCorruptFileStartsEmpty(t *testing.T) {
	dir := t.TempDir()
	m, err := NewManager(dir)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "history", CommandFile), []byte("entries = ["), 0o644))

	entries, err := m.Load(CommandFile)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
