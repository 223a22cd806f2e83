package session

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock(start time.Time) func() time.Time {
	t := start
	return func() time.Time {
		t = t.Add(time.Second)
		return t
	}
}

func TestStartAndUpdate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sessions.json")
	m, err := Load(path)
	require.NoError(t, err)
	m.now = fixedClock(time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC))

	id := m.StartSession("claude", "/work")
	assert.Regexp(t, `^20250102_030406_[0-9a-f]{16}$`, id)
	assert.Equal(t, id, m.CurrentSessionID)
	assert.True(t, m.Dirty())

	m.UpdateSession("fix the parser")
	m.UpdateSession("")
	s := m.Current()
	assert.Equal(t, 2, s.PromptCount)
	assert.Equal(t, "fix the parser", s.Description)
	assert.True(t, s.LastUsed.After(s.CreatedAt))

	m.SetProviderSessionID("abc")
	assert.Equal(t, "abc", m.ProviderSessionID("claude"))
	assert.Equal(t, "", m.ProviderSessionID("aider"))
}

func TestSaveOnlyWhenDirty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "zcode", "sessions.json")
	m, err := Load(path)
	require.NoError(t, err)

	require.NoError(t, m.Save())
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))

	id := m.StartSession("aider", "/w")
	m.SetProviderSessionID("p1")
	require.NoError(t, m.Save())
	assert.False(t, m.Dirty())

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, id, loaded.CurrentSessionID)
	require.Contains(t, loaded.Sessions, id)
	assert.Equal(t, "aider", loaded.Sessions[id].Provider)
	assert.Equal(t, "p1", loaded.Sessions[id].ProviderSessionID)
}

func TestRecentSessions(t *testing.T) {
	m, err := Load(filepath.Join(t.TempDir(), "sessions.json"))
	require.NoError(t, err)
	m.now = fixedClock(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))

	first := m.StartSession("claude", "/a")
	second := m.StartSession("aider", "/b")
	m.CurrentSessionID = first
	m.UpdateSession("again")

	recent := m.RecentSessions(10)
	require.Len(t, recent, 2)
	assert.Equal(t, first, recent[0].ID)
	assert.Equal(t, second, recent[1].ID)

	assert.Len(t, m.RecentSessions(1), 1)
}

func TestLoadCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sessions.json")
	require.NoError(t, os.WriteFile(path, []byte("{"), 0o644))
	_, err := Load(path)
	assert.Error(t, err)
}

func TestResume(t *testing.T) {
	m, err := Load(filepath.Join(t.TempDir(), "sessions.json"))
	require.NoError(t, err)

	first := m.StartSession("claude", "/work")
	m.SetProviderSessionID("abc")
	m.StartSession("aider", "/work")

	require.NoError(t, m.Resume(first))
	assert.Equal(t, "abc", m.ProviderSessionID("claude"))
	assert.Error(t, m.Resume("missing"))
}
