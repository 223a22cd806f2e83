// Package session keeps track of conversations with providers across runs
package session

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/pstuifzand/zcode/internal/storage"
)

// Session is one conversation with a provider in a working directory
type Session struct {
	ID          string    `json:"id"`
	Provider    string    `json:"provider"`
	CreatedAt   time.Time `json:"created_at"`
	LastUsed    time.Time `json:"last_used"`
	Description string    `json:"description"`
	PromptCount int       `json:"prompt_count"`
	WorkingDir  string    `json:"working_directory"`
	// ProviderSessionID is the provider's own id, used to resume
	ProviderSessionID string `json:"provider_session_id,omitempty"`
}

// Manager owns all sessions and the current one
type Manager struct {
	CurrentSessionID string              `json:"current_session_id,omitempty"`
	Sessions         map[string]*Session `json:"sessions"`

	store *storage.JSONStore
	dirty bool
	now   func() time.Time
}

// DefaultPath returns <dataDir>/sessions.json
func DefaultPath(dataDir string) string {
	return filepath.Join(dataDir, "sessions.json")
}

// Load reads the sessions file at path; a missing file gives an empty manager
func Load(path string) (*Manager, error) {
	m := &Manager{
		Sessions: make(map[string]*Session),
		store:    storage.NewJSONStore(path),
		now:      time.Now,
	}
	if _, err := m.store.Load(m); err != nil {
		return nil, fmt.Errorf("failed to load sessions: %w", err)
	}
	if m.Sessions == nil {
		m.Sessions = make(map[string]*Session)
	}
	return m, nil
}

func newID(t time.Time) string {
	b := make([]byte, 8)
	rand.Read(b)
	return t.UTC().Format("20060102_150405") + "_" + hex.EncodeToString(b)
}

// StartSession creates a session and makes it current
func (m *Manager) StartSession(provider, cwd string) string {
	now := m.now().UTC()
	id := newID(now)
	m.Sessions[id] = &Session{
		ID:         id,
		Provider:   provider,
		CreatedAt:  now,
		LastUsed:   now,
		WorkingDir: cwd,
	}
	m.CurrentSessionID = id
	m.dirty = true
	return id
}

// Current returns the current session, or nil
func (m *Manager) Current() *Session {
	return m.Sessions[m.CurrentSessionID]
}

// Resume makes the session with id current again
func (m *Manager) Resume(id string) error {
	if _, ok := m.Sessions[id]; !ok {
		return fmt.Errorf("no session %s", id)
	}
	if m.CurrentSessionID != id {
		m.CurrentSessionID = id
		m.dirty = true
	}
	return nil
}

// UpdateSession records a prompt in the current session. An empty
// description keeps the previous one.
func (m *Manager) UpdateSession(description string) {
	s := m.Current()
	if s == nil {
		return
	}
	s.LastUsed = m.now().UTC()
	s.PromptCount++
	if description != "" {
		s.Description = description
	}
	m.dirty = true
}

// SetProviderSessionID stores the provider's resume id on the current session
func (m *Manager) SetProviderSessionID(id string) {
	s := m.Current()
	if s == nil || id == "" || s.ProviderSessionID == id {
		return
	}
	s.ProviderSessionID = id
	m.dirty = true
}

// ProviderSessionID returns the resume id of the current session if it
// belongs to provider
func (m *Manager) ProviderSessionID(provider string) string {
	s := m.Current()
	if s == nil || s.Provider != provider {
		return ""
	}
	return s.ProviderSessionID
}

// RecentSessions returns up to limit sessions, most recently used first
func (m *Manager) RecentSessions(limit int) []*Session {
	sessions := make([]*Session, 0, len(m.Sessions))
	for _, s := range m.Sessions {
		sessions = append(sessions, s)
	}
	slices.SortFunc(sessions, func(a, b *Session) int {
		if c := b.LastUsed.Compare(a.LastUsed); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	if limit >= 0 && len(sessions) > limit {
		sessions = sessions[:limit]
	}
	return sessions
}

// Dirty reports whether there are unsaved changes
func (m *Manager) Dirty() bool {
	return m.dirty
}

// Save writes the sessions file if anything changed
func (m *Manager) Save() error {
	if !m.dirty {
		return nil
	}
	if err := m.store.Save(m); err != nil {
		return fmt.Errorf("failed to save sessions: %w", err)
	}
	m.dirty = false
	return nil
}
