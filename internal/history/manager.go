// Package history persists and navigates prompt and command history
package history

import (
	"errors"
	"io/fs"
	"log"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"

	"github.com/pstuifzand/zcode/internal/storage"
)

// MaxEntries is the number of entries kept per history
const MaxEntries = 100

const (
	PromptFile  = "prompts.toml"
	CommandFile = "commands.toml"
)

// Manager handles loading and saving history to TOML files
type Manager struct {
	historyDir string
}

// historyFile represents the structure of a history TOML file
type historyFile struct {
	Entries []string `toml:"entries"`
}

// NewManager creates a history manager storing files in <dataDir>/history
func NewManager(dataDir string) (*Manager, error) {
	historyDir := filepath.Join(dataDir, "history")
	if err := os.MkdirAll(historyDir, 0o755); err != nil {
		return nil, err
	}

	return &Manager{
		historyDir: historyDir,
	}, nil
}

// Load loads history entries from a TOML file
func (m *Manager) Load(filename string) ([]string, error) {
	filePath := filepath.Join(m.historyDir, filename)

	data, err := os.ReadFile(filePath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []string{}, nil
		}
		return nil, err
	}

	var histFile historyFile
	if err := toml.Unmarshal(data, &histFile); err != nil {
		// A corrupted history is not worth failing over
		log.Printf("Ignoring corrupted history file %s: %v", filePath, err)
		return []string{}, nil
	}

	return trim(histFile.Entries), nil
}

// Save saves the last MaxEntries entries to a TOML file
func (m *Manager) Save(filename string, entries []string) error {
	filePath := filepath.Join(m.historyDir, filename)

	data, err := toml.Marshal(historyFile{Entries: trim(entries)})
	if err != nil {
		return err
	}

	return storage.AtomicWrite(filePath, data)
}

func trim(entries []string) []string {
	if len(entries) > MaxEntries {
		return entries[len(entries)-MaxEntries:]
	}
	return entries
}
