package storage

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"
)

// TimestampFormat is the UTC, millisecond precision prefix of backup file names
const TimestampFormat = "20060102_150405.000"

const manifestSuffix = ".manifest.json"

var (
	stampMu   sync.Mutex
	lastStamp time.Time
)

// nextTimestamp returns a UTC time truncated to milliseconds that is later
// than every value it returned before in this process
func nextTimestamp() time.Time {
	stampMu.Lock()
	defer stampMu.Unlock()

	t := time.Now().UTC().Truncate(time.Millisecond)
	if !t.After(lastStamp) {
		t = lastStamp.Add(time.Millisecond)
	}
	lastStamp = t
	return t
}

// formatTimestamp renders t as YYYYMMDD_HHMMSS_fff
func formatTimestamp(t time.Time) string {
	return strings.Replace(t.Format(TimestampFormat), ".", "_", 1)
}

// parseTimestamp is the inverse of formatTimestamp
func parseTimestamp(s string) (time.Time, error) {
	if len(s) != 19 || s[15] != '_' {
		return time.Time{}, fmt.Errorf("invalid timestamp %q", s)
	}
	return time.Parse(TimestampFormat, s[:15]+"."+s[16:])
}

// BackupManager owns the backup directory
type BackupManager struct {
	backupDir string
}

// NewBackupManager creates a backup manager for dir, or for the default
// per-user cache location when dir is empty
func NewBackupManager(dir string) (*BackupManager, error) {
	if dir == "" {
		dir = GetBackupDir()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create backup directory: %w", err)
	}

	return &BackupManager{
		backupDir: dir,
	}, nil
}

// Dir returns the backup directory
func (bm *BackupManager) Dir() string {
	return bm.backupDir
}

// GetBackupDir returns <user cache dir>/zcode/backups
func GetBackupDir() string {
	cacheDir, err := os.UserCacheDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "zcode", "backups")
	}
	return filepath.Join(cacheDir, "zcode", "backups")
}

// BackupSet is a snapshot of a group of files taken before they are
// written. It owns its backup files until restored or cleaned up.
type BackupSet struct {
	Timestamp string
	// Mapping maps each original path to its backup file
	Mapping map[string]string
	// Absent holds paths that did not exist when the set was created
	Absent map[string]bool

	manifest string
}

type manifest struct {
	Timestamp string            `json:"timestamp"`
	Files     map[string]string `json:"files"`
	Absent    []string          `json:"absent,omitempty"`
}

// CreateSet snapshots every file in files. Files that do not exist yet are
// recorded as absent so a restore removes them again. Creation stops at
// the first failure; backups written so far are removed.
func (bm *BackupManager) CreateSet(files []string) (*BackupSet, error) {
	stamp := formatTimestamp(nextTimestamp())
	set := &BackupSet{
		Timestamp: stamp,
		Mapping:   make(map[string]string),
		Absent:    make(map[string]bool),
	}

	used := make(map[string]int)
	for _, path := range files {
		data, err := os.ReadFile(path)
		if errors.Is(err, fs.ErrNotExist) {
			set.Absent[path] = true
			continue
		}
		if err != nil {
			set.Cleanup()
			return nil, &BackupError{Path: path, Err: err}
		}

		name := stamp + "_" + filepath.Base(path)
		if n := used[name]; n > 0 {
			used[name]++
			name = fmt.Sprintf("%s~%d", name, n)
		} else {
			used[name] = 1
		}

		backupPath := filepath.Join(bm.backupDir, name)
		if err := AtomicWrite(backupPath, data); err != nil {
			set.Cleanup()
			return nil, &BackupError{Path: path, Err: err}
		}
		set.Mapping[path] = backupPath
	}

	set.manifest = filepath.Join(bm.backupDir, stamp+manifestSuffix)
	if err := set.writeManifest(); err != nil {
		log.Printf("Failed to write backup manifest: %v", err)
		set.manifest = ""
	}

	log.Printf("Created backup set %s with %d files", stamp, len(set.Mapping))
	return set, nil
}

func (bs *BackupSet) writeManifest() error {
	m := manifest{Timestamp: bs.Timestamp, Files: make(map[string]string)}
	for path, backup := range bs.Mapping {
		abs, err := filepath.Abs(path)
		if err != nil {
			abs = path
		}
		m.Files[abs] = filepath.Base(backup)
	}
	for path := range bs.Absent {
		m.Absent = append(m.Absent, path)
	}
	sort.Strings(m.Absent)

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	return AtomicWrite(bs.manifest, data)
}

// BackupPaths returns the backup file paths, sorted
func (bs *BackupSet) BackupPaths() []string {
	paths := make([]string, 0, len(bs.Mapping))
	for _, p := range bs.Mapping {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// RestoreAll copies every backup back onto its original path and removes
// files that were absent when the set was created. It keeps going after a
// failure and returns a *RestorePartialError naming every path it could
// not restore. Files that already match their snapshot are left alone.
func (bs *BackupSet) RestoreAll() error {
	var failures []RestoreFailure

	paths := make([]string, 0, len(bs.Mapping))
	for p := range bs.Mapping {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	for _, path := range paths {
		data, err := os.ReadFile(bs.Mapping[path])
		if err != nil {
			failures = append(failures, RestoreFailure{Path: path, Err: err})
			continue
		}
		if current, err := os.ReadFile(path); err == nil && bytes.Equal(current, data) {
			continue
		}
		if err := AtomicWrite(path, data); err != nil {
			failures = append(failures, RestoreFailure{Path: path, Err: err})
			continue
		}
		log.Printf("Restored %s from %s", path, bs.Mapping[path])
	}

	for path := range bs.Absent {
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			failures = append(failures, RestoreFailure{Path: path, Err: err})
		}
	}

	if len(failures) > 0 {
		slices.SortFunc(failures, func(a, b RestoreFailure) int {
			return strings.Compare(a.Path, b.Path)
		})
		return &RestorePartialError{Failures: failures}
	}
	return nil
}

// Cleanup removes the backup files of the set. Errors are ignored.
func (bs *BackupSet) Cleanup() {
	for _, backup := range bs.Mapping {
		os.Remove(backup)
	}
	if bs.manifest != "" {
		os.Remove(bs.manifest)
	}
}

// BackupMetadata holds parsed information about a backup file
type BackupMetadata struct {
	FilePath     string    // Full path to backup file
	Timestamp    time.Time // Parsed timestamp from filename
	BaseName     string    // Base name of the original file
	OriginalFile string    // Original path from the manifest, if known
}

// Restore writes the backup over its original file
func (b BackupMetadata) Restore() error {
	if b.OriginalFile == "" {
		return fmt.Errorf("cannot restore %s: original path unknown", filepath.Base(b.FilePath))
	}
	content, err := os.ReadFile(b.FilePath)
	if err != nil {
		return fmt.Errorf("failed to read backup: %w", err)
	}
	if err := AtomicWrite(b.OriginalFile, content); err != nil {
		return fmt.Errorf("failed to restore %s: %w", b.OriginalFile, err)
	}
	log.Printf("Restored %s from %s", b.OriginalFile, b.FilePath)
	return nil
}

// ListBackups returns all backups in the directory, newest first. When
// originalFilePath is not empty only backups of that file are returned.
func (bm *BackupManager) ListBackups(originalFilePath string) ([]BackupMetadata, error) {
	entries, err := os.ReadDir(bm.backupDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read backup directory: %w", err)
	}

	var searchPath string
	if originalFilePath != "" {
		if abs, err := filepath.Abs(originalFilePath); err == nil {
			searchPath = filepath.Clean(abs)
		} else {
			searchPath = originalFilePath
		}
	}

	originals := bm.readManifests(entries)

	var backups []BackupMetadata
	for _, entry := range entries {
		if entry.IsDir() || strings.HasSuffix(entry.Name(), manifestSuffix) {
			continue
		}
		metadata, err := parseBackupFilename(entry.Name(), filepath.Join(bm.backupDir, entry.Name()))
		if err != nil {
			continue
		}
		metadata.OriginalFile = originals[entry.Name()]

		if searchPath != "" && filepath.Clean(metadata.OriginalFile) != searchPath {
			continue
		}
		backups = append(backups, metadata)
	}

	slices.SortFunc(backups, func(a, b BackupMetadata) int {
		if c := b.Timestamp.Compare(a.Timestamp); c != 0 {
			return c
		}
		return strings.Compare(a.FilePath, b.FilePath)
	})
	return backups, nil
}

// readManifests maps backup file names to their original absolute paths
func (bm *BackupManager) readManifests(entries []os.DirEntry) map[string]string {
	originals := make(map[string]string)
	for _, entry := range entries {
		if !strings.HasSuffix(entry.Name(), manifestSuffix) {
			continue
		}
		data, err := os.ReadFile(filepath.Join(bm.backupDir, entry.Name()))
		if err != nil {
			continue
		}
		var m manifest
		if err := json.Unmarshal(data, &m); err != nil {
			continue
		}
		for original, name := range m.Files {
			originals[name] = original
		}
	}
	return originals
}

// parseBackupFilename extracts metadata from a backup filename
// Expected format: YYYYMMDD_HHMMSS_fff_<basename>
func parseBackupFilename(filename string, fullPath string) (BackupMetadata, error) {
	if len(filename) < 21 || filename[19] != '_' {
		return BackupMetadata{}, fmt.Errorf("filename too short")
	}

	timestamp, err := parseTimestamp(filename[:19])
	if err != nil {
		return BackupMetadata{}, fmt.Errorf("invalid timestamp format: %w", err)
	}

	base := filename[20:]
	if i := strings.LastIndex(base, "~"); i > 0 && isDigits(base[i+1:]) {
		base = base[:i]
	}

	return BackupMetadata{
		FilePath:  fullPath,
		Timestamp: timestamp,
		BaseName:  base,
	}, nil
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
