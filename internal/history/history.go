package history

import (
	"log"
	"slices"
)

// History is an input history that can be walked with Up and Down. The
// newest entry is last.
type History struct {
	entries []string
	// cursor is the entry shown while navigating, -1 when not navigating
	cursor int
	// draft is the input that was being typed before navigation started
	draft string

	manager  *Manager
	filename string
}

// New creates an in-memory history
func New() *History {
	return &History{cursor: -1}
}

// Open creates a history backed by filename in manager's directory. A
// history that cannot be read starts empty.
func Open(manager *Manager, filename string) *History {
	h := &History{cursor: -1, manager: manager, filename: filename}
	entries, err := manager.Load(filename)
	if err != nil {
		log.Printf("Failed to load history %s: %v", filename, err)
		return h
	}
	h.entries = entries
	return h
}

// Add appends entry and saves the history. An earlier copy of the same
// entry is moved to the end rather than repeated.
func (h *History) Add(entry string) {
	h.Reset()
	if entry == "" {
		return
	}

	h.entries = slices.DeleteFunc(h.entries, func(e string) bool { return e == entry })
	h.entries = append(h.entries, entry)
	if len(h.entries) > MaxEntries {
		h.entries = slices.Delete(h.entries, 0, len(h.entries)-MaxEntries)
	}

	if h.manager != nil {
		if err := h.manager.Save(h.filename, h.entries); err != nil {
			log.Printf("Failed to save history %s: %v", h.filename, err)
		}
	}
}

// Previous moves to the previous (older) entry. current is the input
// being edited; it is returned by Next after walking past the newest entry.
func (h *History) Previous(current string) (string, bool) {
	if len(h.entries) == 0 {
		return "", false
	}
	switch {
	case h.cursor < 0:
		h.draft = current
		h.cursor = len(h.entries) - 1
	case h.cursor > 0:
		h.cursor--
	}
	return h.entries[h.cursor], true
}

// Next moves to the next (newer) entry, ending at the saved draft
func (h *History) Next() (string, bool) {
	if h.cursor < 0 {
		return "", false
	}
	h.cursor++
	if h.cursor >= len(h.entries) {
		draft := h.draft
		h.Reset()
		return draft, true
	}
	return h.entries[h.cursor], true
}

// Reset stops navigating
func (h *History) Reset() {
	h.cursor = -1
	h.draft = ""
}

// IsNavigating reports whether Previous was called since the last Reset
func (h *History) IsNavigating() bool {
	return h.cursor >= 0
}

// Entries returns a copy of the entries, oldest first
func (h *History) Entries() []string {
	return slices.Clone(h.entries)
}

// Len returns the number of entries
func (h *History) Len() int {
	return len(h.entries)
}
