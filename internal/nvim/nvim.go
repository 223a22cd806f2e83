// Package nvim mirrors pending hunks into a running Neovim as extmarks, so
// the review can be followed in the editor the user already has open.
package nvim

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"

	"github.com/neovim/go-client/nvim"

	"github.com/pstuifzand/zcode/internal/model"
)

const (
	// Namespace holds every extmark zcode creates
	Namespace = "zcode_diff"

	HighlightAddition = "ZCodeAddition"
	HighlightDeletion = "ZCodeDeletion"
)

// ErrNotConnected is returned by Push and Clear before Connect succeeded
var ErrNotConnected = errors.New("not connected to neovim")

// Mark is one extmark to place. Line is 0-based as the Neovim API expects.
type Mark struct {
	Line int
	Opts map[string]interface{}
}

// Manager holds the connection to one Neovim instance
type Manager struct {
	nvim    *nvim.Nvim
	address string
	ns      int

	// buffers that received marks, by absolute path
	buffers map[string]nvim.Buffer
	marks   int
}

// New creates a disconnected manager
func New() *Manager {
	return &Manager{buffers: make(map[string]nvim.Buffer)}
}

// SocketFromEnv returns the address of the Neovim zcode runs inside of, if
// any
func SocketFromEnv() string {
	for _, env := range []string{"NVIM", "NVIM_LISTEN_ADDRESS"} {
		if addr := os.Getenv(env); addr != "" {
			return addr
		}
	}
	return ""
}

// Connect dials address, or the address from the environment when it is
// empty, and prepares the namespace and highlight groups
func (m *Manager) Connect(address string) error {
	if address == "" {
		address = SocketFromEnv()
	}
	if address == "" {
		return errors.New("no neovim socket: start zcode inside :terminal or pass a socket path")
	}
	if m.nvim != nil {
		m.Close()
	}

	v, err := nvim.Dial(address)
	if err != nil {
		return fmt.Errorf("failed to connect to neovim at %s: %w", address, err)
	}
	ns, err := v.CreateNamespace(Namespace)
	if err != nil {
		v.Close()
		return fmt.Errorf("failed to create namespace: %w", err)
	}

	b := v.NewBatch()
	b.Command("highlight default " + HighlightAddition + " ctermfg=green guifg=#9ece6a")
	b.Command("highlight default " + HighlightDeletion + " ctermfg=red guifg=#f7768e gui=strikethrough")
	if err := b.Execute(); err != nil {
		log.Printf("nvim: failed to define highlights: %v", err)
	}

	m.nvim = v
	m.address = address
	m.ns = ns
	log.Printf("nvim: connected to %s", address)
	return nil
}

// Connected reports whether a connection is open
func (m *Manager) Connected() bool {
	return m.nvim != nil
}

// Close drops the connection. Marks stay in Neovim until Clear.
func (m *Manager) Close() {
	if m.nvim != nil {
		m.nvim.Close()
	}
	m.nvim = nil
	m.address = ""
	m.buffers = make(map[string]nvim.Buffer)
	m.marks = 0
}

// Status describes the connection for the status line
func (m *Manager) Status() string {
	if m.nvim == nil {
		return "neovim: not connected"
	}
	return fmt.Sprintf("neovim: connected to %s, %d marks in %d buffers", m.address, m.marks, len(m.buffers))
}

// Push replaces the marks with the given hunks. Files that are not loaded
// in Neovim are added to the buffer list first.
func (m *Manager) Push(hunks []model.Hunk) (int, error) {
	if m.nvim == nil {
		return 0, ErrNotConnected
	}
	if err := m.Clear(); err != nil {
		return 0, err
	}

	byFile := make(map[string][]model.Hunk)
	var files []string
	for _, h := range hunks {
		if _, ok := byFile[h.FilePath]; !ok {
			files = append(files, h.FilePath)
		}
		byFile[h.FilePath] = append(byFile[h.FilePath], h)
	}
	sort.Strings(files)

	for _, path := range files {
		buf, err := m.buffer(path)
		if err != nil {
			return m.marks, err
		}
		lineCount, err := m.nvim.BufferLineCount(buf)
		if err != nil {
			return m.marks, fmt.Errorf("failed to read %s: %w", path, err)
		}
		for _, h := range byFile[path] {
			for _, mark := range Marks(h, lineCount) {
				if _, err := m.nvim.SetBufferExtmark(buf, m.ns, mark.Line, 0, mark.Opts); err != nil {
					return m.marks, fmt.Errorf("failed to place mark in %s: %w", path, err)
				}
				m.marks++
			}
		}
	}
	log.Printf("nvim: pushed %d marks for %d hunks", m.marks, len(hunks))
	return m.marks, nil
}

// Clear removes all zcode marks from the buffers they were pushed to
func (m *Manager) Clear() error {
	if m.nvim == nil {
		return ErrNotConnected
	}
	for path, buf := range m.buffers {
		if err := m.nvim.ClearBufferNamespace(buf, m.ns, 0, -1); err != nil {
			// the buffer may have been wiped in the meantime
			log.Printf("nvim: failed to clear %s: %v", path, err)
		}
	}
	m.buffers = make(map[string]nvim.Buffer)
	m.marks = 0
	return nil
}

func (m *Manager) buffer(path string) (nvim.Buffer, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return 0, err
	}
	if buf, ok := m.buffers[abs]; ok {
		return buf, nil
	}

	if buf, ok := m.findBuffer(abs); ok {
		m.buffers[abs] = buf
		return buf, nil
	}
	if err := m.nvim.Command("badd " + escapePath(abs)); err != nil {
		return 0, fmt.Errorf("failed to open %s in neovim: %w", abs, err)
	}
	buf, ok := m.findBuffer(abs)
	if !ok {
		return 0, fmt.Errorf("no neovim buffer for %s", abs)
	}
	// badd leaves the buffer unloaded
	if err := m.nvim.Call("bufload", nil, int(buf)); err != nil {
		return 0, fmt.Errorf("failed to load %s: %w", abs, err)
	}
	m.buffers[abs] = buf
	return buf, nil
}

func (m *Manager) findBuffer(abs string) (nvim.Buffer, bool) {
	bufs, err := m.nvim.Buffers()
	if err != nil {
		return 0, false
	}
	for _, b := range bufs {
		name, err := m.nvim.BufferName(b)
		if err == nil && name == abs {
			return b, true
		}
	}
	return 0, false
}

// Marks builds the extmarks for one hunk in a buffer of lineCount lines.
// Deleted lines are highlighted in place; runs of inserted lines become
// virtual lines below the original line they follow.
func Marks(h model.Hunk, lineCount int) []Mark {
	var (
		marks  []Mark
		anchor = h.StartLine
		added  [][][]interface{}
	)
	if len(h.Changes) > 0 && h.Changes[0].OldLineNum != nil {
		anchor = *h.Changes[0].OldLineNum - 1
	}

	flush := func() {
		if len(added) == 0 {
			return
		}
		opts := map[string]interface{}{"virt_lines": added}
		line := anchor - 1
		if line < 0 {
			line = 0
			opts["virt_lines_above"] = true
		}
		marks = append(marks, Mark{Line: clamp(line, lineCount), Opts: opts})
		added = nil
	}

	for _, c := range h.Changes {
		switch c.Tag {
		case model.TagInsert:
			added = append(added, [][]interface{}{{"+ " + c.Content, HighlightAddition}})
		case model.TagDelete:
			flush()
			anchor = *c.OldLineNum
			line := clamp(anchor-1, lineCount)
			marks = append(marks, Mark{Line: line, Opts: map[string]interface{}{
				"end_row":       line,
				"end_col":       len(c.Content),
				"hl_group":      HighlightDeletion,
				"virt_text":     [][]interface{}{{"-", HighlightDeletion}},
				"virt_text_pos": "overlay",
				"strict":        false,
			}})
		default:
			flush()
			anchor = *c.OldLineNum
		}
	}
	flush()
	return marks
}

func clamp(line, lineCount int) int {
	if line >= lineCount {
		line = lineCount - 1
	}
	return max(line, 0)
}

func escapePath(p string) string {
	out := make([]rune, 0, len(p))
	for _, r := range p {
		switch r {
		case ' ', '\\', '%', '#', '|', '"':
			out = append(out, '\\')
		}
		out = append(out, r)
	}
	return string(out)
}
