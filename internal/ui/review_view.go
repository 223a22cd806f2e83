package ui

import (
	"fmt"
	"path/filepath"

	"github.com/gdamore/tcell/v2"

	"github.com/pstuifzand/zcode/internal/model"
)

// Hunk markers
const (
	MarkAccepted = '✓'
	MarkRejected = '✗'
	MarkPending  = '○'
)

// Marker returns the marker rune for a hunk status
func Marker(s model.HunkStatus) rune {
	switch s {
	case model.HunkAccepted:
		return MarkAccepted
	case model.HunkRejected:
		return MarkRejected
	}
	return MarkPending
}

// ReviewView draws the hunks of the selected file as an overlay on the
// file: context lines plain, additions and deletions tinted, each hunk
// headed by its marker
type ReviewView struct {
	ShowLineNumbers bool
	scrollOffset    int
	cwd             string
}

// NewReviewView creates a view that shows paths relative to cwd
func NewReviewView(cwd string) *ReviewView {
	return &ReviewView{ShowLineNumbers: true, cwd: cwd}
}

// ToggleLineNumbers shows or hides the line number gutter
func (v *ReviewView) ToggleLineNumbers() {
	v.ShowLineNumbers = !v.ShowLineNumbers
}

type reviewLine struct {
	kind     model.DecorationKind
	header   bool
	hunk     int
	lineNum  int
	sign     rune
	text     string
	selected bool
}

func (v *ReviewView) relPath(path string) string {
	if v.cwd == "" {
		return path
	}
	if rel, err := filepath.Rel(v.cwd, path); err == nil && !filepath.IsAbs(rel) && rel[0] != '.' {
		return rel
	}
	return path
}

// build lays out the decorations of pc; selected is the ID of the
// selected hunk within the file
func (v *ReviewView) build(hunks []model.Hunk, pc *model.ProposedChange, selected int) []reviewLine {
	byID := make(map[int]model.Hunk)
	for _, h := range hunks {
		if h.FilePath == pc.FilePath {
			byID[h.ID] = h
		}
	}

	var out []reviewLine
	current := -1
	for _, d := range pc.Decorations {
		if d.HunkID != current {
			current = d.HunkID
			h := byID[current]
			added, removed := h.Counts()
			out = append(out, reviewLine{
				header:   true,
				hunk:     current,
				sign:     Marker(h.Status),
				text:     fmt.Sprintf("%s  +%d -%d  %s", h.Header(), added, removed, h.Status),
				selected: current == selected,
			})
		}
		line := reviewLine{kind: d.Kind, hunk: d.HunkID, lineNum: d.LineNum, selected: d.HunkID == selected}
		switch d.Kind {
		case model.DecorationContext:
			line.sign, line.text = ' ', d.OriginalText
		case model.DecorationAddition:
			line.sign, line.text = '+', d.NewText
		case model.DecorationDeletion:
			line.sign, line.text = '-', d.OriginalText
		case model.DecorationModification:
			// shown as the removed line followed by its replacement
			out = append(out, reviewLine{kind: model.DecorationDeletion, hunk: d.HunkID, sign: '-', text: d.OriginalText, selected: line.selected})
			line.kind, line.sign, line.text = model.DecorationAddition, '~', d.NewText
		}
		out = append(out, line)
	}
	return out
}

// Render draws the review of pc into the given area. hunks are all hunks
// of the review; selected is the selected hunk.
func (v *ReviewView) Render(screen *Screen, x, y, width, height int, hunks []model.Hunk, selected *model.Hunk, pc *model.ProposedChange, fileIndex, fileCount int) {
	if width < 20 || height < 3 {
		return
	}
	if pc == nil || selected == nil {
		screen.DrawString(x+1, y+1, "No changes to review. Press i for a new prompt.", screen.DimStyle())
		return
	}

	title := fmt.Sprintf(" %s [%s]  file %d/%d ", v.relPath(pc.FilePath), pc.Status, fileIndex+1, fileCount)
	screen.FillLine(x, y, width, screen.StatusBarStyle())
	screen.DrawStringLimited(x, y, title, width, screen.TitleStyle().Background(screen.Theme.Colors.StatusBar))

	lines := v.build(hunks, pc, selected.ID)
	rows := height - 1

	// keep the selected hunk header on screen
	first := 0
	for i, l := range lines {
		if l.header && l.hunk == selected.ID {
			first = i
			break
		}
	}
	last := first
	for last+1 < len(lines) && lines[last+1].hunk == selected.ID {
		last++
	}
	if first < v.scrollOffset {
		v.scrollOffset = first
	}
	if last >= v.scrollOffset+rows {
		v.scrollOffset = min(first, last-rows+1)
	}
	v.scrollOffset = max(min(v.scrollOffset, len(lines)-rows), 0)

	gutter := 0
	if v.ShowLineNumbers {
		gutter = 6
	}
	for i := 0; i < rows && v.scrollOffset+i < len(lines); i++ {
		l := lines[v.scrollOffset+i]
		row := y + 1 + i
		v.renderLine(screen, x, row, width, gutter, l)
	}
}

func (v *ReviewView) renderLine(screen *Screen, x, y, width, gutter int, l reviewLine) {
	if l.header {
		style := screen.DimStyle()
		switch l.sign {
		case MarkAccepted:
			style = screen.AcceptedStyle()
		case MarkRejected:
			style = screen.RejectedStyle()
		case MarkPending:
			style = screen.PendingStyle()
		}
		if l.selected {
			screen.FillLine(x, y, width, screen.SelectedStyle())
			style = screen.SelectedStyle()
		}
		screen.SetCell(x, y, l.sign, style)
		screen.DrawStringLimited(x+2, y, l.text, width-2, style)
		return
	}

	var style tcell.Style
	switch l.kind {
	case model.DecorationAddition:
		style = screen.AdditionStyle()
	case model.DecorationDeletion:
		style = screen.DeletionStyle()
	default:
		style = screen.TextStyle()
	}
	if l.kind != model.DecorationContext {
		screen.FillLine(x+gutter, y, width-gutter, style)
	}
	if l.selected {
		screen.SetCell(x, y, '▌', screen.BorderStyle())
	}
	if gutter > 0 && l.lineNum > 0 {
		screen.DrawString(x+1, y, fmt.Sprintf("%4d", l.lineNum), screen.LineNumStyle())
	}
	screen.SetCell(x+gutter, y, l.sign, style)
	screen.DrawStringLimited(x+gutter+2, y, l.text, width-gutter-2, style)
}
