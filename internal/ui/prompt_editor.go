package ui

import (
	"fmt"
	"strings"

	"github.com/gdamore/tcell/v2"

	"github.com/pstuifzand/zcode/internal/history"
	"github.com/pstuifzand/zcode/internal/tokens"
)

// EditorEvent is what a key did to the prompt editor
type EditorEvent int

const (
	EditorNone EditorEvent = iota
	EditorSubmit
	EditorCancel
	// EditorExternal asks the app to edit the prompt in $EDITOR
	EditorExternal
)

const maxUndoLevels = 50

type editorState struct {
	text      []rune
	cursorPos int
}

// PromptEditor is the multi-line prompt input. Enter submits; Alt+Enter or
// Ctrl+J inserts a newline.
type PromptEditor struct {
	text      []rune
	cursorPos int
	undoStack []editorState
	redoStack []editorState
	history   *history.History
}

// NewPromptEditor creates an empty editor. h may be nil.
func NewPromptEditor(h *history.History) *PromptEditor {
	if h == nil {
		h = history.New()
	}
	return &PromptEditor{history: h}
}

// Text returns the prompt
func (e *PromptEditor) Text() string {
	return string(e.text)
}

// SetText replaces the prompt and moves the cursor to its end
func (e *PromptEditor) SetText(s string) {
	e.saveUndoState()
	e.text = []rune(s)
	e.cursorPos = len(e.text)
}

// Insert types s at the cursor
func (e *PromptEditor) Insert(s string) {
	e.saveUndoState()
	r := []rune(s)
	e.text = append(e.text[:e.cursorPos], append(r, e.text[e.cursorPos:]...)...)
	e.cursorPos += len(r)
}

// Submit records the prompt in the history and clears the editor
func (e *PromptEditor) Submit() string {
	text := strings.TrimSpace(e.Text())
	e.history.Add(text)
	e.text = nil
	e.cursorPos = 0
	e.undoStack = nil
	e.redoStack = nil
	return text
}

// Cursor returns the cursor offset in runes
func (e *PromptEditor) Cursor() int {
	return e.cursorPos
}

// HandleKey edits the prompt
func (e *PromptEditor) HandleKey(ev *tcell.EventKey) EditorEvent {
	switch ev.Key() {
	case tcell.KeyEnter:
		if ev.Modifiers()&(tcell.ModAlt|tcell.ModShift) != 0 {
			e.Insert("\n")
			return EditorNone
		}
		return EditorSubmit
	case tcell.KeyCtrlJ:
		e.Insert("\n")
	case tcell.KeyEscape:
		return EditorCancel
	case tcell.KeyCtrlO:
		return EditorExternal
	case tcell.KeyCtrlZ:
		e.undo()
	case tcell.KeyCtrlY:
		e.redo()
	case tcell.KeyCtrlP:
		if prev, ok := e.history.Previous(e.Text()); ok {
			e.text = []rune(prev)
			e.cursorPos = len(e.text)
		}
	case tcell.KeyCtrlN:
		if next, ok := e.history.Next(); ok {
			e.text = []rune(next)
			e.cursorPos = len(e.text)
		}
	case tcell.KeyUp:
		if !e.moveLine(-1) {
			if prev, ok := e.history.Previous(e.Text()); ok {
				e.text = []rune(prev)
				e.cursorPos = len(e.text)
			}
		}
	case tcell.KeyDown:
		if !e.moveLine(1) && e.history.IsNavigating() {
			if next, ok := e.history.Next(); ok {
				e.text = []rune(next)
				e.cursorPos = len(e.text)
			}
		}
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		if e.cursorPos > 0 {
			e.saveUndoState()
			e.text = append(e.text[:e.cursorPos-1], e.text[e.cursorPos:]...)
			e.cursorPos--
		}
	case tcell.KeyDelete:
		if e.cursorPos < len(e.text) {
			e.saveUndoState()
			e.text = append(e.text[:e.cursorPos], e.text[e.cursorPos+1:]...)
		}
	case tcell.KeyCtrlW:
		e.saveUndoState()
		e.deleteWordBackwards()
	case tcell.KeyCtrlU:
		e.saveUndoState()
		start := e.lineStart()
		e.text = append(e.text[:start], e.text[e.cursorPos:]...)
		e.cursorPos = start
	case tcell.KeyCtrlK:
		e.saveUndoState()
		e.text = append(e.text[:e.cursorPos], e.text[e.lineEnd():]...)
	case tcell.KeyLeft:
		e.cursorPos = max(e.cursorPos-1, 0)
	case tcell.KeyRight:
		e.cursorPos = min(e.cursorPos+1, len(e.text))
	case tcell.KeyHome, tcell.KeyCtrlA:
		e.cursorPos = e.lineStart()
	case tcell.KeyEnd, tcell.KeyCtrlE:
		e.cursorPos = e.lineEnd()
	case tcell.KeyTab:
		e.Insert("\t")
	case tcell.KeyRune:
		e.Insert(string(ev.Rune()))
	}
	return EditorNone
}

func (e *PromptEditor) lineStart() int {
	i := e.cursorPos
	for i > 0 && e.text[i-1] != '\n' {
		i--
	}
	return i
}

func (e *PromptEditor) lineEnd() int {
	i := e.cursorPos
	for i < len(e.text) && e.text[i] != '\n' {
		i++
	}
	return i
}

// moveLine moves the cursor to the same column of the previous or next
// logical line. It reports false at the first or last line.
func (e *PromptEditor) moveLine(delta int) bool {
	start := e.lineStart()
	col := e.cursorPos - start
	if delta < 0 {
		if start == 0 {
			return false
		}
		prevEnd := start - 1
		e.cursorPos = prevEnd
		prevStart := e.lineStart()
		e.cursorPos = min(prevStart+col, prevEnd)
		return true
	}
	end := e.lineEnd()
	if end == len(e.text) {
		return false
	}
	e.cursorPos = end + 1
	nextEnd := e.lineEnd()
	e.cursorPos = min(end+1+col, nextEnd)
	return true
}

func (e *PromptEditor) deleteWordBackwards() {
	pos := e.cursorPos
	for pos > 0 && (e.text[pos-1] == ' ' || e.text[pos-1] == '\t') {
		pos--
	}
	for pos > 0 && e.text[pos-1] != ' ' && e.text[pos-1] != '\t' && e.text[pos-1] != '\n' {
		pos--
	}
	e.text = append(e.text[:pos], e.text[e.cursorPos:]...)
	e.cursorPos = pos
}

func (e *PromptEditor) saveUndoState() {
	e.undoStack = append(e.undoStack, editorState{text: append([]rune(nil), e.text...), cursorPos: e.cursorPos})
	if len(e.undoStack) > maxUndoLevels {
		e.undoStack = e.undoStack[1:]
	}
	e.redoStack = nil
}

func (e *PromptEditor) undo() {
	if len(e.undoStack) == 0 {
		return
	}
	e.redoStack = append(e.redoStack, editorState{text: e.text, cursorPos: e.cursorPos})
	last := e.undoStack[len(e.undoStack)-1]
	e.undoStack = e.undoStack[:len(e.undoStack)-1]
	e.text, e.cursorPos = last.text, last.cursorPos
}

func (e *PromptEditor) redo() {
	if len(e.redoStack) == 0 {
		return
	}
	e.undoStack = append(e.undoStack, editorState{text: e.text, cursorPos: e.cursorPos})
	next := e.redoStack[len(e.redoStack)-1]
	e.redoStack = e.redoStack[:len(e.redoStack)-1]
	e.text, e.cursorPos = next.text, next.cursorPos
}

// Render draws the editor in a box at x, y
func (e *PromptEditor) Render(screen *Screen, x, y, width, height int, title string) {
	if width < 10 || height < 3 {
		return
	}
	drawBox(screen, x, y, width, height, screen.BorderStyle())
	screen.DrawStringLimited(x+2, y, " "+title+" ", width-4, screen.TitleStyle())

	info := fmt.Sprintf(" ~%d tokens | Enter send | Alt+Enter newline | Ctrl+O $EDITOR ", tokens.Count(e.Text()))
	if StringWidth(info) < width-4 {
		screen.DrawString(x+width-2-StringWidth(info), y+height-1, info, screen.DimStyle())
	}

	inner := width - 2
	rows := height - 2
	textStyle := screen.TextStyle()

	// Lay the text out cell by cell so the cursor lands on the right cell
	// of a wrapped line
	type cell struct {
		row, col int
	}
	positions := make([]cell, len(e.text)+1)
	row, col := 0, 0
	for i, r := range e.text {
		w := max(RuneWidth(r), 1)
		if r == '\n' {
			positions[i] = cell{row, col}
			row, col = row+1, 0
			continue
		}
		if col+w > inner {
			row, col = row+1, 0
		}
		positions[i] = cell{row, col}
		col += w
	}
	if col >= inner {
		row, col = row+1, 0
	}
	positions[len(e.text)] = cell{row, col}

	cursorRow := positions[e.cursorPos].row
	offset := max(cursorRow-rows+1, 0)

	for i, r := range e.text {
		p := positions[i]
		if r == '\n' || p.row < offset || p.row-offset >= rows {
			continue
		}
		if r == '\t' {
			r = ' '
		}
		screen.SetCell(x+1+p.col, y+1+p.row-offset, r, textStyle)
	}
	c := positions[e.cursorPos]
	screen.ShowCursor(x+1+c.col, y+1+c.row-offset)
}
