package ui

import (
	"strings"

	"github.com/gdamore/tcell/v2"

	"github.com/pstuifzand/zcode/internal/history"
	"github.com/pstuifzand/zcode/internal/input"
)

// LineEditor is a single line input: the ':' command line and the '/'
// search line
type LineEditor struct {
	prefix    string
	active    bool
	input     []rune
	cursorPos int
	history   *history.History
	// complete returns candidates for the current input; Tab cycles them
	complete    func(string) []string
	completions []string
	compIndex   int
}

// NewCommandLine creates the ':' line. h may be nil.
func NewCommandLine(h *history.History) *LineEditor {
	if h == nil {
		h = history.New()
	}
	return &LineEditor{prefix: ":", history: h, complete: completeCommand}
}

// NewSearchLine creates the '/' line
func NewSearchLine() *LineEditor {
	return &LineEditor{prefix: "/", history: history.New()}
}

func completeCommand(line string) []string {
	if strings.Contains(line, " ") {
		return nil
	}
	return input.Complete(line, input.Commands)
}

// Start activates the line with empty input
func (c *LineEditor) Start() {
	c.active = true
	c.input = c.input[:0]
	c.cursorPos = 0
	c.completions = nil
	c.history.Reset()
}

// Stop deactivates the line
func (c *LineEditor) Stop() {
	c.active = false
}

// IsActive returns whether the line is being edited
func (c *LineEditor) IsActive() bool {
	return c.active
}

// Input returns the text typed so far
func (c *LineEditor) Input() string {
	return strings.TrimSpace(string(c.input))
}

func (c *LineEditor) set(s string) {
	c.input = []rune(s)
	c.cursorPos = len(c.input)
}

// deleteWordBackwards deletes the word before the cursor
func (c *LineEditor) deleteWordBackwards() {
	pos := c.cursorPos
	for pos > 0 && c.input[pos-1] == ' ' {
		pos--
	}
	for pos > 0 && c.input[pos-1] != ' ' {
		pos--
	}
	c.input = append(c.input[:pos], c.input[c.cursorPos:]...)
	c.cursorPos = pos
}

func (c *LineEditor) tab() {
	if c.complete == nil {
		return
	}
	if c.completions == nil {
		c.completions = c.complete(string(c.input))
		c.compIndex = -1
	}
	if len(c.completions) == 0 {
		return
	}
	c.compIndex = (c.compIndex + 1) % len(c.completions)
	c.set(c.completions[c.compIndex])
}

// HandleKey edits the line. done is set when the line was submitted with
// Enter or abandoned with Esc; line is empty in the latter case.
func (c *LineEditor) HandleKey(ev *tcell.EventKey) (line string, done bool) {
	if ev.Key() != tcell.KeyTab {
		c.completions = nil
	}

	switch ev.Key() {
	case tcell.KeyEscape:
		c.Stop()
		return "", true
	case tcell.KeyEnter:
		line = c.Input()
		c.history.Add(line)
		c.Stop()
		return line, true
	case tcell.KeyTab:
		c.tab()
	case tcell.KeyUp:
		if prev, ok := c.history.Previous(string(c.input)); ok {
			c.set(prev)
		}
	case tcell.KeyDown:
		if next, ok := c.history.Next(); ok {
			c.set(next)
		}
	case tcell.KeyCtrlW:
		c.deleteWordBackwards()
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		if c.cursorPos > 0 {
			c.input = append(c.input[:c.cursorPos-1], c.input[c.cursorPos:]...)
			c.cursorPos--
		} else if len(c.input) == 0 {
			c.Stop()
			return "", true
		}
	case tcell.KeyDelete:
		if c.cursorPos < len(c.input) {
			c.input = append(c.input[:c.cursorPos], c.input[c.cursorPos+1:]...)
		}
	case tcell.KeyLeft:
		c.cursorPos = max(c.cursorPos-1, 0)
	case tcell.KeyRight:
		c.cursorPos = min(c.cursorPos+1, len(c.input))
	case tcell.KeyHome, tcell.KeyCtrlA:
		c.cursorPos = 0
	case tcell.KeyEnd, tcell.KeyCtrlE:
		c.cursorPos = len(c.input)
	case tcell.KeyCtrlU:
		c.input = append(c.input[:0], c.input[c.cursorPos:]...)
		c.cursorPos = 0
	case tcell.KeyCtrlK:
		c.input = c.input[:c.cursorPos]
	case tcell.KeyRune:
		c.input = append(c.input[:c.cursorPos], append([]rune{ev.Rune()}, c.input[c.cursorPos:]...)...)
		c.cursorPos++
	}
	return "", false
}

// Render draws the line on row y
func (c *LineEditor) Render(screen *Screen, y int) {
	if !c.active {
		return
	}
	width := screen.GetWidth()
	textStyle := screen.TextStyle()
	screen.FillLine(0, y, width, textStyle)

	x := screen.DrawString(0, y, c.prefix, screen.PromptStyle())
	for i, r := range c.input {
		if x >= width {
			break
		}
		style := textStyle
		if i == c.cursorPos {
			style = screen.CursorStyle()
		}
		screen.SetCell(x, y, r, style)
		x += max(RuneWidth(r), 1)
	}
	if c.cursorPos >= len(c.input) {
		screen.SetCell(x, y, ' ', screen.CursorStyle())
	}
}
