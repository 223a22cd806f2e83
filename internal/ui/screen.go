// Package ui contains terminal UI components
package ui

import (
	"fmt"

	"github.com/gdamore/tcell/v2"

	"github.com/pstuifzand/zcode/internal/theme"
)

// Screen manages the tcell screen and rendering
type Screen struct {
	tcellScreen tcell.Screen
	width       int
	height      int
	Theme       *theme.Theme
}

// NewScreen creates and initializes a terminal screen with theme t
func NewScreen(t *theme.Theme) (*Screen, error) {
	tcellScreen, err := tcell.NewScreen()
	if err != nil {
		return nil, fmt.Errorf("failed to create screen: %w", err)
	}
	return NewScreenFrom(tcellScreen, t)
}

// NewScreenFrom wraps an existing tcell screen, such as a simulation
// screen in tests, and initializes it
func NewScreenFrom(tcellScreen tcell.Screen, t *theme.Theme) (*Screen, error) {
	if err := tcellScreen.Init(); err != nil {
		return nil, fmt.Errorf("failed to init screen: %w", err)
	}
	if t == nil {
		t = theme.Dark()
	}

	width, height := tcellScreen.Size()
	return &Screen{
		tcellScreen: tcellScreen,
		width:       width,
		height:      height,
		Theme:       t,
	}, nil
}

// Close closes the screen
func (s *Screen) Close() error {
	s.tcellScreen.Fini()
	return nil
}

// Suspend releases the terminal, e.g. while an external editor runs
func (s *Screen) Suspend() error {
	return s.tcellScreen.Suspend()
}

// Resume takes the terminal back after Suspend
func (s *Screen) Resume() error {
	return s.tcellScreen.Resume()
}

// Clear clears the entire screen
func (s *Screen) Clear() {
	s.tcellScreen.Clear()
}

// Sync redraws the whole terminal, after a resize
func (s *Screen) Sync() {
	s.tcellScreen.Sync()
}

// SetCell sets a cell at the given position
func (s *Screen) SetCell(x, y int, r rune, style tcell.Style) {
	if x >= 0 && x < s.width && y >= 0 && y < s.height {
		s.tcellScreen.SetContent(x, y, r, nil, style)
	}
}

// DrawString draws text at x, y and returns the column after it. Wide
// runes take two cells.
func (s *Screen) DrawString(x, y int, text string, style tcell.Style) int {
	for _, r := range text {
		if r == '\t' {
			r = ' '
		}
		s.SetCell(x, y, r, style)
		x += max(RuneWidth(r), 1)
	}
	return x
}

// DrawStringLimited draws text truncated to maxWidth columns
func (s *Screen) DrawStringLimited(x, y int, text string, maxWidth int, style tcell.Style) int {
	if maxWidth <= 0 {
		return x
	}
	return s.DrawString(x, y, TruncateToWidthWithEllipsis(text, maxWidth), style)
}

// FillLine paints columns x..x+width-1 of row y
func (s *Screen) FillLine(x, y, width int, style tcell.Style) {
	for i := 0; i < width; i++ {
		s.SetCell(x+i, y, ' ', style)
	}
}

// Fill paints a rectangle
func (s *Screen) Fill(x, y, width, height int, style tcell.Style) {
	for row := 0; row < height; row++ {
		s.FillLine(x, y+row, width, style)
	}
}

// PollEvent blocks for the next event. It returns nil once the screen is
// finalized.
func (s *Screen) PollEvent() tcell.Event {
	return s.tcellScreen.PollEvent()
}

// Show shows the screen
func (s *Screen) Show() {
	s.tcellScreen.Show()
}

// Size returns the width and height of the screen
func (s *Screen) Size() (int, int) {
	s.width, s.height = s.tcellScreen.Size()
	return s.width, s.height
}

// GetWidth returns the width of the screen
func (s *Screen) GetWidth() int {
	w, _ := s.Size()
	return w
}

// GetHeight returns the height of the screen
func (s *Screen) GetHeight() int {
	_, h := s.Size()
	return h
}

// ShowCursor places the terminal cursor
func (s *Screen) ShowCursor(x, y int) {
	s.tcellScreen.ShowCursor(x, y)
}

// HideCursor hides the terminal cursor
func (s *Screen) HideCursor() {
	s.tcellScreen.HideCursor()
}

// Theme-aware styles

func (s *Screen) fg(c tcell.Color) tcell.Style {
	return tcell.StyleDefault.Foreground(c)
}

func (s *Screen) TextStyle() tcell.Style     { return s.fg(s.Theme.Colors.Text) }
func (s *Screen) DimStyle() tcell.Style      { return s.fg(s.Theme.Colors.Dim) }
func (s *Screen) BorderStyle() tcell.Style   { return s.fg(s.Theme.Colors.Border) }
func (s *Screen) TitleStyle() tcell.Style    { return s.fg(s.Theme.Colors.Title).Bold(true) }
func (s *Screen) ErrorStyle() tcell.Style    { return s.fg(s.Theme.Colors.Error).Bold(true) }
func (s *Screen) LinkStyle() tcell.Style     { return s.fg(s.Theme.Colors.Link).Underline(true) }
func (s *Screen) LineNumStyle() tcell.Style  { return s.fg(s.Theme.Colors.LineNumber) }
func (s *Screen) PromptStyle() tcell.Style   { return s.fg(s.Theme.Colors.CommandPrompt).Bold(true) }
func (s *Screen) StatusBarStyle() tcell.Style {
	return tcell.StyleDefault.Foreground(s.Theme.Colors.Text).Background(s.Theme.Colors.StatusBar)
}

// SelectedStyle returns the style of the line under the cursor
func (s *Screen) SelectedStyle() tcell.Style {
	return s.fg(s.Theme.Colors.Selected).Bold(true).Reverse(true)
}

// CursorStyle returns the style of the text cursor cell
func (s *Screen) CursorStyle() tcell.Style {
	return s.TextStyle().Reverse(true)
}

// StatusModeStyle returns the style of the mode indicator
func (s *Screen) StatusModeStyle() tcell.Style {
	return tcell.StyleDefault.Foreground(s.Theme.Colors.StatusBar).Background(s.Theme.Colors.StatusMode).Bold(true)
}

// StatusMessageStyle returns the style of the status message
func (s *Screen) StatusMessageStyle() tcell.Style {
	return s.StatusBarStyle().Foreground(s.Theme.Colors.StatusMessage)
}

// AdditionStyle returns the style of an added line
func (s *Screen) AdditionStyle() tcell.Style {
	return tcell.StyleDefault.Foreground(s.Theme.Colors.Addition).Background(s.Theme.Colors.AdditionBg)
}

// DeletionStyle returns the style of a removed line
func (s *Screen) DeletionStyle() tcell.Style {
	return tcell.StyleDefault.Foreground(s.Theme.Colors.Deletion).Background(s.Theme.Colors.DeletionBg)
}

// ModificationStyle returns the style of a changed line
func (s *Screen) ModificationStyle() tcell.Style {
	return s.fg(s.Theme.Colors.Modification)
}

func (s *Screen) AcceptedStyle() tcell.Style { return s.fg(s.Theme.Colors.Accepted).Bold(true) }
func (s *Screen) RejectedStyle() tcell.Style { return s.fg(s.Theme.Colors.Rejected).Bold(true) }
func (s *Screen) PendingStyle() tcell.Style  { return s.fg(s.Theme.Colors.Pending) }

func (s *Screen) UserMessageStyle() tcell.Style      { return s.fg(s.Theme.Colors.UserMessage).Bold(true) }
func (s *Screen) AssistantMessageStyle() tcell.Style { return s.fg(s.Theme.Colors.AssistantMessage) }
func (s *Screen) SystemMessageStyle() tcell.Style    { return s.fg(s.Theme.Colors.SystemMessage).Italic(true) }

// drawBox draws a single line border
func drawBox(screen *Screen, x, y, width, height int, style tcell.Style) {
	screen.SetCell(x, y, '┌', style)
	screen.SetCell(x+width-1, y, '┐', style)
	screen.SetCell(x, y+height-1, '└', style)
	screen.SetCell(x+width-1, y+height-1, '┘', style)
	for i := 1; i < width-1; i++ {
		screen.SetCell(x+i, y, '─', style)
		screen.SetCell(x+i, y+height-1, '─', style)
	}
	for i := 1; i < height-1; i++ {
		screen.SetCell(x, y+i, '│', style)
		screen.SetCell(x+width-1, y+i, '│', style)
	}
}

// centeredBox returns the origin and size of a box of at most width x
// height centered on the screen, with a two cell margin
func centeredBox(screen *Screen, width, height int) (x, y, w, h int) {
	sw, sh := screen.Size()
	w = min(width, sw-4)
	h = min(height, sh-2)
	return (sw - w) / 2, (sh - h) / 2, w, h
}
