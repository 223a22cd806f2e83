package ui

import (
	"github.com/gdamore/tcell/v2"

	"github.com/pstuifzand/zcode/internal/diff"
)

// PickerItem is one entry of a Picker
type PickerItem struct {
	Label  string
	Detail string
}

// Picker is an overlay list used for :backups, :sessions and :config
// show. Preview, when set, renders the selected item on the right as a
// diff.
type Picker struct {
	Title   string
	Items   []PickerItem
	Preview func(i int) []diff.Line
	// OnSelect is called with the item chosen with Enter. A nil OnSelect
	// makes the picker read-only.
	OnSelect func(i int)

	visible      bool
	cursor       int
	scrollOffset int
}

// NewPicker creates a hidden picker
func NewPicker() *Picker {
	return &Picker{}
}

// Show replaces the contents and shows the picker
func (p *Picker) Show(title string, items []PickerItem, preview func(int) []diff.Line, onSelect func(int)) {
	p.Title = title
	p.Items = items
	p.Preview = preview
	p.OnSelect = onSelect
	p.cursor = 0
	p.scrollOffset = 0
	p.visible = true
}

// Hide closes the picker
func (p *Picker) Hide() {
	p.visible = false
}

// IsVisible returns whether the picker is shown
func (p *Picker) IsVisible() bool {
	return p.visible
}

// Cursor returns the selected index
func (p *Picker) Cursor() int {
	return p.cursor
}

// HandleKeyEvent moves the selection, selects with Enter and closes with
// Esc or q
func (p *Picker) HandleKeyEvent(ev *tcell.EventKey) {
	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		p.Hide()
	case tcell.KeyEnter:
		if p.OnSelect != nil && p.cursor < len(p.Items) {
			p.Hide()
			p.OnSelect(p.cursor)
		}
	case tcell.KeyUp:
		p.move(-1)
	case tcell.KeyDown:
		p.move(1)
	case tcell.KeyPgUp, tcell.KeyCtrlU:
		p.move(-10)
	case tcell.KeyPgDn, tcell.KeyCtrlD:
		p.move(10)
	case tcell.KeyRune:
		switch ev.Rune() {
		case 'j':
			p.move(1)
		case 'k':
			p.move(-1)
		case 'g':
			p.cursor = 0
		case 'G':
			p.cursor = max(len(p.Items)-1, 0)
		case 'q':
			p.Hide()
		}
	}
}

func (p *Picker) move(delta int) {
	p.cursor = min(max(p.cursor+delta, 0), max(len(p.Items)-1, 0))
}

// Render draws the list, and the preview when there is one
func (p *Picker) Render(screen *Screen) {
	if !p.visible {
		return
	}
	sw, sh := screen.Size()
	x, y, w, h := 2, 1, sw-4, sh-3
	if w < 20 || h < 5 {
		return
	}
	screen.Fill(x, y, w, h, tcell.StyleDefault)
	drawBox(screen, x, y, w, h, screen.BorderStyle())
	screen.DrawStringLimited(x+2, y, " "+p.Title+" ", w-4, screen.TitleStyle())

	listWidth := w - 2
	if p.Preview != nil {
		listWidth = (w - 2) / 2
		for row := y + 1; row < y+h-1; row++ {
			screen.SetCell(x+1+listWidth, row, '│', screen.BorderStyle())
		}
	}

	rows := h - 3
	if p.cursor < p.scrollOffset {
		p.scrollOffset = p.cursor
	}
	if p.cursor >= p.scrollOffset+rows {
		p.scrollOffset = p.cursor - rows + 1
	}

	if len(p.Items) == 0 {
		screen.DrawString(x+2, y+1, "(empty)", screen.DimStyle())
	}
	for i := 0; i < rows && p.scrollOffset+i < len(p.Items); i++ {
		idx := p.scrollOffset + i
		item := p.Items[idx]
		style := screen.TextStyle()
		if idx == p.cursor && p.OnSelect != nil {
			style = screen.SelectedStyle()
			screen.FillLine(x+1, y+1+i, listWidth, style)
		}
		nx := screen.DrawStringLimited(x+2, y+1+i, item.Label, listWidth-2, style)
		if item.Detail != "" && nx < x+listWidth-2 {
			screen.DrawStringLimited(nx+2, y+1+i, item.Detail, x+listWidth-nx-3, screen.DimStyle())
		}
	}

	if p.Preview != nil && p.cursor < len(p.Items) {
		px := x + listWidth + 3
		pw := w - listWidth - 4
		for i, line := range p.Preview(p.cursor) {
			if i >= rows {
				break
			}
			screen.DrawStringLimited(px, y+1+i, line.Content, pw, p.lineStyle(screen, line.Type))
		}
	}

	footer := " j/k move | Esc close "
	if p.OnSelect != nil {
		footer = " j/k move | Enter select | Esc close "
	}
	screen.DrawStringLimited(x+2, y+h-1, footer, w-4, screen.DimStyle())
}

func (p *Picker) lineStyle(screen *Screen, t diff.LineType) tcell.Style {
	switch t {
	case diff.LineAdded:
		return screen.AdditionStyle()
	case diff.LineRemoved:
		return screen.DeletionStyle()
	case diff.LineHeader, diff.LineSummary:
		return screen.TitleStyle()
	case diff.LineHunkHeader:
		return screen.LinkStyle()
	}
	return screen.TextStyle()
}
