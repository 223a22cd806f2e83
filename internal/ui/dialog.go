package ui

import (
	"fmt"

	"github.com/gdamore/tcell/v2"

	"github.com/pstuifzand/zcode/internal/state"
)

// RenderConfirm draws the apply confirmation
func RenderConfirm(screen *Screen, accepted, files int) {
	msg := fmt.Sprintf("Apply %d accepted hunks to %d files?", accepted, files)
	x, y, w, h := centeredBox(screen, max(StringWidth(msg)+6, 40), 7)
	if w < 20 || h < 5 {
		return
	}
	screen.Fill(x, y, w, h, tcell.StyleDefault)
	drawBox(screen, x, y, w, h, screen.BorderStyle())
	screen.DrawString(x+2, y, " Confirm ", screen.TitleStyle())
	screen.DrawStringLimited(x+3, y+2, msg, w-6, screen.TextStyle())
	screen.DrawStringLimited(x+3, y+4, "[y]es  [n]o", w-6, screen.PromptStyle())
}

// RenderError draws the error dialog
func RenderError(screen *Screen, e *state.ErrorDisplay) {
	if e == nil {
		return
	}
	sw, _ := screen.Size()
	width := min(sw-4, 80)
	body := Wrap(e.Message, width-6)
	height := len(body) + 6
	if e.HelpURL != "" {
		height += 2
	}

	x, y, w, h := centeredBox(screen, width, height)
	if w < 20 || h < 5 {
		return
	}
	screen.Fill(x, y, w, h, tcell.StyleDefault)
	drawBox(screen, x, y, w, h, screen.ErrorStyle())
	screen.DrawStringLimited(x+2, y, " "+e.Title+" ", w-4, screen.ErrorStyle())

	row := y + 2
	for _, line := range body {
		if row >= y+h-3 {
			break
		}
		screen.DrawStringLimited(x+3, row, line, w-6, screen.TextStyle())
		row++
	}
	if e.HelpURL != "" {
		row++
		nx := screen.DrawString(x+3, row, "Install: ", screen.DimStyle())
		screen.DrawStringLimited(nx, row, e.HelpURL, w-6-(nx-x-3), screen.LinkStyle())
	}
	screen.DrawStringLimited(x+3, y+h-2, "Press Enter or Esc to continue", w-6, screen.DimStyle())
}
