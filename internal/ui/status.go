package ui

import (
	"fmt"
	"strings"

	"github.com/pstuifzand/zcode/internal/state"
)

// spinnerFrames animate the Processing indicator
var spinnerFrames = []rune("⠋⠙⠹⠸⠼⠴⠦⠧⠇⠏")

// StatusBar is the bottom line: mode, provider, review counts and the
// latest status message
type StatusBar struct {
	frame int
	// Keys is the pending key sequence, shown on the right
	Keys []string
	// Debug is the last key event, shown in debug mode
	Debug string
}

// Tick advances the spinner
func (b *StatusBar) Tick() {
	b.frame = (b.frame + 1) % len(spinnerFrames)
}

// Render draws the bar on row y
func (b *StatusBar) Render(screen *Screen, s *state.State, y int) {
	width := screen.GetWidth()
	screen.FillLine(0, y, width, screen.StatusBarStyle())

	mode := " " + s.Mode.String() + " "
	if s.Mode == state.ModeProcessing {
		mode = fmt.Sprintf(" %c %s ", spinnerFrames[b.frame], s.Mode)
	}
	x := screen.DrawString(0, y, mode, screen.StatusModeStyle())

	var parts []string
	if s.Provider != nil {
		p := s.Provider.Name
		if s.Model != "" {
			p += " (" + s.Model + ")"
		}
		parts = append(parts, p)
	}
	if len(s.Hunks) > 0 {
		accepted, rejected, pending := s.Counts()
		parts = append(parts, fmt.Sprintf("%c%d %c%d %c%d", MarkAccepted, accepted, MarkRejected, rejected, MarkPending, pending))
	}
	if s.Degraded {
		parts = append(parts, "whole-file")
	}
	left := " " + strings.Join(parts, " | ") + " "
	x = screen.DrawString(x, y, left, screen.StatusBarStyle())

	right := strings.Join(b.Keys, "")
	if b.Debug != "" {
		right = b.Debug + " " + right
	}
	rw := StringWidth(right)
	msgWidth := width - x - rw - 2
	if msgWidth > 0 {
		screen.DrawStringLimited(x+1, y, s.Status, msgWidth, screen.StatusMessageStyle())
	}
	if rw > 0 && rw < width-x {
		screen.DrawString(width-rw-1, y, right, screen.StatusBarStyle())
	}
}
