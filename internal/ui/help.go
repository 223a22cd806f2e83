package ui

import (
	"fmt"
	"strings"

	"github.com/gdamore/tcell/v2"

	"github.com/pstuifzand/zcode/internal/input"
)

// HelpScreen lists the key bindings and commands
type HelpScreen struct {
	keymap       *input.Keymap
	scrollOffset int
}

// NewHelpScreen creates a help screen for keymap
func NewHelpScreen(keymap *input.Keymap) *HelpScreen {
	return &HelpScreen{keymap: keymap}
}

var helpSections = []struct {
	title string
	scope input.Scope
}{
	{"Review", input.ScopeDiffReview},
	{"Prompt", input.ScopeInsert},
}

var commandHelp = []string{
	":provider [name]          switch provider",
	":model <name>             model passed to the provider",
	":jump <file>              jump to a file (fuzzy)",
	":filter <pending|accepted|rejected|all>",
	":search <text>            find text in hunks",
	":apply                    apply accepted hunks",
	":yank [hunk|prompt]       copy to clipboard",
	":paste                    paste clipboard into the prompt",
	":export [path]            write the chat as markdown",
	":config show|set|save|edit",
	":neovim connect|push|clear|status",
	":sessions  :backups  :clear  :help  :quit",
}

// Lines returns the help text
func (h *HelpScreen) Lines() []string {
	var out []string
	for _, sec := range helpSections {
		out = append(out, sec.title+":", "")
		seen := make(map[input.Action]bool)
		for _, b := range h.keymap.Bindings(sec.scope) {
			if seen[b.Action] {
				continue
			}
			seen[b.Action] = true
			keys := strings.Join(h.keymap.KeysFor(sec.scope, b.Action), " ")
			out = append(out, fmt.Sprintf("  %-14s %s", keys, b.Description))
		}
		out = append(out, "")
	}
	out = append(out, "Processing:", "", "  <Esc>          Cancel the running prompt", "")
	out = append(out, "Commands:", "")
	for _, c := range commandHelp {
		out = append(out, "  "+c)
	}
	return out
}

// HandleKey scrolls the help text
func (h *HelpScreen) HandleKey(ev *tcell.EventKey) {
	switch {
	case ev.Key() == tcell.KeyDown || ev.Rune() == 'j':
		h.scrollOffset++
	case ev.Key() == tcell.KeyUp || ev.Rune() == 'k':
		h.scrollOffset = max(h.scrollOffset-1, 0)
	case ev.Key() == tcell.KeyHome || ev.Rune() == 'g':
		h.scrollOffset = 0
	}
}

// Render renders the help screen
func (h *HelpScreen) Render(screen *Screen) {
	lines := h.Lines()
	x, y, w, ht := centeredBox(screen, 72, len(lines)+4)
	if w < 20 || ht < 5 {
		return
	}
	screen.Fill(x, y, w, ht, tcell.StyleDefault)
	drawBox(screen, x, y, w, ht, screen.BorderStyle())
	screen.DrawString(x+2, y, " Help (? or Esc to close, j/k scroll) ", screen.TitleStyle())

	rows := ht - 2
	h.scrollOffset = min(h.scrollOffset, max(len(lines)-rows, 0))
	for i := 0; i < rows && h.scrollOffset+i < len(lines); i++ {
		line := lines[h.scrollOffset+i]
		style := screen.TextStyle()
		if strings.HasSuffix(line, ":") {
			style = screen.TitleStyle()
		}
		screen.DrawStringLimited(x+2, y+1+i, line, w-4, style)
	}
}
