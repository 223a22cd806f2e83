package ui

import (
	"fmt"
	"sort"

	"github.com/gdamore/tcell/v2"
	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/pstuifzand/zcode/internal/provider"
)

// ProviderList is the provider picker. Typing filters the list with a
// fuzzy match on name and key.
type ProviderList struct {
	filter  []rune
	matches []int
	cursor  int
}

// NewProviderList creates an unfiltered list
func NewProviderList() *ProviderList {
	return &ProviderList{}
}

// Filter returns the filter text
func (l *ProviderList) Filter() string {
	return string(l.filter)
}

// Refresh recomputes the visible entries of providers
func (l *ProviderList) Refresh(providers []*provider.Provider) {
	l.matches = l.matches[:0]
	if len(l.filter) == 0 {
		for i := range providers {
			l.matches = append(l.matches, i)
		}
	} else {
		targets := make([]string, len(providers))
		for i, p := range providers {
			targets[i] = p.Name + " " + p.Key
		}
		ranks := fuzzy.RankFindFold(string(l.filter), targets)
		sort.Stable(ranks)
		for _, r := range ranks {
			l.matches = append(l.matches, r.OriginalIndex)
		}
	}
	l.cursor = min(l.cursor, max(len(l.matches)-1, 0))
}

// Selected returns the index into providers of the entry under the cursor
func (l *ProviderList) Selected() (int, bool) {
	if l.cursor >= len(l.matches) {
		return 0, false
	}
	return l.matches[l.cursor], true
}

// HandleKey moves the cursor or edits the filter. It reports true when
// Enter picked an entry.
func (l *ProviderList) HandleKey(ev *tcell.EventKey, providers []*provider.Provider) bool {
	switch ev.Key() {
	case tcell.KeyEnter:
		_, ok := l.Selected()
		return ok
	case tcell.KeyUp, tcell.KeyCtrlP:
		l.cursor = max(l.cursor-1, 0)
	case tcell.KeyDown, tcell.KeyCtrlN:
		l.cursor = min(l.cursor+1, max(len(l.matches)-1, 0))
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		if len(l.filter) > 0 {
			l.filter = l.filter[:len(l.filter)-1]
			l.cursor = 0
		}
	case tcell.KeyCtrlU:
		l.filter = l.filter[:0]
		l.cursor = 0
	case tcell.KeyRune:
		l.filter = append(l.filter, ev.Rune())
		l.cursor = 0
	}
	l.Refresh(providers)
	return false
}

// Render draws the picker. detecting shows a progress line while
// detection is still running.
func (l *ProviderList) Render(screen *Screen, providers []*provider.Provider, detecting bool) {
	x, y, w, h := centeredBox(screen, 60, len(providers)+8)
	if w < 20 || h < 6 {
		return
	}
	screen.Fill(x, y, w, h, tcell.StyleDefault)
	drawBox(screen, x, y, w, h, screen.BorderStyle())
	screen.DrawString(x+2, y, " Select provider ", screen.TitleStyle())

	fx := screen.DrawString(x+2, y+1, "> ", screen.PromptStyle())
	screen.DrawStringLimited(fx, y+1, string(l.filter), w-6, screen.TextStyle())

	row := y + 3
	switch {
	case len(providers) == 0 && detecting:
		screen.DrawString(x+2, row, "Detecting installed providers...", screen.DimStyle())
	case len(providers) == 0:
		screen.DrawString(x+2, row, "No providers found. Install one or set", screen.ErrorStyle())
		screen.DrawString(x+2, row+1, "providers.<name>.path in the config file.", screen.DimStyle())
	case len(l.matches) == 0:
		screen.DrawString(x+2, row, "No provider matches", screen.DimStyle())
	}

	for i, idx := range l.matches {
		if row >= y+h-2 {
			break
		}
		p := providers[idx]
		style := screen.TextStyle()
		if i == l.cursor {
			style = screen.SelectedStyle()
			screen.FillLine(x+1, row, w-2, style)
		}
		line := fmt.Sprintf(" %d. %s", idx+1, p.Name)
		screen.DrawStringLimited(x+2, row, line, w-4, style)
		if bin := fmt.Sprintf("(%s) ", p.Binary); StringWidth(line)+StringWidth(bin)+2 < w-4 {
			screen.DrawString(x+w-2-StringWidth(bin), row, bin, screen.DimStyle())
		}
		row++
	}

	footer := " Enter select | type to filter | Ctrl+C quit "
	if detecting && len(providers) > 0 {
		footer = " detecting more... " + footer
	}
	screen.DrawStringLimited(x+2, y+h-1, footer, w-4, screen.DimStyle())
}
