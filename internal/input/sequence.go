package input

import (
	"fmt"
	"time"

	"github.com/gdamore/tcell/v2"
)

// DefaultSequenceTimeout is the longest pause allowed between the keys of
// a multi-key binding
const DefaultSequenceTimeout = 500 * time.Millisecond

// Status is the outcome of feeding a key to a SequenceParser
type Status int

const (
	NoMatch Status = iota
	Pending
	Matched
)

// Result is returned by Feed
type Result struct {
	Status  Status
	Binding Binding
}

// SequenceParser collects keys until they match a binding
type SequenceParser struct {
	Timeout time.Duration

	keymap  *Keymap
	buffer  []string
	lastKey time.Time
}

// NewSequenceParser creates a parser over keymap with the default timeout
func NewSequenceParser(keymap *Keymap) *SequenceParser {
	return &SequenceParser{Timeout: DefaultSequenceTimeout, keymap: keymap}
}

// Feed adds token, received at now, to the buffer. A token that arrives
// more than Timeout after the previous one starts a new sequence.
func (p *SequenceParser) Feed(scope Scope, token string, now time.Time) Result {
	if len(p.buffer) > 0 && now.Sub(p.lastKey) > p.Timeout {
		p.buffer = p.buffer[:0]
	}
	p.lastKey = now
	p.buffer = append(p.buffer, token)

	if b, ok := p.keymap.Lookup(scope, p.buffer); ok {
		p.buffer = p.buffer[:0]
		return Result{Status: Matched, Binding: b}
	}
	if p.keymap.HasPrefix(scope, p.buffer) {
		return Result{Status: Pending}
	}

	// A failed sequence may still end in a key that is a binding on its own
	if len(p.buffer) > 1 {
		p.buffer = p.buffer[:0]
		return p.Feed(scope, token, now)
	}
	p.buffer = p.buffer[:0]
	return Result{Status: NoMatch}
}

// Buffer returns the keys collected so far, for display
func (p *SequenceParser) Buffer() []string {
	return append([]string(nil), p.buffer...)
}

// Reset drops any pending keys
func (p *SequenceParser) Reset() {
	p.buffer = p.buffer[:0]
}

// Token converts a key event to the notation used in bindings, e.g. "j",
// "<C-b>", "<Enter>"
func Token(ev *tcell.EventKey) string {
	switch ev.Key() {
	case tcell.KeyRune:
		r := ev.Rune()
		if ev.Modifiers()&tcell.ModCtrl != 0 {
			return fmt.Sprintf("<C-%c>", r)
		}
		if ev.Modifiers()&tcell.ModAlt != 0 {
			return fmt.Sprintf("<A-%c>", r)
		}
		if r == ' ' {
			return "<Space>"
		}
		return string(r)
	case tcell.KeyEnter:
		return "<Enter>"
	case tcell.KeyEscape:
		return "<Esc>"
	case tcell.KeyTab:
		return "<Tab>"
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		return "<Backspace>"
	case tcell.KeyUp:
		return "<Up>"
	case tcell.KeyDown:
		return "<Down>"
	case tcell.KeyLeft:
		return "<Left>"
	case tcell.KeyRight:
		return "<Right>"
	}
	if k := ev.Key(); k >= tcell.KeyCtrlA && k <= tcell.KeyCtrlZ {
		return fmt.Sprintf("<C-%c>", rune('a'+k-tcell.KeyCtrlA))
	}
	return fmt.Sprintf("<%s>", ev.Name())
}
