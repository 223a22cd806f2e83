package ui

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

// All widths are display columns, not bytes or runes.

// RuneWidth returns the display width of a single rune. Control and
// combining characters count as 0.
func RuneWidth(r rune) int {
	return max(runewidth.RuneWidth(r), 0)
}

// StringWidth returns the display width of a string
func StringWidth(s string) int {
	return runewidth.StringWidth(s)
}

// TruncateToWidth cuts s to at most maxWidth columns without splitting a rune
func TruncateToWidth(s string, maxWidth int) string {
	if maxWidth <= 0 {
		return ""
	}
	width := 0
	for i, r := range s {
		rw := RuneWidth(r)
		if width+rw > maxWidth {
			return s[:i]
		}
		width += rw
	}
	return s
}

// TruncateToWidthWithEllipsis truncates s with "..." if it exceeds maxWidth
func TruncateToWidthWithEllipsis(s string, maxWidth int) string {
	if StringWidth(s) <= maxWidth {
		return s
	}
	if maxWidth <= 3 {
		return TruncateToWidth(s, maxWidth)
	}
	return TruncateToWidth(s, maxWidth-3) + "..."
}

// PadStringToWidth pads s with spaces to width columns
func PadStringToWidth(s string, width int) string {
	if pad := width - StringWidth(s); pad > 0 {
		return s + strings.Repeat(" ", pad)
	}
	return s
}

// breakPoint returns the byte index at which to wrap s to maxWidth
// columns, preferring the position after the last space
func breakPoint(s string, maxWidth int) int {
	width := 0
	lastSpace := -1
	for i, r := range s {
		rw := RuneWidth(r)
		if width+rw > maxWidth {
			if lastSpace > 0 {
				return lastSpace
			}
			if i == 0 {
				// a rune wider than the line still has to go somewhere
				return len(string(r))
			}
			return i
		}
		width += rw
		if r == ' ' || r == '\t' {
			lastSpace = i + 1
		}
	}
	return len(s)
}

// Wrap splits text into lines of at most width columns. Newlines in text
// are kept as line breaks.
func Wrap(text string, width int) []string {
	if width <= 0 {
		return nil
	}
	var lines []string
	for _, para := range strings.Split(text, "\n") {
		if para == "" {
			lines = append(lines, "")
			continue
		}
		for para != "" {
			n := breakPoint(para, width)
			lines = append(lines, strings.TrimRight(para[:n], " "))
			para = para[n:]
		}
	}
	return lines
}
