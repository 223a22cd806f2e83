package diff

import (
	"fmt"
	"strings"

	"github.com/pstuifzand/zcode/internal/model"
)

// BuildDiffLines converts the hunks of one file into display lines.
// This is suitable for both CLI and TUI output.
func BuildDiffLines(path string, hunks []model.Hunk) []Line {
	var lines []Line
	if len(hunks) == 0 {
		return lines
	}

	lines = append(lines, Line{Type: LineHeader, Content: "--- a/" + path})
	lines = append(lines, Line{Type: LineHeader, Content: "+++ b/" + path})

	var added, removed int
	for _, h := range hunks {
		lines = append(lines, Line{Type: LineHunkHeader, Content: h.Header()})
		for _, c := range h.Changes {
			switch c.Tag {
			case model.TagInsert:
				added++
				lines = append(lines, Line{Type: LineAdded, Content: "+" + c.Content})
			case model.TagDelete:
				removed++
				lines = append(lines, Line{Type: LineRemoved, Content: "-" + c.Content})
			default:
				lines = append(lines, Line{Type: LineContext, Content: " " + c.Content})
			}
		}
	}

	lines = append(lines, Line{Type: LineBlank})
	lines = append(lines, Line{
		Type:    LineSummary,
		Content: fmt.Sprintf("%d hunks, %d insertions(+), %d deletions(-)", len(hunks), added, removed),
	})
	return lines
}

// FormatUnified renders hunks as a unified diff
func FormatUnified(path string, hunks []model.Hunk) string {
	if len(hunks) == 0 {
		return ""
	}
	var b strings.Builder
	fmt.Fprintf(&b, "--- a/%s\n+++ b/%s\n", path, path)
	for _, h := range hunks {
		b.WriteString(h.Text())
	}
	return b.String()
}

// Summary returns a one-line description such as "+3 -1"
func Summary(hunks []model.Hunk) string {
	var added, removed int
	for _, h := range hunks {
		a, r := h.Counts()
		added += a
		removed += r
	}
	return fmt.Sprintf("+%d -%d", added, removed)
}
