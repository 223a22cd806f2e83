// Package apply rebuilds file contents from accepted hunks and writes them
// to disk as a single transaction
package apply

import (
	"slices"
	"strings"

	"github.com/pstuifzand/zcode/internal/diff"
	"github.com/pstuifzand/zcode/internal/model"
)

// edit replaces original lines [from, to) (0-based) with lines
type edit struct {
	from, to int
	lines    []string
}

// editsOf extracts the edit runs of a hunk in original coordinates.
// Context lines only position the edits; they are never rewritten.
func editsOf(h model.Hunk) []edit {
	// Number of original lines before the current position
	pos := h.StartLine
	for _, c := range h.Changes {
		if c.OldLineNum != nil {
			pos = *c.OldLineNum - 1
			break
		}
	}

	var out []edit
	var cur *edit
	flush := func() {
		if cur != nil {
			out = append(out, *cur)
			cur = nil
		}
	}

	for _, c := range h.Changes {
		switch c.Tag {
		case model.TagEqual:
			flush()
			pos = *c.OldLineNum
		case model.TagDelete:
			if cur == nil {
				cur = &edit{from: *c.OldLineNum - 1, to: *c.OldLineNum - 1}
			}
			cur.to = *c.OldLineNum
			pos = *c.OldLineNum
		case model.TagInsert:
			if cur == nil {
				cur = &edit{from: pos, to: pos}
			}
			cur.lines = append(cur.lines, c.Content)
		}
	}
	flush()
	return out
}

// Reconstruct applies the accepted hunks to original and returns the new
// text. Hunks that are pending or rejected are ignored. Edits are applied
// bottom-up so earlier edits keep their line numbers. A trailing newline
// on original is kept.
func Reconstruct(original string, hunks []model.Hunk) string {
	var edits []edit
	for _, h := range hunks {
		if h.Status != model.HunkAccepted {
			continue
		}
		edits = append(edits, editsOf(h)...)
	}
	if len(edits) == 0 {
		return original
	}

	slices.SortStableFunc(edits, func(a, b edit) int {
		if a.from != b.from {
			return b.from - a.from
		}
		return b.to - a.to
	})

	lines := diff.SplitLines(original)
	for _, e := range edits {
		from := min(max(e.from, 0), len(lines))
		to := min(max(e.to, from), len(lines))
		lines = slices.Replace(lines, from, to, e.lines...)
	}

	out := diff.JoinLines(lines)
	if strings.HasSuffix(original, "\n") && len(lines) > 0 {
		out += "\n"
	}
	return out
}
