// Package diff computes line diffs between an original and a proposed text
// and groups them into reviewable hunks
package diff

import (
	"log"
	"strings"
	"time"

	"github.com/pmezard/go-difflib/difflib"
	"github.com/pstuifzand/zcode/internal/model"
)

// SplitLines splits text into lines. A single trailing newline does not
// produce an empty last line, and the empty string has no lines.
func SplitLines(text string) []string {
	if text == "" {
		return nil
	}
	return strings.Split(strings.TrimSuffix(text, "\n"), "\n")
}

// JoinLines is the inverse of SplitLines, without a trailing newline
func JoinLines(lines []string) string {
	return strings.Join(lines, "\n")
}

// DiffLines compares original and proposed line by line. Matching uses the
// longest-matching-block algorithm, which prefers the leftmost longest
// match and is deterministic for identical inputs.
//
// When matching takes longer than opts.Timeout the result is a single
// group that deletes every original line and inserts every proposed line,
// and ErrTimeout is returned alongside it.
func DiffLines(original, proposed string, opts Options) (Result, error) {
	if opts.ContextLines < 0 {
		opts.ContextLines = DefaultContextLines
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}

	a := SplitLines(original)
	b := SplitLines(proposed)

	// GetGroupedOpCodes rewrites the matcher's cached opcodes, so only one
	// of the two is ever called on a matcher.
	done := make(chan []Group, 1)
	go func() {
		m := difflib.NewMatcherWithJunk(a, b, false, nil)
		if opts.Unified {
			done <- unifiedGroups(a, b, m.GetGroupedOpCodes(opts.ContextLines))
			return
		}
		done <- runGroups(a, b, m.GetOpCodes(), opts.ContextLines)
	}()

	timer := time.NewTimer(opts.Timeout)
	defer timer.Stop()

	select {
	case groups := <-done:
		return Result{Groups: groups}, nil
	case <-timer.C:
		log.Printf("diff: matching %d/%d lines exceeded %s, using whole-file diff", len(a), len(b), opts.Timeout)
		return Result{Groups: wholeFile(a, b), Degraded: true}, ErrTimeout
	}
}

// runGroups makes one group per edit run. Equal lines between two runs are
// used as context by both groups, so neighbouring edits stay separately
// reviewable instead of being merged.
func runGroups(a, b []string, codes []difflib.OpCode, n int) []Group {
	var groups []Group
	for idx, op := range codes {
		if op.Tag == 'e' {
			continue
		}
		g := Group{OldStart: op.I1, NewStart: op.J1}
		if idx > 0 && codes[idx-1].Tag == 'e' {
			prev := codes[idx-1]
			k := min(n, prev.I2-prev.I1)
			g.OldStart, g.NewStart = prev.I2-k, prev.J2-k
			g.Changes = append(g.Changes, equals(a, prev.I2-k, prev.I2, prev.J2-k)...)
		}
		g.Changes = append(g.Changes, edits(a, b, op)...)
		if idx+1 < len(codes) && codes[idx+1].Tag == 'e' {
			next := codes[idx+1]
			k := min(n, next.I2-next.I1)
			g.Changes = append(g.Changes, equals(a, next.I1, next.I1+k, next.J1)...)
		}
		groups = append(groups, g)
	}
	return groups
}

// unifiedGroups merges edits separated by at most 2n equal lines, the way
// unified diff output does
func unifiedGroups(a, b []string, grouped [][]difflib.OpCode) []Group {
	groups := make([]Group, 0, len(grouped))
	for _, ops := range grouped {
		groups = append(groups, buildGroup(a, b, ops))
	}
	return groups
}

func buildGroup(a, b []string, ops []difflib.OpCode) Group {
	g := Group{}
	if len(ops) > 0 {
		g.OldStart = ops[0].I1
		g.NewStart = ops[0].J1
	}
	for _, op := range ops {
		if op.Tag == 'e' {
			g.Changes = append(g.Changes, equals(a, op.I1, op.I2, op.J1)...)
			continue
		}
		g.Changes = append(g.Changes, edits(a, b, op)...)
	}
	return g
}

// edits expands a non-equal opcode; a replacement lists its deletions first
func edits(a, b []string, op difflib.OpCode) []model.LineChange {
	switch op.Tag {
	case 'd':
		return deletes(a, op.I1, op.I2)
	case 'i':
		return inserts(b, op.J1, op.J2)
	case 'r':
		return append(deletes(a, op.I1, op.I2), inserts(b, op.J1, op.J2)...)
	}
	return nil
}

func equals(a []string, i1, i2, j1 int) []model.LineChange {
	out := make([]model.LineChange, 0, i2-i1)
	for k := 0; k < i2-i1; k++ {
		out = append(out, model.LineChange{
			Tag:        model.TagEqual,
			Content:    a[i1+k],
			OldLineNum: model.LineNum(i1 + k + 1),
			NewLineNum: model.LineNum(j1 + k + 1),
		})
	}
	return out
}

func deletes(a []string, i1, i2 int) []model.LineChange {
	out := make([]model.LineChange, 0, i2-i1)
	for i := i1; i < i2; i++ {
		out = append(out, model.LineChange{
			Tag:        model.TagDelete,
			Content:    a[i],
			OldLineNum: model.LineNum(i + 1),
		})
	}
	return out
}

func inserts(b []string, j1, j2 int) []model.LineChange {
	out := make([]model.LineChange, 0, j2-j1)
	for j := j1; j < j2; j++ {
		out = append(out, model.LineChange{
			Tag:        model.TagInsert,
			Content:    b[j],
			NewLineNum: model.LineNum(j + 1),
		})
	}
	return out
}

func wholeFile(a, b []string) []Group {
	if JoinLines(a) == JoinLines(b) && len(a) == len(b) {
		return nil
	}
	g := Group{}
	g.Changes = append(g.Changes, deletes(a, 0, len(a))...)
	g.Changes = append(g.Changes, inserts(b, 0, len(b))...)
	return []Group{g}
}

// ExtractHunks turns each group of result into one pending hunk for path.
// Hunk IDs are the 0-based position of the group within the file.
func ExtractHunks(path string, result Result) []model.Hunk {
	hunks := make([]model.Hunk, 0, len(result.Groups))
	for i, g := range result.Groups {
		h := model.Hunk{
			ID:       i,
			FilePath: path,
			Changes:  g.Changes,
			Status:   model.HunkPending,
		}

		start, end := -1, -1
		for _, c := range g.Changes {
			if c.OldLineNum != nil && (start == -1 || *c.OldLineNum < start) {
				start = *c.OldLineNum
			}
			if c.NewLineNum != nil && *c.NewLineNum > end {
				end = *c.NewLineNum
			}
		}
		if start == -1 {
			// Pure insertion: the number of original lines before it, 0 at the top
			start = g.OldStart
		}
		if end == -1 {
			end = g.NewStart
		}
		h.StartLine = start
		h.EndLine = end
		hunks = append(hunks, h)
	}
	return hunks
}

// Hunks is DiffLines followed by ExtractHunks. A timeout still yields the
// degraded hunks together with ErrTimeout.
func Hunks(path, original, proposed string, opts Options) ([]model.Hunk, error) {
	result, err := DiffLines(original, proposed, opts)
	return ExtractHunks(path, result), err
}
