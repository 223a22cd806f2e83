package parser

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/pstuifzand/zcode/internal/diff"
	"github.com/pstuifzand/zcode/internal/model"
)

var hunkHeader = regexp.MustCompile(`^@@ -(\d+)(?:,(\d+))? \+(\d+)(?:,(\d+))? @@`)

const devNull = "/dev/null"

// patchHunk is one @@ section of a unified diff
type patchHunk struct {
	oldStart int // 1-based, 0 when unknown
	old      []string
	new      []string
}

// filePatch is the set of hunks for one file
type filePatch struct {
	oldPath string
	newPath string
	hunks   []patchHunk
}

func stripPrefix(path string) string {
	path = strings.TrimSpace(path)
	// drop a trailing timestamp separated by a tab
	if i := strings.IndexByte(path, '\t'); i >= 0 {
		path = path[:i]
	}
	if path == devNull {
		return path
	}
	if rest, ok := strings.CutPrefix(path, "a/"); ok {
		return rest
	}
	if rest, ok := strings.CutPrefix(path, "b/"); ok {
		return rest
	}
	return path
}

// splitPatches reads the file sections of a unified diff. Lines outside a
// section, such as prose or markdown fences, are skipped.
func splitPatches(out string) []filePatch {
	lines := strings.Split(strings.ReplaceAll(out, "\r\n", "\n"), "\n")

	var patches []filePatch
	var cur *filePatch
	var hunk *patchHunk

	endHunk := func() {
		if cur != nil && hunk != nil {
			cur.hunks = append(cur.hunks, *hunk)
		}
		hunk = nil
	}
	endFile := func() {
		endHunk()
		if cur != nil {
			patches = append(patches, *cur)
		}
		cur = nil
	}

	for i := 0; i < len(lines); i++ {
		line := lines[i]

		if strings.HasPrefix(line, "--- ") && i+1 < len(lines) && strings.HasPrefix(lines[i+1], "+++ ") {
			endFile()
			cur = &filePatch{
				oldPath: stripPrefix(line[4:]),
				newPath: stripPrefix(lines[i+1][4:]),
			}
			i++
			continue
		}
		if strings.HasPrefix(line, "diff ") || strings.HasPrefix(line, "```") {
			endFile()
			continue
		}
		if cur == nil {
			continue
		}

		if m := hunkHeader.FindStringSubmatch(line); m != nil {
			endHunk()
			start, _ := strconv.Atoi(m[1])
			hunk = &patchHunk{oldStart: start}
			continue
		}
		if hunk == nil {
			continue
		}

		switch {
		case strings.HasPrefix(line, "\\"):
			// "\ No newline at end of file"
		case strings.HasPrefix(line, "+"):
			hunk.new = append(hunk.new, line[1:])
		case strings.HasPrefix(line, "-"):
			hunk.old = append(hunk.old, line[1:])
		case strings.HasPrefix(line, " "):
			hunk.old = append(hunk.old, line[1:])
			hunk.new = append(hunk.new, line[1:])
		case line == "":
			// context lines whose leading space was stripped
			hunk.old = append(hunk.old, "")
			hunk.new = append(hunk.new, "")
		default:
			endHunk()
		}
	}
	endFile()

	for i := range patches {
		for j := range patches[i].hunks {
			h := &patches[i].hunks[j]
			// a trailing blank line is the end of the output, not context
			for len(h.old) > 0 && len(h.new) > 0 && h.old[len(h.old)-1] == "" && h.new[len(h.new)-1] == "" {
				h.old = h.old[:len(h.old)-1]
				h.new = h.new[:len(h.new)-1]
			}
		}
	}
	return patches
}

// locate finds block in lines, trying the hinted position first
func locate(lines, block []string, hint, from int) int {
	matches := func(at int) bool {
		if at < 0 || at+len(block) > len(lines) {
			return false
		}
		for i, l := range block {
			if lines[at+i] != l {
				return false
			}
		}
		return true
	}
	if matches(hint) {
		return hint
	}
	for at := from; at+len(block) <= len(lines); at++ {
		if matches(at) {
			return at
		}
	}
	return -1
}

func (p *Parser) parseUnifiedDiff(out string) ([]model.FileChange, error) {
	patches := splitPatches(out)
	if len(patches) == 0 {
		return nil, fmt.Errorf("no file headers found in diff")
	}

	var changes []model.FileChange
	for _, fp := range patches {
		fc, err := p.applyPatch(fp)
		if err != nil {
			return nil, err
		}
		changes = append(changes, fc)
	}
	return changes, nil
}

func (p *Parser) applyPatch(fp filePatch) (model.FileChange, error) {
	if fp.newPath == devNull {
		path := p.resolve(fp.oldPath)
		current, exists, err := readFile(path)
		if err != nil {
			return model.FileChange{}, err
		}
		if !exists {
			return model.FileChange{}, fmt.Errorf("cannot delete %s: file does not exist", fp.oldPath)
		}
		return model.FileChange{Path: path, OriginalContent: &current, Type: model.ChangeDelete}, nil
	}

	path := p.resolve(fp.newPath)
	var current string
	exists := false
	if fp.oldPath != devNull {
		var err error
		current, exists, err = readFile(path)
		if err != nil {
			return model.FileChange{}, err
		}
	}

	lines := diff.SplitLines(current)
	// offset tracks how far earlier hunks moved later ones
	offset, cursor := 0, 0
	for n, h := range fp.hunks {
		hint := h.oldStart - 1 + offset
		if len(h.old) == 0 {
			// pure insertion: the header names the line after which to insert
			hint = h.oldStart + offset
		}
		at := hint
		if len(h.old) > 0 {
			at = locate(lines, h.old, hint, cursor)
			if at < 0 {
				return model.FileChange{}, fmt.Errorf("hunk %d does not apply to %s", n+1, fp.newPath)
			}
		}
		at = min(max(at, 0), len(lines))

		lines = append(lines[:at:at], append(append([]string{}, h.new...), lines[at+len(h.old):]...)...)
		offset += len(h.new) - len(h.old)
		cursor = at + len(h.new)
	}

	proposed := diff.JoinLines(lines)
	if len(lines) > 0 && (!exists || strings.HasSuffix(current, "\n")) {
		proposed += "\n"
	}

	fc := model.FileChange{Path: path, ProposedContent: proposed}
	if exists {
		fc.Type = model.ChangeModify
		fc.OriginalContent = &current
	} else {
		fc.Type = model.ChangeCreate
	}
	return fc, nil
}
