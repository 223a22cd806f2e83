// Package model contains the data types shared between the diff engine,
// the apply pipeline and the review UI
package model

import "fmt"

// ChangeType describes what a provider wants to do with a file
type ChangeType int

const (
	ChangeModify ChangeType = iota
	ChangeCreate
	ChangeDelete
)

func (t ChangeType) String() string {
	switch t {
	case ChangeCreate:
		return "create"
	case ChangeDelete:
		return "delete"
	default:
		return "modify"
	}
}

// FileChange is a single file edit proposed by a provider. It is not
// modified after the parser produced it.
type FileChange struct {
	Path            string
	OriginalContent *string // nil for ChangeCreate
	ProposedContent string
	Type            ChangeType
}

// Original returns the original content, or "" when the file is new
func (fc FileChange) Original() string {
	if fc.OriginalContent == nil {
		return ""
	}
	return *fc.OriginalContent
}

// ChangeTag is the kind of a single diff line
type ChangeTag int

const (
	TagEqual ChangeTag = iota
	TagInsert
	TagDelete
)

func (t ChangeTag) String() string {
	switch t {
	case TagInsert:
		return "+"
	case TagDelete:
		return "-"
	default:
		return " "
	}
}

// LineChange is one line of a hunk. Line numbers are 1-based; an Insert
// has no old line and a Delete has no new line.
type LineChange struct {
	Tag        ChangeTag
	Content    string
	OldLineNum *int
	NewLineNum *int
}

// LineNum returns a pointer to n, for building LineChange values
func LineNum(n int) *int {
	return &n
}

// HunkStatus is the review state of a hunk
type HunkStatus int

const (
	HunkPending HunkStatus = iota
	HunkAccepted
	HunkRejected
)

func (s HunkStatus) String() string {
	switch s {
	case HunkAccepted:
		return "accepted"
	case HunkRejected:
		return "rejected"
	default:
		return "pending"
	}
}

// Hunk is a group of edits plus up to N lines of surrounding context.
// StartLine and EndLine are in the original file's coordinates; StartLine
// is 0 when the hunk begins with an insertion at the top of the file.
type Hunk struct {
	ID        int
	FilePath  string
	StartLine int
	EndLine   int
	Changes   []LineChange
	Status    HunkStatus
}

// Header returns a unified diff style hunk header
func (h Hunk) Header() string {
	oldStart, oldCount, newStart, newCount := 0, 0, 0, 0
	for _, c := range h.Changes {
		if c.OldLineNum != nil {
			if oldCount == 0 {
				oldStart = *c.OldLineNum
			}
			oldCount++
		}
		if c.NewLineNum != nil {
			if newCount == 0 {
				newStart = *c.NewLineNum
			}
			newCount++
		}
	}
	return fmt.Sprintf("@@ -%d,%d +%d,%d @@", oldStart, oldCount, newStart, newCount)
}

// HasEdits reports whether the hunk contains at least one Insert or Delete
func (h Hunk) HasEdits() bool {
	for _, c := range h.Changes {
		if c.Tag != TagEqual {
			return true
		}
	}
	return false
}

// Counts returns the number of inserted and deleted lines
func (h Hunk) Counts() (added, removed int) {
	for _, c := range h.Changes {
		switch c.Tag {
		case TagInsert:
			added++
		case TagDelete:
			removed++
		}
	}
	return added, removed
}

// Text renders the hunk body in unified diff form
func (h Hunk) Text() string {
	out := h.Header() + "\n"
	for _, c := range h.Changes {
		out += c.Tag.String() + c.Content + "\n"
	}
	return out
}
