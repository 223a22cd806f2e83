package model

// DecorationKind is how a line is drawn in the overlay diff view
type DecorationKind int

const (
	DecorationContext DecorationKind = iota
	DecorationAddition
	DecorationDeletion
	DecorationModification
)

// LineDecoration is one rendered line of a ProposedChange
type LineDecoration struct {
	Kind         DecorationKind
	LineNum      int
	OriginalText string
	NewText      string
	HunkID       int
	Accepted     *bool // nil while the owning hunk is pending
}

// ChangeStatus is the review state of a whole file
type ChangeStatus int

const (
	StatusPending ChangeStatus = iota
	StatusPartialAccept
	StatusAccepted
	StatusRejected
	StatusApplied
)

func (s ChangeStatus) String() string {
	switch s {
	case StatusPartialAccept:
		return "partial"
	case StatusAccepted:
		return "accepted"
	case StatusRejected:
		return "rejected"
	case StatusApplied:
		return "applied"
	default:
		return "pending"
	}
}

// ProposedChange is the per-file view of a FileChange and its hunks. It
// owns its decorations and is rebuilt when the FileChange changes.
type ProposedChange struct {
	ID              int
	FilePath        string
	OriginalContent string
	ProposedContent string
	Decorations     []LineDecoration
	Status          ChangeStatus
}

// NewProposedChange builds the decorations for fc from its hunks
func NewProposedChange(id int, fc FileChange, hunks []Hunk) *ProposedChange {
	pc := &ProposedChange{
		ID:              id,
		FilePath:        fc.Path,
		OriginalContent: fc.Original(),
		ProposedContent: fc.ProposedContent,
	}
	pc.Refresh(hunks)
	return pc
}

// Refresh rebuilds decorations and status after hunk statuses changed
func (pc *ProposedChange) Refresh(hunks []Hunk) {
	pc.Decorations = pc.Decorations[:0]
	var accepted, rejected, total int
	for _, h := range hunks {
		if h.FilePath != pc.FilePath {
			continue
		}
		total++
		switch h.Status {
		case HunkAccepted:
			accepted++
		case HunkRejected:
			rejected++
		}
		pc.Decorations = append(pc.Decorations, decorate(h)...)
	}

	if pc.Status == StatusApplied {
		return
	}
	switch {
	case total == 0:
		pc.Status = StatusPending
	case accepted == total:
		pc.Status = StatusAccepted
	case rejected == total:
		pc.Status = StatusRejected
	case accepted > 0:
		pc.Status = StatusPartialAccept
	default:
		pc.Status = StatusPending
	}
}

// decorate turns a hunk into display lines. A Delete immediately followed
// by an Insert is shown as one Modification.
func decorate(h Hunk) []LineDecoration {
	var accepted *bool
	switch h.Status {
	case HunkAccepted:
		v := true
		accepted = &v
	case HunkRejected:
		v := false
		accepted = &v
	}

	var out []LineDecoration
	changes := h.Changes
	for i := 0; i < len(changes); i++ {
		c := changes[i]
		d := LineDecoration{HunkID: h.ID, Accepted: accepted}
		switch c.Tag {
		case TagEqual:
			d.Kind = DecorationContext
			d.OriginalText = c.Content
			d.LineNum = *c.NewLineNum
		case TagInsert:
			d.Kind = DecorationAddition
			d.NewText = c.Content
			d.LineNum = *c.NewLineNum
		case TagDelete:
			d.Kind = DecorationDeletion
			d.OriginalText = c.Content
			d.LineNum = *c.OldLineNum
			if i+1 < len(changes) && changes[i+1].Tag == TagInsert {
				next := changes[i+1]
				d.Kind = DecorationModification
				d.NewText = next.Content
				d.LineNum = *next.NewLineNum
				i++
			}
		}
		out = append(out, d)
	}
	return out
}
