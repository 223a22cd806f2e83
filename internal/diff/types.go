package diff

import (
	"errors"
	"time"

	"github.com/pstuifzand/zcode/internal/model"
)

// DefaultContextLines is the number of equal lines kept around each group of edits
const DefaultContextLines = 3

// DefaultTimeout bounds the time spent matching two texts
const DefaultTimeout = 5 * time.Second

// ErrTimeout is returned together with a degraded whole-file diff when
// matching did not finish in time
var ErrTimeout = errors.New("diff computation timed out")

// Options controls diff computation
type Options struct {
	ContextLines int
	Timeout      time.Duration
	// Unified merges edits closer than 2*ContextLines into one group
	Unified bool
}

// DefaultOptions returns the options used by the review UI
func DefaultOptions() Options {
	return Options{ContextLines: DefaultContextLines, Timeout: DefaultTimeout}
}

// Group is one region of grouped edit operations with its context lines
type Group struct {
	// OldStart is the number of original lines preceding the group
	OldStart int
	// NewStart is the number of proposed lines preceding the group
	NewStart int
	Changes  []model.LineChange
}

// Result is the outcome of DiffLines
type Result struct {
	Groups []Group
	// Degraded is set when the whole-file fallback was used
	Degraded bool
}

// Empty reports whether the two texts were identical
func (r Result) Empty() bool {
	return len(r.Groups) == 0
}

// LineType indicates how a rendered diff line is styled
type LineType int

const (
	LineHeader LineType = iota
	LineHunkHeader
	LineContext
	LineAdded
	LineRemoved
	LineSummary
	LineBlank
)

// Line is one line of formatted diff output
type Line struct {
	Type    LineType
	Content string
}
