package state

import (
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/pstuifzand/zcode/internal/apply"
	"github.com/pstuifzand/zcode/internal/diff"
	"github.com/pstuifzand/zcode/internal/model"
)

// HunkFilter limits which hunks the review shows
type HunkFilter int

const (
	FilterAll HunkFilter = iota
	FilterPending
	FilterAccepted
	FilterRejected
)

// ParseFilter converts a :filter argument
func ParseFilter(s string) (HunkFilter, error) {
	switch s {
	case "all":
		return FilterAll, nil
	case "pending":
		return FilterPending, nil
	case "accepted":
		return FilterAccepted, nil
	case "rejected":
		return FilterRejected, nil
	}
	return FilterAll, fmt.Errorf("unknown filter %q", s)
}

func (f HunkFilter) matches(h model.Hunk) bool {
	switch f {
	case FilterPending:
		return h.Status == model.HunkPending
	case FilterAccepted:
		return h.Status == model.HunkAccepted
	case FilterRejected:
		return h.Status == model.HunkRejected
	}
	return true
}

// LoadChanges replaces the pending changes with changes, diffs each file
// and enters DiffReview
func (s *State) LoadChanges(changes []model.FileChange) {
	s.Pending = make(map[string]model.FileChange, len(changes))
	for _, fc := range changes {
		s.Pending[fc.Path] = fc
	}

	paths := make([]string, 0, len(s.Pending))
	for p := range s.Pending {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	opts := diff.DefaultOptions()
	opts.ContextLines = s.Config.General.ContextLines
	if s.DiffTimeout > 0 {
		opts.Timeout = s.DiffTimeout
	}

	s.Hunks = nil
	s.Proposed = nil
	s.SelectedHunk = 0
	s.Filter = FilterAll
	s.Degraded = false
	for _, path := range paths {
		fc := s.Pending[path]
		hunks, err := diff.Hunks(path, fc.Original(), fc.ProposedContent, opts)
		if errors.Is(err, diff.ErrTimeout) {
			log.Printf("Diff of %s timed out, showing whole-file change", path)
			s.Degraded = true
		}
		s.Hunks = append(s.Hunks, hunks...)
		s.Proposed = append(s.Proposed, model.NewProposedChange(len(s.Proposed), fc, hunks))
	}

	switch {
	case len(s.Hunks) == 0:
		s.Status = "Provider proposed no changes"
	case s.Degraded:
		s.Status = fmt.Sprintf("%d hunks in %d files (diff timed out, whole-file view)", len(s.Hunks), len(paths))
	default:
		s.Status = fmt.Sprintf("%d hunks in %d files", len(s.Hunks), len(paths))
	}
	s.setMode(ModeDiffReview)
}

// VisibleHunks returns the indexes of the hunks that pass the filter
func (s *State) VisibleHunks() []int {
	var out []int
	for i, h := range s.Hunks {
		if s.Filter.matches(h) {
			out = append(out, i)
		}
	}
	return out
}

// SetFilter changes the filter and moves the selection onto a visible hunk
func (s *State) SetFilter(f HunkFilter) {
	s.Filter = f
	visible := s.VisibleHunks()
	if len(visible) > 0 && !s.Filter.matches(s.Hunks[s.SelectedHunk]) {
		s.SelectedHunk = visible[0]
	}
}

// Current returns the selected hunk
func (s *State) Current() (*model.Hunk, bool) {
	if s.SelectedHunk < 0 || s.SelectedHunk >= len(s.Hunks) {
		return nil, false
	}
	return &s.Hunks[s.SelectedHunk], true
}

// MoveHunk moves the selection by delta visible hunks. When the selected
// hunk is filtered out, the nearest visible hunk in the direction of
// delta counts as the first step.
func (s *State) MoveHunk(delta int) {
	visible := s.VisibleHunks()
	if len(visible) == 0 {
		return
	}
	pos := sort.SearchInts(visible, s.SelectedHunk)
	if pos == len(visible) || visible[pos] != s.SelectedHunk {
		if delta > 0 {
			delta--
		}
	}
	pos = min(max(pos+delta, 0), len(visible)-1)
	s.SelectedHunk = visible[pos]
}

// MoveFile selects the first hunk of the next (delta > 0) or previous file
func (s *State) MoveFile(delta int) {
	cur, ok := s.Current()
	if !ok {
		return
	}
	path := cur.FilePath
	if delta > 0 {
		for i := s.SelectedHunk + 1; i < len(s.Hunks); i++ {
			if s.Hunks[i].FilePath != path {
				s.SelectedHunk = i
				return
			}
		}
		return
	}
	i := s.SelectedHunk
	for i > 0 && s.Hunks[i-1].FilePath == path {
		i--
	}
	if i == 0 {
		s.SelectedHunk = 0
		return
	}
	prev := s.Hunks[i-1].FilePath
	for i > 0 && s.Hunks[i-1].FilePath == prev {
		i--
	}
	s.SelectedHunk = i
}

func (s *State) setStatus(idx int, status model.HunkStatus) {
	if idx < 0 || idx >= len(s.Hunks) {
		return
	}
	s.Hunks[idx].Status = status
	s.refresh(s.Hunks[idx].FilePath)
}

func (s *State) refresh(path string) {
	var hunks []model.Hunk
	for _, h := range s.Hunks {
		if h.FilePath == path {
			hunks = append(hunks, h)
		}
	}
	for _, pc := range s.Proposed {
		if pc.FilePath == path {
			pc.Refresh(hunks)
		}
	}
}

// AcceptHunk marks the selected hunk accepted and moves to the next one
func (s *State) AcceptHunk() {
	s.setStatus(s.SelectedHunk, model.HunkAccepted)
	s.MoveHunk(1)
}

// RejectHunk marks the selected hunk rejected and moves to the next one
func (s *State) RejectHunk() {
	s.setStatus(s.SelectedHunk, model.HunkRejected)
	s.MoveHunk(1)
}

// ToggleHunk flips the selected hunk between accepted and rejected
func (s *State) ToggleHunk() {
	h, ok := s.Current()
	if !ok {
		return
	}
	if h.Status == model.HunkAccepted {
		s.setStatus(s.SelectedHunk, model.HunkRejected)
	} else {
		s.setStatus(s.SelectedHunk, model.HunkAccepted)
	}
}

// SetAll gives every hunk status
func (s *State) SetAll(status model.HunkStatus) {
	for i := range s.Hunks {
		s.Hunks[i].Status = status
	}
	for path := range s.Pending {
		s.refresh(path)
	}
}

// Counts returns the number of accepted, rejected and pending hunks
func (s *State) Counts() (accepted, rejected, pending int) {
	for _, h := range s.Hunks {
		switch h.Status {
		case model.HunkAccepted:
			accepted++
		case model.HunkRejected:
			rejected++
		default:
			pending++
		}
	}
	return
}

// Jump selects the first hunk of the file that best matches query
func (s *State) Jump(query string) error {
	var paths []string
	seen := make(map[string]bool)
	for _, h := range s.Hunks {
		if !seen[h.FilePath] {
			seen[h.FilePath] = true
			paths = append(paths, h.FilePath)
		}
	}
	ranks := fuzzy.RankFindFold(query, paths)
	if len(ranks) == 0 {
		return fmt.Errorf("no file matches %q", query)
	}
	sort.Sort(ranks)
	target := ranks[0].Target
	for i, h := range s.Hunks {
		if h.FilePath == target {
			s.SelectedHunk = i
			s.Filter = FilterAll
			return nil
		}
	}
	return nil
}

// Search selects the next hunk after the current one whose lines contain
// text, wrapping around
func (s *State) Search(text string) error {
	if len(s.Hunks) == 0 {
		return fmt.Errorf("no hunks to search")
	}
	needle := strings.ToLower(text)
	for n := 1; n <= len(s.Hunks); n++ {
		i := (s.SelectedHunk + n) % len(s.Hunks)
		for _, c := range s.Hunks[i].Changes {
			if strings.Contains(strings.ToLower(c.Content), needle) {
				s.SelectedHunk = i
				s.Filter = FilterAll
				return nil
			}
		}
	}
	return fmt.Errorf("pattern not found: %s", text)
}

// RequestApply starts applying the accepted hunks, through the
// Confirmation mode when the configuration asks for it
func (s *State) RequestApply() {
	if s.Mode != ModeDiffReview {
		return
	}
	if accepted, _, _ := s.Counts(); accepted == 0 {
		d := displayFor(apply.ErrNoAcceptedHunks, "")
		s.ShowError(d.Title, d.Message, d.HelpURL)
		return
	}
	if s.Config.General.ConfirmBeforeApply {
		s.setMode(ModeConfirmation)
		return
	}
	s.applyAccepted()
}

// Confirm answers the Confirmation dialog
func (s *State) Confirm(yes bool) {
	if s.Mode != ModeConfirmation {
		return
	}
	if !yes {
		s.setMode(ModeDiffReview)
		return
	}
	s.applyAccepted()
}

func (s *State) applyAccepted() {
	result, err := s.applier.ApplyAccepted(s.Hunks, s.Pending, s.Config.General.CreateBackups)
	if err != nil {
		log.Printf("Apply failed: %v", err)
		d := displayFor(err, "")
		s.ShowError(d.Title, d.Message, d.HelpURL)
		return
	}

	s.LastApply = result
	s.Hunks = nil
	s.Pending = make(map[string]model.FileChange)
	s.Proposed = nil
	s.SelectedHunk = 0
	s.Status = fmt.Sprintf("Applied %d hunks to %d files", result.HunksApplied, len(result.FilesModified))
	if n := len(result.BackupsCreated); n > 0 {
		s.Status += fmt.Sprintf(" (%d backups)", n)
	}
	s.Chat.Add(model.RoleSystem, s.Status, model.MessageSuccess)
	s.setMode(ModeDiffReview)
}
