package state

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pstuifzand/zcode/internal/apply"
	"github.com/pstuifzand/zcode/internal/config"
	"github.com/pstuifzand/zcode/internal/executor"
	"github.com/pstuifzand/zcode/internal/model"
	"github.com/pstuifzand/zcode/internal/provider"
	"github.com/pstuifzand/zcode/internal/storage"
	"github.com/pstuifzand/zcode/internal/tasks"
)

func newState(t *testing.T) *State {
	t.Helper()
	root := t.TempDir()
	return New(Options{Config: config.Default(), Root: root})
}

func customProvider(t *testing.T, key string, pc config.ProviderConfig) *provider.Provider {
	t.Helper()
	p, err := provider.Custom(key, pc)
	require.NoError(t, err)
	return p
}

// useProvider makes p available and active without detection
func useProvider(t *testing.T, s *State, p *provider.Provider) {
	t.Helper()
	s.Available = append(s.Available, p)
	require.NoError(t, s.Select(len(s.Available)-1))
}

func pollUntil(t *testing.T, s *State, done func() bool) {
	t.Helper()
	deadline := time.Now().Add(10 * time.Second)
	for !done() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out in mode %s", s.Mode)
		}
		s.Poll()
		time.Sleep(5 * time.Millisecond)
	}
}

func TestInitialMode(t *testing.T) {
	s := newState(t)
	assert.Equal(t, ModeProviderSelect, s.Mode)
	assert.Equal(t, ExecutionIdle, s.Execution)
	assert.Equal(t, DetectionNotStarted, s.Detection)
}

func TestDetectionKeepsSuccessfulProvidersInPollOrder(t *testing.T) {
	s := newState(t)
	candidates := []*provider.Provider{
		customProvider(t, "one", config.ProviderConfig{Path: "true"}),
		customProvider(t, "missing", config.ProviderConfig{Path: "zcode-test-no-such-binary"}),
		customProvider(t, "two", config.ProviderConfig{Path: "true"}),
	}

	var polled []string
	s.StartDetection(candidates)
	assert.Equal(t, DetectionInProgress, s.Detection)

	deadline := time.Now().Add(10 * time.Second)
	for s.Detection != DetectionCompleted {
		require.False(t, time.Now().After(deadline), "detection did not complete")
		for _, c := range s.tracker.PollCompleted() {
			polled = append(polled, c.ID)
			s.HandleCompletion(c)
		}
		time.Sleep(5 * time.Millisecond)
	}

	var want []string
	for _, id := range polled {
		if id != "detect_missing" {
			want = append(want, id[len("detect_"):])
		}
	}
	var got []string
	for _, p := range s.Available {
		got = append(got, p.Key)
	}
	assert.Equal(t, want, got)
	assert.ElementsMatch(t, []string{"one", "two"}, got)
	assert.Equal(t, DetectionCompleted, s.Detection)
}

func TestDetectProvidersTrustsConfiguredPaths(t *testing.T) {
	s := newState(t)
	require.NoError(t, s.Config.Set("providers.claude.path", "/opt/claude"))
	for _, key := range []string{"aider", "copilot", "q"} {
		require.NoError(t, s.Config.Set("providers."+key+".enabled", "false"))
	}

	s.DetectProviders()
	assert.Equal(t, DetectionCompleted, s.Detection)
	require.Len(t, s.Available, 1)
	assert.Equal(t, "/opt/claude", s.Available[0].Binary)
	assert.Equal(t, 0, s.tracker.Len())
}

func TestProviderExitNonZero(t *testing.T) {
	s := newState(t)
	useProvider(t, s, customProvider(t, "failing", config.ProviderConfig{
		Path: "sh",
		Args: []string{"-c", "echo first >&2; echo 'rate limit exceeded' >&2; exit 3"},
	}))

	require.NoError(t, s.Submit("do something"))
	assert.Equal(t, ModeProcessing, s.Mode)
	assert.Equal(t, ExecutionWaitingForResult, s.Execution)

	pollUntil(t, s, func() bool { return s.Mode != ModeProcessing })

	assert.Equal(t, ModeError, s.Mode)
	assert.Equal(t, ExecutionIdle, s.Execution)
	require.NotNil(t, s.Error)
	assert.Equal(t, "Provider Error", s.Error.Title)
	assert.Contains(t, s.Error.Message, "exit 3")
	assert.Contains(t, s.Error.Message, "rate limit exceeded")

	last, ok := s.Chat.Last()
	require.True(t, ok)
	assert.Equal(t, model.RoleAssistant, last.Role)
	assert.Equal(t, model.MessageError, last.Status)
	assert.Equal(t, model.MessageError, s.Chat.Messages[0].Status)

	s.DismissError()
	assert.Equal(t, ModePromptEntry, s.Mode)
	assert.Nil(t, s.Error)
}

func TestProviderFalse(t *testing.T) {
	s := newState(t)
	useProvider(t, s, customProvider(t, "false", config.ProviderConfig{Path: "false"}))

	require.NoError(t, s.Submit("x"))
	pollUntil(t, s, func() bool { return s.Mode != ModeProcessing })
	assert.Equal(t, ModeError, s.Mode)
	assert.Contains(t, s.Error.Message, "exit 1")
}

func TestMissingProviderBinary(t *testing.T) {
	s := newState(t)
	useProvider(t, s, customProvider(t, "gone", config.ProviderConfig{Path: "zcode-test-no-such-binary"}))

	require.NoError(t, s.Submit("x"))
	pollUntil(t, s, func() bool { return s.Mode != ModeProcessing })
	assert.Equal(t, "Provider Not Found", s.Error.Title)
}

func TestEmptyOutputIsParseError(t *testing.T) {
	s := newState(t)
	useProvider(t, s, customProvider(t, "quiet", config.ProviderConfig{Path: "true"}))

	require.NoError(t, s.Submit("x"))
	pollUntil(t, s, func() bool { return s.Mode != ModeProcessing })
	assert.Equal(t, ModeError, s.Mode)
	assert.Equal(t, "Parse Error", s.Error.Title)
}

func TestSubmitValidation(t *testing.T) {
	s := newState(t)
	assert.Error(t, s.Submit("hello"))
	assert.Equal(t, ModeError, s.Mode)
	assert.Equal(t, "No Provider", s.Error.Title)

	s.DismissError()
	useProvider(t, s, customProvider(t, "p", config.ProviderConfig{Path: "true"}))
	assert.Error(t, s.Submit("   "))
	assert.Equal(t, "Empty Prompt", s.Error.Title)
}

func TestPromptToApply(t *testing.T) {
	s := newState(t)
	target := filepath.Join(s.Root, "a.txt")
	require.NoError(t, os.WriteFile(target, []byte("old"), 0o644))

	useProvider(t, s, customProvider(t, "writer", config.ProviderConfig{
		Path:   "sh",
		Parser: "json",
		Args:   []string{"-c", `printf '%s' '[{"path":"a.txt","content":"hello"}]'`},
	}))

	require.NoError(t, s.Submit("say hello"))
	pollUntil(t, s, func() bool { return s.Mode != ModeProcessing })
	require.Equal(t, ModeDiffReview, s.Mode, "error: %+v", s.Error)
	require.Len(t, s.Hunks, 1)
	require.Len(t, s.Proposed, 1)

	s.AcceptHunk()
	assert.Equal(t, model.StatusAccepted, s.Proposed[0].Status)

	s.RequestApply()
	assert.Equal(t, ModeConfirmation, s.Mode)
	s.Confirm(false)
	assert.Equal(t, ModeDiffReview, s.Mode)

	s.RequestApply()
	s.Confirm(true)
	assert.Equal(t, ModeDiffReview, s.Mode)
	assert.Empty(t, s.Hunks)
	require.NotNil(t, s.LastApply)
	assert.Equal(t, []string{target}, s.LastApply.FilesModified)

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))
}

func TestApplyWithoutAcceptedHunks(t *testing.T) {
	s := newState(t)
	s.LoadChanges([]model.FileChange{{Path: filepath.Join(s.Root, "n.txt"), ProposedContent: "x\n", Type: model.ChangeCreate}})
	require.Len(t, s.Hunks, 1)

	s.RequestApply()
	assert.Equal(t, ModeError, s.Mode)
	assert.Equal(t, "Nothing To Apply", s.Error.Title)
}

func TestApplyWithoutConfirmation(t *testing.T) {
	s := newState(t)
	s.Config.General.ConfirmBeforeApply = false
	path := filepath.Join(s.Root, "n.txt")
	s.LoadChanges([]model.FileChange{{Path: path, ProposedContent: "x\n", Type: model.ChangeCreate}})
	s.SetAll(model.HunkAccepted)

	s.RequestApply()
	assert.Equal(t, ModeDiffReview, s.Mode)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "x\n", string(data))
}

func TestApplyFailureShowsError(t *testing.T) {
	bm, err := storage.NewBackupManager(t.TempDir())
	require.NoError(t, err)
	s := New(Options{Config: config.Default(), Root: t.TempDir(), Applier: apply.NewApplier(bm)})
	s.Config.General.ConfirmBeforeApply = false
	s.Config.General.CreateBackups = true

	first := filepath.Join(s.Root, "a.txt")
	second := filepath.Join(s.Root, "b.txt")
	require.NoError(t, os.WriteFile(first, []byte("a\n"), 0o644))
	require.NoError(t, os.WriteFile(second, []byte("b\n"), 0o444))
	a, b := "a\n", "b\n"
	s.LoadChanges([]model.FileChange{
		{Path: first, OriginalContent: &a, ProposedContent: "A\n"},
		{Path: second, OriginalContent: &b, ProposedContent: "B\n"},
	})
	s.SetAll(model.HunkAccepted)

	s.RequestApply()
	assert.Equal(t, ModeError, s.Mode)
	assert.Equal(t, "Apply Failed", s.Error.Title)
	assert.Contains(t, s.Error.Message, second)

	data, err := os.ReadFile(first)
	require.NoError(t, err)
	assert.Equal(t, "a\n", string(data))
}

func TestCancelPrompt(t *testing.T) {
	s := newState(t)
	useProvider(t, s, customProvider(t, "slow", config.ProviderConfig{Path: "sh", Args: []string{"-c", "sleep 30"}}))

	require.NoError(t, s.Submit("wait"))
	s.CancelPrompt()
	assert.Equal(t, ModePromptEntry, s.Mode)
	assert.Equal(t, ExecutionIdle, s.Execution)
	assert.False(t, s.tracker.Has(PromptTaskID))
	assert.Empty(t, s.tracker.PollCompleted())
}

func TestHelpAndCommandWaitForProcessing(t *testing.T) {
	s := newState(t)
	useProvider(t, s, customProvider(t, "slow", config.ProviderConfig{Path: "sh", Args: []string{"-c", "sleep 30"}}))
	require.NoError(t, s.Submit("wait"))
	defer s.CancelPrompt()

	s.ToggleHelp()
	assert.Equal(t, ModeProcessing, s.Mode)
	assert.False(t, s.EnterCommand())
	assert.Equal(t, ModeProcessing, s.Mode)
	assert.Equal(t, ExecutionWaitingForResult, s.Execution)
}

func TestPromptResultOutsideProcessingIsDropped(t *testing.T) {
	s := newState(t)
	useProvider(t, s, customProvider(t, "p", config.ProviderConfig{Path: "true"}))

	code := 1
	s.HandleCompletion(tasks.Completion{
		ID:     PromptTaskID,
		Kind:   tasks.KindPrompt,
		Result: &executor.Result{ExitCode: &code},
	})
	assert.Equal(t, ModePromptEntry, s.Mode)
	assert.Nil(t, s.Error)
}

func TestHelpAndCommandReturnToPreviousMode(t *testing.T) {
	s := newState(t)
	s.LoadChanges(nil)
	assert.Equal(t, ModeDiffReview, s.Mode)

	s.ToggleHelp()
	assert.Equal(t, ModeHelp, s.Mode)
	s.ToggleHelp()
	assert.Equal(t, ModeDiffReview, s.Mode)

	assert.True(t, s.EnterCommand())
	assert.Equal(t, ModeCommand, s.Mode)
	s.LeaveCommand()
	assert.Equal(t, ModeDiffReview, s.Mode)
}

func TestLoadChangesMarksTimedOutDiffs(t *testing.T) {
	s := newState(t)
	s.DiffTimeout = time.Nanosecond

	var orig, prop strings.Builder
	for i := 0; i < 20000; i++ {
		fmt.Fprintf(&orig, "line %d\n", i)
		fmt.Fprintf(&prop, "line %d\n", i*7)
	}
	original := orig.String()
	s.LoadChanges([]model.FileChange{{Path: filepath.Join(s.Root, "big.txt"), OriginalContent: &original, ProposedContent: prop.String()}})

	assert.Equal(t, ModeDiffReview, s.Mode)
	assert.True(t, s.Degraded)
	assert.Len(t, s.Hunks, 1)
	assert.Contains(t, s.Status, "diff timed out")
}

func TestReviewNavigation(t *testing.T) {
	s := newState(t)
	orig := "1\n2\n3\n4\n5\n6\n7\n8\n9\n10\n11\n12\n"
	s.LoadChanges([]model.FileChange{
		{Path: "/x/b.txt", OriginalContent: &orig, ProposedContent: "1\nTWO\n3\n4\n5\n6\n7\n8\n9\n10\nELEVEN\n12\n"},
		{Path: "/x/a.txt", ProposedContent: "new\n", Type: model.ChangeCreate},
	})
	require.Len(t, s.Hunks, 3)
	assert.Equal(t, "/x/a.txt", s.Hunks[0].FilePath)

	s.MoveFile(1)
	assert.Equal(t, 1, s.SelectedHunk)
	s.MoveFile(-1)
	assert.Equal(t, 0, s.SelectedHunk)

	s.AcceptHunk()
	assert.Equal(t, 1, s.SelectedHunk)
	s.RejectHunk()
	assert.Equal(t, 2, s.SelectedHunk)

	accepted, rejected, pending := s.Counts()
	assert.Equal(t, []int{1, 1, 1}, []int{accepted, rejected, pending})

	s.SetFilter(FilterPending)
	assert.Equal(t, []int{2}, s.VisibleHunks())
	s.MoveHunk(-1)
	assert.Equal(t, 2, s.SelectedHunk)

	require.NoError(t, s.Search("eleven"))
	assert.Equal(t, 2, s.SelectedHunk)
	assert.Error(t, s.Search("nothing like this"))

	require.NoError(t, s.Jump("b.txt"))
	assert.Equal(t, 1, s.SelectedHunk)
	assert.Equal(t, FilterAll, s.Filter)
}

func TestReturnToReviewAndClear(t *testing.T) {
	s := newState(t)
	useProvider(t, s, customProvider(t, "echo", config.ProviderConfig{Path: "echo"}))
	assert.False(t, s.ShowReview())

	s.LoadChanges([]model.FileChange{{Path: "/x/new.txt", ProposedContent: "hi\n", Type: model.ChangeCreate}})
	s.BackToPrompt()
	assert.Equal(t, ModePromptEntry, s.Mode)
	assert.True(t, s.ShowReview())
	assert.Equal(t, ModeDiffReview, s.Mode)

	s.Chat.Add(model.RoleUser, "hello", model.MessageSuccess)
	s.ClearConversation()
	assert.Empty(t, s.Hunks)
	assert.Empty(t, s.Chat.Messages)
	assert.Equal(t, ModePromptEntry, s.Mode)

	s.SetModel("gpt-4o")
	assert.Equal(t, "gpt-4o", s.Model)

	s.ChooseProvider()
	assert.Equal(t, ModeProviderSelect, s.Mode)
}
