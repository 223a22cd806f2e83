package tasks

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pstuifzand/zcode/internal/executor"
)

func waitFor(t *testing.T, tr *Tracker, n int) []Completion {
	t.Helper()
	var all []Completion
	deadline := time.Now().Add(5 * time.Second)
	for len(all) < n {
		if time.Now().After(deadline) {
			t.Fatalf("only %d of %d tasks completed", len(all), n)
		}
		all = append(all, tr.PollCompleted()...)
		time.Sleep(5 * time.Millisecond)
	}
	return all
}

func TestSpawnRejectsDuplicateID(t *testing.T) {
	tr := NewTracker()
	block := make(chan struct{})
	defer close(block)

	fn := func(ctx context.Context) (*executor.Result, error) {
		<-block
		return &executor.Result{}, nil
	}
	require.NoError(t, tr.Spawn("a", KindPrompt, fn))
	assert.Error(t, tr.Spawn("a", KindPrompt, fn))
	assert.Equal(t, 1, tr.Len())
}

func TestPollReturnsEachResultOnce(t *testing.T) {
	tr := NewTracker()
	release := make(chan struct{})

	require.NoError(t, tr.Spawn("fast", KindDetection, func(ctx context.Context) (*executor.Result, error) {
		return &executor.Result{Context: map[string]string{"id": "fast"}}, nil
	}))
	require.NoError(t, tr.Spawn("slow", KindPrompt, func(ctx context.Context) (*executor.Result, error) {
		<-release
		return nil, errors.New("failed")
	}))

	done := waitFor(t, tr, 1)
	require.Len(t, done, 1)
	assert.Equal(t, "fast", done[0].ID)
	assert.Equal(t, KindDetection, done[0].Kind)
	assert.True(t, tr.Has("slow"))
	assert.False(t, tr.Has("fast"))
	assert.Empty(t, tr.PollCompleted())

	close(release)
	done = waitFor(t, tr, 1)
	require.Len(t, done, 1)
	assert.Equal(t, "slow", done[0].ID)
	assert.EqualError(t, done[0].Err, "failed")
	assert.Equal(t, 0, tr.Len())
	assert.Empty(t, tr.PollCompleted())
}

func TestSpawnAfterCompletionReusesID(t *testing.T) {
	tr := NewTracker()
	fn := func(ctx context.Context) (*executor.Result, error) { return &executor.Result{}, nil }
	require.NoError(t, tr.Spawn("x", KindPrompt, fn))
	waitFor(t, tr, 1)
	assert.NoError(t, tr.Spawn("x", KindPrompt, fn))
}

func TestCancelDropsTaskAndCancelsContext(t *testing.T) {
	tr := NewTracker()
	cancelled := make(chan struct{})
	require.NoError(t, tr.Spawn("p", KindPrompt, func(ctx context.Context) (*executor.Result, error) {
		<-ctx.Done()
		close(cancelled)
		return nil, ctx.Err()
	}))

	assert.Equal(t, 1, tr.Pending(KindPrompt))
	assert.True(t, tr.Cancel("p"))
	assert.False(t, tr.Cancel("p"))

	select {
	case <-cancelled:
	case <-time.After(2 * time.Second):
		t.Fatal("task context was not cancelled")
	}
	time.Sleep(10 * time.Millisecond)
	assert.Empty(t, tr.PollCompleted())
	assert.Equal(t, 0, tr.Pending(KindPrompt))
}
