package executor

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecuteCapturesOutput(t *testing.T) {
	e := New(t.TempDir())
	tags := map[string]string{"request_type": "prompt_execution", "id": "42"}

	res, err := e.Execute(context.Background(), "sh", []string{"-c", "echo out; echo err >&2"}, tags)
	require.NoError(t, err)
	require.NotNil(t, res.ExitCode)
	assert.Equal(t, 0, *res.ExitCode)
	assert.True(t, res.Success())
	assert.Equal(t, "out\n", string(res.Stdout))
	assert.Equal(t, "err\n", string(res.Stderr))
	assert.Equal(t, tags, res.Context)
}

func TestExecuteNonZeroExit(t *testing.T) {
	e := New("")
	res, err := e.Execute(context.Background(), "sh", []string{"-c", "echo line1 >&2; echo boom >&2; exit 3"}, nil)
	require.NoError(t, err)
	require.NotNil(t, res.ExitCode)
	assert.Equal(t, 3, *res.ExitCode)
	assert.False(t, res.Success())
	assert.Equal(t, "boom", res.StderrTail(1))
	assert.Equal(t, "line1\nboom", res.StderrTail(5))
}

func TestExecuteFalse(t *testing.T) {
	res, err := New("").RunPrompt(context.Background(), "false", nil, "test")
	require.NoError(t, err)
	require.NotNil(t, res.ExitCode)
	assert.NotEqual(t, 0, *res.ExitCode)
	assert.Equal(t, RequestPrompt, res.Context[TagRequestType])
	assert.Equal(t, "test", res.Context[TagProvider])
}

func TestExecuteSignalHasNoExitCode(t *testing.T) {
	res, err := New("").Execute(context.Background(), "sh", []string{"-c", "kill -9 $$"}, nil)
	require.NoError(t, err)
	assert.Nil(t, res.ExitCode)
	assert.False(t, res.Success())
}

func TestExecuteCancelKillsProcess(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	start := time.Now()
	res, err := New("").Execute(ctx, "sleep", []string{"10"}, nil)
	require.NoError(t, err)
	assert.Nil(t, res.ExitCode)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestExecuteDoesNotWaitForGrandchildOutput(t *testing.T) {
	e := New("")
	e.WaitDelay = 100 * time.Millisecond

	start := time.Now()
	res, err := e.Execute(context.Background(), "sh", []string{"-c", "sleep 5 & echo done"}, nil)
	require.NoError(t, err)
	assert.Less(t, time.Since(start), 4*time.Second)
	require.NotNil(t, res.ExitCode)
	assert.Equal(t, 0, *res.ExitCode)
	assert.Equal(t, "done\n", string(res.Stdout))
}

func TestExecuteNotFound(t *testing.T) {
	_, err := New("").Execute(context.Background(), "zcode-no-such-binary-xyz", nil, nil)
	require.Error(t, err)
	assert.True(t, IsNotFound(err))

	_, err = New("").Execute(context.Background(), "/nonexistent/dir/tool", nil, nil)
	assert.True(t, IsNotFound(err))
}

func TestDetectProviderTags(t *testing.T) {
	res, err := New("").DetectProvider(context.Background(), "sh", "shell", "Shell", "sh", "-c", "exit 0")
	require.NoError(t, err)
	assert.True(t, res.Success())
	assert.Equal(t, map[string]string{
		TagRequestType: RequestDetection,
		TagProviderID:  "shell",
		TagDisplayName: "Shell",
		TagCLICommand:  "sh",
		TagConfigKey:   "sh",
	}, res.Context)
}
