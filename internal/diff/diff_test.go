package diff

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pstuifzand/zcode/internal/model"
)

func edited(h model.Hunk) []model.LineChange {
	var out []model.LineChange
	for _, c := range h.Changes {
		if c.Tag != model.TagEqual {
			out = append(out, c)
		}
	}
	return out
}

func TestSplitLines(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", nil},
		{"a", []string{"a"}},
		{"a\n", []string{"a"}},
		{"a\nb", []string{"a", "b"}},
		{"a\n\n", []string{"a", ""}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SplitLines(tt.in), "input %q", tt.in)
	}
}

func TestIdenticalInputsHaveNoHunks(t *testing.T) {
	for _, text := range []string{"", "a", "a\nb\nc", "x\n"} {
		hunks, err := Hunks("f.txt", text, text, DefaultOptions())
		require.NoError(t, err)
		assert.Empty(t, hunks, "input %q", text)
	}
}

func TestSingleLineReplacement(t *testing.T) {
	hunks, err := Hunks("f.txt", "a\nb\nc", "a\nB\nc", DefaultOptions())
	require.NoError(t, err)
	require.Len(t, hunks, 1)

	h := hunks[0]
	assert.Equal(t, 0, h.ID)
	assert.Equal(t, "f.txt", h.FilePath)
	assert.Equal(t, model.HunkPending, h.Status)
	assert.Equal(t, 1, h.StartLine)
	assert.Equal(t, 3, h.EndLine)

	ed := edited(h)
	require.Len(t, ed, 2)
	assert.Equal(t, model.TagDelete, ed[0].Tag)
	assert.Equal(t, "b", ed[0].Content)
	assert.Equal(t, 2, *ed[0].OldLineNum)
	assert.Nil(t, ed[0].NewLineNum)
	assert.Equal(t, model.TagInsert, ed[1].Tag)
	assert.Equal(t, "B", ed[1].Content)
	assert.Equal(t, 2, *ed[1].NewLineNum)
	assert.Nil(t, ed[1].OldLineNum)
}

func TestInsertIntoEmptyFile(t *testing.T) {
	hunks, err := Hunks("new.txt", "", "x", DefaultOptions())
	require.NoError(t, err)
	require.Len(t, hunks, 1)
	assert.Equal(t, 0, hunks[0].StartLine)
	assert.Equal(t, 1, hunks[0].EndLine)
	require.Len(t, hunks[0].Changes, 1)
	assert.Equal(t, model.TagInsert, hunks[0].Changes[0].Tag)
}

func TestNearbyEditsStaySeparate(t *testing.T) {
	hunks, err := Hunks("f.txt", "1\n2\n3\n4\n5", "1\n2a\n3\n4\n5b", DefaultOptions())
	require.NoError(t, err)
	require.Len(t, hunks, 2)

	assert.Equal(t, 0, hunks[0].ID)
	assert.Equal(t, 1, hunks[1].ID)
	assert.Equal(t, 2, *edited(hunks[0])[0].OldLineNum)
	assert.Equal(t, 5, *edited(hunks[1])[0].OldLineNum)
}

func TestUnifiedMergesNearbyEdits(t *testing.T) {
	opts := DefaultOptions()
	opts.Unified = true
	hunks, err := Hunks("f.txt", "1\n2\n3\n4\n5", "1\n2a\n3\n4\n5b", opts)
	require.NoError(t, err)
	require.Len(t, hunks, 1)
	assert.Len(t, edited(hunks[0]), 4)
}

func TestContextIsBounded(t *testing.T) {
	var orig, prop []string
	for i := 0; i < 20; i++ {
		orig = append(orig, strings.Repeat("x", i+1))
	}
	prop = append(prop, orig...)
	prop[10] = "changed"

	hunks, err := Hunks("f.txt", JoinLines(orig), JoinLines(prop), DefaultOptions())
	require.NoError(t, err)
	require.Len(t, hunks, 1)
	// 3 context + delete + insert + 3 context
	assert.Len(t, hunks[0].Changes, 8)
	assert.Equal(t, 8, hunks[0].StartLine)
}

func TestLineNumbersStrictlyIncrease(t *testing.T) {
	orig := "a\nb\nc\nd\ne\nf\ng"
	prop := "a\nx\nc\ny\nz\nf\ng\nh"
	hunks, err := Hunks("f.txt", orig, prop, Options{ContextLines: 2, Timeout: time.Second})
	require.NoError(t, err)
	for _, h := range hunks {
		lastOld, lastNew := 0, 0
		for _, c := range h.Changes {
			if c.OldLineNum != nil {
				assert.Greater(t, *c.OldLineNum, lastOld)
				lastOld = *c.OldLineNum
			}
			if c.NewLineNum != nil {
				assert.Greater(t, *c.NewLineNum, lastNew)
				lastNew = *c.NewLineNum
			}
		}
	}
}

func TestFormatUnified(t *testing.T) {
	hunks, err := Hunks("f.txt", "a\nb\nc", "a\nB\nc", DefaultOptions())
	require.NoError(t, err)
	out := FormatUnified("f.txt", hunks)
	assert.Equal(t, "--- a/f.txt\n+++ b/f.txt\n@@ -1,3 +1,3 @@\n a\n-b\n+B\n c\n", out)
	assert.Equal(t, "+1 -1", Summary(hunks))
}

// bigEdit returns a long text and a copy with every third line changed
func bigEdit(n int) (string, string) {
	orig := make([]string, n)
	prop := make([]string, n)
	for i := range orig {
		orig[i] = fmt.Sprintf("line %d", i)
		prop[i] = orig[i]
		if i%3 == 0 {
			prop[i] = fmt.Sprintf("changed %d", i)
		}
	}
	return strings.Join(orig, "\n") + "\n", strings.Join(prop, "\n") + "\n"
}

func TestTimeoutFallsBackToWholeFile(t *testing.T) {
	orig, prop := bigEdit(20000)

	result, err := DiffLines(orig, prop, Options{ContextLines: 3, Timeout: time.Nanosecond})
	require.True(t, errors.Is(err, ErrTimeout), "got %v", err)
	assert.True(t, result.Degraded)
	require.Len(t, result.Groups, 1)

	hunks, err := Hunks("big.txt", orig, prop, Options{ContextLines: 3, Timeout: time.Nanosecond})
	require.ErrorIs(t, err, ErrTimeout)
	require.Len(t, hunks, 1)
	assert.Equal(t, 1, hunks[0].StartLine)
	assert.Len(t, hunks[0].Changes, 40000)
}
