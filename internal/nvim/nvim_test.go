package nvim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pstuifzand/zcode/internal/model"
)

func TestMarks(t *testing.T) {
	tests := []struct {
		name      string
		hunk      model.Hunk
		lineCount int
		lines     []int
		above     []bool
	}{
		{
			name: "replace with context",
			hunk: model.Hunk{StartLine: 1, Changes: []model.LineChange{
				{Tag: model.TagEqual, Content: "a", OldLineNum: model.LineNum(1), NewLineNum: model.LineNum(1)},
				{Tag: model.TagDelete, Content: "b", OldLineNum: model.LineNum(2)},
				{Tag: model.TagInsert, Content: "B", NewLineNum: model.LineNum(2)},
				{Tag: model.TagEqual, Content: "c", OldLineNum: model.LineNum(3), NewLineNum: model.LineNum(3)},
			}},
			lineCount: 3,
			lines:     []int{1, 1},
			above:     []bool{false, false},
		},
		{
			name: "insert at top of file",
			hunk: model.Hunk{StartLine: 0, Changes: []model.LineChange{
				{Tag: model.TagInsert, Content: "header", NewLineNum: model.LineNum(1)},
			}},
			lineCount: 5,
			lines:     []int{0},
			above:     []bool{true},
		},
		{
			name: "append after last line",
			hunk: model.Hunk{StartLine: 5, Changes: []model.LineChange{
				{Tag: model.TagInsert, Content: "x", NewLineNum: model.LineNum(6)},
				{Tag: model.TagInsert, Content: "y", NewLineNum: model.LineNum(7)},
			}},
			lineCount: 5,
			lines:     []int{4},
			above:     []bool{false},
		},
		{
			name: "delete beyond buffer is clamped",
			hunk: model.Hunk{StartLine: 9, Changes: []model.LineChange{
				{Tag: model.TagDelete, Content: "gone", OldLineNum: model.LineNum(9)},
			}},
			lineCount: 4,
			lines:     []int{3},
			above:     []bool{false},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			marks := Marks(tt.hunk, tt.lineCount)
			require.Len(t, marks, len(tt.lines))
			for i, m := range marks {
				assert.Equal(t, tt.lines[i], m.Line, "mark %d", i)
				_, above := m.Opts["virt_lines_above"]
				assert.Equal(t, tt.above[i], above, "mark %d", i)
			}
		})
	}
}

func TestMarksContent(t *testing.T) {
	h := model.Hunk{StartLine: 2, Changes: []model.LineChange{
		{Tag: model.TagDelete, Content: "old", OldLineNum: model.LineNum(2)},
		{Tag: model.TagInsert, Content: "new one", NewLineNum: model.LineNum(2)},
		{Tag: model.TagInsert, Content: "new two", NewLineNum: model.LineNum(3)},
	}}
	marks := Marks(h, 10)
	require.Len(t, marks, 2)

	assert.Equal(t, HighlightDeletion, marks[0].Opts["hl_group"])
	assert.Equal(t, 3, marks[0].Opts["end_col"])

	virt, ok := marks[1].Opts["virt_lines"].([][][]interface{})
	require.True(t, ok)
	require.Len(t, virt, 2)
	assert.Equal(t, "+ new one", virt[0][0][0])
	assert.Equal(t, HighlightAddition, virt[1][0][1])
}

func TestManagerNotConnected(t *testing.T) {
	t.Setenv("NVIM", "")
	t.Setenv("NVIM_LISTEN_ADDRESS", "")

	m := New()
	assert.False(t, m.Connected())
	assert.Contains(t, m.Status(), "not connected")
	assert.Error(t, m.Connect(""))

	_, err := m.Push(nil)
	assert.ErrorIs(t, err, ErrNotConnected)
	assert.ErrorIs(t, m.Clear(), ErrNotConnected)
}

func TestSocketFromEnv(t *testing.T) {
	t.Setenv("NVIM_LISTEN_ADDRESS", "/tmp/listen.sock")
	t.Setenv("NVIM", "")
	assert.Equal(t, "/tmp/listen.sock", SocketFromEnv())

	t.Setenv("NVIM", "/tmp/nvim.sock")
	assert.Equal(t, "/tmp/nvim.sock", SocketFromEnv())
}

func TestEscapePath(t *testing.T) {
	assert.Equal(t, `/tmp/my\ file\#1`, escapePath("/tmp/my file#1"))
}
