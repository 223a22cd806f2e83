package parser

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pstuifzand/zcode/internal/model"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestParseKind(t *testing.T) {
	tests := []struct {
		in      string
		want    Kind
		wantErr bool
	}{
		{"", CodeBlocks, false},
		{"unified_diff", UnifiedDiff, false},
		{" claude_json ", ClaudeJSON, false},
		{"regex", Regex, false},
		{"yaml", "", true},
	}
	for _, tt := range tests {
		got, err := ParseKind(tt.in)
		if tt.wantErr {
			assert.Error(t, err, "input %q", tt.in)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
}

func TestEmptyOutputFails(t *testing.T) {
	p := New(CodeBlocks, t.TempDir())
	_, err := p.Parse([]byte("  \n"))
	assert.ErrorIs(t, err, ErrParseFailed)

	_, err = p.Parse([]byte("Sure, nothing to change here."))
	assert.ErrorIs(t, err, ErrParseFailed)
}

func TestPathFromMarker(t *testing.T) {
	tests := []struct {
		content string
		path    string
		ok      bool
	}{
		{"// file: src/main.go\npackage main\n", "src/main.go", true},
		{"# path: app.py\nprint(1)\n", "app.py", true},
		{"<!-- index.html -->\n<html>\n", "index.html", true},
		{"// main.go\npackage main\n", "main.go", true},
		{"// TODO\nx := 1\n", "", false},
		{"package main\n", "", false},
	}
	for _, tt := range tests {
		path, _, ok := PathFromMarker(tt.content)
		assert.Equal(t, tt.ok, ok, "content %q", tt.content)
		assert.Equal(t, tt.path, path, "content %q", tt.content)
	}
}

func TestPathFromInfo(t *testing.T) {
	assert.Equal(t, "main.go", PathFromInfo("go title=main.go"))
	assert.Equal(t, "a/b.txt", PathFromInfo(`text path="a/b.txt"`))
	assert.Equal(t, "", PathFromInfo("go"))
}

func TestCodeBlocks(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "main.go", "package main\n")

	out := "Here is the change:\n\n```go\n// file: main.go\npackage main\n\nfunc main() {}\n```\n\n" +
		"And a new file:\n\n```text path=notes.txt\nhello\n```\n\n```sh\necho unrelated\n```\n"

	changes, err := New(CodeBlocks, dir).Parse([]byte(out))
	require.NoError(t, err)
	require.Len(t, changes, 2)

	assert.Equal(t, filepath.Join(dir, "main.go"), changes[0].Path)
	assert.Equal(t, model.ChangeModify, changes[0].Type)
	assert.Equal(t, "package main\n", changes[0].Original())
	assert.Equal(t, "package main\n\nfunc main() {}\n", changes[0].ProposedContent)

	assert.Equal(t, filepath.Join(dir, "notes.txt"), changes[1].Path)
	assert.Equal(t, model.ChangeCreate, changes[1].Type)
	assert.Nil(t, changes[1].OriginalContent)
	assert.Equal(t, "hello\n", changes[1].ProposedContent)
}

func TestUnifiedDiffModify(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "f.txt", "a\nb\nc\nd\ne\n")

	out := "```diff\n--- a/f.txt\n+++ b/f.txt\n@@ -1,3 +1,3 @@\n a\n-b\n+B\n c\n@@ -4,2 +4,3 @@\n d\n e\n+f\n```\n"
	changes, err := New(UnifiedDiff, dir).Parse([]byte(out))
	require.NoError(t, err)
	require.Len(t, changes, 1)
	assert.Equal(t, model.ChangeModify, changes[0].Type)
	assert.Equal(t, "a\nB\nc\nd\ne\nf\n", changes[0].ProposedContent)
}

func TestUnifiedDiffWrongLineNumbers(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "f.txt", "one\ntwo\nthree\nfour\n")

	out := "--- f.txt\n+++ f.txt\n@@ -1,2 +1,2 @@\n three\n-four\n+FOUR\n"
	changes, err := New(UnifiedDiff, dir).Parse([]byte(out))
	require.NoError(t, err)
	assert.Equal(t, "one\ntwo\nthree\nFOUR\n", changes[0].ProposedContent)
}

func TestUnifiedDiffCreateAndDelete(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "old.txt", "bye\n")

	out := "diff --git a/new.txt b/new.txt\n--- /dev/null\n+++ b/new.txt\n@@ -0,0 +1,2 @@\n+hello\n+world\n" +
		"diff --git a/old.txt b/old.txt\n--- a/old.txt\n+++ /dev/null\n@@ -1 +0,0 @@\n-bye\n"
	changes, err := New(UnifiedDiff, dir).Parse([]byte(out))
	require.NoError(t, err)
	require.Len(t, changes, 2)

	assert.Equal(t, model.ChangeCreate, changes[0].Type)
	assert.Equal(t, "hello\nworld\n", changes[0].ProposedContent)

	assert.Equal(t, model.ChangeDelete, changes[1].Type)
	assert.Equal(t, "bye\n", changes[1].Original())
	assert.Equal(t, "", changes[1].ProposedContent)
}

func TestUnifiedDiffDoesNotApply(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "f.txt", "a\nb\n")

	out := "--- a/f.txt\n+++ b/f.txt\n@@ -1,1 +1,1 @@\n-zzz\n+yyy\n"
	_, err := New(UnifiedDiff, dir).Parse([]byte(out))
	assert.ErrorIs(t, err, ErrParseFailed)
}

func TestClaudeJSON(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "src/app.go", "package app\n")

	out := `{"type":"result","session_id":"abc-123","result":"Editing ` + "`src/app.go`" +
		`:\n\n` + "```go\\npackage app\\n\\nvar X = 1\\n```" + `\n"}`

	p := New(ClaudeJSON, dir)
	changes, session, err := p.parseClaudeJSON([]byte(out))
	require.NoError(t, err)
	assert.Equal(t, "abc-123", session)
	assert.Equal(t, "abc-123", SessionIDFromClaude([]byte(out)))
	require.Len(t, changes, 1)
	assert.Equal(t, filepath.Join(dir, "src/app.go"), changes[0].Path)
	assert.Equal(t, "package app\n\nvar X = 1\n", changes[0].ProposedContent)
}

func TestClaudeJSONError(t *testing.T) {
	_, err := New(ClaudeJSON, t.TempDir()).Parse([]byte(`{"is_error":true,"result":"rate limited"}`))
	assert.ErrorIs(t, err, ErrParseFailed)
	assert.Contains(t, err.Error(), "rate limited")
}

func TestJSONChanges(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "gone.txt", "x\n")

	for _, out := range []string{
		`[{"path":"a.txt","content":"A\n"},{"path":"gone.txt","delete":true}]`,
		`{"changes":[{"path":"a.txt","content":"A\n"},{"path":"gone.txt","delete":true}]}`,
	} {
		changes, err := New(JSON, dir).Parse([]byte(out))
		require.NoError(t, err)
		require.Len(t, changes, 2)
		assert.Equal(t, model.ChangeCreate, changes[0].Type)
		assert.Equal(t, model.ChangeDelete, changes[1].Type)
	}
}

func TestRegex(t *testing.T) {
	dir := t.TempDir()
	p := New(Regex, dir)
	p.Pattern = `(?s)<<<(\S+)\n(.*?)>>>`

	changes, err := p.Parse([]byte("<<<a.txt\nfirst\n>>>\n<<<b.txt\nsecond\n>>>"))
	require.NoError(t, err)
	require.Len(t, changes, 2)
	assert.Equal(t, "first\n", changes[0].ProposedContent)
	assert.Equal(t, filepath.Join(dir, "b.txt"), changes[1].Path)

	p.Pattern = `(\S+)`
	_, err = p.Parse([]byte("x"))
	assert.ErrorIs(t, err, ErrParseFailed)
}
