package ui

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pstuifzand/zcode/internal/config"
)

func TestPromptFrontmatterRoundTrip(t *testing.T) {
	data, err := serializePrompt("fix the bug\nin main.go", PromptFrontmatter{Provider: "claude", Model: "opus"})
	require.NoError(t, err)

	text, fm, err := deserializePrompt(data)
	require.NoError(t, err)
	assert.Equal(t, "fix the bug\nin main.go", text)
	assert.Equal(t, PromptFrontmatter{Provider: "claude", Model: "opus"}, fm)
}

func TestDeserializePromptWithoutFrontmatter(t *testing.T) {
	text, fm, err := deserializePrompt([]byte("  just a prompt\n"))
	require.NoError(t, err)
	assert.Equal(t, "just a prompt", text)
	assert.Empty(t, fm.Provider)

	_, _, err = deserializePrompt([]byte("+++\nprovider = \n+++\nbody"))
	assert.Error(t, err)
}

func TestResolveEditor(t *testing.T) {
	t.Setenv("VISUAL", "")
	t.Setenv("EDITOR", "nano")
	assert.Equal(t, "nano", ResolveEditor(config.Default()))

	cfg := config.Default()
	cfg.Editor.Command = "vim --clean"
	assert.Equal(t, "vim --clean", ResolveEditor(cfg))

	t.Setenv("EDITOR", "")
	assert.Equal(t, "vi", ResolveEditor(nil))
}

func TestEditPromptInExternalEditor(t *testing.T) {
	dir := t.TempDir()
	script := filepath.Join(dir, "ed.sh")
	// replaces the file with a new frontmatter and prompt
	require.NoError(t, os.WriteFile(script, []byte("#!/bin/sh\nprintf '+++\\nmodel = \"sonnet\"\\n+++\\nrewritten\\n' > \"$1\"\n"), 0o755))

	cfg := config.Default()
	cfg.Editor.Command = script
	text, fm, err := EditPromptInExternalEditor("old", PromptFrontmatter{Provider: "claude"}, cfg)
	require.NoError(t, err)
	assert.Equal(t, "rewritten", text)
	assert.Equal(t, "sonnet", fm.Model)
	assert.Empty(t, fm.Provider)

	cfg.Editor.Command = "true"
	text, fm, err = EditPromptInExternalEditor("keep", PromptFrontmatter{Model: "m"}, cfg)
	require.NoError(t, err)
	assert.Equal(t, "keep", text)
	assert.Equal(t, "m", fm.Model)
}

func TestShellQuote(t *testing.T) {
	assert.Equal(t, `'a b'`, shellQuote("a b"))
	assert.Equal(t, `'it'\''s'`, shellQuote("it's"))
}
