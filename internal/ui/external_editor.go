package ui

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/pstuifzand/zcode/internal/config"
)

// PromptFrontmatter is the TOML block at the top of a prompt edited in
// $EDITOR. Changing it switches provider or model for the prompt.
type PromptFrontmatter struct {
	Provider string `toml:"provider"`
	Model    string `toml:"model"`
}

const frontmatterDelim = "+++\n"

// ResolveEditor determines which editor to use: editor.command, then
// $VISUAL, then $EDITOR, then vi
func ResolveEditor(cfg *config.Config) string {
	if cfg != nil && cfg.Editor.Command != "" {
		return cfg.Editor.Command
	}
	for _, env := range []string{"VISUAL", "EDITOR"} {
		if editor := os.Getenv(env); editor != "" {
			return editor
		}
	}
	return "vi"
}

// runEditor runs the editor through sh so commands with flags like
// "vim --clean" work. The terminal must be released by the caller.
func runEditor(cfg *config.Config, args ...string) error {
	quoted := make([]string, len(args))
	for i, a := range args {
		quoted[i] = shellQuote(a)
	}
	cmd := exec.Command("sh", "-c", ResolveEditor(cfg)+" "+strings.Join(quoted, " "))
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		// a non-zero exit still leaves the file to read back
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return fmt.Errorf("failed to launch editor: %w", err)
		}
	}
	return nil
}

func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

// EditPromptInExternalEditor opens prompt with its frontmatter in the
// editor and returns the edited prompt and frontmatter. An unchanged or
// emptied file returns the input unchanged.
func EditPromptInExternalEditor(prompt string, fm PromptFrontmatter, cfg *config.Config) (string, PromptFrontmatter, error) {
	tmpFile, err := os.CreateTemp("", "zcode-prompt-*.md")
	if err != nil {
		return prompt, fm, fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer os.Remove(tmpPath)

	original, err := serializePrompt(prompt, fm)
	if err != nil {
		tmpFile.Close()
		return prompt, fm, fmt.Errorf("failed to serialize prompt: %w", err)
	}
	if _, err := tmpFile.Write(original); err != nil {
		tmpFile.Close()
		return prompt, fm, fmt.Errorf("failed to write temp file: %w", err)
	}
	tmpFile.Close()

	if err := runEditor(cfg, tmpPath); err != nil {
		return prompt, fm, err
	}

	edited, err := os.ReadFile(tmpPath)
	if err != nil {
		return prompt, fm, fmt.Errorf("failed to read edited file: %w", err)
	}
	if bytes.Equal(original, edited) || len(bytes.TrimSpace(edited)) == 0 {
		return prompt, fm, nil
	}

	text, newFM, err := deserializePrompt(edited)
	if err != nil {
		return prompt, fm, fmt.Errorf("failed to parse edited prompt: %w (keeping original)", err)
	}
	return text, newFM, nil
}

func serializePrompt(prompt string, fm PromptFrontmatter) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(frontmatterDelim)
	if err := toml.NewEncoder(&buf).Encode(fm); err != nil {
		return nil, err
	}
	buf.WriteString(frontmatterDelim)
	buf.WriteString(prompt)
	return buf.Bytes(), nil
}

// deserializePrompt splits an edited file into frontmatter and prompt. A
// file without frontmatter is all prompt.
func deserializePrompt(content []byte) (string, PromptFrontmatter, error) {
	var fm PromptFrontmatter
	s := string(content)

	rest, ok := strings.CutPrefix(s, frontmatterDelim)
	if !ok {
		return strings.TrimSpace(s), fm, nil
	}
	head, body, ok := strings.Cut(rest, frontmatterDelim)
	if !ok {
		return strings.TrimSpace(s), fm, nil
	}
	if err := toml.Unmarshal([]byte(head), &fm); err != nil {
		return "", fm, err
	}
	return strings.TrimSpace(body), fm, nil
}

// OpenFileAtLine opens path in the editor with the cursor on line, using
// the +N convention understood by vi, vim, nano and emacs
func OpenFileAtLine(path string, line int, cfg *config.Config) error {
	if line > 0 {
		return runEditor(cfg, "+"+strconv.Itoa(line), path)
	}
	return runEditor(cfg, path)
}
