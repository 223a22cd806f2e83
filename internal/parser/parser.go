// Package parser turns provider output into proposed file changes
package parser

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pstuifzand/zcode/internal/model"
)

// Kind selects how provider output is interpreted
type Kind string

const (
	UnifiedDiff Kind = "unified_diff"
	CodeBlocks  Kind = "code_blocks"
	ClaudeJSON  Kind = "claude_json"
	JSON        Kind = "json"
	Regex       Kind = "regex"
)

// ErrParseFailed means the output did not contain any usable change
var ErrParseFailed = errors.New("provider output contained no file changes")

// ParseKind validates a parser name from the configuration
func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.TrimSpace(s)); k {
	case UnifiedDiff, CodeBlocks, ClaudeJSON, JSON, Regex:
		return k, nil
	case "":
		return CodeBlocks, nil
	default:
		return "", fmt.Errorf("unknown parser %q (expected unified_diff, code_blocks, claude_json, json or regex)", s)
	}
}

// Parser converts the stdout of a provider into file changes. Relative
// paths are resolved against Root.
type Parser struct {
	Kind Kind
	Root string
	// Pattern is the regular expression for the regex kind. Group 1 is the
	// path and group 2 the content.
	Pattern string
}

// New creates a parser of kind rooted at root
func New(kind Kind, root string) *Parser {
	return &Parser{Kind: kind, Root: root}
}

// Parse interprets stdout. Empty output or output without any change
// yields an error wrapping ErrParseFailed.
func (p *Parser) Parse(stdout []byte) ([]model.FileChange, error) {
	if strings.TrimSpace(string(stdout)) == "" {
		return nil, fmt.Errorf("%w: empty output", ErrParseFailed)
	}

	var (
		changes []model.FileChange
		err     error
	)
	switch p.Kind {
	case UnifiedDiff:
		changes, err = p.parseUnifiedDiff(string(stdout))
	case CodeBlocks, "":
		changes, err = p.parseCodeBlocks(stdout)
	case ClaudeJSON:
		changes, _, err = p.parseClaudeJSON(stdout)
	case JSON:
		changes, err = p.parseJSONChanges(stdout)
	case Regex:
		changes, err = p.parseRegex(string(stdout))
	default:
		return nil, fmt.Errorf("unknown parser %q", p.Kind)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParseFailed, err)
	}
	if len(changes) == 0 {
		return nil, ErrParseFailed
	}
	return changes, nil
}

// resolve makes path absolute relative to Root
func (p *Parser) resolve(path string) string {
	path = strings.TrimSpace(path)
	if p.Root == "" || filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(p.Root, path)
}

// readFile returns the current content of path and whether it exists
func readFile(path string) (string, bool, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return string(data), true, nil
}

// fullContentChange builds a change for a provider that returned the
// complete new content of a file
func (p *Parser) fullContentChange(path, content string) (model.FileChange, error) {
	resolved := p.resolve(path)
	current, exists, err := readFile(resolved)
	if err != nil {
		return model.FileChange{}, err
	}

	fc := model.FileChange{Path: resolved, ProposedContent: content}
	if exists {
		fc.Type = model.ChangeModify
		fc.OriginalContent = &current
	} else {
		fc.Type = model.ChangeCreate
	}
	return fc, nil
}
