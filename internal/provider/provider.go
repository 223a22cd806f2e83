// Package provider describes the AI command line tools zcode can drive
package provider

import (
	"fmt"
	"strings"

	"github.com/pstuifzand/zcode/internal/config"
	"github.com/pstuifzand/zcode/internal/parser"
)

// PromptRequest is what the user asked for
type PromptRequest struct {
	Prompt       string
	ContextFiles []string
	SessionID    string
	// Model overrides the provider's default model, if it has one
	Model string
}

// Provider is the capability record of one CLI tool
type Provider struct {
	// Key is the registry and config key, e.g. "claude"
	Key  string
	Name string
	// Binary is the executable, possibly overridden by providers.<key>.path
	Binary string
	// VersionArgs are passed to Binary, followed by --version, to detect it
	VersionArgs []string
	Parser      parser.Kind
	// Pattern is used by the regex parser
	Pattern          string
	SupportsSessions bool
	InstallURL       string

	buildArgs func(req PromptRequest) []string
	sessionID func(stdout []byte) string
}

// BuildArgs returns the command line arguments for req
func (p *Provider) BuildArgs(req PromptRequest) []string {
	return p.buildArgs(req)
}

// ExtractSessionID returns the session id in stdout, or "" when the
// provider has no sessions
func (p *Provider) ExtractSessionID(stdout []byte) string {
	if !p.SupportsSessions || p.sessionID == nil {
		return ""
	}
	return p.sessionID(stdout)
}

// NewParser returns the output parser for this provider rooted at dir
func (p *Provider) NewParser(dir string) *parser.Parser {
	ps := parser.New(p.Parser, dir)
	ps.Pattern = p.Pattern
	return ps
}

func claude() *Provider {
	return &Provider{
		Key:              "claude",
		Name:             "Claude Code",
		Binary:           "claude",
		Parser:           parser.ClaudeJSON,
		SupportsSessions: true,
		InstallURL:       "https://docs.anthropic.com/en/docs/claude-code",
		buildArgs: func(req PromptRequest) []string {
			args := []string{"-p", req.Prompt, "--output-format", "json", "--allowedTools", "Read,Edit,Write"}
			if req.Model != "" {
				args = append(args, "--model", req.Model)
			}
			if req.SessionID != "" {
				args = append(args, "--resume", req.SessionID)
			}
			return args
		},
		sessionID: parser.SessionIDFromClaude,
	}
}

func aider() *Provider {
	return &Provider{
		Key:        "aider",
		Name:       "Aider",
		Binary:     "aider",
		Parser:     parser.UnifiedDiff,
		InstallURL: "https://aider.chat/docs/install.html",
		buildArgs: func(req PromptRequest) []string {
			model := req.Model
			if model == "" {
				model = "gpt-4"
			}
			args := []string{"--model", model, "--edit-format", "diff", "--yes", "--no-git", "--message", req.Prompt}
			return append(args, req.ContextFiles...)
		},
	}
}

func copilot() *Provider {
	return &Provider{
		Key:         "copilot",
		Name:        "GitHub Copilot CLI",
		Binary:      "gh",
		VersionArgs: []string{"copilot"},
		Parser:      parser.CodeBlocks,
		InstallURL:  "https://docs.github.com/en/copilot/github-copilot-in-the-cli",
		buildArgs: func(req PromptRequest) []string {
			return []string{"copilot", "suggest", "-t", "shell", req.Prompt}
		},
	}
}

func kiro() *Provider {
	return &Provider{
		Key:        "q",
		Name:       "Amazon Q Developer",
		Binary:     "q",
		Parser:     parser.CodeBlocks,
		InstallURL: "https://aws.amazon.com/q/developer/",
		buildArgs: func(req PromptRequest) []string {
			return []string{"chat", "--no-interactive", req.Prompt}
		},
	}
}

// Custom synthesizes a provider from a [providers.<key>] table. Args are
// passed before the prompt; a "{prompt}" argument is replaced instead.
func Custom(key string, pc config.ProviderConfig) (*Provider, error) {
	if pc.Path == "" {
		return nil, fmt.Errorf("custom provider %q needs a path", key)
	}
	kind, err := parser.ParseKind(pc.Parser)
	if err != nil {
		return nil, fmt.Errorf("custom provider %q: %w", key, err)
	}
	if kind == parser.Regex && pc.Pattern == "" {
		return nil, fmt.Errorf("custom provider %q: regex parser needs a pattern", key)
	}

	name := pc.Name
	if name == "" {
		name = key
	}
	template := append([]string(nil), pc.Args...)

	return &Provider{
		Key:     key,
		Name:    name,
		Binary:  pc.Path,
		Parser:  kind,
		Pattern: pc.Pattern,
		buildArgs: func(req PromptRequest) []string {
			args := make([]string, 0, len(template)+1)
			substituted := false
			for _, a := range template {
				if strings.Contains(a, "{prompt}") {
					a = strings.ReplaceAll(a, "{prompt}", req.Prompt)
					substituted = true
				}
				args = append(args, a)
			}
			if !substituted {
				args = append(args, req.Prompt)
			}
			return args
		},
	}, nil
}
