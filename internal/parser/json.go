package parser

import (
	"encoding/json"
	"fmt"
	"regexp"

	"github.com/pstuifzand/zcode/internal/model"
)

// claudeResponse is the --output-format json document of the claude CLI
type claudeResponse struct {
	Type      string `json:"type"`
	Result    string `json:"result"`
	SessionID string `json:"session_id"`
	IsError   bool   `json:"is_error"`
}

// editingHint matches the sentence the assistant writes before a file, such
// as "Editing `src/main.go`:"
var editingHint = regexp.MustCompile("(?i)(?:editing|creating|updating|writing|file:?)\\s+`([^`\\n]+)`")

// SessionIDFromClaude extracts the session id from claude JSON output
func SessionIDFromClaude(stdout []byte) string {
	var resp claudeResponse
	if err := json.Unmarshal(stdout, &resp); err != nil {
		return ""
	}
	return resp.SessionID
}

func (p *Parser) parseClaudeJSON(stdout []byte) ([]model.FileChange, string, error) {
	var resp claudeResponse
	if err := json.Unmarshal(stdout, &resp); err != nil {
		return nil, "", fmt.Errorf("invalid claude response: %w", err)
	}
	if resp.IsError {
		return nil, resp.SessionID, fmt.Errorf("claude reported an error: %s", resp.Result)
	}

	blocks, err := ExtractCodeBlocks([]byte(resp.Result))
	if err != nil {
		return nil, resp.SessionID, err
	}

	var changes []model.FileChange
	for _, b := range blocks {
		var path, content string
		if m := editingHint.FindStringSubmatch(b.Hint); m != nil {
			path, content = m[1], b.Content
			// a marker line repeating the path is not part of the file
			if markerPath, rest, ok := PathFromMarker(content); ok && markerPath == path {
				content = rest
			}
		} else if markerPath, rest, ok := PathFromMarker(b.Content); ok {
			path, content = markerPath, rest
		} else if path = PathFromInfo(b.Info); path != "" {
			content = b.Content
		} else {
			continue
		}

		fc, err := p.fullContentChange(path, content)
		if err != nil {
			return nil, resp.SessionID, err
		}
		changes = append(changes, fc)
	}
	return changes, resp.SessionID, nil
}

type jsonChange struct {
	Path    string `json:"path"`
	Content string `json:"content"`
	Delete  bool   `json:"delete,omitempty"`
}

// parseJSONChanges accepts [{path, content}] or {"changes": [...]}
func (p *Parser) parseJSONChanges(stdout []byte) ([]model.FileChange, error) {
	var list []jsonChange
	if err := json.Unmarshal(stdout, &list); err != nil {
		var wrapped struct {
			Changes []jsonChange `json:"changes"`
		}
		if err2 := json.Unmarshal(stdout, &wrapped); err2 != nil {
			return nil, fmt.Errorf("invalid JSON changes: %w", err)
		}
		list = wrapped.Changes
	}

	var changes []model.FileChange
	for _, c := range list {
		if c.Path == "" {
			continue
		}
		fc, err := p.fullContentChange(c.Path, c.Content)
		if err != nil {
			return nil, err
		}
		if c.Delete {
			if fc.Type == model.ChangeCreate {
				continue
			}
			fc.Type = model.ChangeDelete
			fc.ProposedContent = ""
		}
		changes = append(changes, fc)
	}
	return changes, nil
}
