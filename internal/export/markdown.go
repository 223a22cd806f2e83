// Package export writes the conversation of a session to a markdown file
package export

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ncruces/go-strftime"

	"github.com/pstuifzand/zcode/internal/model"
)

// DefaultPattern is the strftime pattern for export file names
const DefaultPattern = "zcode-%Y%m%d-%H%M%S.md"

// Transcript is what gets exported
type Transcript struct {
	Provider string
	Model    string
	Chat     *model.ChatHistory
	// Hunks still under review are appended as diff blocks
	Hunks []model.Hunk
}

// FileName expands pattern with the time t. An empty pattern uses
// DefaultPattern.
func FileName(pattern string, t time.Time) string {
	if pattern == "" {
		pattern = DefaultPattern
	}
	return strftime.Format(pattern, t)
}

// ExportToMarkdown writes tr to filePath, creating parent directories
func ExportToMarkdown(tr Transcript, filePath string) error {
	if dir := filepath.Dir(filePath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	if err := os.WriteFile(filePath, []byte(Markdown(tr)), 0o644); err != nil {
		return fmt.Errorf("failed to write markdown file: %w", err)
	}
	return nil
}

// Markdown renders tr
func Markdown(tr Transcript) string {
	var sb strings.Builder

	sb.WriteString("# zcode session\n\n")
	if tr.Provider != "" {
		sb.WriteString("- Provider: " + tr.Provider + "\n")
	}
	if tr.Model != "" {
		sb.WriteString("- Model: " + tr.Model + "\n")
	}
	if tr.Chat != nil {
		for _, m := range tr.Chat.Messages {
			writeMessage(&sb, m)
		}
	}

	if len(tr.Hunks) > 0 {
		sb.WriteString("\n## Proposed changes\n")
		file := ""
		for _, h := range tr.Hunks {
			if h.FilePath != file {
				file = h.FilePath
				sb.WriteString("\n### " + file + "\n")
			}
			sb.WriteString("\n```diff\n")
			sb.WriteString(h.Text())
			sb.WriteString("```\n")
			sb.WriteString("\nStatus: " + h.Status.String() + "\n")
		}
	}
	return sb.String()
}

func writeMessage(sb *strings.Builder, m model.Message) {
	fmt.Fprintf(sb, "\n## %s (%s)\n\n", heading(m.Role), m.Timestamp.Format("2006-01-02 15:04:05"))
	content := strings.TrimRight(m.Content, "\n")
	if m.Status == model.MessageError {
		content = "> " + strings.ReplaceAll(content, "\n", "\n> ")
	}
	sb.WriteString(content)
	sb.WriteString("\n")
}

func heading(r model.Role) string {
	switch r {
	case model.RoleUser:
		return "Prompt"
	case model.RoleAssistant:
		return "Response"
	}
	return "Note"
}
