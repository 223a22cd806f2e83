package ui

import (
	"github.com/gdamore/tcell/v2"

	"github.com/pstuifzand/zcode/internal/model"
)

// maxAssistantLines caps how much of a reply the chat panel shows
const maxAssistantLines = 12

// ChatPanel shows the conversation of the session
type ChatPanel struct {
	visible bool
}

// NewChatPanel creates a visible panel
func NewChatPanel() *ChatPanel {
	return &ChatPanel{visible: true}
}

// Toggle shows or hides the panel
func (c *ChatPanel) Toggle() {
	c.visible = !c.visible
}

// IsVisible returns whether the panel is shown
func (c *ChatPanel) IsVisible() bool {
	return c.visible
}

type chatLine struct {
	text  string
	style tcell.Style
}

func (c *ChatPanel) lines(screen *Screen, chat *model.ChatHistory, width int) []chatLine {
	var out []chatLine
	for _, m := range chat.Messages {
		var (
			label string
			style tcell.Style
		)
		switch m.Role {
		case model.RoleUser:
			label, style = "you", screen.UserMessageStyle()
		case model.RoleAssistant:
			label, style = "assistant", screen.AssistantMessageStyle()
		default:
			label, style = "zcode", screen.SystemMessageStyle()
		}
		switch m.Status {
		case model.MessagePending:
			label += " (waiting)"
		case model.MessageError:
			style = screen.ErrorStyle()
		}

		out = append(out, chatLine{m.Timestamp.Format("15:04") + " " + label + ":", style.Bold(true)})
		body := Wrap(m.Content, width-2)
		if m.Role == model.RoleAssistant && len(body) > maxAssistantLines {
			body = append(body[:maxAssistantLines:maxAssistantLines], "...")
		}
		for _, l := range body {
			out = append(out, chatLine{"  " + l, style.Bold(false)})
		}
		out = append(out, chatLine{})
	}
	return out
}

// Render draws the newest messages that fit in the box
func (c *ChatPanel) Render(screen *Screen, chat *model.ChatHistory, x, y, width, height int) {
	if !c.visible || width < 10 || height < 3 {
		return
	}
	drawBox(screen, x, y, width, height, screen.BorderStyle())
	screen.DrawString(x+2, y, " Chat ", screen.TitleStyle())

	lines := c.lines(screen, chat, width-2)
	rows := height - 2
	if len(lines) > rows {
		lines = lines[len(lines)-rows:]
	}
	for i, l := range lines {
		screen.DrawStringLimited(x+1, y+1+i, l.text, width-2, l.style)
	}
}
