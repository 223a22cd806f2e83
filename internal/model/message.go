package model

import "time"

// Role identifies who wrote a chat message
type Role int

const (
	RoleUser Role = iota
	RoleAssistant
	RoleSystem
)

func (r Role) String() string {
	switch r {
	case RoleAssistant:
		return "assistant"
	case RoleSystem:
		return "system"
	default:
		return "user"
	}
}

// MessageStatus tracks whether an assistant reply has arrived
type MessageStatus int

const (
	MessagePending MessageStatus = iota
	MessageSuccess
	MessageError
)

// Message is one entry of the chat panel
type Message struct {
	Role      Role
	Content   string
	Status    MessageStatus
	Timestamp time.Time
}

// ChatHistory is the ordered list of messages of the current session
type ChatHistory struct {
	Messages []Message
}

// Add appends a message stamped with the current time
func (h *ChatHistory) Add(role Role, content string, status MessageStatus) {
	h.Messages = append(h.Messages, Message{
		Role:      role,
		Content:   content,
		Status:    status,
		Timestamp: time.Now(),
	})
}

// Last returns the most recent message, if any
func (h *ChatHistory) Last() (Message, bool) {
	if len(h.Messages) == 0 {
		return Message{}, false
	}
	return h.Messages[len(h.Messages)-1], true
}

// Clear removes all messages
func (h *ChatHistory) Clear() {
	h.Messages = nil
}
