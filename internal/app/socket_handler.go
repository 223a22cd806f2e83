package app

import (
	"log"

	"github.com/pstuifzand/zcode/internal/socket"
	"github.com/pstuifzand/zcode/internal/state"
)

// handleSocketMessage processes messages received from the Unix socket and
// redraws, since a remote prompt changes the screen between ticks
func (a *App) handleSocketMessage(msg socket.Message) {
	log.Printf("Received socket message: command=%s, text=%q", msg.Command, msg.Text)
	defer a.render()

	switch msg.Command {
	case socket.CommandSubmitPrompt:
		a.handleSubmitPromptCommand(msg)
	case socket.CommandStatus:
		a.handleStatusCommand(msg)
	default:
		log.Printf("Unknown socket command: %s", msg.Command)
	}
}

// handleSubmitPromptCommand runs a prompt sent with zcode --send. It is
// only accepted while the user could have typed it.
func (a *App) handleSubmitPromptCommand(msg socket.Message) {
	s := a.state
	switch s.Mode {
	case state.ModePromptEntry:
	case state.ModeDiffReview:
		s.BackToPrompt()
	default:
		log.Printf("Ignoring remote prompt in mode %s", s.Mode)
		a.SetStatus("Remote prompt ignored: busy in " + s.Mode.String())
		return
	}
	if err := s.Submit(msg.Text); err != nil {
		log.Printf("Remote prompt failed: %v", err)
	}
}

// handleStatusCommand answers with the mode and review counts
func (a *App) handleStatusCommand(msg socket.Message) {
	s := a.state
	accepted, _, pending := s.Counts()
	st := &socket.Status{
		Mode:     s.Mode.String(),
		Pending:  pending,
		Accepted: accepted,
		Total:    len(s.Hunks),
	}
	if s.Provider != nil {
		st.Provider = s.Provider.Key
	}
	if msg.ResponseChan != nil {
		msg.ResponseChan <- &socket.Response{Success: true, Message: s.Status, Status: st}
	}
}
