package state

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/pstuifzand/zcode/internal/executor"
	"github.com/pstuifzand/zcode/internal/model"
	"github.com/pstuifzand/zcode/internal/provider"
	"github.com/pstuifzand/zcode/internal/tasks"
)

// PromptTaskID is the tracker id of the running prompt
const PromptTaskID = "prompt_execution"

const detectPrefix = "detect_"

// DetectProviders starts detection of the enabled providers. Providers
// with a configured path are trusted and become available at once.
func (s *State) DetectProviders() {
	var detect []*provider.Provider
	s.Available = nil
	for _, p := range s.Registry.Detectable(s.Config) {
		if s.Config.Provider(p.Key).Path != "" {
			s.Available = append(s.Available, p)
			continue
		}
		detect = append(detect, p)
	}
	s.StartDetection(detect)
}

// StartDetection spawns one detection task per candidate
func (s *State) StartDetection(candidates []*provider.Provider) {
	s.Detection = DetectionInProgress
	for _, p := range candidates {
		p := p // per-iteration copy for the spawned task (go 1.21 loop semantics)
		id := detectPrefix + p.Key
		if s.tracker.Has(id) {
			continue
		}
		err := s.tracker.Spawn(id, tasks.KindDetection, func(ctx context.Context) (*executor.Result, error) {
			return s.exec.DetectProvider(ctx, p.Binary, p.Key, p.Name, p.Key, p.VersionArgs...)
		})
		if err != nil {
			log.Printf("Failed to start detection of %s: %v", p.Key, err)
			continue
		}
		s.detecting[p.Key] = p
	}
	s.finishDetectionIfDone()
}

func (s *State) finishDetectionIfDone() {
	if len(s.detecting) > 0 || s.Detection != DetectionInProgress {
		return
	}
	s.Detection = DetectionCompleted
	log.Printf("Provider detection completed: %d available", len(s.Available))

	if s.Provider == nil && s.Config.General.DefaultProvider != "" {
		for i, p := range s.Available {
			if p.Key == s.Config.General.DefaultProvider {
				s.Selected = i
			}
		}
	}
}

// HandleCompletion feeds a finished task to the state machine. Detection
// results are always consumed; prompt results only while Processing.
func (s *State) HandleCompletion(c tasks.Completion) {
	switch c.Kind {
	case tasks.KindDetection:
		s.handleDetection(c)
	case tasks.KindPrompt:
		if s.Mode != ModeProcessing {
			log.Printf("Dropping result of %s outside Processing (mode %s)", c.ID, s.Mode)
			return
		}
		s.handlePromptResult(c)
	}
}

func (s *State) handleDetection(c tasks.Completion) {
	key := strings.TrimPrefix(c.ID, detectPrefix)
	if c.Result != nil {
		if id := c.Result.Context[executor.TagProviderID]; id != "" {
			key = id
		}
	}
	p, ok := s.detecting[key]
	if !ok {
		return
	}
	delete(s.detecting, key)

	switch {
	case c.Err != nil:
		if !executor.IsNotFound(c.Err) {
			log.Printf("Detection of %s failed: %v", key, c.Err)
		}
	case c.Result.Success():
		s.Available = append(s.Available, p)
		log.Printf("Detected provider %s (%s)", p.Name, p.Binary)
	default:
		log.Printf("Detection of %s exited with %v", key, c.Result.ExitCode)
	}
	s.finishDetectionIfDone()
}

// Submit starts a prompt with the active provider
func (s *State) Submit(prompt string) error {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		s.ShowError("Empty Prompt", "Type a prompt before submitting", "")
		return fmt.Errorf("empty prompt")
	}
	if s.Provider == nil {
		s.ShowError("No Provider", "Please select a provider first", "")
		return fmt.Errorf("no provider selected")
	}
	if s.tracker.Has(PromptTaskID) {
		return fmt.Errorf("a prompt is already running")
	}

	req := provider.PromptRequest{Prompt: prompt, Model: s.Model}
	if s.sessions != nil {
		if s.sessions.Current() == nil {
			s.sessions.StartSession(s.Provider.Key, s.Root)
		}
		if s.Provider.SupportsSessions {
			req.SessionID = s.sessions.ProviderSessionID(s.Provider.Key)
		}
		s.sessions.UpdateSession(summarize(prompt))
	}
	for path := range s.Pending {
		req.ContextFiles = append(req.ContextFiles, path)
	}

	p := s.Provider
	args := p.BuildArgs(req)
	err := s.tracker.Spawn(PromptTaskID, tasks.KindPrompt, func(ctx context.Context) (*executor.Result, error) {
		return s.exec.RunPrompt(ctx, p.Binary, args, p.Name)
	})
	if err != nil {
		s.ShowError("Execution Failed", err.Error(), "")
		return err
	}

	s.LastPrompt = prompt
	s.Chat.Add(model.RoleUser, prompt, model.MessagePending)
	s.Status = "Processing prompt with " + p.Name + "..."
	s.setMode(ModeProcessing)
	return nil
}

// summarize shortens a prompt for the session description
func summarize(prompt string) string {
	line, _, _ := strings.Cut(prompt, "\n")
	if r := []rune(line); len(r) > 60 {
		return string(r[:57]) + "..."
	}
	return line
}

// CancelPrompt stops the running prompt. The child process is killed and
// its result is never reported.
func (s *State) CancelPrompt() {
	if s.Mode != ModeProcessing {
		return
	}
	s.tracker.Cancel(PromptTaskID)
	s.markUserMessage(model.MessageError)
	s.Chat.Add(model.RoleSystem, "Prompt cancelled", model.MessageError)
	s.Status = "Cancelled"
	s.setMode(ModePromptEntry)
}

// markUserMessage sets the status of the last pending user message
func (s *State) markUserMessage(status model.MessageStatus) {
	for i := len(s.Chat.Messages) - 1; i >= 0; i-- {
		m := &s.Chat.Messages[i]
		if m.Role == model.RoleUser && m.Status == model.MessagePending {
			m.Status = status
			return
		}
	}
}

func (s *State) handlePromptResult(c tasks.Completion) {
	installURL := ""
	if s.Provider != nil {
		installURL = s.Provider.InstallURL
	}

	if c.Err != nil {
		s.markUserMessage(model.MessageError)
		s.Chat.Add(model.RoleAssistant, "Error: "+c.Err.Error(), model.MessageError)
		d := displayFor(c.Err, installURL)
		s.ShowError(d.Title, d.Message, d.HelpURL)
		return
	}

	res := c.Result
	if !res.Success() {
		exitErr := &ProviderExitError{Code: res.ExitCode, StderrTail: res.StderrTail(stderrTailLines)}
		s.markUserMessage(model.MessageError)
		s.Chat.Add(model.RoleAssistant, "Error: "+string(res.Stderr), model.MessageError)
		d := displayFor(exitErr, installURL)
		s.ShowError(d.Title, d.Message, d.HelpURL)
		return
	}

	s.markUserMessage(model.MessageSuccess)
	s.Chat.Add(model.RoleAssistant, string(res.Stdout), model.MessageSuccess)

	p := s.Provider
	if s.sessions != nil {
		s.sessions.SetProviderSessionID(p.ExtractSessionID(res.Stdout))
	}

	changes, err := p.NewParser(s.Root).Parse(res.Stdout)
	if err != nil {
		d := displayFor(err, "")
		s.ShowError(d.Title, d.Message, d.HelpURL)
		return
	}
	s.LoadChanges(changes)
}
