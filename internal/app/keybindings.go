package app

import (
	"fmt"
	"log"

	"github.com/gdamore/tcell/v2"

	"github.com/pstuifzand/zcode/internal/input"
	"github.com/pstuifzand/zcode/internal/model"
	"github.com/pstuifzand/zcode/internal/state"
	"github.com/pstuifzand/zcode/internal/ui"
)

// handleRawEvent processes raw input events
func (a *App) handleRawEvent(ev tcell.Event) {
	switch ev := ev.(type) {
	case *tcell.EventResize:
		a.screen.Sync()
	case *tcell.EventKey:
		a.handleKey(ev)
	}
}

// handleKey routes a key to the overlay or mode that owns it
func (a *App) handleKey(ev *tcell.EventKey) {
	if a.debugMode {
		a.statusBar.Debug = fmt.Sprintf("Key: %v Rune: %q Mod: %v", ev.Key(), ev.Rune(), ev.Modifiers())
	}

	if a.picker.IsVisible() {
		a.picker.HandleKeyEvent(ev)
		return
	}
	if a.search.IsActive() {
		if line, done := a.search.HandleKey(ev); done && line != "" {
			if err := a.state.Search(line); err != nil {
				a.SetStatus(err.Error())
			}
		}
		return
	}

	switch a.state.Mode {
	case state.ModeCommand:
		a.handleCommandKey(ev)
	case state.ModeHelp:
		a.handleHelpKey(ev)
	case state.ModeError:
		a.handleErrorKey(ev)
	case state.ModeConfirmation:
		a.handleConfirmKey(ev)
	case state.ModeProviderSelect:
		a.handleProviderKey(ev)
	case state.ModePromptEntry:
		a.handlePromptKey(ev)
	case state.ModeProcessing:
		a.handleProcessingKey(ev)
	case state.ModeDiffReview:
		a.handleReviewKey(ev)
	}
}

func (a *App) handleCommandKey(ev *tcell.EventKey) {
	line, done := a.command.HandleKey(ev)
	if !done {
		return
	}
	a.state.LeaveCommand()
	if line != "" {
		a.executeCommand(line)
	}
}

func (a *App) handleHelpKey(ev *tcell.EventKey) {
	switch {
	case ev.Key() == tcell.KeyEscape, ev.Rune() == '?', ev.Rune() == 'q':
		a.state.ToggleHelp()
	case ev.Key() == tcell.KeyCtrlC:
		a.Quit()
	default:
		a.help.HandleKey(ev)
	}
}

// handleErrorKey dismisses the error on any key except Ctrl-C
func (a *App) handleErrorKey(ev *tcell.EventKey) {
	if ev.Key() == tcell.KeyCtrlC {
		a.Quit()
		return
	}
	a.state.DismissError()
}

func (a *App) handleConfirmKey(ev *tcell.EventKey) {
	switch {
	case ev.Rune() == 'y', ev.Rune() == 'Y', ev.Key() == tcell.KeyEnter:
		a.state.Confirm(true)
	case ev.Rune() == 'n', ev.Rune() == 'N', ev.Key() == tcell.KeyEscape:
		a.state.Confirm(false)
	case ev.Key() == tcell.KeyCtrlC:
		a.Quit()
	}
}

// handleProviderKey feeds the provider list. Runes go to the filter, so
// the command line is only reachable with an empty filter.
func (a *App) handleProviderKey(ev *tcell.EventKey) {
	switch {
	case ev.Key() == tcell.KeyCtrlC:
		a.Quit()
		return
	case ev.Key() == tcell.KeyEscape && a.state.Provider != nil:
		a.state.BackToPrompt()
		return
	case ev.Rune() == ':' && a.providerList.Filter() == "":
		a.enterCommand()
		return
	case ev.Rune() == '?' && a.providerList.Filter() == "":
		a.state.ToggleHelp()
		return
	}

	if a.providerList.HandleKey(ev, a.state.Available) {
		idx, _ := a.providerList.Selected()
		if err := a.state.Select(idx); err != nil {
			a.SetStatus(err.Error())
		}
	}
}

func (a *App) handlePromptKey(ev *tcell.EventKey) {
	if ev.Key() == tcell.KeyCtrlC {
		a.Quit()
		return
	}
	if ev.Key() == tcell.KeyCtrlB {
		a.chat.Toggle()
		return
	}

	switch a.prompt.HandleKey(ev) {
	case ui.EditorSubmit:
		if err := a.state.Submit(a.prompt.Text()); err != nil {
			log.Printf("Prompt not submitted: %v", err)
			return
		}
		a.prompt.Submit()
	case ui.EditorCancel:
		if !a.state.ShowReview() {
			a.state.ChooseProvider()
		}
	case ui.EditorExternal:
		a.editPromptExternally()
	}
}

func (a *App) handleProcessingKey(ev *tcell.EventKey) {
	switch ev.Key() {
	case tcell.KeyEscape:
		a.state.CancelPrompt()
	case tcell.KeyCtrlB:
		a.chat.Toggle()
	case tcell.KeyCtrlC:
		a.Quit()
	}
}

func (a *App) handleReviewKey(ev *tcell.EventKey) {
	res := a.seq.Feed(input.ScopeDiffReview, input.Token(ev), a.now())
	if res.Status != input.Matched {
		return
	}
	a.runAction(res.Binding.Action)
}

func (a *App) enterCommand() {
	if a.state.EnterCommand() {
		a.command.Start()
	}
}

// runAction performs a review action
func (a *App) runAction(action input.Action) {
	s := a.state
	switch action {
	case input.ActionMoveDown, input.ActionNextHunk:
		s.MoveHunk(1)
	case input.ActionMoveUp, input.ActionPrevHunk:
		s.MoveHunk(-1)
	case input.ActionTop:
		s.MoveHunk(-len(s.Hunks))
	case input.ActionBottom:
		s.MoveHunk(len(s.Hunks))
	case input.ActionNextFile:
		s.MoveFile(1)
	case input.ActionPrevFile:
		s.MoveFile(-1)
	case input.ActionAcceptHunk:
		s.AcceptHunk()
	case input.ActionRejectHunk:
		s.RejectHunk()
	case input.ActionToggleHunk:
		s.ToggleHunk()
	case input.ActionAcceptAll:
		s.SetAll(model.HunkAccepted)
		a.SetStatus(fmt.Sprintf("Accepted all %d hunks", len(s.Hunks)))
	case input.ActionRejectAll:
		s.SetAll(model.HunkRejected)
		a.SetStatus(fmt.Sprintf("Rejected all %d hunks", len(s.Hunks)))
	case input.ActionApply:
		s.RequestApply()
	case input.ActionSearch:
		a.search.Start()
	case input.ActionCommand:
		a.enterCommand()
	case input.ActionHelp:
		s.ToggleHelp()
	case input.ActionQuit:
		a.Quit()
	case input.ActionToggleChat:
		a.chat.Toggle()
	case input.ActionLineNumbers:
		a.review.ToggleLineNumbers()
	case input.ActionBackToPrompt:
		s.BackToPrompt()
	case input.ActionOpenEditor:
		a.openHunkInEditor()
	case input.ActionPushNeovim:
		a.pushToNeovim()
	}
}

// openHunkInEditor opens the selected hunk's file at its first line
func (a *App) openHunkInEditor() {
	h, ok := a.state.Current()
	if !ok {
		return
	}
	line := max(h.StartLine, 1)
	err := a.suspended(func() error {
		return ui.OpenFileAtLine(h.FilePath, line, a.cfg)
	})
	if err != nil {
		a.SetStatus(err.Error())
	}
}

// editPromptExternally hands the prompt to $EDITOR with a frontmatter
// block for provider and model
func (a *App) editPromptExternally() {
	fm := ui.PromptFrontmatter{Model: a.state.Model}
	if p := a.state.Provider; p != nil {
		fm.Provider = p.Key
	}

	var (
		text  string
		newFM ui.PromptFrontmatter
	)
	err := a.suspended(func() error {
		var err error
		text, newFM, err = ui.EditPromptInExternalEditor(a.prompt.Text(), fm, a.cfg)
		return err
	})
	if err != nil {
		a.SetStatus(err.Error())
		return
	}

	a.prompt.SetText(text)
	if newFM.Provider != "" && newFM.Provider != fm.Provider {
		if err := a.state.SelectByName(newFM.Provider); err != nil {
			a.SetStatus(err.Error())
		}
	}
	if newFM.Model != fm.Model {
		a.state.SetModel(newFM.Model)
	}
}

// suspended runs fn with the terminal released to a child program
func (a *App) suspended(fn func() error) error {
	if err := a.screen.Suspend(); err != nil {
		return fmt.Errorf("failed to suspend screen: %w", err)
	}
	err := fn()
	if rerr := a.screen.Resume(); rerr != nil {
		log.Printf("Failed to resume screen: %v", rerr)
	}
	a.screen.Sync()
	return err
}
