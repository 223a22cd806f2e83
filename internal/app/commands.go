package app

import (
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"strings"

	"github.com/davecgh/go-spew/spew"

	"github.com/pstuifzand/zcode/internal/config"
	"github.com/pstuifzand/zcode/internal/diff"
	"github.com/pstuifzand/zcode/internal/export"
	"github.com/pstuifzand/zcode/internal/input"
	"github.com/pstuifzand/zcode/internal/model"
	"github.com/pstuifzand/zcode/internal/nvim"
	"github.com/pstuifzand/zcode/internal/state"
	"github.com/pstuifzand/zcode/internal/ui"
)

// executeCommand runs a command line entered after ':'
func (a *App) executeCommand(line string) {
	cmd, err := input.ParseCommand(line)
	if err != nil {
		a.SetStatus(err.Error())
		return
	}
	log.Printf("Command: %s", line)

	s := a.state
	switch cmd.Kind {
	case input.CmdConfigShow:
		a.showConfig(cmd.Arg(0))
	case input.CmdConfigSet:
		a.setConfig(cmd.Arg(0), cmd.Arg(1))
	case input.CmdConfigSave:
		if err := a.cfg.Save(); err != nil {
			a.SetStatus(err.Error())
			return
		}
		a.SetStatus("Configuration saved to " + a.cfg.Path())
	case input.CmdConfigEdit:
		a.editConfig()

	case input.CmdProvider:
		if cmd.Arg(0) == "" {
			s.ChooseProvider()
			return
		}
		if err := s.SelectByName(cmd.Arg(0)); err != nil {
			a.SetStatus(err.Error())
		}
	case input.CmdModel:
		s.SetModel(cmd.Arg(0))

	case input.CmdJump:
		a.reviewCommand(func() error { return s.Jump(cmd.Arg(0)) })
	case input.CmdFilter:
		f, err := state.ParseFilter(cmd.Arg(0))
		if err != nil {
			a.SetStatus(err.Error())
			return
		}
		s.SetFilter(f)
		a.SetStatus(fmt.Sprintf("Showing %s hunks (%d)", cmd.Arg(0), len(s.VisibleHunks())))
	case input.CmdSearch:
		a.reviewCommand(func() error { return s.Search(cmd.Arg(0)) })

	case input.CmdNeovimConnect:
		if err := a.nvim.Connect(cmd.Arg(0)); err != nil {
			a.SetStatus(err.Error())
			return
		}
		a.SetStatus(a.nvim.Status())
	case input.CmdNeovimPush:
		a.pushToNeovim()
	case input.CmdNeovimClear:
		if err := a.nvim.Clear(); err != nil {
			a.SetStatus(err.Error())
			return
		}
		a.SetStatus("Neovim marks cleared")
	case input.CmdNeovimStatus:
		a.SetStatus(a.nvim.Status())

	case input.CmdYank:
		a.yank(cmd.Arg(0))
	case input.CmdPaste:
		a.paste()
	case input.CmdExport:
		a.exportChat(cmd.Arg(0))

	case input.CmdSessions:
		a.showSessions()
	case input.CmdBackups:
		a.handleBackupsCommand()
	case input.CmdHelp:
		s.ToggleHelp()
	case input.CmdQuit:
		a.Quit()
	case input.CmdApply:
		if s.Mode != state.ModeDiffReview {
			a.SetStatus("Nothing to apply")
			return
		}
		s.RequestApply()
	case input.CmdClear:
		s.ClearConversation()
		a.prompt.SetText("")
	}
}

// reviewCommand runs fn when there is a review to act on
func (a *App) reviewCommand(fn func() error) {
	if len(a.state.Hunks) == 0 {
		a.SetStatus("No hunks to review")
		return
	}
	if err := fn(); err != nil {
		a.SetStatus(err.Error())
	}
}

// configSection returns the part of the configuration key belongs to, for
// the :config show preview
func (a *App) configSection(key string) any {
	section, rest, _ := strings.Cut(key, ".")
	switch section {
	case "general":
		return a.cfg.General
	case "display":
		return a.cfg.Display
	case "editor":
		return a.cfg.Editor
	case "keymap":
		return a.cfg.Keymap
	case "providers":
		name, _, _ := strings.Cut(rest, ".")
		return a.cfg.Provider(name)
	}
	return nil
}

// showConfig lists the configuration, or the keys starting with prefix
func (a *App) showConfig(prefix string) {
	var keys []string
	for _, k := range a.cfg.Keys() {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	if len(keys) == 0 {
		a.SetStatus(fmt.Sprintf("%v: %s", config.ErrUnknownKey, prefix))
		return
	}

	items := make([]ui.PickerItem, len(keys))
	for i, k := range keys {
		value := a.cfg.Get(k)
		if a.cfg.IsSessionSetting(k) {
			value += " (unsaved)"
		}
		items[i] = ui.PickerItem{Label: k, Detail: value}
	}
	preview := func(i int) []diff.Line {
		var lines []diff.Line
		for _, l := range strings.Split(strings.TrimRight(spew.Sdump(a.configSection(keys[i])), "\n"), "\n") {
			lines = append(lines, diff.Line{Type: diff.LineContext, Content: l})
		}
		return lines
	}
	a.picker.Show("Configuration "+a.cfg.Path(), items, preview, nil)
}

func (a *App) setConfig(key, value string) {
	if err := a.cfg.Set(key, value); err != nil {
		a.SetStatus(err.Error())
		return
	}
	switch key {
	case "display.show_line_numbers":
		a.review.ShowLineNumbers = a.cfg.Display.ShowLineNumbers
	case "display.color_scheme", "display.theme_file":
		a.applyTheme()
	}
	a.SetStatus(fmt.Sprintf("%s = %s (use :config save to persist)", key, a.cfg.Get(key)))
}

// editConfig opens the config file in the editor and reloads it
func (a *App) editConfig() {
	path := a.cfg.Path()
	if err := a.suspended(func() error { return ui.OpenFileAtLine(path, 0, a.cfg) }); err != nil {
		a.SetStatus(err.Error())
		return
	}
	cfg, err := config.LoadFromFile(path)
	if err != nil {
		a.SetStatus(err.Error())
		return
	}
	*a.cfg = *cfg
	a.review.ShowLineNumbers = a.cfg.Display.ShowLineNumbers
	a.applyTheme()
	a.SetStatus("Configuration reloaded")
}

func (a *App) pushToNeovim() {
	if !a.nvim.Connected() {
		if err := a.nvim.Connect(""); err != nil {
			a.SetStatus(err.Error())
			return
		}
	}
	var pending []model.Hunk
	for _, h := range a.state.Hunks {
		if h.Status == model.HunkPending {
			pending = append(pending, h)
		}
	}
	n, err := a.nvim.Push(pending)
	if err != nil {
		if errors.Is(err, nvim.ErrNotConnected) {
			a.nvim.Close()
		}
		a.SetStatus(err.Error())
		return
	}
	a.SetStatus(fmt.Sprintf("Pushed %d hunks to Neovim (%d marks)", len(pending), n))
}

func (a *App) yank(what string) {
	var text string
	switch what {
	case "prompt":
		text = a.prompt.Text()
		if text == "" {
			text = a.state.LastPrompt
		}
	default:
		h, ok := a.state.Current()
		if !ok {
			a.SetStatus("No hunk to yank")
			return
		}
		text = h.Text()
	}
	if text == "" {
		a.SetStatus("Nothing to yank")
		return
	}
	if err := a.clipboardWrite(text); err != nil {
		a.SetStatus(fmt.Sprintf("Clipboard unavailable: %v", err))
		return
	}
	a.SetStatus(fmt.Sprintf("Yanked %s (%d bytes)", what, len(text)))
}

func (a *App) paste() {
	text, err := a.clipboardRead()
	if err != nil {
		a.SetStatus(fmt.Sprintf("Clipboard unavailable: %v", err))
		return
	}
	if a.state.Mode == state.ModeDiffReview {
		a.state.BackToPrompt()
	}
	a.prompt.Insert(text)
	a.SetStatus(fmt.Sprintf("Pasted %d bytes into the prompt", len(text)))
}

// exportChat writes the conversation as markdown to path, or to a name
// built from general.export_pattern in the project directory
func (a *App) exportChat(path string) {
	if path == "" {
		path = export.FileName(a.cfg.General.ExportPattern, a.now())
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(a.state.Root, path)
	}

	tr := export.Transcript{Chat: &a.state.Chat, Model: a.state.Model, Hunks: a.state.Hunks}
	if p := a.state.Provider; p != nil {
		tr.Provider = p.Name
	}
	if err := export.ExportToMarkdown(tr, path); err != nil {
		a.SetStatus(err.Error())
		return
	}
	a.SetStatus("Exported to " + a.relPath(path))
}

func (a *App) showSessions() {
	sm := a.state.Sessions()
	if sm == nil {
		a.SetStatus("Sessions are not available")
		return
	}
	sessions := sm.RecentSessions(50)
	if len(sessions) == 0 {
		a.SetStatus("No sessions yet")
		return
	}

	items := make([]ui.PickerItem, len(sessions))
	for i, ss := range sessions {
		desc := ss.Description
		if desc == "" {
			desc = "(no prompts)"
		}
		items[i] = ui.PickerItem{
			Label:  desc,
			Detail: fmt.Sprintf("%s, %d prompts, %s", ss.Provider, ss.PromptCount, ss.LastUsed.Local().Format("2006-01-02 15:04")),
		}
	}
	a.picker.Show("Sessions (Enter resumes)", items, nil, func(i int) {
		ss := sessions[i]
		if err := a.state.SelectByName(ss.Provider); err != nil {
			a.SetStatus(err.Error())
			return
		}
		if err := sm.Resume(ss.ID); err != nil {
			a.SetStatus(err.Error())
			return
		}
		a.SetStatus("Resumed session " + ss.ID)
	})
}
