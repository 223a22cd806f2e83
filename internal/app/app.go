package app

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/atotto/clipboard"
	"github.com/davecgh/go-spew/spew"
	"github.com/gdamore/tcell/v2"

	"github.com/pstuifzand/zcode/internal/apply"
	"github.com/pstuifzand/zcode/internal/config"
	"github.com/pstuifzand/zcode/internal/executor"
	"github.com/pstuifzand/zcode/internal/history"
	"github.com/pstuifzand/zcode/internal/input"
	"github.com/pstuifzand/zcode/internal/model"
	"github.com/pstuifzand/zcode/internal/nvim"
	"github.com/pstuifzand/zcode/internal/provider"
	"github.com/pstuifzand/zcode/internal/session"
	"github.com/pstuifzand/zcode/internal/socket"
	"github.com/pstuifzand/zcode/internal/state"
	"github.com/pstuifzand/zcode/internal/storage"
	"github.com/pstuifzand/zcode/internal/tasks"
	"github.com/pstuifzand/zcode/internal/theme"
	"github.com/pstuifzand/zcode/internal/ui"
)

// tickInterval is how often tasks are polled and the screen redrawn
const tickInterval = 50 * time.Millisecond

// Options configures a new App
type Options struct {
	Config *config.Config
	// Root is the project directory; defaults to the working directory
	Root string
	// Provider is selected as soon as detection finds it
	Provider  string
	Debug     bool
	NoBackups bool
	Version   string

	// DataDir holds sessions and histories; defaults to config.GetDataDir
	DataDir string
	// BackupDir defaults to <user cache dir>/zcode/backups
	BackupDir string
	// Socket starts the remote control server
	Socket bool
	// Screen replaces the terminal, for tests
	Screen tcell.Screen
}

// App is the main application controller
type App struct {
	screen *ui.Screen
	state  *state.State
	cfg    *config.Config

	keymap       *input.Keymap
	seq          *input.SequenceParser
	prompt       *ui.PromptEditor
	command      *ui.LineEditor
	search       *ui.LineEditor
	providerList *ui.ProviderList
	chat         *ui.ChatPanel
	review       *ui.ReviewView
	help         *ui.HelpScreen
	picker       *ui.Picker
	splash       *ui.SplashScreen
	statusBar    ui.StatusBar

	nvim    *nvim.Manager
	server  *socket.Server
	backups *storage.BackupManager

	// preselect is the provider to switch to once detection finds it
	preselect string
	quit      bool
	debugMode bool

	clipboardRead  func() (string, error)
	clipboardWrite func(string) error
	now            func() time.Time
}

// NewApp creates the application and starts provider detection
func NewApp(opts Options) (*App, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}
	if opts.NoBackups {
		cfg.General.CreateBackups = false
	}
	root := opts.Root
	if root == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
		root = wd
	}

	th := theme.Load(cfg.Display.ColorScheme, cfg.Display.ThemeFile)
	var (
		screen *ui.Screen
		err    error
	)
	if opts.Screen != nil {
		screen, err = ui.NewScreenFrom(opts.Screen, th)
	} else {
		screen, err = ui.NewScreen(th)
	}
	if err != nil {
		return nil, err
	}

	backups, err := storage.NewBackupManager(opts.BackupDir)
	if err != nil {
		screen.Close()
		return nil, fmt.Errorf("failed to access backups: %w", err)
	}

	dataDir := opts.DataDir
	if dataDir == "" {
		if dataDir, err = config.GetDataDir(); err != nil {
			log.Printf("No data directory, sessions and history are not saved: %v", err)
		}
	}

	var (
		sessions  *session.Manager
		histories *history.Manager
	)
	if dataDir != "" {
		if sessions, err = session.Load(session.DefaultPath(dataDir)); err != nil {
			log.Printf("Sessions disabled: %v", err)
			sessions = nil
		}
		if histories, err = history.NewManager(dataDir); err != nil {
			log.Printf("History disabled: %v", err)
			histories = nil
		}
	}
	openHistory := func(name string) *history.History {
		if histories == nil {
			return history.New()
		}
		return history.Open(histories, name)
	}

	st := state.New(state.Options{
		Config:   cfg,
		Registry: provider.NewRegistry(),
		Root:     root,
		Tracker:  tasks.NewTracker(),
		Executor: executor.New(root),
		Applier:  apply.NewApplier(backups),
		Sessions: sessions,
	})

	keymap := input.DefaultVim()
	preselect := opts.Provider
	if preselect == "" {
		preselect = cfg.General.DefaultProvider
	}

	a := &App{
		screen:         screen,
		state:          st,
		cfg:            cfg,
		keymap:         keymap,
		seq:            input.NewSequenceParser(keymap),
		prompt:         ui.NewPromptEditor(openHistory(history.PromptFile)),
		command:        ui.NewCommandLine(openHistory(history.CommandFile)),
		search:         ui.NewSearchLine(),
		providerList:   ui.NewProviderList(),
		chat:           ui.NewChatPanel(),
		review:         ui.NewReviewView(root),
		help:           ui.NewHelpScreen(keymap),
		picker:         ui.NewPicker(),
		splash:         ui.NewSplashScreen(opts.Version),
		nvim:           nvim.New(),
		backups:        backups,
		preselect:      preselect,
		debugMode:      opts.Debug,
		clipboardRead:  clipboard.ReadAll,
		clipboardWrite: clipboard.WriteAll,
		now:            time.Now,
	}
	a.review.ShowLineNumbers = cfg.Display.ShowLineNumbers

	if opts.Debug {
		log.Printf("Configuration:\n%s", spew.Sdump(cfg))
	}

	if opts.Socket {
		server, err := socket.NewServer(os.Getpid())
		if err != nil {
			// the app works without remote control
			log.Printf("Socket server disabled: %v", err)
		} else {
			a.server = server
			server.Start()
		}
	}

	st.DetectProviders()
	return a, nil
}

// Run starts the main event loop
func (a *App) Run() error {
	defer a.Close()

	eventChan := make(chan tcell.Event)
	go func() {
		for {
			event := a.screen.PollEvent()
			if event == nil {
				close(eventChan)
				return
			}
			eventChan <- event
		}
	}()

	var socketChan <-chan socket.Message
	if a.server != nil {
		socketChan = a.server.Messages()
	}

	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	a.render()
	for !a.quit {
		select {
		case ev, ok := <-eventChan:
			if !ok {
				return nil
			}
			a.handleRawEvent(ev)
			a.render()
		case msg := <-socketChan:
			a.handleSocketMessage(msg)
		case <-ticker.C:
			a.tick()
			a.render()
		}
	}
	return nil
}

// tick polls background tasks. It never blocks.
func (a *App) tick() {
	a.state.Poll()
	a.applyPreselect()
	if a.state.Mode == state.ModeProcessing || a.state.Detection == state.DetectionInProgress {
		a.statusBar.Tick()
	}
	a.providerList.Refresh(a.state.Available)
}

// applyPreselect switches to the provider asked for on the command line
// once detection has found it
func (a *App) applyPreselect() {
	if a.preselect == "" || a.state.Mode != state.ModeProviderSelect {
		return
	}
	if err := a.state.SelectByName(a.preselect); err == nil {
		a.preselect = ""
		return
	}
	if a.state.Detection == state.DetectionCompleted {
		a.SetStatus(fmt.Sprintf("Provider %s is not available", a.preselect))
		a.preselect = ""
	}
}

// Close stops running prompts, saves sessions and releases the terminal
func (a *App) Close() error {
	a.state.CancelPrompt()
	if a.server != nil {
		a.server.Stop()
		a.server = nil
	}
	if a.nvim.Connected() {
		a.nvim.Close()
	}
	if s := a.state.Sessions(); s != nil {
		if err := s.Save(); err != nil {
			log.Printf("Failed to save sessions: %v", err)
		}
	}
	if a.screen != nil {
		err := a.screen.Close()
		a.screen = nil
		return err
	}
	return nil
}

// render renders the current state to the screen
func (a *App) render() {
	if a.screen == nil {
		return
	}
	a.screen.Clear()
	a.screen.HideCursor()

	width, height := a.screen.Size()
	bodyHeight := height - 1
	if a.command.IsActive() || a.search.IsActive() {
		bodyHeight--
	}

	s := a.state
	switch s.Mode {
	case state.ModeProviderSelect:
		a.providerList.Render(a.screen, s.Available, s.Detection != state.DetectionCompleted)
	case state.ModeDiffReview, state.ModeConfirmation:
		a.renderReview(width, bodyHeight)
	default:
		if len(s.Hunks) > 0 && s.Mode != state.ModePromptEntry && s.Mode != state.ModeProcessing {
			a.renderReview(width, bodyHeight)
		} else {
			a.renderConversation(width, bodyHeight)
		}
	}

	switch s.Mode {
	case state.ModeConfirmation:
		accepted, _, _ := s.Counts()
		ui.RenderConfirm(a.screen, accepted, a.acceptedFiles())
	case state.ModeError:
		ui.RenderError(a.screen, s.Error)
	case state.ModeHelp:
		a.help.Render(a.screen)
	}

	if a.command.IsActive() {
		a.command.Render(a.screen, height-2)
	}
	if a.search.IsActive() {
		a.search.Render(a.screen, height-2)
	}
	a.statusBar.Keys = a.seq.Buffer()
	a.statusBar.Render(a.screen, s, height-1)
	a.picker.Render(a.screen)

	a.screen.Show()
}

// renderConversation draws the chat (or the splash before the first
// prompt) above the prompt editor
func (a *App) renderConversation(width, height int) {
	editorHeight := min(8, height/2)
	top := height - editorHeight

	if len(a.state.Chat.Messages) == 0 || !a.chat.IsVisible() {
		a.splash.Render(a.screen, 0, 0, width, top)
	} else {
		a.chat.Render(a.screen, &a.state.Chat, 0, 0, width, top)
	}

	title := "Prompt"
	if p := a.state.Provider; p != nil {
		title = "Prompt for " + p.Name
	}
	if a.state.Mode == state.ModeProcessing {
		title = "Waiting for " + a.state.Provider.Name + " (Esc to cancel)"
	}
	a.prompt.Render(a.screen, 0, top, width, editorHeight, title)
}

// renderReview draws the selected file's hunks, with the chat on the right
// when it is visible and there is room
func (a *App) renderReview(width, height int) {
	s := a.state
	reviewWidth := width
	if a.chat.IsVisible() && width >= 100 {
		reviewWidth = width * 2 / 3
		a.chat.Render(a.screen, &s.Chat, reviewWidth, 0, width-reviewWidth, height)
	}

	h, ok := s.Current()
	if !ok {
		a.review.Render(a.screen, 0, 0, reviewWidth, height, nil, nil, nil, 0, 0)
		return
	}
	var pc *model.ProposedChange
	fileIndex := 0
	for i, p := range s.Proposed {
		if p.FilePath == h.FilePath {
			pc, fileIndex = p, i
			break
		}
	}
	a.review.Render(a.screen, 0, 0, reviewWidth, height, s.Hunks, h, pc, fileIndex, len(s.Proposed))
}

func (a *App) acceptedFiles() int {
	files := make(map[string]bool)
	for _, h := range a.state.Hunks {
		if h.Status == model.HunkAccepted {
			files[h.FilePath] = true
		}
	}
	return len(files)
}

// applyTheme reloads the theme after a display setting changed
func (a *App) applyTheme() {
	a.screen.Theme = theme.Load(a.cfg.Display.ColorScheme, a.cfg.Display.ThemeFile)
}

// SetStatus sets the status message
func (a *App) SetStatus(msg string) {
	a.state.Status = msg
}

// Quit signals the app to quit
func (a *App) Quit() {
	a.quit = true
}

// SetDebugMode enables or disables debug mode
func (a *App) SetDebugMode(debug bool) {
	a.debugMode = debug
}

// State returns the application state
func (a *App) State() *state.State {
	return a.state
}
