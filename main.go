package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"

	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/pstuifzand/zcode/internal/app"
	"github.com/pstuifzand/zcode/internal/config"
	"github.com/pstuifzand/zcode/internal/socket"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

type flags struct {
	provider   string
	configPath string
	logPath    string
	send       string
	debug      bool
	noBackups  bool
	status     bool
	version    bool
}

func parseFlags() flags {
	var f flags
	pflag.StringVarP(&f.provider, "provider", "p", "", "Select this provider once it is detected (claude, aider, copilot, q or a configured key)")
	pflag.StringVarP(&f.configPath, "config", "c", "", "Read configuration from this file instead of the default location")
	pflag.StringVar(&f.logPath, "log", "", "Write the log to this file")
	pflag.StringVarP(&f.send, "send", "s", "", "Submit a prompt to a running zcode instance")
	pflag.BoolVar(&f.status, "status", false, "Print the state of a running zcode instance")
	pflag.BoolVar(&f.debug, "debug", false, "Enable debug mode (shows key events in status)")
	pflag.BoolVar(&f.noBackups, "no-backups", false, "Do not back up files before applying changes")
	pflag.BoolVarP(&f.version, "version", "v", false, "Print the version and exit")

	pflag.Usage = func() {
		fmt.Println("Usage: zcode [flags]")
		fmt.Println("\nReview and apply code changes proposed by AI coding assistants.")
		fmt.Println("\nExample: zcode -p claude")
		fmt.Println("\nFlags:")
		pflag.PrintDefaults()
	}
	pflag.Parse()
	return f
}

func main() {
	f := parseFlags()

	if f.version {
		fmt.Println("zcode", version)
		return
	}

	cfg, err := loadConfig(f.configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	logFile, err := openLog(f.logPath, cfg.General.LogFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer logFile.Close()
	log.SetOutput(logFile)
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	switch {
	case f.send != "":
		if err := sendPrompt(f.send); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Prompt submitted")
		return
	case f.status:
		if err := printStatus(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if !term.IsTerminal(int(os.Stdin.Fd())) || !term.IsTerminal(int(os.Stdout.Fd())) {
		fmt.Fprintln(os.Stderr, "Error: zcode needs an interactive terminal")
		os.Exit(1)
	}

	application, err := app.NewApp(app.Options{
		Config:    cfg,
		Provider:  f.provider,
		Debug:     f.debug,
		NoBackups: f.noBackups,
		Version:   version,
		Socket:    true,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	// A panic would leave the terminal in raw mode
	defer func() {
		if r := recover(); r != nil {
			application.Close()
			log.Printf("panic: %v\n%s", r, debug.Stack())
			fmt.Fprintf(os.Stderr, "zcode crashed: %v (details in %s)\n", r, logFile.Name())
			os.Exit(2)
		}
	}()

	if err := application.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Runtime error: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFromFile(path)
	}
	return config.Load()
}

// openLog opens the log file named on the command line, in the config, or
// <user cache dir>/zcode/zcode.log, in that order
func openLog(flagPath, configPath string) (*os.File, error) {
	path := flagPath
	if path == "" {
		path = configPath
	}
	if path == "" {
		dir, err := config.GetCacheDir()
		if err != nil {
			return nil, fmt.Errorf("no location for the log file: %w", err)
		}
		path = filepath.Join(dir, "zcode.log")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	return os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
}

func connect() (*socket.Client, error) {
	socketPath, pid, err := socket.FindRunningInstance()
	if err != nil {
		return nil, fmt.Errorf("no running zcode instance found: %w", err)
	}
	log.Printf("Found running instance at PID %d: %s", pid, socketPath)

	client, err := socket.NewClient(socketPath)
	if err != nil {
		return nil, fmt.Errorf("failed to connect: %w", err)
	}
	return client, nil
}

// sendPrompt submits a prompt to a running zcode instance
func sendPrompt(text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return fmt.Errorf("prompt cannot be empty")
	}

	client, err := connect()
	if err != nil {
		return err
	}
	response, err := client.SubmitPrompt(text)
	if err != nil {
		return fmt.Errorf("failed to send command: %w", err)
	}
	if !response.Success {
		return fmt.Errorf("server error: %s", response.Message)
	}

	log.Printf("Submitted prompt: %s", text)
	return nil
}

func printStatus() error {
	client, err := connect()
	if err != nil {
		return err
	}
	response, err := client.Status()
	if err != nil {
		return fmt.Errorf("failed to send command: %w", err)
	}
	if !response.Success || response.Status == nil {
		return fmt.Errorf("server error: %s", response.Message)
	}

	st := response.Status
	provider := st.Provider
	if provider == "" {
		provider = "none"
	}
	fmt.Printf("mode: %s\nprovider: %s\nhunks: %d (%d accepted, %d pending)\n",
		st.Mode, provider, st.Total, st.Accepted, st.Pending)
	if response.Message != "" {
		fmt.Printf("status: %s\n", response.Message)
	}
	return nil
}
