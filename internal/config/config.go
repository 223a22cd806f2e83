package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/pstuifzand/zcode/internal/storage"
)

const appName = "zcode"

// ErrUnknownKey is returned by Set for keys that are not configuration options
var ErrUnknownKey = errors.New("unknown configuration key")

// Config holds application configuration
type Config struct {
	General   GeneralConfig             `toml:"general"`
	Display   DisplayConfig             `toml:"display"`
	Editor    EditorConfig              `toml:"editor"`
	Keymap    KeymapConfig              `toml:"keymap"`
	Providers map[string]ProviderConfig `toml:"providers"`

	// path the config was loaded from, used by Save
	path string
	// Session settings set with :config set (not marked as persisted until saved)
	sessionSettings map[string]string
}

type GeneralConfig struct {
	DefaultProvider    string `toml:"default_provider"`
	CreateBackups      bool   `toml:"create_backups"`
	ConfirmBeforeApply bool   `toml:"confirm_before_apply"`
	ContextLines       int    `toml:"context_lines"`
	LogFile            string `toml:"log_file,omitempty"`
	ExportPattern      string `toml:"export_pattern"`
}

type DisplayConfig struct {
	ColorScheme        string `toml:"color_scheme"`
	ShowLineNumbers    bool   `toml:"show_line_numbers"`
	SyntaxHighlighting bool   `toml:"syntax_highlighting"`
	ThemeFile          string `toml:"theme_file,omitempty"`
}

type EditorConfig struct {
	Command string `toml:"command,omitempty"`
}

type KeymapConfig struct {
	Preset string `toml:"preset"`
}

// ProviderConfig overrides a built-in provider or defines a custom one
type ProviderConfig struct {
	Enabled *bool    `toml:"enabled,omitempty"`
	Path    string   `toml:"path,omitempty"`
	Name    string   `toml:"name,omitempty"`
	Parser  string   `toml:"parser,omitempty"`
	Pattern string   `toml:"pattern,omitempty"`
	Args    []string `toml:"args,omitempty"`
}

// IsEnabled reports whether the provider is enabled; providers are enabled
// unless switched off explicitly
func (p ProviderConfig) IsEnabled() bool {
	return p.Enabled == nil || *p.Enabled
}

// Load loads the config file from the standard location
func Load() (*Config, error) {
	configPath, err := GetConfigPath()
	if err != nil {
		return defaultConfig(), nil // Return default if can't find config path
	}

	return LoadFromFile(configPath)
}

// LoadFromFile loads config from a specific file
func LoadFromFile(filePath string) (*Config, error) {
	config := defaultConfig()
	config.path = filePath

	data, err := os.ReadFile(filePath)
	if errors.Is(err, fs.ErrNotExist) {
		return config, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Keys missing from the file keep their defaults
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", filePath, err)
	}

	if config.Providers == nil {
		config.Providers = make(map[string]ProviderConfig)
	}
	return config, nil
}

// Validate checks value ranges that TOML decoding cannot express
func (c *Config) Validate() error {
	if c.General.ContextLines < 0 {
		return fmt.Errorf("general.context_lines must be >= 0, got %d", c.General.ContextLines)
	}
	switch c.Display.ColorScheme {
	case "dark", "light":
	default:
		return fmt.Errorf("display.color_scheme must be dark or light, got %q", c.Display.ColorScheme)
	}
	for key, p := range c.Providers {
		switch p.Parser {
		case "", "unified_diff", "code_blocks", "claude_json", "json", "regex":
		default:
			return fmt.Errorf("providers.%s.parser: unknown parser %q", key, p.Parser)
		}
	}
	return nil
}

// GetConfigPath returns <user config dir>/zcode/config.toml
func GetConfigPath() (string, error) {
	dir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// defaultConfig returns the default configuration
func defaultConfig() *Config {
	return &Config{
		General: GeneralConfig{
			CreateBackups:      false,
			ConfirmBeforeApply: true,
			ContextLines:       3,
			ExportPattern:      "zcode-%Y%m%d-%H%M%S.md",
		},
		Display: DisplayConfig{
			ColorScheme:     "dark",
			ShowLineNumbers: true,
		},
		Keymap:          KeymapConfig{Preset: "vim"},
		Providers:       make(map[string]ProviderConfig),
		sessionSettings: make(map[string]string),
	}
}

// Default returns the configuration used when no file exists
func Default() *Config {
	return defaultConfig()
}

// GetConfigDir returns the config directory
func GetConfigDir() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, appName), nil
}

// GetDataDir returns $XDG_DATA_HOME/zcode, or ~/.local/share/zcode
func GetDataDir() (string, error) {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return filepath.Join(dir, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".local", "share", appName), nil
}

// GetCacheDir returns <user cache dir>/zcode
func GetCacheDir() (string, error) {
	dir, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, appName), nil
}

// Path returns the file Save writes to
func (c *Config) Path() string {
	if c.path != "" {
		return c.path
	}
	p, _ := GetConfigPath()
	return p
}

// Provider returns the configuration for key, which may be empty
func (c *Config) Provider(key string) ProviderConfig {
	return c.Providers[key]
}

// Keys lists all settable keys, sorted
func (c *Config) Keys() []string {
	keys := []string{
		"general.default_provider",
		"general.create_backups",
		"general.confirm_before_apply",
		"general.context_lines",
		"general.log_file",
		"general.export_pattern",
		"display.color_scheme",
		"display.show_line_numbers",
		"display.syntax_highlighting",
		"display.theme_file",
		"editor.command",
		"keymap.preset",
	}
	for name := range c.Providers {
		for _, field := range []string{"enabled", "path", "name", "parser", "pattern"} {
			keys = append(keys, "providers."+name+"."+field)
		}
	}
	sort.Strings(keys)
	return keys
}

// Set changes a configuration value for this session. The value is parsed
// according to the type of the option; Save persists it.
func (c *Config) Set(key, value string) error {
	parseBool := func() (bool, error) {
		b, err := strconv.ParseBool(value)
		if err != nil {
			return false, fmt.Errorf("%s expects true or false, got %q", key, value)
		}
		return b, nil
	}

	var err error
	switch key {
	case "general.default_provider":
		c.General.DefaultProvider = value
	case "general.create_backups":
		c.General.CreateBackups, err = parseBool()
	case "general.confirm_before_apply":
		c.General.ConfirmBeforeApply, err = parseBool()
	case "general.context_lines":
		n, convErr := strconv.Atoi(value)
		if convErr != nil || n < 0 {
			return fmt.Errorf("%s expects a number >= 0, got %q", key, value)
		}
		c.General.ContextLines = n
	case "general.log_file":
		c.General.LogFile = value
	case "general.export_pattern":
		c.General.ExportPattern = value
	case "display.color_scheme":
		if value != "dark" && value != "light" {
			return fmt.Errorf("%s expects dark or light, got %q", key, value)
		}
		c.Display.ColorScheme = value
	case "display.show_line_numbers":
		c.Display.ShowLineNumbers, err = parseBool()
	case "display.syntax_highlighting":
		c.Display.SyntaxHighlighting, err = parseBool()
	case "display.theme_file":
		c.Display.ThemeFile = value
	case "editor.command":
		c.Editor.Command = value
	case "keymap.preset":
		c.Keymap.Preset = value
	default:
		err = c.setProvider(key, value)
	}
	if err != nil {
		return err
	}

	if c.sessionSettings == nil {
		c.sessionSettings = make(map[string]string)
	}
	c.sessionSettings[key] = value
	return nil
}

func (c *Config) setProvider(key, value string) error {
	rest, ok := strings.CutPrefix(key, "providers.")
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}
	name, field, ok := strings.Cut(rest, ".")
	if !ok || name == "" {
		return fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}

	if c.Providers == nil {
		c.Providers = make(map[string]ProviderConfig)
	}
	p := c.Providers[name]
	switch field {
	case "enabled":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("%s expects true or false, got %q", key, value)
		}
		p.Enabled = &b
	case "path":
		p.Path = value
	case "name":
		p.Name = value
	case "parser":
		p.Parser = value
	case "pattern":
		p.Pattern = value
	default:
		return fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}
	c.Providers[name] = p
	return nil
}

// Get retrieves a configuration value as a string. Returns empty string
// if the key is unknown.
func (c *Config) Get(key string) string {
	switch key {
	case "general.default_provider":
		return c.General.DefaultProvider
	case "general.create_backups":
		return strconv.FormatBool(c.General.CreateBackups)
	case "general.confirm_before_apply":
		return strconv.FormatBool(c.General.ConfirmBeforeApply)
	case "general.context_lines":
		return strconv.Itoa(c.General.ContextLines)
	case "general.log_file":
		return c.General.LogFile
	case "general.export_pattern":
		return c.General.ExportPattern
	case "display.color_scheme":
		return c.Display.ColorScheme
	case "display.show_line_numbers":
		return strconv.FormatBool(c.Display.ShowLineNumbers)
	case "display.syntax_highlighting":
		return strconv.FormatBool(c.Display.SyntaxHighlighting)
	case "display.theme_file":
		return c.Display.ThemeFile
	case "editor.command":
		return c.Editor.Command
	case "keymap.preset":
		return c.Keymap.Preset
	}

	rest, ok := strings.CutPrefix(key, "providers.")
	if !ok {
		return ""
	}
	name, field, _ := strings.Cut(rest, ".")
	p, ok := c.Providers[name]
	if !ok {
		return ""
	}
	switch field {
	case "enabled":
		return strconv.FormatBool(p.IsEnabled())
	case "path":
		return p.Path
	case "name":
		return p.Name
	case "parser":
		return p.Parser
	case "pattern":
		return p.Pattern
	}
	return ""
}

// GetAll returns all configuration values by key
func (c *Config) GetAll() map[string]string {
	result := make(map[string]string)
	for _, k := range c.Keys() {
		result[k] = c.Get(k)
	}
	return result
}

// IsSessionSetting reports whether key was changed with Set since the
// last Save
func (c *Config) IsSessionSetting(key string) bool {
	_, ok := c.sessionSettings[key]
	return ok
}

// Save persists the configuration to the TOML file
func (c *Config) Save() error {
	path := c.Path()
	if path == "" {
		return fmt.Errorf("failed to get config path")
	}

	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := storage.AtomicWrite(path, data); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	c.sessionSettings = make(map[string]string)
	return nil
}
