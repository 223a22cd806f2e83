package theme

import (
	"fmt"
	"log"
	"os"

	"github.com/gdamore/tcell/v2"
	"github.com/pelletier/go-toml/v2"
)

// ThemeConfig represents the raw TOML theme file. Colors are keyed by the
// snake_case name of the Colors field, e.g. addition_bg = "#203020".
type ThemeConfig struct {
	Name   string            `toml:"name"`
	Base   string            `toml:"base"`
	Colors map[string]string `toml:"colors"`
}

func (c *Colors) fields() map[string]*tcell.Color {
	return map[string]*tcell.Color{
		"text":              &c.Text,
		"dim":               &c.Dim,
		"border":            &c.Border,
		"title":             &c.Title,
		"selected":          &c.Selected,
		"addition":          &c.Addition,
		"deletion":          &c.Deletion,
		"modification":      &c.Modification,
		"addition_bg":       &c.AdditionBg,
		"deletion_bg":       &c.DeletionBg,
		"line_number":       &c.LineNumber,
		"accepted":          &c.Accepted,
		"rejected":          &c.Rejected,
		"pending":           &c.Pending,
		"user_message":      &c.UserMessage,
		"assistant_message": &c.AssistantMessage,
		"system_message":    &c.SystemMessage,
		"command_prompt":    &c.CommandPrompt,
		"status_mode":       &c.StatusMode,
		"status_message":    &c.StatusMessage,
		"status_bar":        &c.StatusBar,
		"error":             &c.Error,
		"link":              &c.Link,
	}
}

// LoadThemeFromFile loads a theme from a TOML file. Colors the file does
// not set come from its base scheme.
func LoadThemeFromFile(filePath string) (*Theme, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read theme file: %w", err)
	}

	var cfg ThemeConfig
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse theme file: %w", err)
	}
	return cfg.apply()
}

func (cfg ThemeConfig) apply() (*Theme, error) {
	t := ForScheme(cfg.Base)
	fields := t.Colors.fields()
	for key, value := range cfg.Colors {
		field, ok := fields[key]
		if !ok {
			return nil, fmt.Errorf("unknown theme color %q", key)
		}
		*field = ParseColorString(value)
	}
	if cfg.Name != "" {
		t.Name = cfg.Name
	}
	return t, nil
}

// Load returns the scheme's theme, overridden by themeFile when it is set.
// A broken theme file is logged and ignored.
func Load(scheme, themeFile string) *Theme {
	if themeFile == "" {
		return ForScheme(scheme)
	}
	t, err := LoadThemeFromFile(themeFile)
	if err != nil {
		log.Printf("Using %s theme: %v", scheme, err)
		return ForScheme(scheme)
	}
	return t
}
