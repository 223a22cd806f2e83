// Package theme defines the colors of the review UI
package theme

import (
	"github.com/gdamore/tcell/v2"
)

// Colors holds all the color definitions for the theme
type Colors struct {
	Text     tcell.Color
	Dim      tcell.Color
	Border   tcell.Color
	Title    tcell.Color
	Selected tcell.Color

	// Diff lines
	Addition     tcell.Color
	Deletion     tcell.Color
	Modification tcell.Color
	AdditionBg   tcell.Color
	DeletionBg   tcell.Color
	LineNumber   tcell.Color

	// Hunk markers
	Accepted tcell.Color
	Rejected tcell.Color
	Pending  tcell.Color

	// Chat
	UserMessage      tcell.Color
	AssistantMessage tcell.Color
	SystemMessage    tcell.Color

	CommandPrompt tcell.Color
	StatusMode    tcell.Color
	StatusMessage tcell.Color
	StatusBar     tcell.Color
	Error         tcell.Color
	Link          tcell.Color
}

// Theme represents a complete color theme
type Theme struct {
	Name   string
	Colors Colors
}

type palette struct {
	bg, fg, dim, blue, cyan, magenta, green, red, yellow, bar string
}

func fromPalette(name string, p palette) *Theme {
	return &Theme{
		Name: name,
		Colors: Colors{
			Text:             HexToColor(p.fg),
			Dim:              HexToColor(p.dim),
			Border:           HexToColor(p.cyan),
			Title:            HexToColor(p.magenta),
			Selected:         HexToColor(p.blue),
			Addition:         HexToColor(p.green),
			Deletion:         HexToColor(p.red),
			Modification:     HexToColor(p.yellow),
			AdditionBg:       Blend(p.bg, p.green, 0.18),
			DeletionBg:       Blend(p.bg, p.red, 0.18),
			LineNumber:       HexToColor(p.dim),
			Accepted:         HexToColor(p.green),
			Rejected:         HexToColor(p.red),
			Pending:          HexToColor(p.yellow),
			UserMessage:      HexToColor(p.blue),
			AssistantMessage: HexToColor(p.fg),
			SystemMessage:    HexToColor(p.dim),
			CommandPrompt:    HexToColor(p.magenta),
			StatusMode:       HexToColor(p.magenta),
			StatusMessage:    HexToColor(p.green),
			StatusBar:        HexToColor(p.bar),
			Error:            HexToColor(p.red),
			Link:             HexToColor(p.cyan),
		},
	}
}

// Dark is the default scheme, based on the Tokyo Night palette
func Dark() *Theme {
	return fromPalette("dark", palette{
		bg:      "#1a1b26",
		fg:      "#c0caf5",
		dim:     "#565f89",
		blue:    "#7aa2f7",
		cyan:    "#7dcfff",
		magenta: "#bb9af7",
		green:   "#9ece6a",
		red:     "#f7768e",
		yellow:  "#e0af68",
		bar:     "#24283b",
	})
}

// Light is the scheme for light terminal backgrounds
func Light() *Theme {
	return fromPalette("light", palette{
		bg:      "#e1e2e7",
		fg:      "#3760bf",
		dim:     "#848cb5",
		blue:    "#2e7de9",
		cyan:    "#007197",
		magenta: "#9854f1",
		green:   "#587539",
		red:     "#f52a65",
		yellow:  "#8c6c3e",
		bar:     "#c4c8da",
	})
}

// ForScheme returns the built-in theme for display.color_scheme
func ForScheme(scheme string) *Theme {
	if scheme == "light" {
		return Light()
	}
	return Dark()
}
