package ui

// SplashScreen is shown in the prompt area before the first prompt
type SplashScreen struct {
	Version string
}

// NewSplashScreen creates a splash for version
func NewSplashScreen(version string) *SplashScreen {
	return &SplashScreen{Version: version}
}

// GetContent returns the lines to display on the splash screen
func (s *SplashScreen) GetContent() []string {
	return []string{
		"~~ zcode ~~",
		"",
		"Version " + s.Version,
		"",
		"Review AI code changes hunk by hunk",
		"",
		"Type a prompt and press Enter",
		":provider  switch provider",
		":help      keys and commands",
		":quit      leave",
	}
}

// Render centers the splash in the given area
func (s *SplashScreen) Render(screen *Screen, x, y, width, height int) {
	content := s.GetContent()

	maxWidth := 0
	for _, line := range content {
		maxWidth = max(maxWidth, StringWidth(line))
	}
	startY := y + max((height-len(content))/2, 0)
	startX := x + max((width-maxWidth)/2, 0)

	for i, line := range content {
		if startY+i >= y+height {
			break
		}
		style := screen.DimStyle()
		if i == 0 {
			style = screen.TitleStyle()
		}
		screen.DrawStringLimited(startX, startY+i, line, width, style)
	}
}
