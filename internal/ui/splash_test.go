package ui

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplashScreenContent(t *testing.T) {
	splash := NewSplashScreen("1.2.3")
	content := strings.Join(splash.GetContent(), "\n")

	for _, required := range []string{"zcode", "Version 1.2.3", ":provider", ":help", ":quit"} {
		assert.Contains(t, content, required)
	}
}
