package ui

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRuneWidth(t *testing.T) {
	tests := []struct {
		name     string
		r        rune
		expected int
	}{
		{"ASCII letter", 'A', 1},
		{"Emoji", '😀', 2},
		{"Chinese character", '中', 2},
		{"Combining acute", '\u0301', 0},
		{"Tab", '\t', 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, RuneWidth(tt.r))
		})
	}
}

func TestTruncateToWidth(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		width    int
		expected string
	}{
		{"fits", "hello", 10, "hello"},
		{"ascii", "hello world", 5, "hello"},
		{"wide rune not split", "ab中国", 3, "ab"},
		{"zero", "abc", 0, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, TruncateToWidth(tt.input, tt.width))
		})
	}
}

func TestTruncateToWidthWithEllipsis(t *testing.T) {
	assert.Equal(t, "short", TruncateToWidthWithEllipsis("short", 10))
	assert.Equal(t, "hello...", TruncateToWidthWithEllipsis("hello world", 8))
	assert.Equal(t, "he", TruncateToWidthWithEllipsis("hello", 2))
}

func TestPadStringToWidth(t *testing.T) {
	assert.Equal(t, "ab  ", PadStringToWidth("ab", 4))
	assert.Equal(t, "中 ", PadStringToWidth("中", 3))
	assert.Equal(t, "abcdef", PadStringToWidth("abcdef", 3))
}

func TestWrap(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		width    int
		expected []string
	}{
		{"short", "hello", 10, []string{"hello"}},
		{"word boundary", "hello big world", 10, []string{"hello big", "world"}},
		{"long word", "abcdefghij", 4, []string{"abcd", "efgh", "ij"}},
		{"newlines kept", "a\n\nb", 10, []string{"a", "", "b"}},
		{"wide runes", "中国中国", 5, []string{"中国", "中国"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Wrap(tt.text, tt.width))
		})
	}
}
