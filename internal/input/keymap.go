// Package input maps key sequences and command lines to actions
package input

import (
	"slices"
	"strings"
)

// Scope is the set of bindings active in a mode
type Scope int

const (
	ScopeNormal Scope = iota
	ScopeInsert
	ScopeDiffReview
	ScopeCommand
	ScopeSearch
)

// Action names what a binding does
type Action string

const (
	ActionMoveDown     Action = "move_down"
	ActionMoveUp       Action = "move_up"
	ActionMoveLeft     Action = "move_left"
	ActionMoveRight    Action = "move_right"
	ActionTop          Action = "top"
	ActionBottom       Action = "bottom"
	ActionSearch       Action = "search"
	ActionCommand      Action = "command"
	ActionHelp         Action = "help"
	ActionQuit         Action = "quit"
	ActionToggleChat   Action = "toggle_chat"
	ActionNormalMode   Action = "normal_mode"
	ActionAcceptHunk   Action = "accept_hunk"
	ActionRejectHunk   Action = "reject_hunk"
	ActionAcceptAll    Action = "accept_all"
	ActionRejectAll    Action = "reject_all"
	ActionApply        Action = "apply"
	ActionNextHunk     Action = "next_hunk"
	ActionPrevHunk     Action = "prev_hunk"
	ActionToggleHunk   Action = "toggle_hunk"
	ActionOpenEditor   Action = "open_editor"
	ActionPushNeovim   Action = "push_neovim"
	ActionLineNumbers  Action = "toggle_line_numbers"
	ActionNextFile     Action = "next_file"
	ActionPrevFile     Action = "prev_file"
	ActionBackToPrompt Action = "back_to_prompt"
)

// Binding is a key sequence bound to an action
type Binding struct {
	Keys        []string
	Action      Action
	Description string
}

// Keymap holds the bindings of every scope
type Keymap struct {
	bindings map[Scope][]Binding
}

// NewKeymap creates an empty keymap
func NewKeymap() *Keymap {
	return &Keymap{bindings: make(map[Scope][]Binding)}
}

// Bind adds or replaces the binding for keys in scope
func (k *Keymap) Bind(scope Scope, keys []string, action Action, description string) {
	list := k.bindings[scope]
	for i := range list {
		if slices.Equal(list[i].Keys, keys) {
			list[i] = Binding{Keys: keys, Action: action, Description: description}
			return
		}
	}
	k.bindings[scope] = append(list, Binding{Keys: keys, Action: action, Description: description})
}

// Lookup returns the binding for exactly seq
func (k *Keymap) Lookup(scope Scope, seq []string) (Binding, bool) {
	for _, b := range k.bindings[scope] {
		if slices.Equal(b.Keys, seq) {
			return b, true
		}
	}
	return Binding{}, false
}

// HasPrefix reports whether seq starts a longer binding
func (k *Keymap) HasPrefix(scope Scope, seq []string) bool {
	for _, b := range k.bindings[scope] {
		if len(b.Keys) > len(seq) && slices.Equal(b.Keys[:len(seq)], seq) {
			return true
		}
	}
	return false
}

// Bindings returns the bindings of scope in the order they were added
func (k *Keymap) Bindings(scope Scope) []Binding {
	return slices.Clone(k.bindings[scope])
}

// KeysFor returns the key sequences bound to action in scope, for help text
func (k *Keymap) KeysFor(scope Scope, action Action) []string {
	var out []string
	for _, b := range k.bindings[scope] {
		if b.Action == action {
			out = append(out, strings.Join(b.Keys, ""))
		}
	}
	return out
}

// DefaultVim returns the vim-like preset
func DefaultVim() *Keymap {
	k := NewKeymap()

	for _, scope := range []Scope{ScopeNormal, ScopeDiffReview} {
		k.Bind(scope, []string{"j"}, ActionMoveDown, "Move down")
		k.Bind(scope, []string{"k"}, ActionMoveUp, "Move up")
		k.Bind(scope, []string{"<Down>"}, ActionMoveDown, "Move down")
		k.Bind(scope, []string{"<Up>"}, ActionMoveUp, "Move up")
		k.Bind(scope, []string{"g", "g"}, ActionTop, "Go to top")
		k.Bind(scope, []string{"G"}, ActionBottom, "Go to bottom")
		k.Bind(scope, []string{"/"}, ActionSearch, "Search")
		k.Bind(scope, []string{":"}, ActionCommand, "Command mode")
		k.Bind(scope, []string{"?"}, ActionHelp, "Toggle help")
		k.Bind(scope, []string{"q"}, ActionQuit, "Quit")
		k.Bind(scope, []string{"<C-c>"}, ActionQuit, "Quit")
		k.Bind(scope, []string{"<C-b>"}, ActionToggleChat, "Toggle chat panel")
	}
	k.Bind(ScopeNormal, []string{"h"}, ActionMoveLeft, "Move left")
	k.Bind(ScopeNormal, []string{"l"}, ActionMoveRight, "Move right")

	k.Bind(ScopeInsert, []string{"<Esc>"}, ActionNormalMode, "Leave prompt")
	k.Bind(ScopeInsert, []string{"<C-c>"}, ActionQuit, "Quit")

	k.Bind(ScopeDiffReview, []string{"a"}, ActionAcceptHunk, "Accept hunk")
	k.Bind(ScopeDiffReview, []string{"y"}, ActionAcceptHunk, "Accept hunk")
	k.Bind(ScopeDiffReview, []string{"r"}, ActionRejectHunk, "Reject hunk")
	k.Bind(ScopeDiffReview, []string{"n"}, ActionRejectHunk, "Reject hunk")
	k.Bind(ScopeDiffReview, []string{"A"}, ActionAcceptAll, "Accept all hunks")
	k.Bind(ScopeDiffReview, []string{"Y"}, ActionAcceptAll, "Accept all hunks")
	k.Bind(ScopeDiffReview, []string{"R"}, ActionRejectAll, "Reject all hunks")
	k.Bind(ScopeDiffReview, []string{"N"}, ActionRejectAll, "Reject all hunks")
	k.Bind(ScopeDiffReview, []string{"<Enter>"}, ActionApply, "Apply accepted hunks")
	k.Bind(ScopeDiffReview, []string{"J"}, ActionNextHunk, "Next hunk")
	k.Bind(ScopeDiffReview, []string{"K"}, ActionPrevHunk, "Previous hunk")
	k.Bind(ScopeDiffReview, []string{"]", "f"}, ActionNextFile, "Next file")
	k.Bind(ScopeDiffReview, []string{"[", "f"}, ActionPrevFile, "Previous file")
	k.Bind(ScopeDiffReview, []string{"<Space>"}, ActionToggleHunk, "Toggle hunk")
	k.Bind(ScopeDiffReview, []string{"e"}, ActionOpenEditor, "Open file at hunk")
	k.Bind(ScopeDiffReview, []string{"p"}, ActionPushNeovim, "Push hunks to Neovim")
	k.Bind(ScopeDiffReview, []string{"L"}, ActionLineNumbers, "Toggle line numbers")
	k.Bind(ScopeDiffReview, []string{"i"}, ActionBackToPrompt, "New prompt")

	k.Bind(ScopeCommand, []string{"<Esc>"}, ActionNormalMode, "Cancel")
	k.Bind(ScopeSearch, []string{"<Esc>"}, ActionNormalMode, "Cancel")
	return k
}
