package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the keybindings for the browse screen.
type KeyMap struct {
	// Navigation
	Prev   key.Binding
	Next   key.Binding
	Skip   key.Binding
	Rescan key.Binding

	// Edits
	RotateCW  key.Binding
	RotateCCW key.Binding
	FlipH     key.Binding
	FlipV     key.Binding
	Commit    key.Binding
	Discard   key.Binding

	// Rating & file actions
	Rate   key.Binding
	Delete key.Binding

	// General
	Help key.Binding
	Quit key.Binding
}

// DefaultKeyMap returns the stock bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Prev: key.NewBinding(
			key.WithKeys("left", "h"),
			key.WithHelp("←/h", "previous (saves edits)"),
		),
		Next: key.NewBinding(
			key.WithKeys("right", "l"),
			key.WithHelp("→/l", "next (saves edits)"),
		),
		Skip: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "skip (discards edits)"),
		),
		Rescan: key.NewBinding(
			key.WithKeys("g"),
			key.WithHelp("g", "rescan folder"),
		),
		RotateCW: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "rotate clockwise"),
		),
		RotateCCW: key.NewBinding(
			key.WithKeys("R"),
			key.WithHelp("R", "rotate counter-clockwise"),
		),
		FlipH: key.NewBinding(
			key.WithKeys("f"),
			key.WithHelp("f", "flip horizontal"),
		),
		FlipV: key.NewBinding(
			key.WithKeys("F"),
			key.WithHelp("F", "flip vertical"),
		),
		Commit: key.NewBinding(
			key.WithKeys("w"),
			key.WithHelp("w", "save edits now"),
		),
		Discard: key.NewBinding(
			key.WithKeys("u"),
			key.WithHelp("u", "discard edits"),
		),
		Rate: key.NewBinding(
			key.WithKeys("0", "1", "2", "3", "4", "5"),
			key.WithHelp("0-5", "rate"),
		),
		Delete: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "delete image"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "toggle help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// ShortHelp implements help.KeyMap.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Prev, k.Next, k.RotateCW, k.Rate, k.Delete, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Prev, k.Next, k.Skip, k.Rescan},
		{k.RotateCW, k.RotateCCW, k.FlipH, k.FlipV},
		{k.Rate, k.Commit, k.Discard, k.Delete},
		{k.Help, k.Quit},
	}
}
