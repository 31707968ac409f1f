package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the TUI.
type keyMap struct {
	up     key.Binding
	down   key.Binding
	pick   key.Binding
	accept key.Binding
	reject key.Binding
	quit   key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		up:     key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		down:   key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		pick:   key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "use selected")),
		accept: key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "accept best")),
		reject: key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "skip song")),
		quit:   key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.up, k.down, k.pick},
		{k.accept, k.reject, k.quit},
	}
}
