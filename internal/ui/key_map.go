package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the TUI.
type keyMap struct {
	up      key.Binding
	down    key.Binding
	enter   key.Binding
	next    key.Binding
	search  key.Binding
	back    key.Binding
	toggle  key.Binding
	volUp   key.Binding
	volDown key.Binding
	mute    key.Binding
	nextTrk key.Binding
	prevTrk key.Binding
	shuffle key.Binding
	repeat  key.Binding
	refresh key.Binding
	quit    key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		up:      key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		down:    key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		enter:   key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "play")),
		next:    key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "section")),
		search:  key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search")),
		back:    key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		toggle:  key.NewBinding(key.WithKeys(" ", "space"), key.WithHelp("space", "play/pause")),
		volUp:   key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+", "volume up")),
		volDown: key.NewBinding(key.WithKeys("-"), key.WithHelp("-", "volume down")),
		mute:    key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "mute")),
		nextTrk: key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "next")),
		prevTrk: key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "previous")),
		shuffle: key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "shuffle")),
		repeat:  key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "repeat")),
		refresh: key.NewBinding(key.WithKeys("ctrl+r"), key.WithHelp("ctrl+r", "reload")),
		quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.enter, k.toggle, k.next, k.search, k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.up, k.down, k.enter, k.next},
		{k.search, k.back, k.refresh},
		{k.toggle, k.volUp, k.volDown, k.mute},
		{k.prevTrk, k.nextTrk, k.shuffle, k.repeat, k.quit},
	}
}
