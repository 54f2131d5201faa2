package tui

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/adajed/searchview/internal/navigator"
)

type keyMap struct {
	Descend key.Binding
	Ascend  key.Binding
	Up      key.Binding
	Down    key.Binding
	First   key.Binding
	Last    key.Binding
	Quit    key.Binding
}

var keys = keyMap{
	Descend: key.NewBinding(key.WithKeys("enter", "right", "l", "L"), key.WithHelp("enter/l", "open")),
	Ascend:  key.NewBinding(key.WithKeys("backspace", "left", "h", "H", "p", "P"), key.WithHelp("h/p", "back")),
	Up:      key.NewBinding(key.WithKeys("up", "k", "K"), key.WithHelp("k/up", "up")),
	Down:    key.NewBinding(key.WithKeys("down", "j", "J"), key.WithHelp("j/down", "down")),
	First:   key.NewBinding(key.WithKeys("u", "U"), key.WithHelp("u", "first")),
	Last:    key.NewBinding(key.WithKeys("d", "D"), key.WithHelp("d", "exit entry")),
	Quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
}

// translate maps a key press to a navigator key. Unbound keys give KeyNone.
func translate(msg tea.KeyMsg) navigator.Key {
	switch {
	case key.Matches(msg, keys.Quit):
		return navigator.KeyQuit
	case key.Matches(msg, keys.Descend):
		return navigator.KeyDescend
	case key.Matches(msg, keys.Ascend):
		return navigator.KeyAscend
	case key.Matches(msg, keys.Up):
		return navigator.KeyUp
	case key.Matches(msg, keys.Down):
		return navigator.KeyDown
	case key.Matches(msg, keys.First):
		return navigator.KeyFirst
	case key.Matches(msg, keys.Last):
		return navigator.KeyLast
	}
	return navigator.KeyNone
}
