package tui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/adajed/searchview/internal/navigator"
)

// Model drives a navigator from bubbletea messages.
type Model struct {
	nav    *navigator.Navigator
	canvas *Canvas
	err    error
}

// NewModel wraps nav. The canvas is sized on the first WindowSizeMsg.
func NewModel(nav *navigator.Navigator) Model {
	return Model{nav: nav, canvas: NewCanvas(0, 0)}
}

// Err is the store error that ended the session, if any.
func (m Model) Err() error { return m.err }

func (m Model) Init() tea.Cmd { return nil }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if err := m.nav.Handle(translate(msg)); err != nil {
			m.err = err
			return m, tea.Quit
		}
		if m.nav.Done() {
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.canvas.Resize(msg.Width, msg.Height)
	}
	return m, nil
}

func (m Model) View() string {
	if w, _ := m.canvas.Size(); w == 0 || m.nav.Done() {
		return ""
	}
	navigator.Paint(m.canvas, m.nav)
	return m.canvas.String()
}

// Run shows nav on the alternate screen until the user quits.
func Run(nav *navigator.Navigator, opts ...tea.ProgramOption) error {
	opts = append([]tea.ProgramOption{tea.WithAltScreen()}, opts...)
	final, err := tea.NewProgram(NewModel(nav), opts...).Run()
	if err != nil {
		return fmt.Errorf("run tui: %w", err)
	}
	if m, ok := final.(Model); ok && m.err != nil {
		return m.err
	}
	return nil
}
