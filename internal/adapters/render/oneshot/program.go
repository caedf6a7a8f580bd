// Package oneshot runs a bubbletea program that renders a single frame
// without a terminal and returns it as a string.
package oneshot

import (
	"errors"
	"io"

	tea "github.com/charmbracelet/bubbletea"
)

var ErrUnexpectedModel = errors.New("unexpected final bubbletea model type")

type readyMsg struct{}

type model struct {
	draw   func() string
	output string
}

func (m model) Init() tea.Cmd {
	return func() tea.Msg { return readyMsg{} }
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if _, ok := msg.(readyMsg); ok {
		m.output = m.draw()
		return m, tea.Quit
	}
	return m, nil
}

func (m model) View() string {
	return m.output
}

// Render runs draw once inside a program with no input and discarded output.
func Render(draw func() string) (string, error) {
	if draw == nil {
		return "", errors.New("oneshot: draw is nil")
	}

	finalModel, err := tea.NewProgram(
		model{draw: draw},
		tea.WithInput(nil),
		tea.WithOutput(io.Discard),
	).Run()
	if err != nil {
		return "", err
	}

	rendered, ok := finalModel.(model)
	if !ok {
		return "", ErrUnexpectedModel
	}
	return rendered.View(), nil
}
