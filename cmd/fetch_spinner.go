package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type fetchStageMsg string

type fetchDoneMsg struct {
	err error
}

type fetchSpinnerModel struct {
	spinner spinner.Model
	stage   string
	wait    tea.Cmd
	err     error
	done    bool
}

func newFetchSpinnerModel(stage string, wait tea.Cmd) fetchSpinnerModel {
	s := spinner.New(
		spinner.WithSpinner(spinner.Dot),
		spinner.WithStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("69"))),
	)

	return fetchSpinnerModel{
		spinner: s,
		stage:   stage,
		wait:    wait,
	}
}

func (m fetchSpinnerModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.wait)
}

func (m fetchSpinnerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case fetchStageMsg:
		m.stage = string(msg)
		return m, m.wait
	case fetchDoneMsg:
		m.done = true
		m.err = msg.err
		return m, tea.Quit
	default:
		return m, nil
	}
}

func (m fetchSpinnerModel) View() string {
	if m.done {
		return ""
	}

	return fmt.Sprintf("%s %s", m.spinner.View(), m.stage)
}

// runFetchSpinner runs fetch in the background and shows the latest stage it
// reports next to a spinner until it returns.
func runFetchSpinner(ctx context.Context, output io.Writer, fetch func(context.Context, func(string)) error) error {
	stages := make(chan string, 8)
	done := make(chan error, 1)

	go func() {
		done <- fetch(ctx, func(stage string) {
			select {
			case stages <- stage:
			default:
			}
		})
	}()

	wait := func() tea.Msg {
		select {
		case stage := <-stages:
			return fetchStageMsg(stage)
		case err := <-done:
			return fetchDoneMsg{err: err}
		}
	}

	p := tea.NewProgram(
		newFetchSpinnerModel("Joining network...", wait),
		tea.WithInput(nil),
		tea.WithOutput(output),
		tea.WithContext(ctx),
	)

	finalModel, err := p.Run()
	if err != nil {
		return err
	}

	result, ok := finalModel.(fetchSpinnerModel)
	if !ok {
		return fmt.Errorf("unexpected final spinner model type %T", finalModel)
	}

	return result.err
}
