package cmd

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// sendStage is the step of a send the spinner reports.
type sendStage string

const (
	stageConnecting sendStage = "connecting"
	stageHandshake  sendStage = "waiting for handshake"
	stageApplying   sendStage = "applying tone"
)

type sendStageMsg struct {
	stage  sendStage
	target string
}

type sendDoneMsg struct {
	err error
}

var (
	sendIDStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	sendElapsedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
)

type sendSpinnerModel struct {
	spinner   spinner.Model
	commandID string
	stage     sendStage
	target    string
	started   time.Time
	now       func() time.Time
	send      tea.Cmd
	err       error
	done      bool
}

func newSendSpinnerModel(commandID string, now func() time.Time, send tea.Cmd) sendSpinnerModel {
	s := spinner.New(
		spinner.WithSpinner(spinner.Dot),
		spinner.WithStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("69"))),
	)

	return sendSpinnerModel{
		spinner:   s,
		commandID: commandID,
		stage:     stageConnecting,
		started:   now(),
		now:       now,
		send:      send,
	}
}

func (m sendSpinnerModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.send)
}

func (m sendSpinnerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case sendStageMsg:
		m.stage = msg.stage
		if msg.target != "" {
			m.target = msg.target
		}
		return m, nil
	case sendDoneMsg:
		m.done = true
		m.err = msg.err
		return m, tea.Quit
	default:
		return m, nil
	}
}

func (m sendSpinnerModel) View() string {
	if m.done {
		return ""
	}

	line := fmt.Sprintf("%s %s", m.spinner.View(), m.stage)
	if m.target != "" {
		line += " on " + m.target
	}
	elapsed := m.now().Sub(m.started).Truncate(100 * time.Millisecond)

	return fmt.Sprintf("%s %s %s", line,
		sendIDStyle.Render(m.commandID),
		sendElapsedStyle.Render(elapsed.String()),
	)
}

// runSendSpinner shows progress for commandID while send runs. send reports
// its stages through the callback it is given.
func runSendSpinner(ctx context.Context, output io.Writer, commandID string, send func(context.Context, func(sendStage, string)) error) error {
	var p *tea.Program
	report := func(stage sendStage, target string) {
		p.Send(sendStageMsg{stage: stage, target: target})
	}
	sendCmd := func() tea.Msg {
		return sendDoneMsg{err: send(ctx, report)}
	}

	p = tea.NewProgram(
		newSendSpinnerModel(commandID, time.Now, sendCmd),
		tea.WithInput(nil),
		tea.WithOutput(output),
		tea.WithContext(ctx),
	)

	finalModel, err := p.Run()
	if err != nil {
		return err
	}

	result, ok := finalModel.(sendSpinnerModel)
	if !ok {
		return fmt.Errorf("unexpected final spinner model type %T", finalModel)
	}

	return result.err
}
