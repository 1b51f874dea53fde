package output

import (
	"fmt"
	"os"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"

	"phylovi.dev/treevi/internal/optimize"
)

// IsTTY reports whether both stdin and stdout are attached to a terminal
func IsTTY() bool {
	return (isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd())) &&
		(isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd()))
}

// StepProgressUI defines the interface for gradient-step progress display
type StepProgressUI interface {
	// Start initializes the UI for a run of totalSteps steps
	Start(totalSteps int)
	// UpdateStep reports one completed optimizer step
	UpdateStep(record optimize.StepRecord)
	// Complete finalizes the UI
	Complete()
}

// NewStepProgressUI creates the appropriate progress UI based on TTY availability
func NewStepProgressUI(splog *Splog) StepProgressUI {
	if IsTTY() {
		return NewTTYStepProgress()
	}
	return NewSimpleStepProgress(splog)
}

// SimpleStepProgress prints progress line by line (non-TTY)
type SimpleStepProgress struct {
	splog      *Splog
	totalSteps int
}

// NewSimpleStepProgress creates a new simple progress UI
func NewSimpleStepProgress(splog *Splog) *SimpleStepProgress {
	return &SimpleStepProgress{splog: splog}
}

func (p *SimpleStepProgress) Start(totalSteps int) {
	p.totalSteps = totalSteps
	p.splog.Info("Gradient descent: %d steps", totalSteps)
}

func (p *SimpleStepProgress) UpdateStep(record optimize.StepRecord) {
	p.splog.Info("  step %d/%d  ELBO %.4f  step size %.2g",
		record.Step, p.totalSteps, record.Elbo, record.StepSize)
}

func (p *SimpleStepProgress) Complete() {
	p.splog.Newline()
}

// TTYStepProgress uses bubbletea for animated progress (TTY)
type TTYStepProgress struct {
	program *tea.Program
	model   *ttyStepModel
}

// NewTTYStepProgress creates a new TTY progress UI
func NewTTYStepProgress() *TTYStepProgress {
	return &TTYStepProgress{}
}

func (p *TTYStepProgress) Start(totalSteps int) {
	p.model = newTTYStepModel(totalSteps)
	p.program = tea.NewProgram(p.model, tea.WithInput(os.Stdin), tea.WithOutput(os.Stdout))

	// Run program in background
	go func() {
		_, _ = p.program.Run()
	}()
}

func (p *TTYStepProgress) UpdateStep(record optimize.StepRecord) {
	if p.program == nil {
		return
	}
	p.program.Send(stepUpdateMsg{record: record})
}

func (p *TTYStepProgress) Complete() {
	if p.program == nil {
		return
	}
	p.program.Send(stepCompleteMsg{})
	p.program.Wait()
}

// Internal bubbletea model for TTY progress
type ttyStepModel struct {
	totalSteps int
	last       optimize.StepRecord
	started    bool
	done       bool
	spinner    spinner.Model
	styles     stepStyles
}

type stepStyles struct {
	spinnerStyle lipgloss.Style
	doneStyle    lipgloss.Style
	elboStyle    lipgloss.Style
	dimStyle     lipgloss.Style
}

type stepUpdateMsg struct {
	record optimize.StepRecord
}

type stepCompleteMsg struct{}

func newTTYStepModel(totalSteps int) *ttyStepModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	return &ttyStepModel{
		totalSteps: totalSteps,
		spinner:    s,
		styles: stepStyles{
			spinnerStyle: lipgloss.NewStyle().Foreground(lipgloss.Color("205")),
			doneStyle:    lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
			elboStyle:    lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Bold(true),
			dimStyle:     lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
		},
	}
}

func (m *ttyStepModel) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m *ttyStepModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case stepUpdateMsg:
		m.last = msg.record
		m.started = true
		return m, m.spinner.Tick

	case stepCompleteMsg:
		m.done = true
		return m, tea.Quit
	}
	return m, nil
}

func (m *ttyStepModel) View() string {
	if m.done {
		if !m.started {
			return ""
		}
		return m.styles.doneStyle.Render("✓") +
			fmt.Sprintf(" Gradient descent finished after %d steps, ELBO %s\n",
				m.last.Step, m.styles.elboStyle.Render(fmt.Sprintf("%.4f", m.last.Elbo)))
	}
	line := m.spinner.View() + " Gradient descent"
	if m.started {
		line += fmt.Sprintf(" %s %s %s",
			m.styles.dimStyle.Render(fmt.Sprintf("step %d/%d", m.last.Step, m.totalSteps)),
			m.styles.elboStyle.Render(fmt.Sprintf("ELBO %.4f", m.last.Elbo)),
			m.styles.dimStyle.Render(fmt.Sprintf("step size %.2g", m.last.StepSize)))
	}
	return line + "\n"
}
