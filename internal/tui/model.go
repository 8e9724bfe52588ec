// Package tui implements the interactive calculator REPL.
package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/pengelbrecht/calc/internal/calculator"
	"github.com/pengelbrecht/calc/internal/numfmt"
)

const maxScrollback = 50

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	exprStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	resultStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	helpStyle   = lipgloss.NewStyle().Faint(true)
)

// Recorder receives every evaluation the REPL performs.
type Recorder func(expr calculator.Expr, result int, err error)

// line is one scrollback entry.
type line struct {
	input  string
	result string
	failed bool
}

// Model is the Bubble Tea model for the REPL.
type Model struct {
	calc   calculator.Calculator
	format numfmt.Formatter
	record Recorder

	input    textinput.Model
	lines    []line
	width    int
	quitting bool
}

// NewModel creates a REPL model. record may be nil.
func NewModel(calc calculator.Calculator, format numfmt.Formatter, record Recorder) Model {
	ti := textinput.New()
	ti.Placeholder = "10 / 3"
	ti.Prompt = "> "
	ti.CharLimit = 128
	ti.Focus()

	return Model{
		calc:   calc,
		format: format,
		record: record,
		input:  ti,
		width:  80,
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyEsc, tea.KeyCtrlC:
			m.quitting = true
			return m, tea.Quit
		case tea.KeyEnter:
			m = m.submit()
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) submit() Model {
	raw := strings.TrimSpace(m.input.Value())
	m.input.Reset()
	if raw == "" {
		return m
	}

	entry := line{input: raw}
	expr, err := calculator.ParseExpr(raw)
	if err == nil {
		var value int
		value, err = m.calc.Eval(expr)
		if m.record != nil {
			m.record(expr, value, err)
		}
		if err == nil {
			entry.input = expr.String()
			entry.result = m.format.Int(value)
		}
	}
	if err != nil {
		entry.result = err.Error()
		entry.failed = true
	}

	m.lines = append([]line{entry}, m.lines...)
	if len(m.lines) > maxScrollback {
		m.lines = m.lines[:maxScrollback]
	}
	return m
}

// View implements tea.Model.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("calc"))
	b.WriteString(helpStyle.Render("  (" + m.calc.Mode.String() + " overflow)"))
	b.WriteString("\n\n")
	b.WriteString(m.input.View())
	b.WriteString("\n\n")

	for _, l := range m.lines {
		var rendered string
		if l.failed {
			rendered = exprStyle.Render(l.input) + "  " + errorStyle.Render("error: "+l.result)
		} else {
			rendered = exprStyle.Render(l.input) + " = " + resultStyle.Render(l.result)
		}
		b.WriteString(ansi.Truncate(rendered, m.width, "…"))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(helpStyle.Render("enter: evaluate · esc: quit"))
	return b.String()
}

// Run starts the REPL on the terminal.
func Run(calc calculator.Calculator, format numfmt.Formatter, record Recorder) error {
	_, err := tea.NewProgram(NewModel(calc, format, record)).Run()
	return err
}
