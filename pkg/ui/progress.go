package ui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// ErrCanceled is returned by RunWithProgress when the user quits early
var ErrCanceled = errors.New("canceled")

// Task is the work shown behind a spinner. status updates the label.
type Task func(ctx context.Context, status func(string)) (interface{}, error)

// Progress is a bubbletea model showing a spinner until a task finishes
type Progress struct {
	spinner  spinner.Model
	theme    Theme
	label    string
	status   string
	started  time.Time
	elapsed  time.Duration
	now      func() time.Time
	done     bool
	canceled bool
	result   interface{}
	err      error
}

// NewProgress creates a spinner model with the given label
func NewProgress(theme Theme, label string) Progress {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(theme.Primary)
	return Progress{
		spinner: s,
		theme:   theme,
		label:   label,
		now:     time.Now,
	}
}

// Init starts the spinner
func (m Progress) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update handles spinner ticks, status updates and completion
func (m Progress) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			m.canceled = true
			return m, tea.Quit
		}
	case StatusMsg:
		m.status = string(msg)
		return m, nil
	case DoneMsg:
		m.done = true
		m.result = msg.Result
		m.err = msg.Err
		if !m.started.IsZero() {
			m.elapsed = m.now().Sub(m.started)
		}
		return m, tea.Quit
	case spinner.TickMsg:
		if m.started.IsZero() {
			m.started = m.now()
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

// View renders the spinner line, or a final status once done
func (m Progress) View() string {
	switch {
	case m.canceled:
		return m.theme.Styles.Poor.Render("✗ "+m.label+" canceled") + "\n"
	case m.done && m.err != nil:
		return m.theme.Styles.Poor.Render("✗ "+m.label+" failed") + "\n"
	case m.done:
		line := m.theme.Styles.Good.Render("✓ " + m.label)
		if m.elapsed > 0 {
			line += m.theme.Styles.Muted.Render(fmt.Sprintf(" (%s)", m.elapsed.Round(time.Millisecond)))
		}
		return line + "\n"
	}

	line := m.spinner.View() + " " + m.label
	if m.status != "" {
		line += m.theme.Styles.Muted.Render(" " + m.status)
	}
	return line + "\n"
}

// Done reports whether the task finished
func (m Progress) Done() bool { return m.done }

// Canceled reports whether the user quit before the task finished
func (m Progress) Canceled() bool { return m.canceled }

// Result returns the task result and error
func (m Progress) Result() (interface{}, error) { return m.result, m.err }

// RunWithProgress runs task while showing a spinner on out. Without a
// terminal the task runs directly.
func RunWithProgress(ctx context.Context, out io.Writer, theme Theme, label string, interactive bool, task Task) (interface{}, error) {
	if !interactive {
		return task(ctx, func(string) {})
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(NewProgress(theme, label),
		tea.WithOutput(out),
		tea.WithInput(nil),
		tea.WithContext(ctx),
	)

	go func() {
		result, err := task(ctx, func(s string) { p.Send(StatusMsg(s)) })
		p.Send(DoneMsg{Result: result, Err: err})
	}()

	final, err := p.Run()
	if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return nil, err
	}
	m, ok := final.(Progress)
	if !ok || !m.Done() {
		return nil, ErrCanceled
	}
	return m.Result()
}
