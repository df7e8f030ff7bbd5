package tui

import (
	"fmt"
	"time"

	"github.com/brizzai/auto-xhr/internal/xhr"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

// settledMsg carries the outcome of the watched future.
type settledMsg struct {
	res *xhr.Result
	err error
}

// ProgressModel shows a spinner until a request settles, then prints a one
// line summary and quits.
type ProgressModel struct {
	spinner  spinner.Model
	future   *xhr.Future
	label    string
	started  time.Time
	res      *xhr.Result
	err      error
	done     bool
	canceled bool
}

// NewProgressModel watches f. label names the request, e.g. "GET /pets".
func NewProgressModel(label string, f *xhr.Future) ProgressModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = spinnerStyle
	return ProgressModel{spinner: s, future: f, label: label, started: time.Now()}
}

func (m ProgressModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, waitFor(m.future))
}

func waitFor(f *xhr.Future) tea.Cmd {
	return func() tea.Msg {
		<-f.Done()
		res, err := f.Result()
		return settledMsg{res: res, err: err}
	}
}

func (m ProgressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case settledMsg:
		m.res, m.err, m.done = msg.res, msg.err, true
		return m, tea.Quit

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyEsc {
			m.canceled = true
			return m, tea.Quit
		}
		return m, nil

	case spinner.TickMsg:
		if m.done {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m ProgressModel) View() string {
	switch {
	case m.done:
		return m.summary() + "\n"
	case m.canceled:
		return failedMessageStyle("✗ "+m.label+" (interrupted)") + "\n"
	default:
		elapsed := time.Since(m.started).Truncate(100 * time.Millisecond)
		return fmt.Sprintf("%s %s %s\n", m.spinner.View(), m.label, mutedStyle.Render(elapsed.String()))
	}
}

func (m ProgressModel) summary() string {
	if m.err != nil {
		line := "✗ " + m.label
		if xerr, ok := xhr.AsError(m.err); ok {
			line += fmt.Sprintf(" %v", xerr.Kind)
			if xerr.Status != 0 {
				line += fmt.Sprintf(" (%d %s)", xerr.Status, xerr.StatusText)
			}
		} else {
			line += " " + m.err.Error()
		}
		return failedMessageStyle(line)
	}
	return completeMessageStyle(fmt.Sprintf("✓ %s %d %s", m.label, m.res.Status, m.res.StatusText)) +
		" " + mutedStyle.Render(m.res.Duration.Truncate(time.Millisecond).String())
}

// Outcome returns what the request settled with.
func (m ProgressModel) Outcome() (*xhr.Result, error) {
	return m.res, m.err
}

// Canceled reports whether the user quit before the request settled.
func (m ProgressModel) Canceled() bool {
	return m.canceled
}
