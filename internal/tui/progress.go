// internal/tui/progress.go
// Package: tui
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/mwiater/lmbench/internal/bench"
	"github.com/mwiater/lmbench/internal/results"
)

var (
	titleStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true)
	okStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("46"))
	failStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	spinnerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))
)

type (
	runStartedMsg   struct{ total int }
	modelStartedMsg struct {
		model        string
		index, count int
	}
	modelSkippedMsg struct{ model, reason string }
	requestDoneMsg  struct {
		done, total int
		status      results.Status
		elapsed     time.Duration
		label       string
	}
	modelSavedMsg  struct{ out bench.Output }
	runFinishedMsg struct {
		outputs []bench.Output
		err     error
	}
	// workDoneMsg is sent when the work function returns, whether or not the
	// runner reported a finish.
	workDoneMsg struct{ err error }
)

// model is the progress screen of a benchmark run.
type model struct {
	title   string
	spinner spinner.Model
	bar     progress.Model
	cancel  context.CancelFunc

	total, done, failures int
	current               string
	modelIndex, models    int
	last                  string
	skipped               []string
	saved                 []bench.Output

	finished bool
	err      error
	quitting bool
}

func newModel(title string, cancel context.CancelFunc) *model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = spinnerStyle
	return &model{
		title:   title,
		spinner: s,
		bar:     progress.New(progress.WithDefaultGradient(), progress.WithWidth(50)),
		cancel:  cancel,
	}
}

func (m *model) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			m.quitting = true
			if m.cancel != nil {
				m.cancel()
			}
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		w := msg.Width - 10
		if w > 80 {
			w = 80
		}
		if w < 10 {
			w = 10
		}
		m.bar.Width = w
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case runStartedMsg:
		m.total = msg.total
	case modelStartedMsg:
		m.current, m.modelIndex, m.models = msg.model, msg.index, msg.count
	case modelSkippedMsg:
		m.skipped = append(m.skipped, msg.model)
	case requestDoneMsg:
		m.done, m.total = msg.done, msg.total
		if !msg.status.IsSuccess() {
			m.failures++
		}
		m.last = fmt.Sprintf("%s %s in %s", msg.label, msg.status, msg.elapsed.Round(10*time.Millisecond))
	case modelSavedMsg:
		m.saved = append(m.saved, msg.out)
	case runFinishedMsg:
		m.finished = true
		m.err = msg.err
	case workDoneMsg:
		m.finished = true
		if m.err == nil {
			m.err = msg.err
		}
		return m, tea.Quit
	}
	return m, nil
}

func (m *model) percent() float64 {
	if m.total <= 0 {
		return 0
	}
	return float64(m.done) / float64(m.total)
}

func (m *model) View() string {
	var b strings.Builder

	switch {
	case m.finished && m.err != nil:
		b.WriteString(failStyle.Render("✗ "+m.title+" aborted: "+m.err.Error()) + "\n")
	case m.finished:
		b.WriteString(okStyle.Render("✓ "+m.title+" completed") + "\n")
	case m.quitting:
		b.WriteString(dimStyle.Render("Stopping...") + "\n")
	default:
		head := m.title
		if m.current != "" {
			head = fmt.Sprintf("%s: %s (%d/%d)", m.title, m.current, m.modelIndex, m.models)
		}
		b.WriteString(m.spinner.View() + " " + titleStyle.Render(head) + "\n")
	}

	b.WriteString(m.bar.ViewAs(m.percent()))
	b.WriteString(fmt.Sprintf(" %d/%d\n", m.done, m.total))

	if m.last != "" {
		b.WriteString(dimStyle.Render("last: "+m.last) + "\n")
	}
	failures := fmt.Sprintf("failures: %d", m.failures)
	if m.failures > 0 {
		failures = failStyle.Render(failures)
	}
	b.WriteString(failures + "\n")
	if len(m.skipped) > 0 {
		b.WriteString(failStyle.Render("skipped: "+strings.Join(m.skipped, ", ")) + "\n")
	}
	for _, out := range m.saved {
		b.WriteString(dimStyle.Render(fmt.Sprintf("saved %s (%d requests)", out.Path, out.Requests)) + "\n")
	}
	if !m.finished && !m.quitting {
		b.WriteString(dimStyle.Render("press q to stop") + "\n")
	}
	return b.String()
}
