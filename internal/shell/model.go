package shell

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/tordrt/metacatalog/internal/executor"
	"github.com/tordrt/metacatalog/internal/formatter"
)

// Model is the shell's state
type Model struct {
	ctx  context.Context
	exec Executor

	editor  textarea.Model
	results viewport.Model
	spinner spinner.Model
	help    help.Model
	keys    keyMap

	width     int
	height    int
	executing bool
	showHelp  bool

	last     *executor.Outcome
	lastTime time.Duration
	history  []string
	// historyPos indexes history while browsing; len(history) means the
	// editor holds a fresh statement
	historyPos int
}

// NewModel creates the shell model running statements through exec
func NewModel(ctx context.Context, exec Executor) Model {
	ta := textarea.New()
	ta.Placeholder = "CREATE DATABASE shop"
	ta.CharLimit = 5000
	ta.ShowLineNumbers = false
	ta.SetHeight(4)
	ta.Focus()

	ta.FocusedStyle.CursorLine = lipgloss.NewStyle().Background(bgLight)
	ta.FocusedStyle.Placeholder = lipgloss.NewStyle().Foreground(textMuted)
	ta.FocusedStyle.Text = lipgloss.NewStyle().Foreground(textPrimary)

	vp := viewport.New(80, 10)
	vp.Style = resultStyle

	sp := spinner.New()
	sp.Spinner = spinner.Points
	sp.Style = lipgloss.NewStyle().Foreground(primaryColor)

	return Model{
		ctx:     ctx,
		exec:    exec,
		editor:  ta,
		results: vp,
		spinner: sp,
		help:    help.New(),
		keys:    keys,
	}
}

func (m Model) Init() tea.Cmd {
	return textarea.Blink
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateLayout()

	case tea.KeyMsg:
		if m.executing {
			if key.Matches(msg, m.keys.Quit) {
				return m, tea.Quit
			}
			return m, nil
		}

		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit

		case key.Matches(msg, m.keys.Execute):
			if stmt := strings.TrimSpace(m.editor.Value()); stmt != "" {
				return m.start(stmt)
			}
			return m, nil

		case key.Matches(msg, m.keys.ShowDatabases):
			return m.start("SHOW DATABASES")

		case key.Matches(msg, m.keys.Clear):
			m.editor.SetValue("")
			m.historyPos = len(m.history)
			return m, nil

		case key.Matches(msg, m.keys.HistoryPrev):
			m.browseHistory(-1)
			return m, nil

		case key.Matches(msg, m.keys.HistoryNext):
			m.browseHistory(1)
			return m, nil

		case key.Matches(msg, m.keys.Help):
			m.showHelp = !m.showHelp
			return m, nil
		}

	case outcomeMsg:
		m.executing = false
		m.last = msg.outcome
		m.lastTime = msg.duration
		m.history = append(m.history, msg.statement)
		m.historyPos = len(m.history)
		if msg.outcome.Success {
			m.editor.SetValue("")
		}
		m.results.SetContent(renderOutcome(msg.outcome))
		m.results.GotoTop()
		return m, nil

	case spinner.TickMsg:
		if m.executing {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil
	}

	if !m.executing {
		var cmd tea.Cmd
		m.editor, cmd = m.editor.Update(msg)
		cmds = append(cmds, cmd)

		m.results, cmd = m.results.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

func (m Model) start(stmt string) (tea.Model, tea.Cmd) {
	m.executing = true
	return m, tea.Batch(m.execute(stmt), m.spinner.Tick)
}

func (m *Model) browseHistory(step int) {
	if len(m.history) == 0 {
		return
	}
	pos := m.historyPos + step
	if pos < 0 {
		pos = 0
	}
	if pos >= len(m.history) {
		m.historyPos = len(m.history)
		m.editor.SetValue("")
		return
	}
	m.historyPos = pos
	m.editor.SetValue(m.history[pos])
}

func (m Model) View() string {
	sections := []string{m.renderHeader(), m.renderEditor()}

	switch {
	case m.executing:
		sections = append(sections, m.renderExecuting())
	case m.last != nil:
		sections = append(sections, m.renderStatus(), m.results.View())
	}

	sections = append(sections, m.renderStatusBar())

	if m.showHelp {
		sections = append(sections, m.renderHelp())
	}

	return appStyle.Render(strings.Join(sections, "\n"))
}

func (m Model) renderHeader() string {
	title := titleStyle.Render("metacatalog shell")
	count := lipgloss.NewStyle().
		Foreground(textSecondary).
		Render(fmt.Sprintf("Statements: %d", len(m.history)))
	return lipgloss.JoinHorizontal(lipgloss.Left, title, "  ", count)
}

func (m Model) renderEditor() string {
	label := lipgloss.NewStyle().
		Foreground(primaryColor).
		Bold(true).
		Render("Statement")
	return fmt.Sprintf("%s\n%s", label, editorStyle.Render(m.editor.View()))
}

func (m Model) renderExecuting() string {
	return lipgloss.NewStyle().
		Foreground(primaryColor).
		Padding(1, 0).
		Render(m.spinner.View() + " Executing statement...")
}

func (m Model) renderStatus() string {
	if m.last.Success {
		return successStyle.Render(" ✓ ") + " " + m.last.Message
	}
	return errorStyle.Render(" ⚠ ERROR ") + " " +
		lipgloss.NewStyle().Foreground(errorColor).Render(m.last.Message)
}

func (m Model) renderStatusBar() string {
	content := "● Connected"
	if m.lastTime > 0 {
		content += fmt.Sprintf(" | Last statement: %v", m.lastTime.Round(time.Millisecond))
	}
	content += " | Press F1 for help"

	width := m.width - 4
	if width < 0 {
		width = 0
	}
	return statusBarStyle.Width(width).Render(content)
}

func (m Model) renderHelp() string {
	helpText := m.help.FullHelpView([][]key.Binding{
		{
			m.keys.Execute,
			m.keys.Clear,
			m.keys.ShowDatabases,
		},
		{
			m.keys.HistoryPrev,
			m.keys.HistoryNext,
			m.keys.Help,
			m.keys.Quit,
		},
	})

	return lipgloss.NewStyle().
		Border(lipgloss.DoubleBorder()).
		BorderForeground(primaryColor).
		Padding(1, 2).
		Render(helpText)
}

// updateLayout adjusts component sizes based on window size
func (m *Model) updateLayout() {
	editorHeight := 4
	resultHeight := m.height - editorHeight - 12
	if resultHeight < 3 {
		resultHeight = 3
	}

	m.editor.SetWidth(m.width - 6)
	m.results.Width = m.width - 6
	m.results.Height = resultHeight
}

// renderOutcome reuses the text formatter so the shell and exec agree
func renderOutcome(out *executor.Outcome) string {
	var buf bytes.Buffer
	_ = formatter.NewTextFormatter(&buf).FormatOutcome(out)
	return buf.String()
}

type outcomeMsg struct {
	statement string
	outcome   *executor.Outcome
	duration  time.Duration
}

func (m Model) execute(stmt string) tea.Cmd {
	return func() tea.Msg {
		start := time.Now()
		out, err := m.exec.Execute(m.ctx, stmt)
		if err != nil {
			out = executor.ErrorOutcome(err)
		}
		return outcomeMsg{
			statement: stmt,
			outcome:   out,
			duration:  time.Since(start),
		}
	}
}
