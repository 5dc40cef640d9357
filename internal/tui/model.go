// Package tui is a live-attach viewer for one running session: it renders
// the normalized entry stream as it arrives and lets the operator type a
// follow-up message or send an interrupt, the terminal-side counterpart to
// the webserver's WebSocket attach surface.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/loomrun/loom/internal/entry"
	"github.com/loomrun/loom/internal/executor"
)

// EntryMsg carries one normalized entry into the bubbletea event loop.
type EntryMsg struct {
	Entry entry.Entry
	Err   error
}

// DoneMsg signals that the entry stream has closed.
type DoneMsg struct {
	Err error
}

// Model is the bubbletea model for the attach viewer.
type Model struct {
	agentName string
	exec      *executor.Executor
	entryCh   chan EntryMsg

	lines []string
	done  bool
	err   error

	input  textinput.Model
	width  int
	height int
}

// NewModel builds a viewer bound to a running executor. It starts no
// goroutines itself; call Run to drive both the entry pump and the
// bubbletea program.
func NewModel(agentName string, exec *executor.Executor) Model {
	ti := newStyledInput()
	return Model{
		agentName: agentName,
		exec:      exec,
		entryCh:   make(chan EntryMsg, 256),
		input:     ti,
		width:     80,
		height:    24,
	}
}

func newStyledInput() textinput.Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.PromptStyle = lipgloss.NewStyle().Foreground(colorMauve)
	ti.TextStyle = lipgloss.NewStyle().Foreground(colorText)
	ti.Placeholder = "send a follow-up message, ctrl+c to interrupt"
	ti.Focus()
	return ti
}

// Run starts the entry pump and the bubbletea program, blocking until the
// program exits (the user quits, or the session ends and the viewer is
// dismissed).
func (m Model) Run() error {
	go func() {
		for e, err := range m.exec.Entries() {
			m.entryCh <- EntryMsg{Entry: e, Err: err}
		}
		close(m.entryCh)
	}()

	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err := p.Run()
	return err
}

func waitForEntry(ch chan EntryMsg) tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-ch
		if !ok {
			return DoneMsg{}
		}
		return msg
	}
}

func (m Model) Init() tea.Cmd {
	return waitForEntry(m.entryCh)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.input.Width = msg.Width - 2
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			go m.exec.Interrupt(context.Background())
			return m, nil
		case "esc":
			return m, tea.Quit
		case "enter":
			text := strings.TrimSpace(m.input.Value())
			m.input.SetValue("")
			if text == "" {
				return m, nil
			}
			go m.exec.SendMessage(text)
			return m, nil
		}
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd

	case EntryMsg:
		if msg.Err == nil {
			m.lines = append(m.lines, renderEntry(msg.Entry))
		}
		return m, waitForEntry(m.entryCh)

	case DoneMsg:
		m.done = true
		m.err = msg.Err
		return m, nil
	}
	return m, nil
}

func (m Model) View() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render(fmt.Sprintf(" loom attach — %s ", m.agentName)))
	b.WriteString("\n\n")

	body := m.visibleLines()
	for _, line := range body {
		b.WriteString(ansi.Truncate(line, m.width, "…"))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if m.done {
		status := "session ended"
		if m.err != nil {
			status = "session ended: " + m.err.Error()
		}
		b.WriteString(dimStyle.Render(status))
	} else {
		b.WriteString(m.input.View())
	}
	return b.String()
}

// visibleLines returns the tail of the rendered line buffer that fits the
// viewer's current height, leaving room for the header and input row.
func (m Model) visibleLines() []string {
	budget := m.height - 4
	if budget <= 0 || len(m.lines) <= budget {
		return m.lines
	}
	return m.lines[len(m.lines)-budget:]
}

func renderEntry(e entry.Entry) string {
	switch e.Kind {
	case entry.KindSystem:
		return dimStyle.Render(fmt.Sprintf("[system] model=%s tools=%v", e.Model, e.Tools))
	case entry.KindUser:
		return textLabelStyle.Render("user: ") + e.Text
	case entry.KindAssistant:
		return textLabelStyle.Render("assistant: ") + e.Text
	case entry.KindThinking:
		return dimStyle.Render("thinking: " + e.Text)
	case entry.KindToolUse:
		return toolLabelStyle.Render(fmt.Sprintf("tool_use[%s]: ", e.ToolName)) + describeAction(e.Action)
	case entry.KindToolResult:
		status := "ok"
		if !e.OK {
			status = "error"
		}
		return toolResultStyle.Render(fmt.Sprintf("tool_result[%s/%s]: ", e.CallID, status)) + e.Summary
	case entry.KindResult:
		status := "ok"
		if !e.OK {
			status = "failed"
		}
		return resultLabelStyle.Render(fmt.Sprintf("result: %s in %dms", status, e.DurationMS))
	default:
		return string(e.Kind)
	}
}

func describeAction(a entry.Action) string {
	switch a.Kind {
	case entry.ActionShell:
		return a.Cmd
	case entry.ActionFileRead, entry.ActionFileWrite, entry.ActionFileEdit, entry.ActionFileDelete:
		return a.Path
	case entry.ActionSearch:
		return a.Query
	case entry.ActionMCP:
		return a.Server + "/" + a.Tool
	default:
		return fmt.Sprintf("%v", a.Raw)
	}
}
