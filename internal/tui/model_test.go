package tui

import (
	"context"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/loomrun/loom/internal/dialect"
	"github.com/loomrun/loom/internal/entry"
	"github.com/loomrun/loom/internal/executor"
)

func newTestExecutor(t *testing.T, script string) *executor.Executor {
	t.Helper()
	e := executor.New("generic", dialect.NewGeneric(), dialect.Config{Executable: "sh", Args: []string{"-c", script}})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	if err := e.ExecuteTask(ctx, ""); err != nil {
		t.Fatalf("ExecuteTask: %v", err)
	}
	return e
}

func TestRenderEntryCoversEveryKind(t *testing.T) {
	cases := []entry.Entry{
		entry.System("s1", "m", "/work", []string{"bash"}),
		entry.User("hi"),
		entry.Assistant("hello"),
		entry.Thinking("pondering"),
		entry.ToolUse("c1", "bash", entry.Action{Kind: entry.ActionShell, Cmd: "ls"}),
		entry.ToolResult("c1", true, "done"),
		entry.Result(true, 0, 12, nil),
	}
	for _, e := range cases {
		if got := renderEntry(e); got == "" {
			t.Fatalf("renderEntry(%v) returned empty string", e)
		}
	}
}

func TestModelAccumulatesEntriesAndHandlesResize(t *testing.T) {
	e := newTestExecutor(t, `printf '{"type":"assistant","message":{"content":[{"type":"text","text":"hi"}]}}\n'`)
	m := NewModel("generic", e)

	updated, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	m = updated.(Model)
	if m.width != 100 || m.height != 30 {
		t.Fatalf("expected window size to be recorded, got %dx%d", m.width, m.height)
	}

	updated, _ = m.Update(EntryMsg{Entry: entry.Assistant("hi")})
	m = updated.(Model)
	if len(m.lines) != 1 {
		t.Fatalf("expected 1 rendered line, got %d", len(m.lines))
	}

	updated, _ = m.Update(DoneMsg{})
	m = updated.(Model)
	if !m.done {
		t.Fatal("expected done to be set after DoneMsg")
	}
}

func TestModelEnterSendsMessageToRunningExecutor(t *testing.T) {
	e := newTestExecutor(t, `cat >/dev/null`)
	m := NewModel("generic", e)
	m.input.SetValue("keep going")

	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = updated.(Model)
	if m.input.Value() != "" {
		t.Fatalf("expected input to clear after enter, got %q", m.input.Value())
	}

	e.Interrupt(context.Background())
}

func TestVisibleLinesTrimsToHeightBudget(t *testing.T) {
	m := Model{height: 6}
	for i := 0; i < 10; i++ {
		m.lines = append(m.lines, renderEntry(entry.Assistant("line")))
	}
	visible := m.visibleLines()
	if len(visible) != 2 {
		t.Fatalf("expected 2 visible lines for a height-6 budget, got %d", len(visible))
	}
}
