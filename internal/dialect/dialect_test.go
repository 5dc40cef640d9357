package dialect

import (
	"testing"
)

func TestAllAdaptersDeclareName(t *testing.T) {
	adapters := []Adapter{
		NewClaude(), NewCodex(), NewGemini(), NewCursor(), NewCopilot(), NewGeneric(), NewACP(),
	}
	seen := map[string]bool{}
	for _, a := range adapters {
		name := a.Name()
		if name == "" {
			t.Fatalf("adapter %T has empty Name()", a)
		}
		if seen[name] {
			t.Fatalf("duplicate adapter name %q", name)
		}
		seen[name] = true
	}
}

func TestClaudeNormalizeHello(t *testing.T) {
	a := NewClaude()
	var state State

	sys := map[string]any{
		"type":       "system",
		"session_id": "sess-1",
		"model":      "claude-opus-4",
		"cwd":        "/work",
		"tools":      []any{"bash", "read"},
	}
	entries, state := a.Normalize(sys, state)
	if len(entries) != 1 || entries[0].Kind != "system" {
		t.Fatalf("expected one system entry, got %+v", entries)
	}
	if !state.SystemEmitted {
		t.Fatal("expected SystemEmitted to be set")
	}

	// A second system record must be suppressed (invariant: at most one).
	entries, state = a.Normalize(sys, state)
	if len(entries) != 0 {
		t.Fatalf("expected duplicate system record to be dropped, got %+v", entries)
	}

	asst := map[string]any{
		"type": "assistant",
		"message": map[string]any{
			"content": []any{
				map[string]any{"type": "text", "text": "hi there"},
			},
		},
	}
	entries, state = a.Normalize(asst, state)
	if len(entries) != 1 || entries[0].Kind != "assistant" || entries[0].Text != "hi there" {
		t.Fatalf("unexpected assistant entries: %+v", entries)
	}

	result := map[string]any{
		"type":           "result",
		"is_error":       false,
		"duration_ms":    123.0,
		"total_cost_usd": 0.02,
		"usage": map[string]any{
			"input_tokens":  10.0,
			"output_tokens": 20.0,
		},
	}
	entries, state = a.Normalize(result, state)
	if len(entries) != 1 || entries[0].Kind != "result" || !entries[0].OK {
		t.Fatalf("unexpected result entries: %+v", entries)
	}
	if !state.ResultEmitted {
		t.Fatal("expected ResultEmitted to be set")
	}
	if entries[0].Usage == nil || entries[0].Usage.InputTokens != 10 || entries[0].Usage.CostUSD != 0.02 {
		t.Fatalf("unexpected usage: %+v", entries[0].Usage)
	}
}

func TestClaudeToolUseRoundTrip(t *testing.T) {
	a := NewClaude()
	var state State

	toolUse := map[string]any{
		"type": "assistant",
		"message": map[string]any{
			"content": []any{
				map[string]any{
					"type":  "tool_use",
					"id":    "call-1",
					"name":  "bash",
					"input": map[string]any{"command": "ls -la"},
				},
			},
		},
	}
	entries, state := a.Normalize(toolUse, state)
	if len(entries) != 1 || entries[0].Kind != "tool_use" {
		t.Fatalf("expected one tool_use entry, got %+v", entries)
	}
	if entries[0].Action.Kind != "shell" || entries[0].Action.Cmd != "ls -la" {
		t.Fatalf("unexpected action: %+v", entries[0].Action)
	}
	if _, pending := state.pending["call-1"]; !pending {
		t.Fatal("expected call-1 to be tracked as pending")
	}

	toolResult := map[string]any{
		"type": "user",
		"message": map[string]any{
			"content": []any{
				map[string]any{
					"type":        "tool_result",
					"tool_use_id": "call-1",
					"is_error":    false,
					"content":     "total 0",
				},
			},
		},
	}
	entries, state = a.Normalize(toolResult, state)
	if len(entries) != 1 || entries[0].Kind != "tool_result" || !entries[0].OK {
		t.Fatalf("unexpected tool_result entries: %+v", entries)
	}
	if entries[0].Summary != "total 0" {
		t.Fatalf("unexpected summary: %q", entries[0].Summary)
	}
	if _, pending := state.pending["call-1"]; pending {
		t.Fatal("expected call-1 to be untracked after its result")
	}
}

func TestClassifyToolActionKinds(t *testing.T) {
	cases := []struct {
		name string
		kind string
	}{
		{"bash", "shell"},
		{"Read", "file_read"},
		{"write", "file_write"},
		{"edit", "file_edit"},
		{"rm", "file_delete"},
		{"grep", "search"},
		{"todo_write", "todo"},
		{"mcp__github__create_issue", "mcp"},
		{"something_weird", "unknown"},
	}
	for _, c := range cases {
		action := classifyTool(c.name, map[string]any{"command": "x", "path": "x", "query": "x"})
		if string(action.Kind) != c.kind {
			t.Errorf("classifyTool(%q) = %q, want %q", c.name, action.Kind, c.kind)
		}
	}
}

func TestMCPActionSplitsServerAndTool(t *testing.T) {
	action := classifyTool("mcp__github__create_issue", map[string]any{})
	if action.Server != "github" || action.Tool != "create_issue" {
		t.Fatalf("unexpected mcp action: %+v", action)
	}
}

func TestGeminiFlatShapeNormalize(t *testing.T) {
	a := NewGemini()
	var state State

	init := map[string]any{"type": "init", "session_id": "s1", "model": "gemini-pro"}
	entries, state := a.Normalize(init, state)
	if len(entries) != 1 || entries[0].Kind != "system" {
		t.Fatalf("expected system entry, got %+v", entries)
	}

	delta1 := map[string]any{"type": "message", "role": "assistant", "content": "Hel", "delta": true}
	entries, state = a.Normalize(delta1, state)
	if len(entries) != 0 {
		t.Fatalf("expected delta to buffer silently, got %+v", entries)
	}

	delta2 := map[string]any{"type": "message", "role": "assistant", "content": "lo", "delta": false}
	entries, state = a.Normalize(delta2, state)
	if len(entries) != 1 || entries[0].Text != "Hello" {
		t.Fatalf("expected flushed buffer text 'Hello', got %+v", entries)
	}
}

func TestCopilotReusesGeminiShape(t *testing.T) {
	c := NewCopilot()
	g := NewGemini()
	raw := map[string]any{"type": "init", "session_id": "s1", "model": "m"}
	ce, _ := c.Normalize(raw, State{})
	ge, _ := g.Normalize(raw, State{})
	if len(ce) != len(ge) || len(ce) != 1 {
		t.Fatalf("expected matching single-entry output, got copilot=%+v gemini=%+v", ce, ge)
	}
}

func TestACPSessionUpdateNormalize(t *testing.T) {
	a := NewACP()
	var state State

	chunk := map[string]any{
		"method": "session/update",
		"params": map[string]any{
			"sessionId": "sess-1",
			"update": map[string]any{
				"sessionUpdate": "agent_message_chunk",
				"content":       map[string]any{"type": "text", "text": "working on it"},
			},
		},
	}
	entries, state := a.Normalize(chunk, state)
	if len(entries) != 1 || entries[0].Kind != "assistant" || entries[0].Text != "working on it" {
		t.Fatalf("unexpected entries: %+v", entries)
	}

	toolCall := map[string]any{
		"method": "session/update",
		"params": map[string]any{
			"update": map[string]any{
				"sessionUpdate": "tool_call",
				"toolCallId":    "t1",
				"title":         "write",
				"rawInput":      map[string]any{"path": "/tmp/a.txt"},
			},
		},
	}
	entries, state = a.Normalize(toolCall, state)
	if len(entries) != 1 || entries[0].Kind != "tool_use" || entries[0].Action.Kind != "file_write" {
		t.Fatalf("unexpected tool call entries: %+v", entries)
	}

	toolUpdate := map[string]any{
		"method": "session/update",
		"params": map[string]any{
			"update": map[string]any{
				"sessionUpdate": "tool_call_update",
				"toolCallId":    "t1",
				"status":        "completed",
				"content":       map[string]any{"type": "text", "text": "wrote 12 bytes"},
			},
		},
	}
	entries, state = a.Normalize(toolUpdate, state)
	if len(entries) != 1 || entries[0].Kind != "tool_result" || !entries[0].OK {
		t.Fatalf("unexpected tool update entries: %+v", entries)
	}
	if _, pending := state.pending["t1"]; pending {
		t.Fatal("expected t1 to be untracked after completion")
	}

	subtype, ok := a.InterruptSubtype()
	if !ok || subtype != "interrupt" {
		t.Fatalf("expected acp adapter to support interrupt subtype, got %q ok=%v", subtype, ok)
	}
}

func TestGenericAdapterBuildSpawnSpecUsesArgsPassthrough(t *testing.T) {
	a := NewGeneric()
	cfg := Config{Executable: "my-tool", Args: []string{"run", "--flag"}}
	spec := a.BuildSpawnSpec(cfg, "do the thing")
	if spec.Executable != "my-tool" {
		t.Fatalf("unexpected executable: %q", spec.Executable)
	}
	if len(spec.Argv) != 3 || spec.Argv[0] != "run" || spec.Argv[2] != "do the thing" {
		t.Fatalf("unexpected argv: %v", spec.Argv)
	}
}

func TestNonClaudeAdaptersFallBackToSIGINT(t *testing.T) {
	for _, a := range []Adapter{NewCodex(), NewGemini(), NewCursor(), NewCopilot(), NewGeneric()} {
		if _, ok := a.InterruptSubtype(); ok {
			t.Errorf("%s: expected no interrupt subtype (SIGINT fallback)", a.Name())
		}
	}
	if _, ok := NewClaude().InterruptSubtype(); !ok {
		t.Error("claude: expected an interrupt subtype")
	}
}
