package webserver

import "github.com/loomrun/loom/internal/entry"

// wireEntry is the JSON-over-the-wire shape of a normalized entry. entry.Entry
// itself carries no json tags — it is the vendor-independent core type, not
// a serialization format — so the attach surface translates through this
// DTO instead, the same way the session wrapper keeps transport concerns
// out of the entry model.
type wireEntry struct {
	Kind string `json:"kind"`

	SessionID string   `json:"session_id,omitempty"`
	Model     string   `json:"model,omitempty"`
	Tools     []string `json:"tools,omitempty"`
	CWD       string   `json:"cwd,omitempty"`

	Text string `json:"text,omitempty"`

	ToolName string      `json:"tool_name,omitempty"`
	CallID   string      `json:"call_id,omitempty"`
	Action   *wireAction `json:"action,omitempty"`

	OK      bool   `json:"ok,omitempty"`
	Summary string `json:"summary,omitempty"`

	ExitCode   int        `json:"exit_code,omitempty"`
	DurationMS int64      `json:"duration_ms,omitempty"`
	Usage      *wireUsage `json:"usage,omitempty"`
}

type wireAction struct {
	Kind   string   `json:"kind"`
	Cmd    string   `json:"cmd,omitempty"`
	Path   string   `json:"path,omitempty"`
	Query  string   `json:"query,omitempty"`
	Items  []string `json:"items,omitempty"`
	Server string   `json:"server,omitempty"`
	Tool   string   `json:"tool,omitempty"`
}

type wireUsage struct {
	InputTokens  int     `json:"input_tokens,omitempty"`
	OutputTokens int     `json:"output_tokens,omitempty"`
	CostUSD      float64 `json:"cost_usd,omitempty"`
}

func toWireEntry(e entry.Entry) wireEntry {
	w := wireEntry{
		Kind:       string(e.Kind),
		SessionID:  e.SessionID,
		Model:      e.Model,
		Tools:      e.Tools,
		CWD:        e.CWD,
		Text:       e.Text,
		ToolName:   e.ToolName,
		CallID:     e.CallID,
		OK:         e.OK,
		Summary:    e.Summary,
		ExitCode:   e.ExitCode,
		DurationMS: e.DurationMS,
	}
	if e.Kind == entry.KindToolUse {
		w.Action = &wireAction{
			Kind:   string(e.Action.Kind),
			Cmd:    e.Action.Cmd,
			Path:   e.Action.Path,
			Query:  e.Action.Query,
			Items:  e.Action.Items,
			Server: e.Action.Server,
			Tool:   e.Action.Tool,
		}
	}
	if e.Usage != nil {
		w.Usage = &wireUsage{
			InputTokens:  e.Usage.InputTokens,
			OutputTokens: e.Usage.OutputTokens,
			CostUSD:      e.Usage.CostUSD,
		}
	}
	return w
}
