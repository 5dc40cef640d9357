// Package entry defines the canonical, vendor-independent event model that
// every dialect adapter normalizes its raw records into.
package entry

// Kind discriminates the variants of a NormalizedEntry.
type Kind string

const (
	KindSystem     Kind = "system"
	KindUser       Kind = "user"
	KindAssistant  Kind = "assistant"
	KindThinking   Kind = "thinking"
	KindToolUse    Kind = "tool_use"
	KindToolResult Kind = "tool_result"
	KindResult     Kind = "result"
)

// ActionKind discriminates the variants of a tool_use Action.
type ActionKind string

const (
	ActionShell      ActionKind = "shell"
	ActionFileRead   ActionKind = "file_read"
	ActionFileWrite  ActionKind = "file_write"
	ActionFileEdit   ActionKind = "file_edit"
	ActionFileDelete ActionKind = "file_delete"
	ActionSearch     ActionKind = "search"
	ActionTodo       ActionKind = "todo"
	ActionMCP        ActionKind = "mcp"
	ActionUnknown    ActionKind = "unknown"
)

// Action is the tagged union nested inside a tool_use entry. Only the field
// matching Kind is meaningful.
type Action struct {
	Kind ActionKind

	Cmd    string   // shell
	Path   string   // file_read, file_write, file_edit, file_delete
	Query  string   // search
	Items  []string // todo
	Server string   // mcp
	Tool   string   // mcp
	Raw    any      // unknown
}

// Usage carries vendor-reported token/cost accounting for a result entry.
// All fields are optional; a zero value means "not reported".
type Usage struct {
	InputTokens  int
	OutputTokens int
	CostUSD      float64
}

// Entry is the canonical normalized event. Only the fields relevant to Kind
// are populated; the rest are zero values.
type Entry struct {
	Kind Kind

	// system
	SessionID string
	Model     string
	Tools     []string
	CWD       string

	// user, assistant, thinking
	Text string

	// tool_use
	ToolName string
	Action   Action
	CallID   string

	// tool_result
	OK      bool
	Summary string

	// result (terminal)
	ExitCode   int
	DurationMS int64
	Usage      *Usage
}

// System builds a system entry.
func System(sessionID, model, cwd string, tools []string) Entry {
	return Entry{Kind: KindSystem, SessionID: sessionID, Model: model, CWD: cwd, Tools: tools}
}

// User builds a user entry.
func User(text string) Entry { return Entry{Kind: KindUser, Text: text} }

// Assistant builds an assistant entry.
func Assistant(text string) Entry { return Entry{Kind: KindAssistant, Text: text} }

// Thinking builds a thinking entry.
func Thinking(text string) Entry { return Entry{Kind: KindThinking, Text: text} }

// ToolUse builds a tool_use entry.
func ToolUse(callID, toolName string, action Action) Entry {
	return Entry{Kind: KindToolUse, CallID: callID, ToolName: toolName, Action: action}
}

// ToolResult builds a tool_result entry.
func ToolResult(callID string, ok bool, summary string) Entry {
	return Entry{Kind: KindToolResult, CallID: callID, OK: ok, Summary: summary}
}

// Result builds a terminal result entry.
func Result(ok bool, exitCode int, durationMS int64, usage *Usage) Entry {
	return Entry{Kind: KindResult, OK: ok, ExitCode: exitCode, DurationMS: durationMS, Usage: usage}
}

// IsFileMutation reports whether this tool_use entry wrote or edited a file,
// the set counted by the session wrapper's files-changed metric.
func (e Entry) IsFileMutation() bool {
	if e.Kind != KindToolUse {
		return false
	}
	return e.Action.Kind == ActionFileWrite || e.Action.Kind == ActionFileEdit
}
