package dialect

import (
	"strings"

	"github.com/loomrun/loom/internal/entry"
)

// classifyTool maps a vendor tool-call name and its raw input to a
// canonical Action, following the classification rules every adapter
// shares regardless of dialect.
func classifyTool(name string, input any) entry.Action {
	lower := strings.ToLower(strings.TrimSpace(name))

	switch {
	case isOneOf(lower, "bash", "shell", "exec", "run"):
		return entry.Action{Kind: entry.ActionShell, Cmd: firstString(input, "command", "cmd", "script")}
	case isOneOf(lower, "read", "open_file", "cat"):
		return entry.Action{Kind: entry.ActionFileRead, Path: firstString(input, "path", "file_path", "file")}
	case isOneOf(lower, "write", "create_file"):
		return entry.Action{Kind: entry.ActionFileWrite, Path: firstString(input, "path", "file_path", "file")}
	case isOneOf(lower, "edit", "str_replace", "apply_patch"):
		return entry.Action{Kind: entry.ActionFileEdit, Path: firstString(input, "path", "file_path", "file")}
	case isOneOf(lower, "delete", "rm"):
		return entry.Action{Kind: entry.ActionFileDelete, Path: firstString(input, "path", "file_path", "file")}
	case isOneOf(lower, "grep", "glob", "search", "codebase_search"):
		return entry.Action{Kind: entry.ActionSearch, Query: firstString(input, "query", "pattern", "q")}
	case isOneOf(lower, "todo_write", "todo_read"):
		return entry.Action{Kind: entry.ActionTodo, Items: todoItems(input)}
	case strings.HasPrefix(lower, "mcp__"):
		server, tool := splitMCPName(name)
		return entry.Action{Kind: entry.ActionMCP, Server: server, Tool: tool}
	default:
		return entry.Action{Kind: entry.ActionUnknown, Raw: input}
	}
}

func isOneOf(s string, options ...string) bool {
	for _, o := range options {
		if s == o {
			return true
		}
	}
	return false
}

// firstString extracts the most likely "primary argument" string for a
// tool's input, trying known key names in order before falling back to any
// string value present and finally to the input itself if it's already a
// bare string.
func firstString(input any, keys ...string) string {
	switch v := input.(type) {
	case string:
		return v
	case map[string]any:
		for _, k := range keys {
			if s, ok := v[k].(string); ok {
				return s
			}
		}
		// Fall back to the lexicographically first string-valued field so
		// the result is deterministic rather than map-iteration-order
		// dependent.
		var bestKey, bestVal string
		found := false
		for k, val := range v {
			s, ok := val.(string)
			if !ok {
				continue
			}
			if !found || k < bestKey {
				bestKey, bestVal, found = k, s, true
			}
		}
		return bestVal
	default:
		return ""
	}
}

func todoItems(input any) []string {
	m, ok := input.(map[string]any)
	if !ok {
		return nil
	}
	raw, ok := m["todos"].([]any)
	if !ok {
		raw, ok = m["items"].([]any)
		if !ok {
			return nil
		}
	}
	items := make([]string, 0, len(raw))
	for _, it := range raw {
		switch v := it.(type) {
		case string:
			items = append(items, v)
		case map[string]any:
			if s, ok := v["content"].(string); ok {
				items = append(items, s)
			} else if s, ok := v["text"].(string); ok {
				items = append(items, s)
			}
		}
	}
	return items
}

// splitMCPName parses "mcp__<server>__<tool>" into its parts. If the tool
// segment is itself further delimited, it is rejoined with "__" rather than
// truncated.
func splitMCPName(name string) (server, tool string) {
	trimmed := strings.TrimPrefix(name, "mcp__")
	parts := strings.SplitN(trimmed, "__", 2)
	server = parts[0]
	if len(parts) > 1 {
		tool = parts[1]
	}
	return server, tool
}
