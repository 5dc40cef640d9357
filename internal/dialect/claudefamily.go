package dialect

import (
	"github.com/loomrun/loom/internal/entry"
)

// normalizeClaudeFamily implements the stream-json shape shared by the
// Claude Code CLI and, per the normalization rules' explicit "best effort"
// allowance for vendors outside the Claude family, the structurally similar
// CLIs (codex, cursor-agent, copilot) that also emit an assistant message
// as a list of content blocks. Vendor-specific quirks are handled by each
// adapter's thin wrapper around this function. A tool name classifyTool
// does not recognize becomes tool_use{unknown}; a record type not handled
// here produces no entry at all.
func normalizeClaudeFamily(raw map[string]any, state State) ([]entry.Entry, State) {
	typ := getString(raw, "type")

	switch typ {
	case "system":
		if state.SystemEmitted {
			return nil, state
		}
		state.SystemEmitted = true
		var tools []string
		if rawTools, ok := raw["tools"].([]any); ok {
			for _, t := range rawTools {
				if s, ok := t.(string); ok {
					tools = append(tools, s)
				}
			}
		}
		e := entry.System(getString(raw, "session_id"), getString(raw, "model"), getString(raw, "cwd"), tools)
		return []entry.Entry{e}, state

	case "assistant":
		return normalizeMessage(raw, state, true)

	case "user":
		return normalizeMessage(raw, state, false)

	case "result":
		ok := !getBool(raw, "is_error")
		durationMS, _ := getFloat(raw, "duration_ms")
		var usage *entry.Usage
		if u, ok := raw["usage"].(map[string]any); ok {
			usage = &entry.Usage{}
			if v, ok := getFloat(u, "input_tokens"); ok {
				usage.InputTokens = int(v)
			}
			if v, ok := getFloat(u, "output_tokens"); ok {
				usage.OutputTokens = int(v)
			}
		}
		if cost, ok := getFloat(raw, "total_cost_usd"); ok {
			if usage == nil {
				usage = &entry.Usage{}
			}
			usage.CostUSD = cost
		}
		exitCode := 0
		if !ok {
			exitCode = 1
		}
		state.ResultEmitted = true
		return []entry.Entry{entry.Result(ok, exitCode, int64(durationMS), usage)}, state

	default:
		return nil, state
	}
}

// normalizeMessage handles both "assistant" (isAssistant=true) and "user"
// (isAssistant=false) records, each carrying a message.content array of
// typed blocks.
func normalizeMessage(raw map[string]any, state State, isAssistant bool) ([]entry.Entry, State) {
	message, _ := raw["message"].(map[string]any)
	if message == nil {
		message = raw
	}
	blocks, _ := message["content"].([]any)
	if blocks == nil {
		// Some vendors send bare text with no content-block wrapping.
		if text := getString(raw, "text"); text != "" {
			if isAssistant {
				return []entry.Entry{entry.Assistant(text)}, state
			}
			return []entry.Entry{entry.User(text)}, state
		}
		return nil, state
	}

	var out []entry.Entry
	var text string
	for _, rawBlock := range blocks {
		block, ok := rawBlock.(map[string]any)
		if !ok {
			continue
		}
		switch getString(block, "type") {
		case "text":
			text += getString(block, "text")
		case "thinking":
			if t := getString(block, "thinking"); t != "" {
				out = append(out, entry.Thinking(t))
			} else if t := getString(block, "text"); t != "" {
				out = append(out, entry.Thinking(t))
			}
		case "tool_use":
			name := getString(block, "name")
			callID := getString(block, "id")
			action := classifyTool(name, block["input"])
			out = append(out, entry.ToolUse(callID, name, action))
			state = state.withPending(callID, name)
		case "tool_result":
			callID := getString(block, "tool_use_id")
			ok := !getBool(block, "is_error")
			summary := toolResultSummary(block["content"])
			out = append(out, entry.ToolResult(callID, ok, summary))
			state = state.withoutPending(callID)
		}
	}
	if text != "" {
		if isAssistant {
			out = append(out, entry.Assistant(text))
		} else {
			out = append(out, entry.User(text))
		}
	}
	return out, state
}

// toolResultSummary renders a tool_result block's content (either a bare
// string or a list of {type,text} blocks) into a short summary string.
func toolResultSummary(content any) string {
	switch v := content.(type) {
	case string:
		return v
	case []any:
		var s string
		for _, item := range v {
			m, ok := item.(map[string]any)
			if !ok {
				continue
			}
			if t := getString(m, "text"); t != "" {
				if s != "" {
					s += "\n"
				}
				s += t
			}
		}
		return s
	default:
		return ""
	}
}
