package dialect

import (
	"context"

	"github.com/loomrun/loom/internal/entry"
	"github.com/loomrun/loom/internal/protocol"
)

// geminiAdapter binds the Gemini CLI's flat (non-content-block) event
// shape: {type, role, content, delta, tool_name, tool_id, parameters,
// status, output, stats}. This is the one genuinely different dialect
// shape observed across the vendor family, so unlike codex/cursor/copilot
// it gets its own normalizer rather than reusing the claude-family one.
type geminiAdapter struct{}

// NewGemini constructs the gemini adapter.
func NewGemini() Adapter { return geminiAdapter{} }

func (geminiAdapter) Name() string      { return "gemini" }
func (geminiAdapter) DefaultMode() Mode { return ModeStructured }

func (geminiAdapter) BuildSpawnSpec(cfg Config, task string) SpawnSpec {
	executable := cfg.Executable
	if executable == "" {
		executable = "gemini"
	}
	argv := []string{"--output-format", "json"}
	if cfg.Model != "" {
		argv = append(argv, "--model", cfg.Model)
	}
	if cfg.AutoApprove {
		argv = append(argv, "--yolo")
	}
	argv = appendMCPFlags(argv, cfg.MCPServers)

	prompt := task
	if cfg.AppendPrompt != "" {
		prompt += "\n\n" + cfg.AppendPrompt
	}
	argv = append(argv, "--prompt", prompt)

	return SpawnSpec{
		Executable: executable,
		Argv:       argv,
		Env:        mcpEnv(cfg.MCPServers),
		WorkDir:    cfg.WorkDir,
		Mode:       ModeStructured,
	}
}

func (geminiAdapter) Normalize(raw map[string]any, state State) ([]entry.Entry, State) {
	typ := getString(raw, "type")

	switch typ {
	case "init":
		if state.SystemEmitted {
			return nil, state
		}
		state.SystemEmitted = true
		return []entry.Entry{entry.System(getString(raw, "session_id"), getString(raw, "model"), "", nil)}, state

	case "message":
		role := getString(raw, "role")
		if role != "assistant" {
			return nil, state
		}
		content := getString(raw, "content")
		if getBool(raw, "delta") {
			state.textBuf += content
			return nil, state
		}
		text := state.textBuf + content
		state.textBuf = ""
		if text == "" {
			return nil, state
		}
		return []entry.Entry{entry.Assistant(text)}, state

	case "tool_use":
		name := getString(raw, "tool_name")
		callID := getString(raw, "tool_id")
		action := classifyTool(name, raw["parameters"])
		state = state.withPending(callID, name)
		return []entry.Entry{entry.ToolUse(callID, name, action)}, state

	case "tool_result":
		callID := getString(raw, "tool_id")
		ok := getString(raw, "status") != "error"
		state = state.withoutPending(callID)
		return []entry.Entry{entry.ToolResult(callID, ok, getString(raw, "output"))}, state

	case "result", "done":
		ok := getString(raw, "status") != "error"
		var usage *entry.Usage
		if stats, ok := raw["stats"].(map[string]any); ok {
			usage = &entry.Usage{}
			if v, ok := getFloat(stats, "input_tokens"); ok {
				usage.InputTokens = int(v)
			}
			if v, ok := getFloat(stats, "output_tokens"); ok {
				usage.OutputTokens = int(v)
			}
		}
		durationMS, _ := getFloat(raw, "duration_ms")
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

func (geminiAdapter) InterruptSubtype() (protocol.Subtype, bool) {
	return "", false
}

func (geminiAdapter) Start(ctx context.Context, peer *protocol.Peer, cfg Config, task string) error {
	return nil
}
