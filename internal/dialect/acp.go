package dialect

import (
	"context"
	"fmt"
	"time"

	"github.com/loomrun/loom/internal/entry"
	"github.com/loomrun/loom/internal/protocol"
)

// acpHandshakeTimeout bounds each of the three Start requests individually
// — initialize, session/new, and session/prompt are each capped rather
// than the handshake as a whole, so a child that answers the first two
// promptly but stalls on session/prompt still times out promptly.
const acpHandshakeTimeout = 10 * time.Second

// acpAdapter binds agents that speak the Agent Client Protocol instead of
// scraping a CLI's stdout. ACP frames its own JSON-RPC envelope
// (initialize, session/new, session/prompt, session/update,
// session/request_permission) over the same NDJSON transport the other
// adapters use; this adapter only has to unwrap the session/update
// notification payload's "sessionUpdate" discriminator and translate it into
// canonical entries, since request/response correlation for everything it
// sends itself is handled by Start and the protocol peer's SendJSONRPC.
//
// Unlike the four CLI-scraping vendors, an ACP agent is invoked directly by
// name (no flag-guessing): BuildSpawnSpec passes Config.Args through
// untouched, trusting the caller to have supplied the agent's own launch
// command. The task itself never reaches argv or stdin directly — it is
// delivered by Start's session/prompt call once the child is up and the
// protocol peer is running.
type acpAdapter struct{}

// NewACP constructs the ACP library-mode adapter.
func NewACP() Adapter { return acpAdapter{} }

func (acpAdapter) Name() string      { return "acp" }
func (acpAdapter) DefaultMode() Mode { return ModeStructured }

func (acpAdapter) BuildSpawnSpec(cfg Config, task string) SpawnSpec {
	return SpawnSpec{
		Executable: cfg.Executable,
		Argv:       cfg.Args,
		Env:        mcpEnv(cfg.MCPServers),
		WorkDir:    cfg.WorkDir,
		Mode:       ModeStructured,
	}
}

// Start runs the ACP handshake over peer: initialize, then session/new,
// then session/prompt carrying the task as the session's first user
// message. Each step blocks for its own response before the next is sent,
// matching the protocol's strictly sequential handshake. A failure at any
// step is fatal to the session — an ACP agent that never completes
// initialize or session/new has nothing to normalize.
func (acpAdapter) Start(ctx context.Context, peer *protocol.Peer, cfg Config, task string) error {
	if _, err := peer.SendJSONRPC(ctx, "initialize", map[string]any{
		"protocolVersion": 1,
	}, acpHandshakeTimeout); err != nil {
		return fmt.Errorf("acp initialize: %w", err)
	}

	newResult, err := peer.SendJSONRPC(ctx, "session/new", map[string]any{
		"cwd": cfg.WorkDir,
	}, acpHandshakeTimeout)
	if err != nil {
		return fmt.Errorf("acp session/new: %w", err)
	}
	sessionID, _ := newResult["sessionId"].(string)

	prompt := task
	if cfg.AppendPrompt != "" {
		prompt += "\n\n" + cfg.AppendPrompt
	}
	if _, err := peer.SendJSONRPC(ctx, "session/prompt", map[string]any{
		"sessionId": sessionID,
		"prompt": []map[string]any{
			{"type": "text", "text": prompt},
		},
	}, acpHandshakeTimeout); err != nil {
		return fmt.Errorf("acp session/prompt: %w", err)
	}
	return nil
}

func (acpAdapter) Normalize(raw map[string]any, state State) ([]entry.Entry, State) {
	method := getString(raw, "method")
	if method != "session/update" {
		return nil, state
	}
	params, _ := raw["params"].(map[string]any)
	if params == nil {
		return nil, state
	}
	update, _ := params["update"].(map[string]any)
	if update == nil {
		return nil, state
	}

	switch getString(update, "sessionUpdate") {
	case "agent_message_chunk":
		text := contentText(update["content"])
		if text == "" {
			return nil, state
		}
		return []entry.Entry{entry.Assistant(text)}, state

	case "agent_thought_chunk":
		text := contentText(update["content"])
		if text == "" {
			return nil, state
		}
		return []entry.Entry{entry.Thinking(text)}, state

	case "user_message_chunk":
		if state.SystemEmitted {
			return nil, state
		}
		state.SystemEmitted = true
		return []entry.Entry{entry.System("", "", "", nil)}, state

	case "tool_call":
		callID := getString(update, "toolCallId")
		name := getString(update, "title")
		action := classifyTool(name, update["rawInput"])
		state = state.withPending(callID, name)
		return []entry.Entry{entry.ToolUse(callID, name, action)}, state

	case "tool_call_update":
		callID := getString(update, "toolCallId")
		status := getString(update, "status")
		if status != "completed" && status != "failed" {
			return nil, state
		}
		ok := status == "completed"
		state = state.withoutPending(callID)
		summary := contentText(update["content"])
		return []entry.Entry{entry.ToolResult(callID, ok, summary)}, state

	default:
		return nil, state
	}
}

func (acpAdapter) InterruptSubtype() (protocol.Subtype, bool) {
	return protocol.SubtypeInterrupt, true
}

// contentText extracts the "text" field from an ACP content block, or from
// the first text-typed block in a content block array.
func contentText(content any) string {
	switch c := content.(type) {
	case map[string]any:
		if text, ok := c["text"].(string); ok {
			return text
		}
	case []any:
		for _, item := range c {
			block, ok := item.(map[string]any)
			if !ok {
				continue
			}
			if getString(block, "type") != "text" {
				continue
			}
			if text, ok := block["text"].(string); ok {
				return text
			}
		}
	}
	return ""
}
