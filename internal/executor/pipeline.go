package executor

import (
	"context"

	"github.com/loomrun/loom/internal/dialect"
	"github.com/loomrun/loom/internal/procmgr"
	"github.com/loomrun/loom/internal/protocol"
)

// resolveMode picks the process manager variant: an explicit Config.Mode
// wins, otherwise the adapter's declared default.
func resolveMode(configured, adapterDefault dialect.Mode) procmgr.Mode {
	mode := adapterDefault
	if configured != "" {
		mode = configured
	}
	switch mode {
	case dialect.ModeInteractive, dialect.ModeHybrid:
		return procmgr.ModeInteractive
	default:
		return procmgr.ModeStructured
	}
}

// spawn starts the child under the variant resolveMode selected.
func spawn(ctx context.Context, agentName string, mode procmgr.Mode, spec procmgr.Spec) (procHandle, error) {
	if mode == procmgr.ModeInteractive || mode == procmgr.ModeHybrid {
		return procmgr.SpawnPTY(ctx, agentName, spec)
	}
	return procmgr.SpawnPiped(ctx, agentName, spec)
}

// onEvent normalizes one decoded record and pushes the resulting entries
// onto the queue. It is called from the peer's single reader goroutine, so
// dialectState needs no synchronization.
func (e *Executor) onEvent(raw map[string]any) {
	entries, next := e.adapter.Normalize(raw, e.dialectState)
	e.dialectState = next
	for _, ent := range entries {
		if ent.Kind == "result" {
			e.sawResult = true
			e.lastResult = ent
		}
		_ = e.entries.Push(ent)
	}
}

// onRequest answers an inbound control_request from the child: can_use_tool
// permission checks and hook callbacks. Auto-approval follows
// Config.AutoApprove; anything unrecognized is denied rather than left
// hanging, since an unanswered request blocks the child indefinitely.
func (e *Executor) onRequest(req protocol.Request) protocol.Response {
	switch req.Subtype {
	case protocol.SubtypeCanUseTool:
		allow := e.cfg.AutoApprove
		reason := ""
		if !allow {
			reason = "auto-approve disabled"
		}
		return protocol.Response{OK: true, Result: protocol.CanUseToolResult{Allow: allow, Reason: reason}}

	case protocol.SubtypeHookCallback:
		decision := protocol.DecisionDeny
		if e.cfg.AutoApprove {
			decision = protocol.DecisionAllow
		}
		return protocol.Response{OK: true, Result: protocol.HookOutput{Decision: decision}}

	default:
		return protocol.Response{OK: false, Error: "unsupported control request subtype"}
	}
}
