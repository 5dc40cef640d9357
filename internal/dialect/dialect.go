// Package dialect holds one adapter per supported vendor: a pure
// normalization function translating that vendor's raw NDJSON records into
// entry.Entry values, plus the declarative argv/env builder that turns an
// Config into a SpawnSpec for the process manager.
package dialect

import (
	"context"

	"github.com/loomrun/loom/internal/entry"
	"github.com/loomrun/loom/internal/protocol"
)

// Mode mirrors procmgr.Mode without importing it, keeping dialect
// dependency-free of the process layer; the executor translates between
// the two at the one point they meet.
type Mode string

const (
	ModeStructured  Mode = "structured"
	ModeInteractive Mode = "interactive"
	ModeHybrid      Mode = "hybrid"
)

// MCPServer describes one out-of-process tool provider the vendor should
// connect to.
type MCPServer struct {
	Command string
	Args    []string
	Env     map[string]string
}

// Config is the per-agent ExecutorConfig. Each adapter validates and
// consumes only the keys it recognizes; the rest are ignored, not errored.
type Config struct {
	WorkDir         string
	Executable      string // override for the default binary name
	Model           string
	AutoApprove     bool
	MCPServers      map[string]MCPServer
	AppendPrompt    string
	ResumeSessionID string
	Mode            Mode
	Cols, Rows      int      // PTY sizing; zero means adapter/process-manager default
	Args            []string // generic and acp adapters only: raw argv passthrough
}

// SpawnSpec is the vendor-agnostic shape a process manager consumes.
type SpawnSpec struct {
	Executable string
	Argv       []string
	Env        []string
	WorkDir    string
	Mode       Mode
}

// State carries a normalizer's accumulators across records within one
// session: the running assistant-text buffer, in-flight tool calls awaiting
// their result, and the system/result emission flags used to enforce the
// "system first, result last, at most one each" ordering invariant.
type State struct {
	SystemEmitted bool
	ResultEmitted bool
	pending       map[string]pendingToolUse
	textBuf       string
}

type pendingToolUse struct {
	toolName string
}

func (s State) withPending(callID, toolName string) State {
	next := make(map[string]pendingToolUse, len(s.pending)+1)
	for k, v := range s.pending {
		next[k] = v
	}
	next[callID] = pendingToolUse{toolName: toolName}
	s.pending = next
	return s
}

func (s State) withoutPending(callID string) State {
	if _, ok := s.pending[callID]; !ok {
		return s
	}
	next := make(map[string]pendingToolUse, len(s.pending))
	for k, v := range s.pending {
		if k != callID {
			next[k] = v
		}
	}
	s.pending = next
	return s
}

// Adapter is one vendor's complete binding: argv construction and record
// normalization. Implementations must not perform I/O or block in
// Normalize.
type Adapter interface {
	// Name is the registry key, e.g. "claude".
	Name() string
	// DefaultMode is the process manager variant this vendor expects when
	// Config.Mode is unset.
	DefaultMode() Mode
	// BuildSpawnSpec translates cfg and the task prompt into a SpawnSpec.
	// Unknown/unsupported Config fields are ignored, never an error.
	BuildSpawnSpec(cfg Config, task string) SpawnSpec
	// Normalize translates one raw decoded record plus the prior state
	// into zero or more canonical entries and the next state.
	Normalize(raw map[string]any, state State) ([]entry.Entry, State)
	// InterruptSubtype returns the control-request subtype this vendor
	// uses to ask the child to stop, if it has one. ok=false means the
	// executor must fall back to a SIGINT.
	InterruptSubtype() (subtype protocol.Subtype, ok bool)
	// Start runs once, concurrently with the executor's reader loop,
	// right after the child is spawned and its protocol peer is wired up.
	// Every CLI-scraping vendor gets the task via argv/stdin in
	// BuildSpawnSpec and has nothing to do here; the ACP adapter is the
	// exception — it delivers the task through this hook instead, via its
	// own JSON-RPC handshake over peer.
	Start(ctx context.Context, peer *protocol.Peer, cfg Config, task string) error
}

func getString(m map[string]any, key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}

func getBool(m map[string]any, key string) bool {
	if v, ok := m[key].(bool); ok {
		return v
	}
	return false
}

func getFloat(m map[string]any, key string) (float64, bool) {
	v, ok := m[key].(float64)
	return v, ok
}
