package dialect

import (
	"context"

	"github.com/loomrun/loom/internal/entry"
	"github.com/loomrun/loom/internal/protocol"
)

// cursorAdapter binds the cursor-agent CLI. Its stream-json output is,
// like codex's, not precisely documented; this adapter reuses the
// claude-family normalizer on a best-effort basis and keeps unknown{raw}
// as the default for anything it can't classify.
type cursorAdapter struct{}

// NewCursor constructs the cursor adapter.
func NewCursor() Adapter { return cursorAdapter{} }

func (cursorAdapter) Name() string      { return "cursor" }
func (cursorAdapter) DefaultMode() Mode { return ModeStructured }

func (cursorAdapter) BuildSpawnSpec(cfg Config, task string) SpawnSpec {
	executable := cfg.Executable
	if executable == "" {
		executable = "cursor-agent"
	}
	argv := []string{"--output-format", "stream-json"}
	if cfg.Model != "" {
		argv = append(argv, "--model", cfg.Model)
	}
	if cfg.AutoApprove {
		argv = append(argv, "--force")
	}
	if cfg.ResumeSessionID != "" {
		argv = append(argv, "--resume", cfg.ResumeSessionID)
	}
	argv = appendMCPFlags(argv, cfg.MCPServers)

	prompt := task
	if cfg.AppendPrompt != "" {
		prompt += "\n\n" + cfg.AppendPrompt
	}
	argv = append(argv, "-p", prompt)

	return SpawnSpec{
		Executable: executable,
		Argv:       argv,
		Env:        mcpEnv(cfg.MCPServers),
		WorkDir:    cfg.WorkDir,
		Mode:       ModeStructured,
	}
}

func (cursorAdapter) Normalize(raw map[string]any, state State) ([]entry.Entry, State) {
	return normalizeClaudeFamily(raw, state)
}

func (cursorAdapter) InterruptSubtype() (protocol.Subtype, bool) {
	return "", false
}

func (cursorAdapter) Start(ctx context.Context, peer *protocol.Peer, cfg Config, task string) error {
	return nil
}
