package dialect

import (
	"context"

	"github.com/loomrun/loom/internal/entry"
	"github.com/loomrun/loom/internal/protocol"
)

// codexAdapter binds the Codex CLI: `codex exec --skip-git-repo-check
// --json <prompt>`. Codex's event dialect is not as precisely specified as
// Claude's; per the normalizer's "best effort" allowance this adapter
// reuses the claude-family content-block shape and falls back to
// unknown{raw} for anything it doesn't recognize.
type codexAdapter struct{}

// NewCodex constructs the codex adapter.
func NewCodex() Adapter { return codexAdapter{} }

func (codexAdapter) Name() string      { return "codex" }
func (codexAdapter) DefaultMode() Mode { return ModeStructured }

func (codexAdapter) BuildSpawnSpec(cfg Config, task string) SpawnSpec {
	executable := cfg.Executable
	if executable == "" {
		executable = "codex"
	}
	argv := []string{"exec", "--skip-git-repo-check", "--json"}
	if cfg.Model != "" {
		argv = append(argv, "--model", cfg.Model)
	}
	if cfg.AutoApprove {
		argv = append(argv, "--dangerously-bypass-approvals-and-sandbox")
	}
	if cfg.ResumeSessionID != "" {
		argv = append(argv, "--resume", cfg.ResumeSessionID)
	}
	argv = appendMCPFlags(argv, cfg.MCPServers)

	prompt := task
	if cfg.AppendPrompt != "" {
		prompt += "\n\n" + cfg.AppendPrompt
	}
	argv = append(argv, prompt)

	return SpawnSpec{
		Executable: executable,
		Argv:       argv,
		Env:        mcpEnv(cfg.MCPServers),
		WorkDir:    cfg.WorkDir,
		Mode:       ModeStructured,
	}
}

func (codexAdapter) Normalize(raw map[string]any, state State) ([]entry.Entry, State) {
	return normalizeClaudeFamily(raw, state)
}

func (codexAdapter) InterruptSubtype() (protocol.Subtype, bool) {
	// Codex's CLI has no documented interrupt control-request subtype;
	// the executor falls back to SIGINT.
	return "", false
}

func (codexAdapter) Start(ctx context.Context, peer *protocol.Peer, cfg Config, task string) error {
	return nil
}
