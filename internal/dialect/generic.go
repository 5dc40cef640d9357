package dialect

import (
	"context"

	"github.com/loomrun/loom/internal/entry"
	"github.com/loomrun/loom/internal/protocol"
)

// genericAdapter wraps an arbitrary binary outside the compile-time vendor
// set. Unlike the named adapters it never assumes a flag vocabulary: argv is
// taken verbatim from Config.Args, the task is appended after Args (or is
// the only argument when Args is empty), and normalization reuses the
// claude-family shape as the most broadly compatible guess, falling back to
// unknown{raw} for anything else.
type genericAdapter struct{}

// NewGeneric constructs the fallback adapter for agents not in the named set.
func NewGeneric() Adapter { return genericAdapter{} }

func (genericAdapter) Name() string      { return "generic" }
func (genericAdapter) DefaultMode() Mode { return ModeStructured }

func (genericAdapter) BuildSpawnSpec(cfg Config, task string) SpawnSpec {
	executable := cfg.Executable

	prompt := task
	if cfg.AppendPrompt != "" {
		prompt += "\n\n" + cfg.AppendPrompt
	}

	var argv []string
	if len(cfg.Args) > 0 {
		argv = append(argv, cfg.Args...)
		argv = append(argv, prompt)
	} else {
		argv = []string{prompt}
	}
	argv = appendMCPFlags(argv, cfg.MCPServers)

	return SpawnSpec{
		Executable: executable,
		Argv:       argv,
		Env:        mcpEnv(cfg.MCPServers),
		WorkDir:    cfg.WorkDir,
		Mode:       ModeStructured,
	}
}

func (genericAdapter) Normalize(raw map[string]any, state State) ([]entry.Entry, State) {
	return normalizeClaudeFamily(raw, state)
}

func (genericAdapter) InterruptSubtype() (protocol.Subtype, bool) {
	return "", false
}

func (genericAdapter) Start(ctx context.Context, peer *protocol.Peer, cfg Config, task string) error {
	return nil
}
