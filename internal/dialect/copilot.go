package dialect

import (
	"context"

	"github.com/loomrun/loom/internal/entry"
	"github.com/loomrun/loom/internal/protocol"
)

// copilotAdapter binds the GitHub Copilot CLI. Its event vocabulary is the
// least specified of the four required adapters; it reuses the flat
// gemini-style normalizer since Copilot's own stream also reports role and
// content as top-level fields rather than nested content blocks.
type copilotAdapter struct{}

// NewCopilot constructs the copilot adapter.
func NewCopilot() Adapter { return copilotAdapter{} }

func (copilotAdapter) Name() string      { return "copilot" }
func (copilotAdapter) DefaultMode() Mode { return ModeStructured }

func (copilotAdapter) BuildSpawnSpec(cfg Config, task string) SpawnSpec {
	executable := cfg.Executable
	if executable == "" {
		executable = "copilot"
	}
	argv := []string{"--stream-format", "json"}
	if cfg.Model != "" {
		argv = append(argv, "--model", cfg.Model)
	}
	if cfg.AutoApprove {
		argv = append(argv, "--allow-all-tools")
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

func (copilotAdapter) Normalize(raw map[string]any, state State) ([]entry.Entry, State) {
	return geminiAdapter{}.Normalize(raw, state)
}

func (copilotAdapter) InterruptSubtype() (protocol.Subtype, bool) {
	return "", false
}

func (copilotAdapter) Start(ctx context.Context, peer *protocol.Peer, cfg Config, task string) error {
	return nil
}
