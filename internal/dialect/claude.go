package dialect

import (
	"context"
	"sort"

	"github.com/loomrun/loom/internal/entry"
	"github.com/loomrun/loom/internal/protocol"
)

// claudeAdapter binds the Claude Code CLI: `claude --print --output-format
// stream-json --verbose`, prompt passed as the final argv element, full claude-family
// content-block normalization.
type claudeAdapter struct{}

// NewClaude constructs the claude adapter.
func NewClaude() Adapter { return claudeAdapter{} }

func (claudeAdapter) Name() string       { return "claude" }
func (claudeAdapter) DefaultMode() Mode  { return ModeStructured }

func (claudeAdapter) BuildSpawnSpec(cfg Config, task string) SpawnSpec {
	executable := cfg.Executable
	if executable == "" {
		executable = "claude"
	}
	argv := []string{"--print", "--output-format", "stream-json", "--verbose"}
	if cfg.Model != "" {
		argv = append(argv, "--model", cfg.Model)
	}
	if cfg.AutoApprove {
		argv = append(argv, "--permission-mode", "bypassPermissions")
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

func (claudeAdapter) Normalize(raw map[string]any, state State) ([]entry.Entry, State) {
	return normalizeClaudeFamily(raw, state)
}

func (claudeAdapter) InterruptSubtype() (protocol.Subtype, bool) {
	return protocol.SubtypeInterrupt, true
}

func (claudeAdapter) Start(ctx context.Context, peer *protocol.Peer, cfg Config, task string) error {
	return nil
}

// appendMCPFlags renders the MCP server map as repeated declarative flags,
// sorted by name so argv construction is deterministic and testable.
func appendMCPFlags(argv []string, servers map[string]MCPServer) []string {
	if len(servers) == 0 {
		return argv
	}
	names := make([]string, 0, len(servers))
	for name := range servers {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		srv := servers[name]
		value := name + "=" + srv.Command
		for _, a := range srv.Args {
			value += " " + a
		}
		argv = append(argv, "--mcp-server", value)
	}
	return argv
}

// mcpEnv extends the parent environment with MCP-server-specific variables
// rather than replacing it outright.
func mcpEnv(servers map[string]MCPServer) []string {
	if len(servers) == 0 {
		return nil
	}
	names := make([]string, 0, len(servers))
	for name := range servers {
		names = append(names, name)
	}
	sort.Strings(names)
	var env []string
	for _, name := range names {
		for k, v := range servers[name].Env {
			env = append(env, k+"="+v)
		}
	}
	return env
}
