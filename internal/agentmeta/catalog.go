// Package agentmeta holds the static, compile-time descriptor for each
// built-in agent: its binary name, display metadata, and the capability
// tags the registry surfaces as the read-only descriptor map. None of this
// table is discovered at runtime. Availability is not part of it: the
// registry decides that at runtime by looking the Binary up on PATH and in
// known install directories.
package agentmeta

import (
	"sort"
	"strings"
)

// Info describes one built-in agent's static metadata.
type Info struct {
	Name         string
	DisplayName  string
	Binary       string
	Description  string
	DefaultModel string
	Capabilities []string
}

var builtin = map[string]Info{
	"claude": {
		Name:         "claude",
		DisplayName:  "Claude Code",
		Binary:       "claude",
		Description:  "Anthropic's Claude Code CLI, stream-json protocol with MCP and hook support.",
		DefaultModel: "sonnet-4.5",
		Capabilities: []string{"model-select", "auto-approve", "resume", "mcp", "stream-json", "interrupt"},
	},
	"codex": {
		Name:         "codex",
		DisplayName:  "Codex CLI",
		Binary:       "codex",
		Description:  "OpenAI's Codex CLI in non-interactive exec mode.",
		DefaultModel: "o4-mini",
		Capabilities: []string{"model-select", "auto-approve", "resume", "mcp", "stream-json"},
	},
	"cursor": {
		Name:         "cursor",
		DisplayName:  "Cursor Agent",
		Binary:       "cursor-agent",
		Description:  "Cursor's headless coding agent CLI.",
		DefaultModel: "",
		Capabilities: []string{"model-select", "auto-approve", "resume", "mcp", "stream-json"},
	},
	"copilot": {
		Name:         "copilot",
		DisplayName:  "GitHub Copilot CLI",
		Binary:       "copilot",
		Description:  "GitHub's Copilot CLI in non-interactive streaming mode.",
		DefaultModel: "",
		Capabilities: []string{"model-select", "auto-approve", "mcp", "stream-json"},
	},
	"gemini": {
		Name:         "gemini",
		DisplayName:  "Gemini CLI",
		Binary:       "gemini",
		Description:  "Google's Gemini CLI.",
		DefaultModel: "",
		Capabilities: []string{"model-select", "auto-approve", "mcp", "stream-json"},
	},
	"generic": {
		Name:         "generic",
		DisplayName:  "Generic",
		Binary:       "",
		Description:  "Fallback binding for an agent outside the named set; argv is caller-supplied.",
		DefaultModel: "",
		Capabilities: []string{"raw-argv"},
	},
	"acp": {
		Name:         "acp",
		DisplayName:  "Agent Client Protocol",
		Binary:       "",
		Description:  "Library-mode binding for any agent that speaks the Agent Client Protocol directly.",
		DefaultModel: "",
		Capabilities: []string{"jsonrpc", "mcp", "interrupt"},
	},
}

// InfoFor returns metadata for an agent name, case-insensitively.
func InfoFor(name string) (Info, bool) {
	info, ok := builtin[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Info{}, false
	}
	return clone(info), true
}

// Names returns known agent names in stable, sorted order.
func Names() []string {
	names := make([]string, 0, len(builtin))
	for name := range builtin {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// BinaryNames returns the known concrete agent binaries, excluding adapters
// with no fixed binary (generic, acp).
func BinaryNames() map[string]string {
	out := make(map[string]string, len(builtin))
	for name, info := range builtin {
		if info.Binary == "" {
			continue
		}
		out[name] = info.Binary
	}
	return out
}

func clone(info Info) Info {
	cp := info
	cp.Capabilities = append([]string(nil), info.Capabilities...)
	return cp
}
