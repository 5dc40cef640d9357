// Package registry is the compile-time enumerated factory for supported
// agents: it maps an agent name to the dialect adapter that knows how to
// spawn and normalize it, and exposes a read-only descriptor map for
// listing surfaces (the CLI's `list` subcommand, a future attach UI).
package registry

import (
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"

	"github.com/loomrun/loom/internal/agentmeta"
	"github.com/loomrun/loom/internal/dialect"
	"github.com/loomrun/loom/internal/executor"
	"github.com/loomrun/loom/internal/loomerr"
)

// Descriptor is the read-only, listable view of one registered agent.
type Descriptor struct {
	Name        string
	DisplayName string
	Description string
	Available   bool
}

type factory func() dialect.Adapter

var builtin = map[string]factory{
	"claude":  func() dialect.Adapter { return dialect.NewClaude() },
	"codex":   func() dialect.Adapter { return dialect.NewCodex() },
	"cursor":  func() dialect.Adapter { return dialect.NewCursor() },
	"copilot": func() dialect.Adapter { return dialect.NewCopilot() },
	"gemini":  func() dialect.Adapter { return dialect.NewGemini() },
	"generic": func() dialect.Adapter { return dialect.NewGeneric() },
	"acp":     func() dialect.Adapter { return dialect.NewACP() },
}

// Create constructs an Executor bound to the named agent's adapter. It
// returns *loomerr.UnsupportedAgentError for an unknown name; no session is
// created in that case.
func Create(name string, cfg dialect.Config) (*executor.Executor, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	newAdapter, ok := builtin[key]
	if !ok {
		return nil, &loomerr.UnsupportedAgentError{Name: name}
	}
	return executor.New(key, newAdapter(), cfg), nil
}

// Names returns every registered agent name, sorted.
func Names() []string {
	names := make([]string, 0, len(builtin))
	for name := range builtin {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Describe returns the read-only descriptor map, one entry per registered
// agent, in sorted order.
func Describe() []Descriptor {
	names := Names()
	out := make([]Descriptor, 0, len(names))
	for _, name := range names {
		info, _ := agentmeta.InfoFor(name)
		out = append(out, Descriptor{
			Name:        name,
			DisplayName: info.DisplayName,
			Description: info.Description,
			Available:   isAvailable(info),
		})
	}
	return out
}

// isAvailable reports whether the agent's binary can be located on PATH or
// in a known install directory. Adapters with no fixed binary (generic,
// acp) are always reported available since they have nothing to find —
// their actual reachability depends on caller-supplied config, not a
// registry-known path.
func isAvailable(info agentmeta.Info) bool {
	if info.Binary == "" {
		return true
	}
	_, ok := resolveBinaryPath(info.Binary)
	return ok
}

var pathCache sync.Map // binary name -> resolved path, memoized per process lifetime

func resolveBinaryPath(binary string) (string, bool) {
	if cached, ok := pathCache.Load(binary); ok {
		path := cached.(string)
		return path, path != ""
	}
	path, ok := lookupBinary(binary)
	if ok {
		pathCache.Store(binary, path)
	} else {
		pathCache.Store(binary, "")
	}
	return path, ok
}

func lookupBinary(binary string) (string, bool) {
	if p, err := exec.LookPath(binary); err == nil {
		return p, true
	}
	for _, dir := range knownInstallDirs() {
		candidate := filepath.Join(dir, binary)
		if fi, err := os.Stat(candidate); err == nil && !fi.IsDir() {
			return candidate, true
		}
	}
	return "", false
}

func knownInstallDirs() []string {
	dirs := []string{"/usr/local/bin", "/usr/bin", "/opt/homebrew/bin", "/opt/local/bin"}
	if home, err := os.UserHomeDir(); err == nil && home != "" {
		dirs = append(dirs,
			filepath.Join(home, ".local", "bin"),
			filepath.Join(home, "bin"),
			filepath.Join(home, ".npm-global", "bin"),
		)
	}
	if runtime.GOOS == "windows" {
		if local := os.Getenv("LOCALAPPDATA"); local != "" {
			dirs = append(dirs, filepath.Join(local, "Programs"))
		}
	}
	return dirs
}
