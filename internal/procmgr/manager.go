// Package procmgr spawns and supervises the vendor child process, in one of
// two variants selected by mode: piped (separate stdin/stdout/stderr) for
// structured dialects, or pseudo-terminal (combined stdout+stderr, raw
// keystroke stdin) for interactive/hybrid ones.
package procmgr

import (
	"context"
	"os"
	"os/exec"
	"syscall"
	"time"

	"github.com/loomrun/loom/internal/loomerr"
	"github.com/loomrun/loom/internal/obslog"
)

// Mode selects the process manager variant, mirroring ExecutorConfig.Mode.
type Mode string

const (
	ModeStructured  Mode = "structured"
	ModeInteractive Mode = "interactive"
	ModeHybrid      Mode = "hybrid"
)

// gracePeriod is how long the manager waits after SIGTERM before escalating
// to SIGKILL on teardown.
const gracePeriod = 5 * time.Second

// defaultCols, defaultRows are the PTY variant's default dimensions.
const (
	defaultCols = 80
	defaultRows = 24
)

// Spec is everything needed to spawn a child, taken directly from the
// executor's SpawnSpec.
type Spec struct {
	Executable string
	Argv       []string
	Env        []string // additional KEY=VALUE pairs, appended to the parent environment
	WorkDir    string
	Mode       Mode
	Cols, Rows int // PTY variant only; zero means use the default
}

// ExitResult is what Wait resolves to, exactly once, after the child has
// terminated and its streams have drained.
type ExitResult struct {
	ExitCode int
	Signal   string // empty unless the child was killed by a signal
}

func buildEnv(extra []string) []string {
	env := os.Environ()
	return append(env, extra...)
}

func newCommand(ctx context.Context, spec Spec) *exec.Cmd {
	cmd := exec.CommandContext(ctx, spec.Executable, spec.Argv...)
	cmd.Dir = spec.WorkDir
	cmd.Env = buildEnv(spec.Env)
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.WaitDelay = gracePeriod
	cmd.Cancel = func() error {
		return terminateProcessGroup(cmd)
	}
	return cmd
}

// terminateProcessGroup sends SIGTERM to the whole process group and
// escalates to SIGKILL after gracePeriod if the group hasn't exited.
func terminateProcessGroup(cmd *exec.Cmd) error {
	if cmd.Process == nil {
		return nil
	}
	pgid := cmd.Process.Pid
	_ = syscall.Kill(-pgid, syscall.SIGTERM)

	deadline := time.Now().Add(gracePeriod)
	for time.Now().Before(deadline) {
		if err := syscall.Kill(-pgid, 0); err != nil {
			return nil // process group is gone
		}
		time.Sleep(25 * time.Millisecond)
	}

	obslog.LogKV("procmgr", "grace period elapsed, escalating to SIGKILL", "pgid", pgid)
	return syscall.Kill(-pgid, syscall.SIGKILL)
}

func wrapSpawnError(agent string, err error) error {
	return &loomerr.SpawnError{Agent: agent, Err: err}
}

func exitResultFromWaitErr(err error) (ExitResult, error) {
	if err == nil {
		return ExitResult{ExitCode: 0}, nil
	}
	exitErr, ok := err.(*exec.ExitError)
	if !ok {
		return ExitResult{}, err
	}
	if ws, ok := exitErr.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		return ExitResult{ExitCode: -1, Signal: ws.Signal().String()}, nil
	}
	return ExitResult{ExitCode: exitErr.ExitCode()}, nil
}
