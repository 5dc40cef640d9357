package procmgr

import (
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"sync"
	"syscall"

	"github.com/creack/pty"
)

// PTYProc is the interactive/hybrid-mode process manager variant: the child
// runs under a pseudo-terminal with combined stdout+stderr and a raw
// keystroke stdin.
type PTYProc struct {
	cmd        *exec.Cmd
	ptmx       *os.File
	stderrTail *ringBuffer
	stdout     io.Reader

	waitOnce sync.Once
	waitRes  ExitResult
	waitErr  error
}

// SpawnPTY starts spec.Executable attached to a pseudo-terminal sized
// spec.Cols x spec.Rows; a zero or negative dimension falls back to its own
// default (defaultCols or defaultRows).
func SpawnPTY(ctx context.Context, agentName string, spec Spec) (*PTYProc, error) {
	cmd := newCommand(ctx, spec)

	cols, rows := spec.Cols, spec.Rows
	if cols <= 0 {
		cols = defaultCols
	}
	if rows <= 0 {
		rows = defaultRows
	}

	ptmx, err := pty.StartWithAttrs(cmd, &pty.Winsize{Cols: uint16(cols), Rows: uint16(rows)}, cmd.SysProcAttr)
	if err != nil {
		return nil, wrapSpawnError(agentName, err)
	}

	tail := newRingBuffer(tailBufferSize)
	p := &PTYProc{cmd: cmd, ptmx: ptmx, stderrTail: tail}

	// Stdout's single reader (the protocol peer's decode loop) is teed
	// into the tail buffer as it reads, so a later error report has
	// context. This must not be a second, independent reader of ptmx: the
	// PTY exposes exactly one fd, and two goroutines calling Read on the
	// same os.File race for bytes, silently corrupting whichever stream
	// loses a given read. Tee-on-read keeps there being exactly one
	// consumer.
	p.stdout = io.TeeReader(ptmx, tail)

	return p, nil
}

// PID returns the child's process id.
func (p *PTYProc) PID() int { return p.cmd.Process.Pid }

// Stdin accepts raw keystrokes; writing to it is equivalent to typing into
// the terminal.
func (p *PTYProc) Stdin() io.WriteCloser { return p.ptmx }

// Stdout is the combined stdout+stderr byte source. It has exactly one
// valid reader: every byte pulled through it is also appended to the tail
// buffer, so a second concurrent reader would not just duplicate data but
// steal bytes the first reader needed — see the tee-on-read comment in
// SpawnPTY.
func (p *PTYProc) Stdout() io.Reader { return p.stdout }

// StderrTail returns the last tailBufferSize bytes of the combined stream,
// since stdout and stderr are not distinguishable once merged by the PTY.
func (p *PTYProc) StderrTail() []byte { return p.stderrTail.Bytes() }

// Resize changes the PTY's dimensions. Valid at any time before Wait
// resolves.
func (p *PTYProc) Resize(cols, rows int) error {
	if cols <= 0 || rows <= 0 {
		return errors.New("procmgr: resize requires positive cols and rows")
	}
	return pty.Setsize(p.ptmx, &pty.Winsize{Cols: uint16(cols), Rows: uint16(rows)})
}

// Signal sends sig to the child. It is a no-op if the child has already
// exited.
func (p *PTYProc) Signal(sig syscall.Signal) error {
	if p.cmd.Process == nil {
		return nil
	}
	err := p.cmd.Process.Signal(sig)
	if err != nil && errors.Is(err, syscall.ESRCH) {
		return nil
	}
	return err
}

// Wait resolves to the child's exit result exactly once, closing the PTY
// master side once the child has terminated.
func (p *PTYProc) Wait() (ExitResult, error) {
	p.waitOnce.Do(func() {
		err := p.cmd.Wait()
		p.ptmx.Close()
		p.waitRes, p.waitErr = exitResultFromWaitErr(err)
	})
	return p.waitRes, p.waitErr
}
