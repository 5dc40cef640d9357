// Package executor owns one agent session end-to-end: spawning the vendor
// child process, wiring the NDJSON codec through the protocol peer and
// dialect normalizer into the entry queue, and tearing everything down on
// exit, interrupt, or transport failure.
package executor

import (
	"context"
	"fmt"
	"io"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/loomrun/loom/internal/dialect"
	"github.com/loomrun/loom/internal/entry"
	"github.com/loomrun/loom/internal/loomerr"
	"github.com/loomrun/loom/internal/obslog"
	"github.com/loomrun/loom/internal/procmgr"
	"github.com/loomrun/loom/internal/protocol"
	"github.com/loomrun/loom/internal/queue"
)

// State is one node of the executor's lifecycle state machine.
type State string

const (
	StateNew      State = "new"
	StateRunning  State = "running"
	StateDraining State = "draining"
	StateFailing  State = "failing"
	StateDone     State = "done"
	StateFailed   State = "failed"
)

// interruptTimeout bounds how long Interrupt waits for the child to ack a
// control-request-shaped interrupt. If no ack arrives in time, Interrupt
// falls back to sending SIGINT.
const interruptTimeout = 2 * time.Second

// Result is what Wait resolves to once the child has exited and the entry
// queue has drained.
type Result struct {
	ExitCode    int
	DurationMS  int64
	FinalResult *entry.Entry // nil if the session ended without a result entry (e.g. transport failure)
}

// procHandle is the subset of procmgr.Piped and procmgr.PTYProc the executor
// needs; it lets execute_task stay agnostic of which variant C3 chose.
type procHandle interface {
	PID() int
	Stdin() io.WriteCloser
	Stdout() io.Reader
	StderrTail() []byte
	Signal(sig syscall.Signal) error
	Resize(cols, rows int) error
	Wait() (procmgr.ExitResult, error)
}

// Executor owns exactly one session: one child process, one protocol peer,
// one entry queue. It is not reusable — call ExecuteTask once.
type Executor struct {
	agentName string
	adapter   dialect.Adapter
	cfg       dialect.Config

	taskID    string
	startTime time.Time

	mu           sync.Mutex
	state        State
	transportErr error

	proc   procHandle
	peer   *protocol.Peer
	in     *watchedWriter
	cancel context.CancelFunc

	entries *queue.Queue[entry.Entry]

	// dialectState is touched only by the reader goroutine (runReader's
	// callbacks), per the single-reader-context concurrency model — no
	// lock needed.
	dialectState dialect.State

	interruptOnce sync.Once
	interruptErr  error

	done          chan struct{}
	resultSettled bool
	result        Result
	resultErr     error
	sawResult     bool
	lastResult    entry.Entry
}

// New constructs an executor for one invocation of adapter, bound to cfg.
// It does not spawn anything until ExecuteTask is called.
func New(agentName string, adapter dialect.Adapter, cfg dialect.Config) *Executor {
	return &Executor{
		agentName: agentName,
		adapter:   adapter,
		cfg:       cfg,
		state:     StateNew,
		done:      make(chan struct{}),
	}
}

// TaskID returns the generated identifier for this invocation. Valid after
// ExecuteTask returns.
func (e *Executor) TaskID() string { return e.taskID }

// ProcessID returns the child's pid. Valid after ExecuteTask returns
// successfully.
func (e *Executor) ProcessID() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.proc == nil {
		return 0
	}
	return e.proc.PID()
}

// State reports the executor's current lifecycle state.
func (e *Executor) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

func (e *Executor) setState(s State) {
	e.mu.Lock()
	e.state = s
	e.mu.Unlock()
}

// ExecuteTask builds argv from the bound config and task, spawns the child
// via the process manager, wires the codec/peer/normalizer/queue pipeline,
// and returns immediately. Normalized entries are available from Entries;
// call Wait to block for completion.
func (e *Executor) ExecuteTask(ctx context.Context, task string) error {
	e.mu.Lock()
	if e.state != StateNew {
		e.mu.Unlock()
		return fmt.Errorf("executor: ExecuteTask called twice")
	}
	e.mu.Unlock()

	e.taskID = uuid.NewString()
	e.startTime = time.Now()
	e.entries = queue.New[entry.Entry]()

	spawnSpec := e.adapter.BuildSpawnSpec(e.cfg, task)
	mode := resolveMode(e.cfg.Mode, e.adapter.DefaultMode())
	spec := procmgr.Spec{
		Executable: spawnSpec.Executable,
		Argv:       spawnSpec.Argv,
		Env:        spawnSpec.Env,
		WorkDir:    spawnSpec.WorkDir,
		Mode:       mode,
		Cols:       e.cfg.Cols,
		Rows:       e.cfg.Rows,
	}

	spawnCtx, cancel := context.WithCancel(ctx)
	proc, err := spawn(spawnCtx, e.agentName, mode, spec)
	if err != nil {
		cancel()
		e.setState(StateFailed)
		e.settle(Result{}, err)
		return err
	}
	e.proc = proc
	e.cancel = cancel
	e.setState(StateRunning)

	e.in = &watchedWriter{w: proc.Stdin(), onErr: e.failTransport}
	e.peer = protocol.New(e.in, e.onEvent, e.onRequest)

	// If the consumer abandons the entry iteration, the queue closes
	// itself; that closure is this session's teardown trigger.
	e.entries.OnClose(func() { e.teardown() })

	go e.runReader(ctx)
	go e.startAdapter(ctx, task)

	obslog.LogKV("executor", "spawned child", "agent", e.agentName, "task_id", e.taskID, "pid", proc.PID())
	return nil
}

// startAdapter runs the adapter's handshake, if it has one (only the ACP
// adapter does; every CLI-scraping dialect's Start is a no-op since the
// task already reached the child via BuildSpawnSpec's argv/stdin). A
// handshake failure is treated exactly like any other transport failure:
// it fails the session and tears down the child, since a child that never
// completed its handshake has nothing useful left to normalize.
func (e *Executor) startAdapter(ctx context.Context, task string) {
	if err := e.adapter.Start(ctx, e.peer, e.cfg, task); err != nil {
		e.failTransport(&loomerr.TransportError{Reason: "adapter handshake failed", Err: err})
		e.teardown()
	}
}

// watchedWriter forwards writes to the child's stdin and reports any
// failure as a transport error, without masking the failure from the
// immediate caller (SendMessage, or the protocol peer's own send).
type watchedWriter struct {
	w     io.Writer
	onErr func(error)
}

func (ww *watchedWriter) Write(p []byte) (int, error) {
	n, err := ww.w.Write(p)
	if err != nil {
		ww.onErr(err)
	}
	return n, err
}

// failTransport records the first transport-invalidating error and moves a
// running session into FAILING; runReader finalizes the FAILED transition
// once the child has actually exited.
func (e *Executor) failTransport(err error) {
	e.mu.Lock()
	if e.state == StateRunning {
		e.state = StateFailing
	}
	if e.transportErr == nil {
		e.transportErr = err
	}
	e.mu.Unlock()
}

// teardown cancels the child's spawn context, which the process manager
// maps to SIGTERM now and SIGKILL after its grace period if the process
// group hasn't exited, and closes stdin. This is the consumer-abandonment
// policy from the concurrency model; it is safe to call more than once
// (context.CancelFunc and io.Closer.Close both are).
func (e *Executor) teardown() {
	e.mu.Lock()
	cancel := e.cancel
	in := e.in
	e.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	if in != nil {
		if closer, ok := in.w.(io.Closer); ok {
			_ = closer.Close()
		}
	}
}

// Entries returns the range-over-func iterator of normalized entries for
// this session, in emission order.
func (e *Executor) Entries() func(yield func(entry.Entry, error) bool) {
	return e.entries.All()
}

// runReader drives the protocol peer's decode loop to completion, then
// tears down the child and settles Wait. It is the session's single reader
// context: dialectState is only ever touched from here.
func (e *Executor) runReader(ctx context.Context) {
	defer e.cancel()
	e.peer.Run(ctx, e.proc.Stdout())

	e.mu.Lock()
	wasFailing := e.state == StateFailing
	transportErr := e.transportErr
	e.mu.Unlock()

	if !wasFailing && ctx.Err() != nil {
		wasFailing = true
		transportErr = &loomerr.TransportError{Reason: "context canceled", Err: ctx.Err()}
	}
	if !wasFailing {
		e.setState(StateDraining)
	}

	exitRes, waitErr := e.proc.Wait()
	durationMS := time.Since(e.startTime).Milliseconds()
	res := Result{ExitCode: exitRes.ExitCode, DurationMS: durationMS}
	if e.sawResult {
		fr := e.lastResult
		res.FinalResult = &fr
	}

	if wasFailing || waitErr != nil {
		finalErr := transportErr
		if finalErr == nil {
			finalErr = waitErr
		}
		te, ok := finalErr.(*loomerr.TransportError)
		if !ok {
			te = &loomerr.TransportError{Reason: "stream closed", Err: finalErr}
		}
		te.StderrTail = string(e.proc.StderrTail())
		e.entries.CloseWithError(te)
		e.setState(StateFailed)
		e.settle(res, te)
		return
	}

	var finalErr error
	if exitRes.ExitCode != 0 || exitRes.Signal != "" {
		finalErr = &loomerr.ChildNonZeroExit{ExitCode: exitRes.ExitCode, Signal: exitRes.Signal}
		if !e.sawResult {
			// No vendor result entry arrived: report the exit status as the
			// session's terminal result entry.
			fr := entry.Result(false, exitRes.ExitCode, durationMS, nil)
			_ = e.entries.Push(fr)
			res.FinalResult = &fr
		}
	}
	e.entries.Close()
	e.setState(StateDone)
	e.settle(res, finalErr)
}

func (e *Executor) settle(res Result, err error) {
	e.mu.Lock()
	if e.resultSettled {
		e.mu.Unlock()
		return
	}
	e.resultSettled = true
	e.result = res
	e.resultErr = err
	e.mu.Unlock()
	close(e.done)
}

// Wait blocks until the child has exited and the entry queue has drained,
// then returns the terminal result. It may be called before or after the
// consumer has finished ranging over Entries.
func (e *Executor) Wait(ctx context.Context) (Result, error) {
	select {
	case <-e.done:
		return e.result, e.resultErr
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
}

// SendMessage delivers a follow-up user turn to the running child over its
// stdin. It fails if the session has already terminated.
func (e *Executor) SendMessage(text string) error {
	e.mu.Lock()
	state := e.state
	in := e.in
	e.mu.Unlock()
	if state != StateRunning {
		return fmt.Errorf("executor: session is %s, cannot send message", state)
	}
	_, err := in.Write([]byte(text + "\n"))
	return err
}

// Interrupt asks the child to stop: a vendor control request if the adapter
// declares one, otherwise a SIGINT. It is idempotent — a second call after
// the first has the same observable effect as the first alone.
func (e *Executor) Interrupt(ctx context.Context) error {
	e.interruptOnce.Do(func() {
		e.mu.Lock()
		proc := e.proc
		peer := e.peer
		state := e.state
		e.mu.Unlock()

		if proc == nil || state == StateDone || state == StateFailed {
			return
		}

		subtype, ok := e.adapter.InterruptSubtype()
		if ok && peer != nil {
			reqCtx, cancel := context.WithTimeout(ctx, interruptTimeout)
			defer cancel()
			_, err := peer.SendRequest(reqCtx, subtype, nil, interruptTimeout)
			// An ack failure still means the signal path should run; a
			// cooperative interrupt that the child never acknowledges is
			// not grounds to leave the process running indefinitely.
			if err == nil {
				return
			}
		}
		e.interruptErr = proc.Signal(syscall.SIGINT)
	})
	return e.interruptErr
}
