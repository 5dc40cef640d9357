package procmgr

import (
	"bufio"
	"context"
	"strings"
	"syscall"
	"testing"
	"time"
)

func TestRingBufferRetainsOnlyTail(t *testing.T) {
	r := newRingBuffer(8)
	r.Write([]byte("0123456789"))
	if got := string(r.Bytes()); got != "23456789" {
		t.Fatalf("Bytes() = %q, want %q", got, "23456789")
	}
}

func TestSpawnPipedRoundTripsStdout(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	spec := Spec{
		Executable: "sh",
		Argv:       []string{"-c", "echo one; echo two >&2; echo three"},
		Mode:       ModeStructured,
	}
	p, err := SpawnPiped(ctx, "test", spec)
	if err != nil {
		t.Fatalf("SpawnPiped: %v", err)
	}

	var lines []string
	scanner := bufio.NewScanner(p.Stdout())
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}

	res, err := p.Wait()
	if err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if res.ExitCode != 0 {
		t.Fatalf("exit code = %d, want 0", res.ExitCode)
	}
	if strings.Join(lines, ",") != "one,three" {
		t.Fatalf("stdout lines = %v, want [one three]", lines)
	}
	if !strings.Contains(string(p.StderrTail()), "two") {
		t.Fatalf("stderr tail missing expected content: %q", p.StderrTail())
	}
}

func TestSpawnPipedMissingBinary(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err := SpawnPiped(ctx, "ghost", Spec{Executable: "this-binary-does-not-exist-xyz"})
	if err == nil {
		t.Fatal("expected a spawn error for a missing binary")
	}
}

func TestPipedResizeIsSilentlyIgnored(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p, err := SpawnPiped(ctx, "test", Spec{Executable: "sh", Argv: []string{"-c", "sleep 0.1"}})
	if err != nil {
		t.Fatalf("SpawnPiped: %v", err)
	}
	if err := p.Resize(120, 40); err != nil {
		t.Fatalf("Resize on piped variant should be a no-op, got %v", err)
	}
	p.Wait()
}

func TestTerminateProcessGroupSendsSIGTERM(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	p, err := SpawnPiped(ctx, "test", Spec{
		Executable: "sh",
		Argv:       []string{"-c", "trap 'exit 0' TERM; i=0; while [ $i -lt 100 ]; do sleep 0.05; i=$((i+1)); done"},
	})
	if err != nil {
		t.Fatalf("SpawnPiped: %v", err)
	}

	cancel() // triggers cmd.Cancel -> terminateProcessGroup

	done := make(chan struct{})
	var res ExitResult
	go func() {
		res, _ = p.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("process did not exit after context cancellation")
	}
	if res.ExitCode != 0 {
		t.Fatalf("expected the trap's exit 0, got exit code %d signal %q", res.ExitCode, res.Signal)
	}
}

func TestSignalIsNoOpAfterExit(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	p, err := SpawnPiped(ctx, "test", Spec{Executable: "sh", Argv: []string{"-c", "exit 0"}})
	if err != nil {
		t.Fatalf("SpawnPiped: %v", err)
	}
	p.Wait()
	if err := p.Signal(syscall.SIGTERM); err != nil {
		t.Fatalf("Signal after exit should be a no-op, got %v", err)
	}
}
