package procmgr

import (
	"bufio"
	"context"
	"testing"
	"time"
)

func TestSpawnPTYRoundTripsCombinedStream(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	p, err := SpawnPTY(ctx, "test", Spec{
		Executable: "sh",
		Argv:       []string{"-c", "echo hello"},
		Mode:       ModeInteractive,
	})
	if err != nil {
		t.Skipf("PTY unavailable in this environment: %v", err)
	}

	scanner := bufio.NewScanner(p.Stdout())
	var lines []string
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if _, err := p.Wait(); err != nil {
		t.Fatalf("Wait: %v", err)
	}

	found := false
	for _, l := range lines {
		if l == "hello" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a line 'hello' in PTY output, got %v", lines)
	}

	// StderrTail is filled by teeing the one consumer's own reads, not by
	// a second independent reader racing it for bytes off the same fd —
	// so once that consumer has read "hello" through to EOF, the tail
	// must contain it too.
	if tail := string(p.StderrTail()); !bufferContains(tail, "hello") {
		t.Fatalf("stderr tail = %q, want it to contain %q", tail, "hello")
	}
}

func bufferContains(s, sub string) bool {
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			return true
		}
	}
	return false
}

func TestPTYResizeRejectsNonPositiveDimensions(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	p, err := SpawnPTY(ctx, "test", Spec{Executable: "sh", Argv: []string{"-c", "sleep 0.1"}})
	if err != nil {
		t.Skipf("PTY unavailable in this environment: %v", err)
	}
	defer p.Wait()

	if err := p.Resize(0, 24); err == nil {
		t.Fatal("expected an error resizing to zero columns")
	}
	if err := p.Resize(80, 24); err != nil {
		t.Fatalf("Resize(80,24): %v", err)
	}
}
