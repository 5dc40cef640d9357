package ndjson

import (
	"bytes"
	"context"
	"io"
	"math"
	"reflect"
	"strings"
	"testing"
	"time"
)

func collect(t *testing.T, r io.Reader) []Line {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	var out []Line
	for l := range Decode(ctx, r) {
		out = append(out, l)
	}
	return out
}

func TestRoundTrip(t *testing.T) {
	records := []map[string]any{
		{"type": "system", "session_id": "s1"},
		{"type": "assistant", "text": "hi", "n": float64(3)},
		{"type": "result", "ok": true},
	}
	var buf bytes.Buffer
	for _, r := range records {
		enc, err := Encode(r)
		if err != nil {
			t.Fatalf("encode: %v", err)
		}
		buf.Write(enc)
	}

	lines := collect(t, &buf)
	if len(lines) != len(records) {
		t.Fatalf("got %d lines, want %d", len(lines), len(records))
	}
	for i, l := range lines {
		if l.Err != nil {
			t.Fatalf("line %d: unexpected decode error: %v", i, l.Err)
		}
		if !reflect.DeepEqual(l.Data, records[i]) {
			t.Fatalf("line %d: got %#v, want %#v", i, l.Data, records[i])
		}
	}
}

func TestEncodeNonFiniteRejected(t *testing.T) {
	cases := []map[string]any{
		{"x": math.NaN()},
		{"x": math.Inf(1)},
		{"x": math.Inf(-1)},
	}
	for _, c := range cases {
		if _, err := Encode(c); err == nil {
			t.Fatalf("Encode(%v) should have failed", c)
		}
	}
}

func TestPartialFrameSafety(t *testing.T) {
	records := []map[string]any{
		{"type": "system", "session_id": "s1"},
		{"type": "assistant", "text": strings.Repeat("x", 5000)},
		{"type": "result", "ok": true, "duration_ms": float64(42)},
	}
	var whole bytes.Buffer
	for _, r := range records {
		enc, _ := Encode(r)
		whole.Write(enc)
	}
	full := whole.Bytes()

	baseline := collect(t, bytes.NewReader(full))

	// Split into arbitrary chunk boundaries and feed via a pipe.
	for _, chunkSize := range []int{1, 3, 7, 17, 64, 4096} {
		pr, pw := io.Pipe()
		go func() {
			for i := 0; i < len(full); i += chunkSize {
				end := i + chunkSize
				if end > len(full) {
					end = len(full)
				}
				pw.Write(full[i:end])
			}
			pw.Close()
		}()
		got := collect(t, pr)
		if len(got) != len(baseline) {
			t.Fatalf("chunkSize=%d: got %d records, want %d", chunkSize, len(got), len(baseline))
		}
		for i := range got {
			if !reflect.DeepEqual(got[i].Data, baseline[i].Data) {
				t.Fatalf("chunkSize=%d record %d: got %#v want %#v", chunkSize, i, got[i].Data, baseline[i].Data)
			}
		}
	}
}

func TestSilentRecovery(t *testing.T) {
	valid := []map[string]any{
		{"type": "system", "session_id": "s1"},
		{"type": "assistant", "text": "hi"},
		{"type": "result", "ok": true},
	}
	var buf bytes.Buffer
	noise := []string{"hello", "{", "not json at all", "   ", "{\"incomplete\":"}
	for i, r := range valid {
		if i < len(noise) {
			buf.WriteString(noise[i])
			buf.WriteByte('\n')
		}
		enc, _ := Encode(r)
		buf.Write(enc)
	}
	buf.WriteString(noise[len(noise)-1])
	buf.WriteByte('\n')

	lines := collect(t, &buf)
	var gotValid []map[string]any
	for _, l := range lines {
		if l.Err == nil {
			gotValid = append(gotValid, l.Data)
		}
	}
	if len(gotValid) != len(valid) {
		t.Fatalf("got %d valid records, want %d (all lines: %d)", len(gotValid), len(valid), len(lines))
	}
	for i := range valid {
		if !reflect.DeepEqual(gotValid[i], valid[i]) {
			t.Fatalf("record %d: got %#v want %#v", i, gotValid[i], valid[i])
		}
	}
}

func TestEmptyLinesSkipped(t *testing.T) {
	r := strings.NewReader("\n\n   \n" + `{"type":"x"}` + "\n\n")
	lines := collect(t, r)
	if len(lines) != 1 {
		t.Fatalf("got %d lines, want 1", len(lines))
	}
}
