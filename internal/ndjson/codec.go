// Package ndjson frames newline-delimited JSON with partial-line
// reassembly on decode, and compact single-line serialization on encode.
package ndjson

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"math"

	"github.com/loomrun/loom/internal/loomerr"
)

// maxLineSize bounds a single NDJSON line. Vendors occasionally emit large
// tool outputs inline; 4 MiB comfortably covers observed payloads without
// letting a runaway line exhaust memory.
const maxLineSize = 4 * 1024 * 1024

// Line is one decoded line: either a successfully parsed object (Err == nil)
// or a line that failed to parse (Err != nil, Raw still populated). Decode
// never aborts on a parse failure; it is the caller's choice whether to
// surface DecodeError or drop it, matching the "silently drop" contract for
// the stream as a whole.
type Line struct {
	Raw  []byte
	Data map[string]any
	Err  error
}

// Decode reads from r and sends one Line per complete, non-blank input
// line, reassembling partial lines split across reads. It closes ch when r
// reaches EOF or ctx is canceled, and never blocks forever on a missing
// trailing newline — bufio.Scanner flushes a final non-empty fragment at
// EOF.
func Decode(ctx context.Context, r io.Reader) <-chan Line {
	ch := make(chan Line)
	go func() {
		defer close(ch)
		scanner := bufio.NewScanner(r)
		scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
		for scanner.Scan() {
			select {
			case <-ctx.Done():
				return
			default:
			}
			line := bytes.TrimSpace(scanner.Bytes())
			if len(line) == 0 {
				continue
			}
			l := decodeLine(line)
			select {
			case ch <- l:
			case <-ctx.Done():
				return
			}
		}
	}()
	return ch
}

func decodeLine(line []byte) Line {
	raw := append([]byte(nil), line...)
	var data map[string]any
	if err := json.Unmarshal(raw, &data); err != nil {
		return Line{Raw: raw, Err: &loomerr.DecodeError{Line: raw, Err: err}}
	}
	return Line{Raw: raw, Data: data}
}

// Encode serializes v as compact JSON followed by a single '\n'. It fails
// with EncodeError if v contains a non-finite float or a structure json
// cannot traverse (e.g. a cycle reached through an interface value).
func Encode(v any) ([]byte, error) {
	if err := checkFinite(v, 0); err != nil {
		return nil, &loomerr.EncodeError{Err: err}
	}
	buf, err := json.Marshal(v)
	if err != nil {
		return nil, &loomerr.EncodeError{Err: err}
	}
	buf = append(buf, '\n')
	return buf, nil
}

// checkFinite walks v looking for NaN/Inf floats, which encoding/json
// rejects with an opaque error; we give that case a named error kind
// instead of relying on json.Marshal's message text. Past 1000 levels of
// nesting the walk stops and leaves the value to json.Marshal, whose own
// cycle detection rejects a cyclic map or slice.
func checkFinite(v any, depth int) error {
	if depth > 1000 {
		return nil
	}
	switch t := v.(type) {
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return errNonFiniteNumber
		}
	case float32:
		f := float64(t)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return errNonFiniteNumber
		}
	case map[string]any:
		for _, child := range t {
			if err := checkFinite(child, depth+1); err != nil {
				return err
			}
		}
	case []any:
		for _, child := range t {
			if err := checkFinite(child, depth+1); err != nil {
				return err
			}
		}
	}
	return nil
}

var errNonFiniteNumber = errNonFinite{}

type errNonFinite struct{}

func (errNonFinite) Error() string { return "non-finite number" }
