// Package session is a thin aggregator around one executor invocation: it
// records every emitted entry in order and exposes derived, read-only
// views over that record without owning any of the executor's lifecycle
// concerns itself.
package session

import (
	"sync"
	"time"

	"github.com/loomrun/loom/internal/entry"
)

// Session wraps one running or completed executor invocation.
type Session struct {
	TaskID    string
	AgentName string
	WorkDir   string
	StartTime time.Time

	mu      sync.Mutex
	entries []entry.Entry
}

// New constructs a session wrapper. Call Record for each entry the
// executor emits, in order.
func New(taskID, agentName, workDir string, startTime time.Time) *Session {
	return &Session{
		TaskID:    taskID,
		AgentName: agentName,
		WorkDir:   workDir,
		StartTime: startTime,
	}
}

// Record appends e to the session's in-order entry log.
func (s *Session) Record(e entry.Entry) {
	s.mu.Lock()
	s.entries = append(s.entries, e)
	s.mu.Unlock()
}

// Entries returns a defensive copy of every entry recorded so far, in
// emission order.
func (s *Session) Entries() []entry.Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]entry.Entry, len(s.entries))
	copy(out, s.entries)
	return out
}

// Duration is now minus the session's start time.
func (s *Session) Duration() time.Duration {
	return time.Since(s.StartTime)
}

// ToolUseCount is the number of tool_use entries recorded so far.
func (s *Session) ToolUseCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, e := range s.entries {
		if e.Kind == entry.KindToolUse {
			n++
		}
	}
	return n
}

// FilesChangedCount is the number of distinct file paths touched by a
// file_write or file_edit tool_use entry, deduplicated by path.
func (s *Session) FilesChangedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	seen := make(map[string]struct{})
	for _, e := range s.entries {
		if !e.IsFileMutation() {
			continue
		}
		seen[e.Action.Path] = struct{}{}
	}
	return len(seen)
}

// Release clears the recorded entry log, freeing its backing memory. The
// session's identity fields (TaskID, AgentName, WorkDir, StartTime) survive
// release; only the entry history is discarded.
func (s *Session) Release() {
	s.mu.Lock()
	s.entries = nil
	s.mu.Unlock()
}
