package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"
)

func TestHandlerReportsRecordedCounters(t *testing.T) {
	c := New()
	c.SessionStarted("claude")
	c.SessionFinished("claude", true)
	c.SessionFinished("codex", false)
	c.ToolUse("claude", "file_write")

	req := httptest.NewRequest("GET", "/metrics", nil)
	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, req)

	if rec.Code != 200 {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{
		`loom_sessions_started_total{agent="claude"} 1`,
		`loom_sessions_finished_total{agent="claude",outcome="done"} 1`,
		`loom_sessions_finished_total{agent="codex",outcome="failed"} 1`,
		`loom_tool_use_total{agent="claude",action="file_write"} 1`,
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("metrics output missing %q, got:\n%s", want, body)
		}
	}
}
