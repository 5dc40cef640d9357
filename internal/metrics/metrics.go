// Package metrics exposes in-memory Prometheus counters for sessions and
// tool use. Counters live only for the process lifetime — there is no
// disk persistence, matching the rest of loom's ambient stack.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector is a self-contained set of counters registered against its own
// prometheus.Registry, so a test can construct one without touching the
// global default registry.
type Collector struct {
	registry *prometheus.Registry

	sessionsStarted  *prometheus.CounterVec
	sessionsFinished *prometheus.CounterVec
	toolUse          *prometheus.CounterVec
}

// New builds a Collector with its counters registered and zeroed.
func New() *Collector {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	c := &Collector{
		registry: reg,
		sessionsStarted: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "loom_sessions_started_total",
			Help: "Sessions started, by agent.",
		}, []string{"agent"}),
		sessionsFinished: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "loom_sessions_finished_total",
			Help: "Sessions finished, by agent and outcome (done or failed).",
		}, []string{"agent", "outcome"}),
		toolUse: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "loom_tool_use_total",
			Help: "tool_use entries observed, by agent and action classification.",
		}, []string{"agent", "action"}),
	}
	return c
}

// SessionStarted increments the started counter for agent.
func (c *Collector) SessionStarted(agent string) {
	c.sessionsStarted.WithLabelValues(agent).Inc()
}

// SessionFinished increments the finished counter for agent, labeled
// "done" or "failed" depending on ok.
func (c *Collector) SessionFinished(agent string, ok bool) {
	outcome := "done"
	if !ok {
		outcome = "failed"
	}
	c.sessionsFinished.WithLabelValues(agent, outcome).Inc()
}

// ToolUse increments the tool_use counter for agent and action.
func (c *Collector) ToolUse(agent, action string) {
	c.toolUse.WithLabelValues(agent, action).Inc()
}

// Handler returns the /metrics HTTP handler for this collector's registry.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
