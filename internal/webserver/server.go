// Package webserver is loom's HTTP/WebSocket attach surface: it lets a
// remote client list agents, start a session, stream its normalized entry
// feed, send follow-up messages, and request an interrupt — all as a thin
// consumer of the same iterator the reference CLI drives directly. It is
// not a new core concern; every session it manages still flows through
// internal/registry, internal/executor, and internal/session exactly as a
// local caller would use them.
package webserver

import (
	"context"
	"net/http"
	"sync"

	"github.com/loomrun/loom/internal/entry"
	"github.com/loomrun/loom/internal/executor"
	"github.com/loomrun/loom/internal/metrics"
	"github.com/loomrun/loom/internal/obslog"
	"github.com/loomrun/loom/internal/session"
)

// Server holds the live session registry and wires the HTTP routes over
// it. The zero value is not usable; construct with New.
type Server struct {
	mux     *http.ServeMux
	metrics *metrics.Collector

	mu       sync.RWMutex
	sessions map[string]*liveSession
}

// liveSession bundles one running (or finished) executor with its session
// wrapper and the set of WebSocket subscribers currently attached to it.
type liveSession struct {
	exec *executor.Executor
	sess *session.Session

	subMu sync.Mutex
	subs  map[chan wireEntry]struct{}
}

// New builds a Server. collector may be nil, in which case /metrics is not
// registered.
func New(collector *metrics.Collector) *Server {
	srv := &Server{
		mux:      http.NewServeMux(),
		metrics:  collector,
		sessions: make(map[string]*liveSession),
	}
	srv.routes()
	return srv
}

// Handler returns the root http.Handler for this server.
func (srv *Server) Handler() http.Handler { return srv.mux }

func (srv *Server) routes() {
	srv.mux.HandleFunc("GET /api/agents", srv.handleListAgents)
	srv.mux.HandleFunc("POST /api/sessions", srv.handleCreateSession)
	srv.mux.HandleFunc("GET /api/sessions/{id}", srv.handleGetSession)
	srv.mux.HandleFunc("POST /api/sessions/{id}/message", srv.handleSendMessage)
	srv.mux.HandleFunc("POST /api/sessions/{id}/interrupt", srv.handleInterrupt)
	srv.mux.HandleFunc("GET /api/sessions/{id}/ws", srv.handleSessionWebSocket)
	if srv.metrics != nil {
		srv.mux.Handle("GET /metrics", srv.metrics.Handler())
	}
}

func (srv *Server) register(taskID string, exec *executor.Executor, sess *session.Session) *liveSession {
	ls := &liveSession{exec: exec, sess: sess, subs: make(map[chan wireEntry]struct{})}
	srv.mu.Lock()
	srv.sessions[taskID] = ls
	srv.mu.Unlock()
	return ls
}

func (srv *Server) lookup(taskID string) (*liveSession, bool) {
	srv.mu.RLock()
	defer srv.mu.RUnlock()
	ls, ok := srv.sessions[taskID]
	return ls, ok
}

// pump ranges over the executor's entry iterator, recording each entry into
// the session wrapper, fanning it out to any attached WebSocket
// subscribers, and updating metrics. It runs until the iterator closes.
func (srv *Server) pump(agentName string, ls *liveSession) {
	for e, err := range ls.exec.Entries() {
		if err != nil {
			continue
		}
		ls.sess.Record(e)
		if e.Kind == entry.KindToolUse && srv.metrics != nil {
			srv.metrics.ToolUse(agentName, string(e.Action.Kind))
		}
		ls.broadcast(toWireEntry(e))
	}
	// The iterator has already closed, so Wait returns immediately; the
	// background context here is just a formality of the signature.
	res, waitErr := ls.exec.Wait(context.Background())
	if srv.metrics != nil {
		srv.metrics.SessionFinished(agentName, waitErr == nil && res.ExitCode == 0)
	}
	obslog.LogKV("webserver", "session pump finished", "task_id", ls.exec.TaskID(), "exit_code", res.ExitCode)
	ls.closeSubs()
}

func (ls *liveSession) broadcast(w wireEntry) {
	ls.subMu.Lock()
	defer ls.subMu.Unlock()
	for ch := range ls.subs {
		select {
		case ch <- w:
		default:
			// A slow subscriber drops entries rather than blocking the
			// pump; reconnecting to the session's WebSocket replays the
			// full history.
		}
	}
}

func (ls *liveSession) closeSubs() {
	ls.subMu.Lock()
	defer ls.subMu.Unlock()
	for ch := range ls.subs {
		close(ch)
	}
	ls.subs = nil
}

func (ls *liveSession) subscribe() chan wireEntry {
	ch := make(chan wireEntry, 64)
	ls.subMu.Lock()
	defer ls.subMu.Unlock()
	if ls.subs == nil {
		close(ch)
		return ch
	}
	ls.subs[ch] = struct{}{}
	return ch
}

func (ls *liveSession) unsubscribe(ch chan wireEntry) {
	ls.subMu.Lock()
	defer ls.subMu.Unlock()
	if _, ok := ls.subs[ch]; ok {
		delete(ls.subs, ch)
	}
}

