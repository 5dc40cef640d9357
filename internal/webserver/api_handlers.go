package webserver

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/loomrun/loom/internal/dialect"
	"github.com/loomrun/loom/internal/registry"
	"github.com/loomrun/loom/internal/session"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func (srv *Server) handleListAgents(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, registry.Describe())
}

type createSessionRequest struct {
	Agent        string   `json:"agent"`
	Task         string   `json:"task"`
	WorkDir      string   `json:"work_dir"`
	Executable   string   `json:"executable"` // overrides the adapter's default binary name
	Args         []string `json:"args"`       // generic and acp adapters only: raw argv passthrough
	Model        string   `json:"model"`
	AutoApprove  bool     `json:"auto_approve"`
	AppendPrompt string   `json:"append_prompt"`
	Mode         string   `json:"mode"`
}

type createSessionResponse struct {
	TaskID string `json:"task_id"`
	Agent  string `json:"agent"`
}

func (srv *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Agent == "" || req.Task == "" {
		writeError(w, http.StatusBadRequest, "agent and task are required")
		return
	}

	cfg := dialect.Config{
		WorkDir:      req.WorkDir,
		Executable:   req.Executable,
		Args:         req.Args,
		Model:        req.Model,
		AutoApprove:  req.AutoApprove,
		AppendPrompt: req.AppendPrompt,
		Mode:         dialect.Mode(req.Mode),
	}
	exec, err := registry.Create(req.Agent, cfg)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}

	ctx := context.Background()
	if err := exec.ExecuteTask(ctx, req.Task); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if srv.metrics != nil {
		srv.metrics.SessionStarted(req.Agent)
	}

	sess := session.New(exec.TaskID(), req.Agent, req.WorkDir, time.Now())
	ls := srv.register(exec.TaskID(), exec, sess)
	go srv.pump(req.Agent, ls)

	writeJSON(w, http.StatusCreated, createSessionResponse{TaskID: exec.TaskID(), Agent: req.Agent})
}

type sessionSnapshot struct {
	TaskID            string  `json:"task_id"`
	AgentName         string  `json:"agent_name"`
	DurationSeconds   float64 `json:"duration_seconds"`
	ToolUseCount      int     `json:"tool_use_count"`
	FilesChangedCount int     `json:"files_changed_count"`
}

func (srv *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	ls, ok := srv.lookup(r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	writeJSON(w, http.StatusOK, sessionSnapshot{
		TaskID:            ls.sess.TaskID,
		AgentName:         ls.sess.AgentName,
		DurationSeconds:   ls.sess.Duration().Seconds(),
		ToolUseCount:      ls.sess.ToolUseCount(),
		FilesChangedCount: ls.sess.FilesChangedCount(),
	})
}

type sendMessageRequest struct {
	Text string `json:"text"`
}

func (srv *Server) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	ls, ok := srv.lookup(r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	var req sendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := ls.exec.SendMessage(req.Text); err != nil {
		writeError(w, http.StatusConflict, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (srv *Server) handleInterrupt(w http.ResponseWriter, r *http.Request) {
	ls, ok := srv.lookup(r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()
	if err := ls.exec.Interrupt(ctx); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
