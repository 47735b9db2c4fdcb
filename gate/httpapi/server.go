// Package httpapi exposes a session.Store over HTTP, so a long-running
// service can hold one gate per agent conversation and let a remote
// caller drive handle_tool_call/handle_tool_result without linking Go
// code against this module directly.
package httpapi

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/petrigate/petrigate/gate"
	"github.com/petrigate/petrigate/gate/session"
)

// Server wires a session.Store to an HTTP mux.
type Server struct {
	store *session.Store
	mux   *http.ServeMux
}

// NewServer builds a Server backed by store, registering every route.
func NewServer(store *session.Store) *Server {
	s := &Server{store: store, mux: http.NewServeMux()}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("/api/health", s.handleHealth)
	s.mux.HandleFunc("/api/sessions", s.handleCreateSession)
	s.mux.HandleFunc("/api/sessions/status", s.handleStatus)
	s.mux.HandleFunc("/api/sessions/tool-call", s.handleToolCall)
	s.mux.HandleFunc("/api/sessions/tool-result", s.handleToolResult)
}

type healthResponse struct {
	Status      string `json:"status"`
	UptimeSecs  int64  `json:"uptime_seconds"`
	ActiveCount int    `json:"active_sessions"`
}

var startTime = time.Now()

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, healthResponse{
		Status:      "ok",
		UptimeSecs:  int64(time.Since(startTime).Seconds()),
		ActiveCount: s.store.Count(),
	})
}

type createSessionResponse struct {
	SessionID string `json:"session_id"`
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	id, _ := s.store.Create()
	writeJSON(w, http.StatusCreated, createSessionResponse{SessionID: id})
}

type toolCallRequest struct {
	SessionID  string         `json:"session_id"`
	ToolCallID string         `json:"tool_call_id"`
	ToolName   string         `json:"tool_name"`
	Input      map[string]any `json:"input"`
	HasUI      bool           `json:"has_ui"`
}

type decisionResponse struct {
	Blocked bool   `json:"blocked"`
	Reason  string `json:"reason,omitempty"`
}

func (s *Server) handleToolCall(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req toolCallRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "malformed request body", http.StatusBadRequest)
		return
	}
	if req.SessionID == "" {
		http.Error(w, "session_id is required", http.StatusBadRequest)
		return
	}

	manager := s.store.Get(req.SessionID)
	decision := manager.HandleToolCall(gate.ToolCall{
		ToolCallID: req.ToolCallID,
		ToolName:   req.ToolName,
		Input:      req.Input,
	}, gate.Context{HasUI: req.HasUI})

	writeJSON(w, http.StatusOK, decisionResponse{Blocked: decision.Blocked, Reason: decision.Reason})
}

type toolResultRequest struct {
	SessionID  string         `json:"session_id"`
	ToolCallID string         `json:"tool_call_id"`
	ToolName   string         `json:"tool_name"`
	Input      map[string]any `json:"input"`
	IsError    bool           `json:"is_error"`
}

func (s *Server) handleToolResult(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req toolResultRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "malformed request body", http.StatusBadRequest)
		return
	}
	if req.SessionID == "" {
		http.Error(w, "session_id is required", http.StatusBadRequest)
		return
	}

	manager := s.store.Get(req.SessionID)
	manager.HandleToolResult(gate.ToolResult{
		ToolCallID: req.ToolCallID,
		ToolName:   req.ToolName,
		Input:      req.Input,
		IsError:    req.IsError,
	})
	w.WriteHeader(http.StatusNoContent)
}

type statusResponse struct {
	Status string `json:"status"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	id := r.URL.Query().Get("session_id")
	if id == "" {
		http.Error(w, "session_id query parameter is required", http.StatusBadRequest)
		return
	}
	manager := s.store.Get(id)
	writeJSON(w, http.StatusOK, statusResponse{Status: manager.FormatStatus()})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

// Start begins listening on addr with graceful shutdown on SIGINT/SIGTERM,
// waiting up to 10s for in-flight requests to complete.
func (s *Server) Start(addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh
		log.Printf("[HTTPAPI] received signal %v, shutting down gracefully", sig)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("[HTTPAPI] graceful shutdown error: %v", err)
		}
	}()

	log.Printf("[HTTPAPI] listening on http://%s", addr)
	err := srv.ListenAndServe()
	if err == http.ErrServerClosed {
		log.Println("[HTTPAPI] stopped gracefully")
		return nil
	}
	return err
}
