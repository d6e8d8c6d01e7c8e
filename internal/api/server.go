// Package api exposes the progress of a running batch over HTTP
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/Wgledston/certificate-manager/internal/formatter"
	"github.com/Wgledston/certificate-manager/internal/logger"
	"github.com/Wgledston/certificate-manager/internal/types"
	"github.com/gorilla/mux"
)

// Run states published on the status board
const (
	StateStarting       = "starting"
	StateAuthenticating = "authenticating"
	StateRunning        = "running"
	StateCompleted      = "completed"
	StateFailed         = "failed"
)

// StatusBoard holds the latest progress of the run. The batch writes it from its own
// goroutine while HTTP handlers read it, hence the lock.
type StatusBoard struct {
	mu      sync.RWMutex
	state   string
	summary *types.Summary
}

// NewStatusBoard creates a board in the starting state
func NewStatusBoard() *StatusBoard {
	return &StatusBoard{state: StateStarting}
}

// SetState records the run lifecycle state
func (b *StatusBoard) SetState(state string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state = state
}

// Publish records a progress snapshot
func (b *StatusBoard) Publish(s types.Summary) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.summary = &s
}

// Progress is the body of GET /api/v1/progress
type Progress struct {
	State   string                  `json:"state"`
	Summary *formatter.SummaryEntry `json:"summary,omitempty"`
}

// Snapshot returns the current progress
func (b *StatusBoard) Snapshot() Progress {
	b.mu.RLock()
	defer b.mu.RUnlock()
	p := Progress{State: b.state}
	if b.summary != nil {
		entry := formatter.NewSummaryEntry(*b.summary)
		p.Summary = &entry
	}
	return p
}

// Server represents the API server
type Server struct {
	router *mux.Router
	board  *StatusBoard
	srv    *http.Server
}

// NewServer creates a new API server instance
func NewServer(board *StatusBoard) *Server {
	s := &Server{
		router: mux.NewRouter(),
		board:  board,
	}
	s.routes()
	s.srv = &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// routes sets up the API routes
func (s *Server) routes() {
	s.router.HandleFunc("/api/v1/health", s.healthCheck).Methods("GET")
	s.router.HandleFunc("/api/v1/progress", s.progress).Methods("GET")
}

// Start listens on addr and serves until Shutdown
func (s *Server) Start(addr string) error {
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(l)
}

// Serve serves on l until Shutdown
func (s *Server) Serve(l net.Listener) error {
	logger.Info().Str("addr", l.Addr().String()).Msg("Starting status server")
	if err := s.srv.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops the server gracefully
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

// healthCheck handles the health check endpoint
func (s *Server) healthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{
		"status": "healthy",
	})
}

// progress reports the latest run snapshot
func (s *Server) progress(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.board.Snapshot())
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error().Err(err).Msg("Failed to encode response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
}
