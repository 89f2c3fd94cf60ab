// Package server provides the optional local HTTP surface: health, an MJPEG
// stream of annotated frames, a websocket state feed and journal read-outs.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/ayusman/pinchmix/internal/store"
	"gocv.io/x/gocv"
)

// Config holds the server configuration.
type Config struct {
	StaticDir string
	Store     *store.Store
	Logger    *slog.Logger
}

// Server represents the HTTP server.
type Server struct {
	config Config
	logger *slog.Logger
	mux    *http.ServeMux
	frames *FrameHub
	states *StateHub
	start  time.Time
}

// New creates a new Server with the given configuration.
func New(config Config) *Server {
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		config: config,
		logger: logger,
		mux:    http.NewServeMux(),
		frames: NewFrameHub(),
		states: NewStateHub(logger),
		start:  time.Now(),
	}
	s.setupRoutes()
	return s
}

// setupRoutes configures all HTTP routes for the server.
func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/api/health", s.handleHealth)
	s.mux.Handle("/api/stream", NewStreamHandler(s.frames))
	s.mux.Handle("/api/state", s.states)

	if s.config.Store != nil {
		s.mux.HandleFunc("/api/runs", s.handleRuns)
		s.mux.HandleFunc("/api/runs/{id}/events", s.handleRunEvents)
		s.mux.HandleFunc("/api/runs/{id}/errors", s.handleRunErrors)
	}

	if s.config.StaticDir != "" {
		fs := http.FileServer(http.Dir(s.config.StaticDir))
		s.mux.Handle("/", fs)
	}
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// PublishFrame hands an annotated frame to stream viewers.
func (s *Server) PublishFrame(frame *gocv.Mat) {
	if err := s.frames.PublishFrame(frame); err != nil {
		s.logger.Debug("dropping stream frame", "error", err)
	}
}

// PublishState hands a snapshot to websocket viewers.
func (s *Server) PublishState(state any) {
	s.states.PublishState(state)
}

// handleHealth handles GET requests to /api/health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	writeJSON(w, map[string]any{
		"status":         "ok",
		"uptime":         time.Since(s.start).String(),
		"stream_clients": s.frames.Viewers(),
		"state_clients":  s.states.Clients(),
	})
}

func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	runs, err := s.config.Store.Runs().List()
	if err != nil {
		s.logger.Error("failed to list runs", "error", err)
		http.Error(w, "Failed to list runs", http.StatusInternalServerError)
		return
	}

	type runResponse struct {
		ID        string          `json:"id"`
		Settings  json.RawMessage `json:"settings"`
		Frames    int             `json:"frames"`
		StartedAt time.Time       `json:"started_at"`
		EndedAt   *time.Time      `json:"ended_at,omitempty"`
	}

	out := make([]runResponse, 0, len(runs))
	for _, run := range runs {
		out = append(out, runResponse{
			ID:        run.ID,
			Settings:  run.Settings,
			Frames:    run.Frames,
			StartedAt: run.StartedAt,
			EndedAt:   run.EndedAt,
		})
	}

	writeJSON(w, map[string]any{"runs": out})
}

func (s *Server) handleRunEvents(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	id := r.PathValue("id")
	if !s.runExists(w, id) {
		return
	}

	events, err := s.config.Store.SessionEvents(id)
	if err != nil {
		s.logger.Error("failed to list session events", "run", id, "error", err)
		http.Error(w, "Failed to list events", http.StatusInternalServerError)
		return
	}

	type eventResponse struct {
		Kind      string    `json:"kind"`
		Process   string    `json:"process"`
		Key       string    `json:"key"`
		Volume    float64   `json:"volume"`
		CreatedAt time.Time `json:"created_at"`
	}

	out := make([]eventResponse, 0, len(events))
	for _, e := range events {
		out = append(out, eventResponse{
			Kind:      e.Kind,
			Process:   e.Process,
			Key:       e.Key,
			Volume:    e.Volume,
			CreatedAt: e.CreatedAt,
		})
	}

	writeJSON(w, map[string]any{"events": out})
}

func (s *Server) handleRunErrors(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	id := r.PathValue("id")
	if !s.runExists(w, id) {
		return
	}

	errs, err := s.config.Store.ControlErrors(id)
	if err != nil {
		s.logger.Error("failed to list control errors", "run", id, "error", err)
		http.Error(w, "Failed to list errors", http.StatusInternalServerError)
		return
	}

	type errorResponse struct {
		Process   string    `json:"process"`
		Key       string    `json:"key"`
		Op        string    `json:"op"`
		Message   string    `json:"message"`
		CreatedAt time.Time `json:"created_at"`
	}

	out := make([]errorResponse, 0, len(errs))
	for _, e := range errs {
		out = append(out, errorResponse{
			Process:   e.Process,
			Key:       e.Key,
			Op:        e.Op,
			Message:   e.Message,
			CreatedAt: e.CreatedAt,
		})
	}

	writeJSON(w, map[string]any{"errors": out})
}

// runExists writes a 404 and returns false when id is not a known run.
func (s *Server) runExists(w http.ResponseWriter, id string) bool {
	if _, err := s.config.Store.Runs().GetByID(id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			http.Error(w, "Run not found", http.StatusNotFound)
			return false
		}
		s.logger.Error("failed to load run", "run", id, "error", err)
		http.Error(w, "Failed to load run", http.StatusInternalServerError)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// Serve listens on addr until ctx is canceled, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 5 * time.Second,
		// Streams end with ctx so Shutdown is not held open by MJPEG viewers.
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.states.Close()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}
