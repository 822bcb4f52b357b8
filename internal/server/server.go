// Package server provides the HTTP server for handcontrol.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"gocv.io/x/gocv"

	"github.com/ayusman/handcontrol/internal/app"
	"github.com/ayusman/handcontrol/internal/positions"
	"github.com/ayusman/handcontrol/internal/server/api"
	"github.com/ayusman/handcontrol/internal/surface"
)

// FrameSource publishes captured frames.
type FrameSource interface {
	OnFrame(fn func(*gocv.Mat))
}

// Config holds the server configuration.
type Config struct {
	StaticDir string
	Layout    *surface.Layout
	Positions *positions.Store
	Tracker   api.Tracker
	Frames    FrameSource
	// Context bounds tracking sessions started over HTTP. Defaults to
	// context.Background.
	Context context.Context
}

// Server represents the HTTP server for handcontrol.
type Server struct {
	config  Config
	mux     *http.ServeMux
	handler http.Handler
	hub     *Hub
	stream  *StreamHandler
	start   time.Time
	log     *slog.Logger
}

// New creates a new Server with the given configuration.
func New(config Config) *Server {
	if config.Context == nil {
		config.Context = context.Background()
	}
	s := &Server{
		config: config,
		mux:    http.NewServeMux(),
		start:  time.Now(),
		log:    slog.With("component", "server"),
	}
	s.setupRoutes()
	s.handler = corsMiddleware(s.mux)
	return s
}

// setupRoutes configures all HTTP routes for the server.
func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/api/health", s.handleHealth)

	if s.config.Layout != nil {
		var restorer api.Restorer
		if s.config.Positions != nil {
			restorer = s.config.Positions
		}
		elements := api.NewElementsHandler(s.config.Layout, restorer)
		s.mux.HandleFunc("GET /api/elements", elements.List)
		s.mux.HandleFunc("POST /api/elements", elements.Register)
		s.mux.HandleFunc("PATCH /api/elements/{id}", elements.Update)
		s.mux.HandleFunc("DELETE /api/elements/{id}", elements.Remove)
		s.mux.HandleFunc("PUT /api/viewport", elements.Viewport)

		var status func() app.Status
		if s.config.Tracker != nil {
			status = func() app.Status { return s.config.Tracker.Snapshot().Status }
		}
		s.hub = NewHub(s.config.Layout, status)
		s.config.Layout.OnEvent(s.hub.Publish)
		s.mux.Handle("GET /api/events", s.hub)
	}

	if s.config.Positions != nil {
		p := api.NewPositionsHandler(s.config.Positions)
		s.mux.HandleFunc("GET /api/positions", p.List)
		s.mux.HandleFunc("DELETE /api/positions", p.Reset)
	}

	if s.config.Tracker != nil {
		tracking := api.NewTrackingHandler(s.config.Context, s.config.Tracker)
		s.mux.HandleFunc("GET /api/status", tracking.Status)
		s.mux.HandleFunc("POST /api/tracking", tracking.Start)
		s.mux.HandleFunc("DELETE /api/tracking", tracking.Stop)
	}

	// Register camera stream endpoint if frames are published
	if s.config.Frames != nil {
		s.stream = NewStreamHandler()
		s.config.Frames.OnFrame(s.stream.Publish)
		s.mux.Handle("/api/stream", s.stream)
	}

	// Serve static files if StaticDir is configured
	if s.config.StaticDir != "" {
		fs := http.FileServer(http.Dir(s.config.StaticDir))
		s.mux.Handle("/", fs)
	}
}

// Hub returns the page event hub, or nil without a layout.
func (s *Server) Hub() *Hub {
	return s.hub
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "*")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// handleHealth handles GET requests to /api/health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	uptime := time.Since(s.start)

	response := map[string]interface{}{
		"status": "ok",
		"uptime": uptime.String(),
	}
	if s.hub != nil {
		response["pages"] = s.hub.Clients()
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		return
	}
}

// ListenAndServe serves on addr until ctx is done, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("http server starting", "addr", addr)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	if s.hub != nil {
		s.hub.Close()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
