package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/bird-detect-etl/internal/domain"
)

// ReadinessChecker reports whether the service is ready to serve traffic.
type ReadinessChecker interface {
	CheckReadiness(ctx context.Context) error
}

// ArtifactSource serves decoded view artifacts.
type ArtifactSource interface {
	ReadinessChecker
	View(monitor string, v domain.View) (any, error)
	Latest(monitor string) (any, error)
}

// CoordinateResolver returns a monitor's site position.
type CoordinateResolver interface {
	Resolve(monitor string) (domain.Coordinates, error)
}

// Options carries the optional collaborators of the API.
type Options struct {
	DefaultMonitor string
	Resolver       CoordinateResolver
	Geocoder       domain.Geocoder // nil disables site names
}

// Server exposes health, readiness, metrics, and the read-only presentation API.
type Server struct {
	httpServer *http.Server
	artifacts  ArtifactSource
	opts       Options
	logger     *slog.Logger
}

// NewServer creates an HTTP server with the operational and /api routes.
func NewServer(addr string, artifacts ArtifactSource, opts Options, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		artifacts: artifacts,
		opts:      opts,
		logger:    logger,
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", handleReady(artifacts))
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("GET /api/time", s.handleTime)
	mux.HandleFunc("GET /api/summary", s.handleSummary)
	mux.HandleFunc("GET /api/{view}", s.handleView)
	mux.HandleFunc("GET /api/monitors/{monitor}/summary", s.handleSummary)
	mux.HandleFunc("GET /api/monitors/{monitor}/views/{view}", s.handleView)
	mux.HandleFunc("GET /api/monitors/{monitor}/location", s.handleLocation)

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func handleReady(checker ReadinessChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := checker.CheckReadiness(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not ready",
				"error":  err.Error(),
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

func (s *Server) handleTime(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"time": domain.Now().UTC().Format(time.RFC3339)})
}

func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	monitor, ok := s.monitor(w, r)
	if !ok {
		return
	}
	v, err := domain.ParseView(r.PathValue("view"))
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
		return
	}

	rows, err := s.artifacts.View(monitor, v)
	if err != nil {
		s.writeError(w, monitor, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	monitor, ok := s.monitor(w, r)
	if !ok {
		return
	}
	rows, err := s.artifacts.Latest(monitor)
	if err != nil {
		s.writeError(w, monitor, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

type locationResponse struct {
	Monitor string        `json:"monitor"`
	Lat     float64       `json:"lat"`
	Lon     float64       `json:"lon"`
	Place   *domain.Place `json:"place,omitempty"`
}

func (s *Server) handleLocation(w http.ResponseWriter, r *http.Request) {
	monitor, ok := s.monitor(w, r)
	if !ok {
		return
	}
	if s.opts.Resolver == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "location lookup disabled"})
		return
	}

	coords, err := s.opts.Resolver.Resolve(monitor)
	if err != nil {
		s.writeError(w, monitor, err)
		return
	}

	resp := locationResponse{Monitor: monitor, Lat: coords.Lat, Lon: coords.Lon}
	if s.opts.Geocoder != nil {
		place, err := s.opts.Geocoder.ReverseGeocode(r.Context(), coords.Lat, coords.Lon)
		switch {
		case err != nil:
			s.logger.Warn("site geocoding failed", "monitor", monitor, "error", err)
		case place.FormattedAddress != "":
			resp.Place = &place
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// monitor returns the requested monitor, or the default one for the short
// routes. Names that could leave the data roots are answered with 400.
func (s *Server) monitor(w http.ResponseWriter, r *http.Request) (string, bool) {
	m := s.opts.DefaultMonitor
	if strings.Contains(r.Pattern, "{monitor}") {
		m = r.PathValue("monitor")
	}
	if err := domain.ValidateMonitor(m); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": domain.ErrInvalidMonitor.Error()})
		return "", false
	}
	return m, true
}

func (s *Server) writeError(w http.ResponseWriter, monitor string, err error) {
	if errors.Is(err, domain.ErrArtifactNotFound) {
		body := map[string]string{"error": domain.ErrArtifactNotFound.Error()}
		var p interface{ ArtifactPath() string }
		if errors.As(err, &p) {
			body["path"] = p.ArtifactPath()
		}
		writeJSON(w, http.StatusNotFound, body)
		return
	}
	s.logger.Error("api request failed", "monitor", monitor, "error", err)
	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}
