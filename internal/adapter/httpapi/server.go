// Package httpapi exposes the service over HTTP: health and metrics
// endpoints plus the route and observations API.
package httpapi

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/road-weather-service/internal/corridor"
	"github.com/couchcryptid/road-weather-service/internal/domain"
	"github.com/couchcryptid/road-weather-service/internal/route"
)

// Resolver runs the corridor pipeline for a route and window.
type Resolver interface {
	ObservationWindow() domain.TimeWindow
	Resolve(ctx context.Context, r domain.Route, w domain.TimeWindow) (*corridor.Resolution, error)
}

// Server exposes the HTTP API.
type Server struct {
	httpServer *http.Server
	resolver   Resolver
	logger     *slog.Logger
}

// NewServer creates an HTTP server with health, metrics, route, and
// observations routes.
func NewServer(addr string, resolver Resolver, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		resolver: resolver,
		logger:   logger,
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /api/route/rvk-isf", s.handleRoute)
	mux.HandleFunc("POST /api/observations", s.handleObservations)

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

// handleReady always reports ready: the providers are behind caches and a
// cold cache is filled on the first request, so there is no warm-up phase.
func (s *Server) handleReady(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (s *Server) handleRoute(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, route.GeoJSON())
}

// observationsRequest is the POST /api/observations body. From and To are
// endpoint codes ("RVK", "IFJ"). TravelMode and TravelTime optionally anchor
// the observation window to a planned trip instead of the last two hours.
type observationsRequest struct {
	From       string     `json:"from"`
	To         string     `json:"to"`
	TravelMode string     `json:"travelMode,omitempty"` // "departure" or "arrival"
	TravelTime *time.Time `json:"travelTime,omitempty"`
}

func (s *Server) handleObservations(w http.ResponseWriter, r *http.Request) {
	var req observationsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.From == "" || req.To == "" || req.From == req.To {
		writeError(w, http.StatusBadRequest, "from and to must be distinct endpoint codes")
		return
	}

	coords := route.Coordinates(req.From, req.To)

	window := s.resolver.ObservationWindow()
	if req.TravelMode != "" {
		mode := domain.TravelMode(req.TravelMode)
		if mode != domain.ModeDeparture && mode != domain.ModeArrival {
			writeError(w, http.StatusBadRequest, "travelMode must be departure or arrival")
			return
		}
		if req.TravelTime == nil {
			writeError(w, http.StatusBadRequest, "travelTime is required with travelMode")
			return
		}
		window = domain.TravelWindow(mode, *req.TravelTime, route.LengthM()/1000)
	}

	res, err := s.resolver.Resolve(r.Context(), coords, window)
	if err != nil {
		s.logger.Error("resolution failed", "error", err)
		writeError(w, http.StatusInternalServerError, "resolution failed")
		return
	}

	writeJSON(w, http.StatusOK, res)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
