// Package api serves the kiosk's ops endpoints: Prometheus metrics, service
// stats, the enrolled identities and the working hours.
package api

import (
	"context"
	"encoding/json"
	"net/http"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to the service.
type Dependencies interface {
	StatsProvider
	IdentityLister
	HoursController
}

// Server wires HTTP routes for the ops API.
type Server struct {
	healthHandler     *HealthHandler
	statsHandler      *StatsHandler
	identitiesHandler *IdentitiesHandler
	hoursHandler      *HoursHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies) *Server {
	return &Server{
		healthHandler:     NewHealthHandler(),
		statsHandler:      NewStatsHandler(deps),
		identitiesHandler: NewIdentitiesHandler(deps),
		hoursHandler:      NewHoursHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/identities", MetricsMiddleware(s.identitiesHandler.HandleList, "identities"))
	mux.HandleFunc("/hours", MetricsMiddleware(s.hoursHandler.HandleHours, "hours"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}
