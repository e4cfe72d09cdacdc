// Package api serves the meet over JSON HTTP.
package api

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// Dependencies required by HTTP handlers. Each handler takes only the
// slice of it that it needs.
type Dependencies interface {
	ResultsDependencies
	StandingsDependencies
	RegistryDependencies
	AdminDependencies
	StatsProvider
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler    *HealthHandler
	statsHandler     *StatsHandler
	resultsHandler   *ResultsHandler
	standingsHandler *StandingsHandler
	registryHandler  *RegistryHandler
	adminHandler     *AdminHandler
}

// NewServer creates a new API server with all handlers. maxLimit caps the
// athlete leaderboard limit parameter.
func NewServer(deps Dependencies, maxLimit int) *Server {
	return &Server{
		healthHandler:    NewHealthHandler(),
		statsHandler:     NewStatsHandler(deps),
		resultsHandler:   NewResultsHandler(deps),
		standingsHandler: NewStandingsHandler(deps, maxLimit),
		registryHandler:  NewRegistryHandler(deps),
		adminHandler:     NewAdminHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))

	mux.HandleFunc("POST /results", MetricsMiddleware(s.resultsHandler.HandleSubmit, "results"))
	mux.HandleFunc("POST /relay-results", MetricsMiddleware(s.resultsHandler.HandleSubmitRelay, "relay_results"))
	mux.HandleFunc("GET /results", MetricsMiddleware(s.resultsHandler.HandleList, "results"))
	mux.HandleFunc("DELETE /results/{id}", MetricsMiddleware(s.resultsHandler.HandleDelete, "results"))

	mux.HandleFunc("GET /standings/houses", MetricsMiddleware(s.standingsHandler.HandleHouses, "standings_houses"))
	mux.HandleFunc("GET /standings/athletes", MetricsMiddleware(s.standingsHandler.HandleAthletes, "standings_athletes"))
	mux.HandleFunc("GET /standings/genders", MetricsMiddleware(s.standingsHandler.HandleGenders, "standings_genders"))

	mux.HandleFunc("GET /athletes", MetricsMiddleware(s.registryHandler.HandleListAthletes, "athletes"))
	mux.HandleFunc("POST /athletes", MetricsMiddleware(s.registryHandler.HandleRegisterAthlete, "athletes"))
	mux.HandleFunc("PATCH /athletes/{id}", MetricsMiddleware(s.registryHandler.HandleCorrectAthlete, "athletes"))
	mux.HandleFunc("GET /events", MetricsMiddleware(s.registryHandler.HandleListEvents, "events"))
	mux.HandleFunc("POST /events", MetricsMiddleware(s.registryHandler.HandleCreateEvent, "events"))
	mux.HandleFunc("GET /relay-teams", MetricsMiddleware(s.registryHandler.HandleListTeams, "relay_teams"))
	mux.HandleFunc("POST /relay-teams", MetricsMiddleware(s.registryHandler.HandleRegisterTeam, "relay_teams"))

	mux.HandleFunc("POST /recompute", MetricsMiddleware(s.adminHandler.HandleRecompute, "recompute"))
	mux.HandleFunc("GET /audit", MetricsMiddleware(s.adminHandler.HandleAudit, "audit"))
	mux.HandleFunc("POST /catalog/seed", MetricsMiddleware(s.adminHandler.HandleSeed, "catalog_seed"))
}

type ackResponse struct {
	Status    string `json:"status"`
	Duplicate bool   `json:"duplicate"`
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

// fail writes err with the status its kind maps to.
func fail(w http.ResponseWriter, op string, err error) {
	status, code := classify(err)
	writeError(w, status, code, Wrap(op, err))
}

// decode reads a JSON body, rejecting unknown fields.
func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %w", ErrBadRequest, err)
	}
	return nil
}
