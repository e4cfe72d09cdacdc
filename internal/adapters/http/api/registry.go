package api

import (
	"context"
	"net/http"

	service "github.com/okian/meetpoints/internal/app"
	"github.com/okian/meetpoints/internal/domain/model"
)

// RegistryDependencies defines athlete, event and relay team registration.
type RegistryDependencies interface {
	RegisterAthlete(ctx context.Context, a model.Athlete) (model.Athlete, error)
	CorrectAthlete(ctx context.Context, id string, c service.AthleteCorrection) (service.CorrectionReport, error)
	Athletes(ctx context.Context) ([]model.Athlete, error)
	CreateEvent(ctx context.Context, e model.Event) (model.Event, error)
	Events(ctx context.Context) ([]model.Event, error)
	RegisterRelayTeam(ctx context.Context, t model.RelayTeam) (model.RelayTeam, error)
	Teams(ctx context.Context, eventID string) ([]model.RelayTeam, error)
}

// RegistryHandler handles registration requests.
type RegistryHandler struct {
	deps RegistryDependencies
}

// NewRegistryHandler creates a new registry handler.
func NewRegistryHandler(deps RegistryDependencies) *RegistryHandler {
	return &RegistryHandler{deps: deps}
}

// HandleListAthletes handles GET /athletes.
func (h *RegistryHandler) HandleListAthletes(w http.ResponseWriter, r *http.Request) {
	athletes, err := h.deps.Athletes(r.Context())
	if err != nil {
		fail(w, "api.list_athletes", err)
		return
	}
	writeJSON(w, http.StatusOK, athletes)
}

// HandleRegisterAthlete handles POST /athletes.
func (h *RegistryHandler) HandleRegisterAthlete(w http.ResponseWriter, r *http.Request) {
	const op = "api.register_athlete"
	var a model.Athlete
	if err := decode(r, &a); err != nil {
		fail(w, op, err)
		return
	}
	created, err := h.deps.RegisterAthlete(r.Context(), a)
	if err != nil {
		fail(w, op, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// HandleCorrectAthlete handles PATCH /athletes/{id}.
func (h *RegistryHandler) HandleCorrectAthlete(w http.ResponseWriter, r *http.Request) {
	const op = "api.correct_athlete"
	var c service.AthleteCorrection
	if err := decode(r, &c); err != nil {
		fail(w, op, err)
		return
	}
	report, err := h.deps.CorrectAthlete(r.Context(), r.PathValue("id"), c)
	if err != nil {
		fail(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// HandleListEvents handles GET /events.
func (h *RegistryHandler) HandleListEvents(w http.ResponseWriter, r *http.Request) {
	events, err := h.deps.Events(r.Context())
	if err != nil {
		fail(w, "api.list_events", err)
		return
	}
	writeJSON(w, http.StatusOK, events)
}

// HandleCreateEvent handles POST /events.
func (h *RegistryHandler) HandleCreateEvent(w http.ResponseWriter, r *http.Request) {
	const op = "api.create_event"
	var e model.Event
	if err := decode(r, &e); err != nil {
		fail(w, op, err)
		return
	}
	created, err := h.deps.CreateEvent(r.Context(), e)
	if err != nil {
		fail(w, op, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// HandleListTeams handles GET /relay-teams?event_id=ID.
func (h *RegistryHandler) HandleListTeams(w http.ResponseWriter, r *http.Request) {
	teams, err := h.deps.Teams(r.Context(), r.URL.Query().Get("event_id"))
	if err != nil {
		fail(w, "api.list_teams", err)
		return
	}
	writeJSON(w, http.StatusOK, teams)
}

// HandleRegisterTeam handles POST /relay-teams.
func (h *RegistryHandler) HandleRegisterTeam(w http.ResponseWriter, r *http.Request) {
	const op = "api.register_team"
	var t model.RelayTeam
	if err := decode(r, &t); err != nil {
		fail(w, op, err)
		return
	}
	created, err := h.deps.RegisterRelayTeam(r.Context(), t)
	if err != nil {
		fail(w, op, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}
