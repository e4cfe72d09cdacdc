package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/okian/meetpoints/internal/domain/model"
	"github.com/okian/meetpoints/internal/domain/standings"
	"github.com/okian/meetpoints/internal/domain/types"
)

// StandingsDependencies defines the standings read operations.
type StandingsDependencies interface {
	HouseStandings(ctx context.Context) ([]types.HouseTotal, error)
	AthleteLeaderboard(ctx context.Context, f standings.Filter) ([]types.AthleteTotal, error)
	GenderStandings(ctx context.Context) ([]types.GenderTotal, error)
}

// StandingsHandler handles standings requests.
type StandingsHandler struct {
	deps     StandingsDependencies
	maxLimit int
}

// NewStandingsHandler creates a new standings handler.
func NewStandingsHandler(deps StandingsDependencies, maxLimit int) *StandingsHandler {
	return &StandingsHandler{deps: deps, maxLimit: maxLimit}
}

// HandleHouses handles GET /standings/houses.
func (h *StandingsHandler) HandleHouses(w http.ResponseWriter, r *http.Request) {
	rows, err := h.deps.HouseStandings(r.Context())
	if err != nil {
		fail(w, "api.house_standings", err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

// HandleAthletes handles GET /standings/athletes?gender=&house=&limit=N.
// Without a limit every athlete is listed.
func (h *StandingsHandler) HandleAthletes(w http.ResponseWriter, r *http.Request) {
	const op = "api.athlete_standings"
	q := r.URL.Query()
	f := standings.Filter{
		Gender: model.Gender(q.Get("gender")),
		House:  model.House(q.Get("house")),
	}
	if s := q.Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
			return
		}
		if h.maxLimit > 0 && n > h.maxLimit {
			writeError(w, http.StatusBadRequest, "limit_exceeded", NewKind(op, ErrLimitExceeded))
			return
		}
		f.Limit = n
	}
	rows, err := h.deps.AthleteLeaderboard(r.Context(), f)
	if err != nil {
		fail(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

// HandleGenders handles GET /standings/genders.
func (h *StandingsHandler) HandleGenders(w http.ResponseWriter, r *http.Request) {
	rows, err := h.deps.GenderStandings(r.Context())
	if err != nil {
		fail(w, "api.gender_standings", err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}
