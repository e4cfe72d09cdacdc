package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/okian/meetpoints/internal/domain/model"
	"github.com/okian/meetpoints/internal/domain/types"
)

// ResultsDependencies defines what the results handlers need.
type ResultsDependencies interface {
	SeenAndRecord(ctx context.Context, requestID string) bool
	Unrecord(ctx context.Context, requestID string)
	SubmitResult(ctx context.Context, athleteID, eventID, raw string) (model.Measurement, error)
	SubmitRelayResult(ctx context.Context, teamID, raw string) (model.Measurement, error)
	DeleteResult(ctx context.Context, id string) error
	EventResults(ctx context.Context, eventID string) ([]types.EventResult, error)
}

// ResultsHandler handles result submission, deletion and listing.
type ResultsHandler struct {
	deps ResultsDependencies
}

// NewResultsHandler creates a new results handler.
func NewResultsHandler(deps ResultsDependencies) *ResultsHandler {
	return &ResultsHandler{deps: deps}
}

// rawValue accepts a measurement as a JSON string ("1:02.35") or number.
type rawValue string

func (v *rawValue) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*v = rawValue(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return errors.New("value must be a string or a number")
	}
	*v = rawValue(n.String())
	return nil
}

type resultRequest struct {
	RequestID string   `json:"request_id"`
	AthleteID string   `json:"athlete_id"`
	EventID   string   `json:"event_id"`
	Value     rawValue `json:"value"`
}

func (r resultRequest) validate() error {
	switch {
	case strings.TrimSpace(r.AthleteID) == "":
		return errors.New("missing athlete_id")
	case strings.TrimSpace(r.EventID) == "":
		return errors.New("missing event_id")
	case strings.TrimSpace(string(r.Value)) == "":
		return errors.New("missing value")
	}
	return nil
}

type relayResultRequest struct {
	RequestID string   `json:"request_id"`
	TeamID    string   `json:"team_id"`
	Value     rawValue `json:"value"`
}

func (r relayResultRequest) validate() error {
	switch {
	case strings.TrimSpace(r.TeamID) == "":
		return errors.New("missing team_id")
	case strings.TrimSpace(string(r.Value)) == "":
		return errors.New("missing value")
	}
	return nil
}

// HandleSubmit handles POST /results.
func (h *ResultsHandler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	const op = "api.submit_result"
	var req resultRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", Wrap(op, err))
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	h.submit(w, r, op, req.RequestID, func(ctx context.Context) (model.Measurement, error) {
		return h.deps.SubmitResult(ctx, req.AthleteID, req.EventID, string(req.Value))
	})
}

// HandleSubmitRelay handles POST /relay-results.
func (h *ResultsHandler) HandleSubmitRelay(w http.ResponseWriter, r *http.Request) {
	const op = "api.submit_relay_result"
	var req relayResultRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", Wrap(op, err))
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	h.submit(w, r, op, req.RequestID, func(ctx context.Context) (model.Measurement, error) {
		return h.deps.SubmitRelayResult(ctx, req.TeamID, string(req.Value))
	})
}

// submit runs fn once per request id. A repeated id is acknowledged as a
// duplicate; a failed submission forgets the id so it can be retried.
func (h *ResultsHandler) submit(w http.ResponseWriter, r *http.Request, op, requestID string, fn func(context.Context) (model.Measurement, error)) {
	ctx := r.Context()
	if requestID != "" && h.deps.SeenAndRecord(ctx, requestID) {
		writeJSON(w, http.StatusOK, ackResponse{Status: "duplicate", Duplicate: true})
		return
	}
	m, err := fn(ctx)
	if err != nil {
		if requestID != "" {
			h.deps.Unrecord(ctx, requestID)
		}
		fail(w, op, err)
		return
	}
	writeJSON(w, http.StatusCreated, m)
}

// HandleDelete handles DELETE /results/{id}.
func (h *ResultsHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	const op = "api.delete_result"
	if err := h.deps.DeleteResult(r.Context(), r.PathValue("id")); err != nil {
		fail(w, op, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleList handles GET /results?event_id=ID.
func (h *ResultsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	const op = "api.list_results"
	eventID := r.URL.Query().Get("event_id")
	if eventID == "" {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, errors.New("missing event_id")))
		return
	}
	results, err := h.deps.EventResults(r.Context(), eventID)
	if err != nil {
		fail(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, results)
}
