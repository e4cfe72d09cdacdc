package api

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/okian/meetpoints/internal/adapters/catalog"
	"github.com/okian/meetpoints/internal/domain/model"
	"github.com/okian/meetpoints/internal/domain/recalc"
)

// AdminDependencies defines the bulk repair and catalog operations.
type AdminDependencies interface {
	RecomputeGroup(ctx context.Context, eventID string, gender model.Gender) (recalc.Result, error)
	RecomputeEvent(ctx context.Context, eventID string) ([]recalc.Result, error)
	RecomputeAll(ctx context.Context) ([]recalc.Result, error)
	AuditPoints(ctx context.Context) ([]catalog.Finding, error)
	SeedCatalog(ctx context.Context) (catalog.SeedReport, error)
}

// AdminHandler handles recompute, audit and seeding requests.
type AdminHandler struct {
	deps AdminDependencies
}

// NewAdminHandler creates a new admin handler.
func NewAdminHandler(deps AdminDependencies) *AdminHandler {
	return &AdminHandler{deps: deps}
}

type recomputeRequest struct {
	EventID string       `json:"event_id"`
	Gender  model.Gender `json:"gender"`
}

type recomputeResponse struct {
	Groups  []recalc.Result `json:"groups"`
	Changed int             `json:"changed"`
}

// HandleRecompute handles POST /recompute. An empty body recomputes the
// whole meet, an event_id one event and an event_id with gender one group.
func (h *AdminHandler) HandleRecompute(w http.ResponseWriter, r *http.Request) {
	const op = "api.recompute"
	var req recomputeRequest
	if err := decode(r, &req); err != nil && !errors.Is(err, io.EOF) {
		fail(w, op, err)
		return
	}

	var (
		results []recalc.Result
		err     error
	)
	ctx := recalc.WithTrigger(r.Context(), "api")
	switch {
	case req.EventID == "" && req.Gender != "":
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, errors.New("gender needs event_id")))
		return
	case req.EventID == "":
		results, err = h.deps.RecomputeAll(ctx)
	case req.Gender == "":
		results, err = h.deps.RecomputeEvent(ctx, req.EventID)
	default:
		var res recalc.Result
		res, err = h.deps.RecomputeGroup(ctx, req.EventID, req.Gender)
		results = []recalc.Result{res}
	}
	if err != nil {
		fail(w, op, err)
		return
	}

	resp := recomputeResponse{Groups: results}
	for _, res := range results {
		resp.Changed += res.Changed
	}
	writeJSON(w, http.StatusOK, resp)
}

// HandleAudit handles GET /audit.
func (h *AdminHandler) HandleAudit(w http.ResponseWriter, r *http.Request) {
	findings, err := h.deps.AuditPoints(r.Context())
	if err != nil {
		fail(w, "api.audit", err)
		return
	}
	writeJSON(w, http.StatusOK, findings)
}

// HandleSeed handles POST /catalog/seed.
func (h *AdminHandler) HandleSeed(w http.ResponseWriter, r *http.Request) {
	report, err := h.deps.SeedCatalog(r.Context())
	if err != nil {
		fail(w, "api.seed_catalog", err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}
