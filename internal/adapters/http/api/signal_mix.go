package api

import (
	"context"
	"net/http"

	service "github.com/groupscholar/cohort-early-warning/internal/app"
	"github.com/groupscholar/cohort-early-warning/internal/domain/model"
	"github.com/groupscholar/cohort-early-warning/internal/domain/types"
)

// SignalMixDependencies defines the operations behind /signal-mix.
type SignalMixDependencies interface {
	SignalMix(ctx context.Context, q service.Query) ([]model.SignalTypeSummary, error)
	DefaultSinceDays() int
}

// SignalMixHandler handles signal mix requests.
type SignalMixHandler struct {
	deps SignalMixDependencies
}

// NewSignalMixHandler creates a new signal mix handler.
func NewSignalMixHandler(deps SignalMixDependencies) *SignalMixHandler {
	return &SignalMixHandler{deps: deps}
}

// HandleGetSignalMix handles GET /signal-mix requests.
func (h *SignalMixHandler) HandleGetSignalMix(w http.ResponseWriter, r *http.Request) {
	if !methodGet(w, r) {
		return
	}
	q, err := parseQuery(r, h.deps.DefaultSinceDays())
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	summaries, err := h.deps.SignalMix(r.Context(), q)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, types.SignalMixEntries(summaries))
}
