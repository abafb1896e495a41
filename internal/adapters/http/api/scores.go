package api

import (
	"context"
	"net/http"

	service "github.com/groupscholar/cohort-early-warning/internal/app"
	"github.com/groupscholar/cohort-early-warning/internal/domain/model"
	"github.com/groupscholar/cohort-early-warning/internal/domain/types"
)

// ScoreDependencies defines the operations behind /scores.
type ScoreDependencies interface {
	Score(ctx context.Context, q service.Query) ([]model.ScholarScore, error)
	DefaultSinceDays() int
}

// ScoresHandler handles ranked score requests.
type ScoresHandler struct {
	deps     ScoreDependencies
	maxLimit int
}

// NewScoresHandler creates a new scores handler.
func NewScoresHandler(deps ScoreDependencies, maxLimit int) *ScoresHandler {
	return &ScoresHandler{deps: deps, maxLimit: maxLimit}
}

// HandleGetScores handles GET /scores?cohort=&email=&since_days=&limit=
// requests. Without a limit every scored scholar is returned.
func (h *ScoresHandler) HandleGetScores(w http.ResponseWriter, r *http.Request) {
	if !methodGet(w, r) {
		return
	}
	q, err := parseQuery(r, h.deps.DefaultSinceDays())
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	limit, err := parseLimit(r, 0, h.maxLimit)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	scores, err := h.deps.Score(r.Context(), q)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, types.ScoreEntries(scores, limit))
}
