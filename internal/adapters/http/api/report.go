package api

import (
	"context"
	"io"
	"net/http"

	service "github.com/groupscholar/cohort-early-warning/internal/app"
)

// ReportDependencies defines the operations behind /report.
type ReportDependencies interface {
	Report(ctx context.Context, q service.Query) (string, error)
	DefaultSinceDays() int
}

// ReportHandler renders the markdown report over HTTP.
type ReportHandler struct {
	deps ReportDependencies
}

// NewReportHandler creates a new report handler.
func NewReportHandler(deps ReportDependencies) *ReportHandler {
	return &ReportHandler{deps: deps}
}

// HandleGetReport handles GET /report requests.
func (h *ReportHandler) HandleGetReport(w http.ResponseWriter, r *http.Request) {
	if !methodGet(w, r) {
		return
	}
	q, err := parseQuery(r, h.deps.DefaultSinceDays())
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	text, err := h.deps.Report(r.Context(), q)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, text)
}
