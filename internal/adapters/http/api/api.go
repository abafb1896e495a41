// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	service "github.com/groupscholar/cohort-early-warning/internal/app"
	"github.com/groupscholar/cohort-early-warning/internal/domain/scoring"
	"github.com/groupscholar/cohort-early-warning/pkg/metrics"
)

// MaxLimit caps the limit query parameter on /scores.
const MaxLimit = 500

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	ScoreDependencies
	SignalMixDependencies
	ReportDependencies
	Pinger
	StatsProvider
}

// Server wires HTTP routes for the read API.
type Server struct {
	healthHandler    *HealthHandler
	statsHandler     *StatsHandler
	scoresHandler    *ScoresHandler
	signalMixHandler *SignalMixHandler
	reportHandler    *ReportHandler
	limiter          *RateLimiter
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, opts ...Option) *Server {
	cfg := defaultServerConfig()
	for _, o := range opts {
		o(&cfg)
	}
	return &Server{
		healthHandler:    NewHealthHandler(deps),
		statsHandler:     NewStatsHandler(deps),
		scoresHandler:    NewScoresHandler(deps, cfg.maxLimit),
		signalMixHandler: NewSignalMixHandler(deps),
		reportHandler:    NewReportHandler(deps),
		limiter:          NewRateLimiter(cfg.rateLimit, cfg.rateBurst),
	}
}

// Register attaches all HTTP routes to mux. Read endpoints share one rate
// limiter; health and metrics are never throttled.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/metrics", MetricsMiddleware(promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{}).ServeHTTP, "metrics"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/scores", MetricsMiddleware(s.limiter.Limit(s.scoresHandler.HandleGetScores, "scores"), "scores"))
	mux.HandleFunc("/signal-mix", MetricsMiddleware(s.limiter.Limit(s.signalMixHandler.HandleGetSignalMix, "signal_mix"), "signal_mix"))
	mux.HandleFunc("/report", MetricsMiddleware(s.limiter.Limit(s.reportHandler.HandleGetReport, "report"), "report"))
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

// writeServiceError maps service errors onto status codes.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidQuery):
		writeError(w, http.StatusBadRequest, "bad_request", err)
	case errors.Is(err, service.ErrStoreUnavailable):
		writeError(w, http.StatusInternalServerError, "store_unavailable", err)
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err)
	}
}

// parseQuery reads cohort, email and since_days from the request. A missing
// since_days falls back to defaultSinceDays.
func parseQuery(r *http.Request, defaultSinceDays int) (service.Query, error) {
	values := r.URL.Query()
	q := service.Query{
		Cohort:    strings.TrimSpace(values.Get("cohort")),
		Email:     strings.TrimSpace(values.Get("email")),
		SinceDays: defaultSinceDays,
	}
	if raw := values.Get("since_days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return q, fmt.Errorf("%w: since_days must be a positive integer", ErrBadRequest)
		}
		if n > scoring.MaxWindowDays {
			return q, fmt.Errorf("%w: since_days exceeds %d", ErrBadRequest, scoring.MaxWindowDays)
		}
		q.SinceDays = n
	}
	if err := q.Validate(); err != nil {
		return q, fmt.Errorf("%w: %w", ErrBadRequest, err)
	}
	return q, nil
}

// parseLimit reads the limit query parameter. Missing means fallback.
func parseLimit(r *http.Request, fallback, maxLimit int) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("%w: limit must be a positive integer", ErrBadRequest)
	}
	if n > maxLimit {
		return 0, fmt.Errorf("%w: limit exceeds %d", ErrBadRequest, maxLimit)
	}
	return n, nil
}

func methodGet(w http.ResponseWriter, r *http.Request) bool {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
		return false
	}
	return true
}
