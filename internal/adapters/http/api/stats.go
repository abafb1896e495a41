package api

import (
	"maps"
	"net/http"
	"time"
)

// StatsProvider reports operation counters for /stats.
type StatsProvider interface {
	GetStats() map[string]interface{}
}

// StatsHandler serves provider counters plus the server uptime.
type StatsHandler struct {
	provider StatsProvider
	started  time.Time
}

// NewStatsHandler creates a stats handler; uptime counts from this call.
func NewStatsHandler(provider StatsProvider) *StatsHandler {
	return &StatsHandler{provider: provider, started: time.Now()}
}

// HandleStats handles GET /stats requests.
func (h *StatsHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	if !methodGet(w, r) {
		return
	}
	stats := make(map[string]interface{})
	maps.Copy(stats, h.provider.GetStats())
	stats["uptimeSeconds"] = int64(time.Since(h.started).Seconds())

	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, http.StatusOK, stats)
}
