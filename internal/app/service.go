// Package service wires the repository to the scoring and report core. It
// owns the clock, so every "today" in the program comes from here.
package service

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/groupscholar/cohort-early-warning/internal/adapters/repository"
	"github.com/groupscholar/cohort-early-warning/internal/domain/model"
	"github.com/groupscholar/cohort-early-warning/internal/domain/report"
	"github.com/groupscholar/cohort-early-warning/internal/domain/scoring"
	"github.com/groupscholar/cohort-early-warning/pkg/logger"
	"github.com/groupscholar/cohort-early-warning/pkg/metrics"
)

// DefaultSinceDays is the lookback window used when none is configured.
const DefaultSinceDays = 30

// Query scopes a score, mix or report request. Cohort and Email are mutually
// exclusive. SinceDays below one is clamped to one day by the core.
type Query struct {
	Cohort    string
	Email     string
	SinceDays int
}

// Validate trims the scope values and rejects cohort and email together.
func (q *Query) Validate() error {
	q.Cohort = strings.TrimSpace(q.Cohort)
	q.Email = strings.TrimSpace(q.Email)
	f := repository.Filter{Cohort: q.Cohort, Email: q.Email}
	if err := f.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidQuery, err)
	}
	return nil
}

// Scope is the label a report is generated for. Empty means all cohorts.
func (q Query) Scope() string {
	if q.Cohort != "" {
		return q.Cohort
	}
	return q.Email
}

// Service implements the operations behind the CLI and the HTTP API.
type Service struct {
	store            repository.Store
	logger           logger.Logger
	now              func() time.Time
	defaultSinceDays int

	mu         sync.RWMutex
	lastImport *repository.ImportResult

	scoreRequests  atomic.Int64
	mixRequests    atomic.Int64
	reportRequests atomic.Int64
	imports        atomic.Int64
	failures       atomic.Int64
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock replaces time.Now. Tests pin "today" with it.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithDefaultSinceDays sets the window callers fall back to when a request
// does not name one.
func WithDefaultSinceDays(days int) Option {
	return func(s *Service) {
		if days > 0 {
			s.defaultSinceDays = days
		}
	}
}

// New constructs a Service over store.
func New(store repository.Store, opts ...Option) *Service {
	s := &Service{
		store:            store,
		logger:           logger.Nop(),
		now:              time.Now,
		defaultSinceDays: DefaultSinceDays,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// DefaultSinceDays returns the configured fallback window.
func (s *Service) DefaultSinceDays() int {
	return s.defaultSinceDays
}

// Today is the current calendar date according to the service clock.
func (s *Service) Today() time.Time {
	return model.DateOf(s.now())
}

// InitDB applies pending migrations.
func (s *Service) InitDB(ctx context.Context) ([]string, error) {
	applied, err := s.store.Migrate(ctx)
	if err != nil {
		return applied, s.fail(ctx, "init-db", err)
	}
	s.logger.Info(ctx, "schema ready", logger.Int("applied", len(applied)))
	return applied, nil
}

// Seed writes the reference data set.
func (s *Service) Seed(ctx context.Context) (repository.SeedResult, error) {
	res, err := s.store.Seed(ctx)
	if err != nil {
		return res, s.fail(ctx, "seed", err)
	}
	return res, nil
}

// Import loads signals from CSV.
func (s *Service) Import(ctx context.Context, r io.Reader) (repository.ImportResult, error) {
	res, err := s.store.ImportCSV(ctx, r)
	if err != nil {
		return res, s.fail(ctx, "import", err)
	}
	s.imports.Add(1)
	s.mu.Lock()
	s.lastImport = &res
	s.mu.Unlock()
	return res, nil
}

// window resolves the cutoff for q against the service clock.
func (s *Service) window(q Query) (today, cutoff time.Time) {
	today = s.Today()
	return today, scoring.CutoffDate(q.SinceDays, today)
}

func (s *Service) fetchSignals(ctx context.Context, q Query, cutoff time.Time) ([]model.SignalRecord, error) {
	signals, err := s.store.FetchSignals(ctx, repository.Filter{Since: cutoff, Cohort: q.Cohort, Email: q.Email})
	if err != nil {
		return nil, s.fail(ctx, "fetch_signals", fmt.Errorf("%w: %w", ErrStoreUnavailable, err))
	}
	return signals, nil
}

// Score ranks scholars by time-decayed severity over the query window.
func (s *Service) Score(ctx context.Context, q Query) ([]model.ScholarScore, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	s.scoreRequests.Add(1)

	today, cutoff := s.window(q)
	signals, err := s.fetchSignals(ctx, q, cutoff)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	scores := scoring.ScoreSignals(signals, q.SinceDays, today)
	metrics.RecordScoringLatency(float64(time.Since(start).Microseconds()) / 1000)
	metrics.RecordScholarsScored(len(scores))

	fields := []logger.Field{logger.String("scope", q.Scope()), logger.Int("signals", len(signals)), logger.Int("scholars", len(scores))}
	if len(scores) > 0 {
		fields = append(fields, logger.Float64("top_score", scores[0].Score))
	}
	s.logger.Debug(ctx, "scholars scored", fields...)
	return scores, nil
}

// SignalMix summarizes the query window by signal type.
func (s *Service) SignalMix(ctx context.Context, q Query) ([]model.SignalTypeSummary, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	s.mixRequests.Add(1)

	_, cutoff := s.window(q)
	signals, err := s.fetchSignals(ctx, q, cutoff)
	if err != nil {
		return nil, err
	}
	return report.SummarizeByType(signals), nil
}

// Report renders the markdown report for the query window.
func (s *Service) Report(ctx context.Context, q Query) (string, error) {
	if err := q.Validate(); err != nil {
		return "", err
	}
	s.reportRequests.Add(1)

	_, cutoff := s.window(q)
	signals, err := s.fetchSignals(ctx, q, cutoff)
	if err != nil {
		return "", err
	}
	trends, err := s.store.FetchWeeklyTrends(ctx, repository.Filter{Since: cutoff, Cohort: q.Cohort, Email: q.Email})
	if err != nil {
		return "", s.fail(ctx, "fetch_weekly_trends", fmt.Errorf("%w: %w", ErrStoreUnavailable, err))
	}

	text := report.BuildReport(q.Scope(), q.SinceDays, cutoff, signals, trends)
	metrics.RecordReportRendered()
	return text, nil
}

// Ping reports whether the store is reachable.
func (s *Service) Ping(ctx context.Context) error {
	if err := s.store.Ping(ctx); err != nil {
		return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	return nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	stats := map[string]interface{}{
		"today":            model.FormatDate(s.Today()),
		"defaultSinceDays": s.defaultSinceDays,
		"scoreRequests":    s.scoreRequests.Load(),
		"mixRequests":      s.mixRequests.Load(),
		"reportRequests":   s.reportRequests.Load(),
		"imports":          s.imports.Load(),
		"failures":         s.failures.Load(),
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.lastImport != nil {
		stats["lastImport"] = map[string]interface{}{
			"rows":       s.lastImport.Rows,
			"inserted":   s.lastImport.Inserted,
			"duplicates": s.lastImport.Duplicates,
		}
	}
	return stats
}

func (s *Service) fail(ctx context.Context, op string, err error) error {
	s.failures.Add(1)
	s.logger.Error(ctx, "operation failed", logger.String("op", op), logger.Error(err))
	return err
}
