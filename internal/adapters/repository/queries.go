package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/groupscholar/cohort-early-warning/internal/domain/model"
	"github.com/groupscholar/cohort-early-warning/pkg/logger"
	"github.com/groupscholar/cohort-early-warning/pkg/metrics"
)

const selectSignals = `
	SELECT sc.id AS scholar_id, sc.full_name, sc.email, sc.cohort,
	       s.signal_type, s.severity, s.note, s.occurred_at
	FROM cohort_early_warning.signals s
	JOIN cohort_early_warning.scholars sc ON sc.id = s.scholar_id
	WHERE s.occurred_at >= $1::date`

const selectWeeklyTrends = `
	SELECT date_trunc('week', s.occurred_at)::date AS week_start,
	       COUNT(*) AS signal_count,
	       AVG(s.severity)::float8 AS avg_severity,
	       COUNT(DISTINCT s.scholar_id) AS scholar_count
	FROM cohort_early_warning.signals s
	JOIN cohort_early_warning.scholars sc ON sc.id = s.scholar_id
	WHERE s.occurred_at >= $1::date`

type signalRow struct {
	ScholarID  uuid.UUID      `db:"scholar_id"`
	FullName   string         `db:"full_name"`
	Email      string         `db:"email"`
	Cohort     string         `db:"cohort"`
	SignalType string         `db:"signal_type"`
	Severity   int            `db:"severity"`
	Note       sql.NullString `db:"note"`
	OccurredAt time.Time      `db:"occurred_at"`
}

func (r signalRow) record() model.SignalRecord {
	return model.SignalRecord{
		ScholarID:    r.ScholarID,
		ScholarName:  r.FullName,
		ScholarEmail: r.Email,
		Cohort:       r.Cohort,
		SignalType:   r.SignalType,
		Severity:     r.Severity,
		OccurredAt:   model.DateOf(r.OccurredAt),
		Note:         r.Note.String,
	}
}

type trendRow struct {
	WeekStart    time.Time `db:"week_start"`
	SignalCount  int       `db:"signal_count"`
	AvgSeverity  float64   `db:"avg_severity"`
	ScholarCount int       `db:"scholar_count"`
}

// FetchSignals returns signals joined with their scholar, ordered by date
// then source key so repeated calls return the same sequence.
func (s *PostgresStore) FetchSignals(ctx context.Context, f Filter) (out []model.SignalRecord, err error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	start := time.Now()
	defer func() { s.observe("fetch_signals", start, err) }()

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	clause, args := scopeClause(f)
	query := selectSignals + clause + ` ORDER BY s.occurred_at DESC, s.source_key`

	var rows []signalRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to fetch signals (%s): %w", describeFilter(f), err)
	}

	out = make([]model.SignalRecord, len(rows))
	for i, r := range rows {
		out[i] = r.record()
	}
	metrics.RecordSignalsFetched(len(out))
	s.log.Debug(ctx, "signals fetched", logger.String("filter", describeFilter(f)), logger.Int("count", len(out)))
	return out, nil
}

// FetchWeeklyTrends buckets the filtered signals by ISO week (Monday start).
func (s *PostgresStore) FetchWeeklyTrends(ctx context.Context, f Filter) (out []model.SignalTrend, err error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	start := time.Now()
	defer func() { s.observe("fetch_weekly_trends", start, err) }()

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	clause, args := scopeClause(f)
	query := selectWeeklyTrends + clause + ` GROUP BY week_start ORDER BY week_start`

	var rows []trendRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to fetch weekly trends (%s): %w", describeFilter(f), err)
	}

	out = make([]model.SignalTrend, len(rows))
	for i, r := range rows {
		out[i] = model.SignalTrend{
			WeekStart:    model.DateOf(r.WeekStart),
			SignalCount:  r.SignalCount,
			AvgSeverity:  r.AvgSeverity,
			ScholarCount: r.ScholarCount,
		}
	}
	return out, nil
}
