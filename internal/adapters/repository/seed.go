package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/groupscholar/cohort-early-warning/internal/domain/model"
	"github.com/groupscholar/cohort-early-warning/pkg/logger"
)

type seedSignal struct {
	sourceKey  string
	email      string
	signalType string
	severity   int
	note       string
	occurredAt time.Time
}

var seedScholars = []model.Scholar{
	{ID: uuid.MustParse("3d7f5d6f-24f7-4e8e-8b4b-3e7e44b4a7b2"), FullName: "Avery Lee", Email: "avery.lee@groupscholar.com", Cohort: "2026"},
	{ID: uuid.MustParse("0c22f1f1-9184-4fd4-9b21-28c68a6a89dc"), FullName: "Jules Moreno", Email: "jules.moreno@groupscholar.com", Cohort: "2025"},
	{ID: uuid.MustParse("d5a0a1a2-2a3c-44c2-8f73-60b7897a9dd2"), FullName: "Kiara Patel", Email: "kiara.patel@groupscholar.com", Cohort: "2026"},
}

var seedSignals = []seedSignal{
	{"seed-001", "avery.lee@groupscholar.com", "attendance", 3, "Missed last two sessions", model.Date(2026, time.February, 2)},
	{"seed-002", "jules.moreno@groupscholar.com", "engagement", 2, "Slow response to outreach", model.Date(2026, time.January, 30)},
	{"seed-003", "kiara.patel@groupscholar.com", "academic", 4, "Reported GPA dip", model.Date(2026, time.January, 28)},
}

// Seed writes the reference scholars and signals in one transaction.
// Existing scholars are refreshed and existing seed signals are left alone.
func (s *PostgresStore) Seed(ctx context.Context) (res SeedResult, err error) {
	start := time.Now()
	defer func() { s.observe("seed", start, err) }()

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return res, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	ids := make(map[string]uuid.UUID, len(seedScholars))
	for _, scholar := range seedScholars {
		id, err := s.upsertScholar(ctx, tx, scholar)
		if err != nil {
			return SeedResult{}, err
		}
		ids[scholar.Email] = id
		res.Scholars++
	}

	for _, sig := range seedSignals {
		inserted, err := s.insertSignal(ctx, tx, newSignal{
			ScholarID:  ids[sig.email],
			SignalType: sig.signalType,
			Severity:   sig.severity,
			Note:       sig.note,
			OccurredAt: sig.occurredAt,
			SourceKey:  sig.sourceKey,
		})
		if err != nil {
			return SeedResult{}, err
		}
		if inserted {
			res.Inserted++
		}
	}

	if err := tx.Commit(); err != nil {
		return SeedResult{}, fmt.Errorf("failed to commit seed: %w", err)
	}
	s.log.Info(ctx, "seed complete", logger.Int("scholars", res.Scholars), logger.Int("inserted", res.Inserted))
	return res, nil
}
