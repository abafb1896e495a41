// Package repository is the Postgres-backed data access layer for scholars
// and their warning signals.
package repository

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/groupscholar/cohort-early-warning/internal/domain/model"
)

// Filter narrows signal queries. Cohort and Email are mutually exclusive;
// both empty means every cohort.
type Filter struct {
	Since  time.Time
	Cohort string
	Email  string
}

// Validate rejects a filter that scopes by cohort and email at once.
func (f Filter) Validate() error {
	if strings.TrimSpace(f.Cohort) != "" && strings.TrimSpace(f.Email) != "" {
		return ErrConflictingScope
	}
	return nil
}

// ImportResult summarizes one CSV import.
type ImportResult struct {
	Rows       int // data rows read, header excluded
	Inserted   int // signals written
	Duplicates int // rows skipped because their source key already existed
}

// SeedResult summarizes a seed run.
type SeedResult struct {
	Scholars int
	Inserted int
}

// Store provides read/write access to scholars and signals.
type Store interface {
	// Migrate applies pending schema migrations and returns their versions.
	Migrate(ctx context.Context) ([]string, error)

	// Seed writes the reference scholars and signals. Safe to repeat.
	Seed(ctx context.Context) (SeedResult, error)

	// ImportCSV loads signals from CSV in a single transaction.
	ImportCSV(ctx context.Context, r io.Reader) (ImportResult, error)

	// FetchSignals returns signals on or after f.Since within the filter scope.
	FetchSignals(ctx context.Context, f Filter) ([]model.SignalRecord, error)

	// FetchWeeklyTrends aggregates the same scope by calendar week, oldest first.
	FetchWeeklyTrends(ctx context.Context, f Filter) ([]model.SignalTrend, error)

	Ping(ctx context.Context) error
	Close() error
}

// Config holds connection settings for Open.
type Config struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	QueryTimeout    time.Duration
}

// scopeClause appends the cohort or email predicate for f. The since date is
// always bound as $1.
func scopeClause(f Filter) (string, []interface{}) {
	args := []interface{}{model.FormatDate(f.Since)}
	switch {
	case f.Cohort != "":
		return " AND sc.cohort = $2", append(args, f.Cohort)
	case f.Email != "":
		return " AND sc.email = $2", append(args, f.Email)
	default:
		return "", args
	}
}

func describeFilter(f Filter) string {
	return fmt.Sprintf("since=%s cohort=%q email=%q", model.FormatDate(f.Since), f.Cohort, f.Email)
}
