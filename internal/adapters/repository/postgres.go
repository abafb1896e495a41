package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // PostgreSQL driver

	"github.com/groupscholar/cohort-early-warning/internal/domain/dedupe"
	"github.com/groupscholar/cohort-early-warning/internal/domain/model"
	"github.com/groupscholar/cohort-early-warning/pkg/logger"
	"github.com/groupscholar/cohort-early-warning/pkg/metrics"
)

const (
	defaultQueryTimeout = 30 * time.Second
	driverName          = "postgres"
)

// PostgresStore implements Store on top of sqlx and lib/pq.
type PostgresStore struct {
	db         *sqlx.DB
	timeout    time.Duration
	log        logger.Logger
	dedupeSize int
}

var _ Store = (*PostgresStore)(nil)

// New wraps an open connection.
func New(db *sqlx.DB, opts ...Option) *PostgresStore {
	s := &PostgresStore{
		db:         db,
		timeout:    defaultQueryTimeout,
		log:        logger.Nop(),
		dedupeSize: dedupe.DefaultMaxSize,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Open connects to Postgres, tunes the pool and verifies the connection.
func Open(ctx context.Context, cfg Config, opts ...Option) (*PostgresStore, error) {
	if cfg.DSN == "" {
		return nil, ErrMissingDSN
	}

	db, err := sqlx.Open(driverName, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	s := New(db, append([]Option{WithQueryTimeout(cfg.QueryTimeout)}, opts...)...)
	if err := s.Ping(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Ping checks connectivity within the query timeout.
func (s *PostgresStore) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.db.PingContext(ctx); err != nil {
		metrics.RecordErrorByComponent("repository", "ping")
		return fmt.Errorf("failed to ping database: %w", err)
	}
	return nil
}

// Close releases the connection pool.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

// observe records latency for op, and an error count when err is set.
func (s *PostgresStore) observe(op string, start time.Time, err error) {
	metrics.RecordRepositoryQueryLatency(op, float64(time.Since(start).Microseconds())/1000)
	if err != nil {
		metrics.RecordErrorByComponent("repository", op)
	}
}

// upsertScholar inserts a scholar or refreshes name and cohort for an
// existing email, returning the stored id.
func (s *PostgresStore) upsertScholar(ctx context.Context, tx *sqlx.Tx, scholar model.Scholar) (uuid.UUID, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	id := scholar.ID
	if id == uuid.Nil {
		id = uuid.New()
	}

	query := `
		INSERT INTO cohort_early_warning.scholars (id, full_name, email, cohort)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (email) DO UPDATE
		SET full_name = EXCLUDED.full_name, cohort = EXCLUDED.cohort
		RETURNING id`

	var stored uuid.UUID
	if err := tx.QueryRowxContext(ctx, query, id, scholar.FullName, scholar.Email, scholar.Cohort).Scan(&stored); err != nil {
		return uuid.Nil, fmt.Errorf("failed to upsert scholar %s: %w", scholar.Email, err)
	}
	return stored, nil
}

// newSignal is a signal row about to be written.
type newSignal struct {
	ScholarID  uuid.UUID
	SignalType string
	Severity   int
	Note       string
	OccurredAt time.Time
	SourceKey  string
}

// insertSignal writes one signal unless its source key already exists.
// It reports whether a row was inserted.
func (s *PostgresStore) insertSignal(ctx context.Context, tx *sqlx.Tx, sig newSignal) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	query := `
		INSERT INTO cohort_early_warning.signals
		(id, scholar_id, signal_type, severity, note, occurred_at, source_key)
		VALUES ($1, $2, $3, $4, $5, $6::date, $7)
		ON CONFLICT (source_key) DO NOTHING`

	res, err := tx.ExecContext(ctx, query,
		uuid.New(), sig.ScholarID, sig.SignalType, sig.Severity, sig.Note,
		model.FormatDate(sig.OccurredAt), sig.SourceKey)
	if err != nil {
		return false, fmt.Errorf("failed to insert signal %s: %w", sig.SourceKey, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rows affected: %w", err)
	}
	return n > 0, nil
}
