package repository

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/groupscholar/cohort-early-warning/pkg/logger"
	"github.com/groupscholar/cohort-early-warning/pkg/metrics"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

const bootstrapMigrations = `
	CREATE SCHEMA IF NOT EXISTS cohort_early_warning;
	CREATE TABLE IF NOT EXISTS cohort_early_warning.schema_migrations (
		version TEXT PRIMARY KEY,
		applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`

type migration struct {
	version string
	sql     string
}

// loadMigrations reads the embedded files in lexical order.
func loadMigrations(fsys fs.FS) ([]migration, error) {
	names, err := fs.Glob(fsys, "migrations/*.sql")
	if err != nil {
		return nil, fmt.Errorf("failed to list migrations: %w", err)
	}
	sort.Strings(names)

	out := make([]migration, 0, len(names))
	for _, name := range names {
		body, err := fs.ReadFile(fsys, name)
		if err != nil {
			return nil, fmt.Errorf("failed to read migration %s: %w", name, err)
		}
		out = append(out, migration{
			version: strings.TrimSuffix(path.Base(name), ".sql"),
			sql:     string(body),
		})
	}
	return out, nil
}

// Migrate applies every embedded migration not yet recorded in
// schema_migrations. Each one runs in its own transaction.
func (s *PostgresStore) Migrate(ctx context.Context) (applied []string, err error) {
	start := time.Now()
	defer func() { s.observe("migrate", start, err) }()

	migrations, err := loadMigrations(migrationFiles)
	if err != nil {
		return nil, err
	}

	bootCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	if _, err := s.db.ExecContext(bootCtx, bootstrapMigrations); err != nil {
		return nil, fmt.Errorf("failed to prepare schema_migrations: %w", err)
	}

	var done []string
	if err := s.db.SelectContext(bootCtx, &done,
		`SELECT version FROM cohort_early_warning.schema_migrations ORDER BY version`); err != nil {
		return nil, fmt.Errorf("failed to read applied migrations: %w", err)
	}
	seen := make(map[string]struct{}, len(done))
	for _, v := range done {
		seen[v] = struct{}{}
	}

	applied = []string{}
	for _, m := range migrations {
		if _, ok := seen[m.version]; ok {
			continue
		}
		if err := s.applyMigration(ctx, m); err != nil {
			return applied, err
		}
		applied = append(applied, m.version)
		metrics.RecordMigrationApplied()
		s.log.Info(ctx, "migration applied", logger.String("version", m.version))
	}
	return applied, nil
}

func (s *PostgresStore) applyMigration(ctx context.Context, m migration) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin migration %s: %w", m.version, err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, m.sql); err != nil {
		return fmt.Errorf("failed to apply migration %s: %w", m.version, err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO cohort_early_warning.schema_migrations (version) VALUES ($1)`, m.version); err != nil {
		return fmt.Errorf("failed to record migration %s: %w", m.version, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit migration %s: %w", m.version, err)
	}
	return nil
}
