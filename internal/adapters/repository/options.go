package repository

import (
	"time"

	"github.com/groupscholar/cohort-early-warning/pkg/logger"
)

// Option applies a configuration option to the PostgresStore.
type Option func(*PostgresStore)

// WithQueryTimeout bounds every statement the store issues.
func WithQueryTimeout(timeout time.Duration) Option {
	return func(s *PostgresStore) {
		if timeout > 0 {
			s.timeout = timeout
		}
	}
}

// WithLogger sets the store logger.
func WithLogger(l logger.Logger) Option {
	return func(s *PostgresStore) {
		if l != nil {
			s.log = l
		}
	}
}

// WithImportDedupeSize bounds how many source keys an import remembers.
// Keys beyond the bound still hit the unique constraint.
func WithImportDedupeSize(n int) Option {
	return func(s *PostgresStore) {
		s.dedupeSize = n
	}
}
