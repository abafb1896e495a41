package repository

import "errors"

// Sentinel kinds for repository errors.
var (
	ErrConflictingScope = errors.New("cohort and email filters are mutually exclusive")
	ErrMalformedRow     = errors.New("malformed csv row")
	ErrMissingColumn    = errors.New("csv header is missing a required column")
	ErrMissingDSN       = errors.New("database dsn is required")
)
