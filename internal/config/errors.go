package config

import (
	"errors"
)

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	ErrInvalidConfig      = errors.New("invalid config")
	ErrLoadConfig         = errors.New("load config failed")
	ErrMissingDatabaseURL = errors.New("database url is not set (CEW_DATABASE_URL or DATABASE_URL)")
)
