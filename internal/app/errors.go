package service

import "errors"

// Sentinel kinds for service errors.
var (
	ErrInvalidQuery     = errors.New("invalid query")
	ErrStoreUnavailable = errors.New("store unavailable")
)
