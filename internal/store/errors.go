package store

import "errors"

// ErrNotConfigured is returned when a backend has no client.
var ErrNotConfigured = errors.New("store: backend not configured")
