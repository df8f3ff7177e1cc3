package cache

import "errors"

// Sentinel errors for cache operations.
var (
	// ErrUnsupportedBackend is returned by [Open] for an unknown URL scheme.
	ErrUnsupportedBackend = errors.New("unsupported cache backend")

	// ErrClosed is returned when a closed backend is used.
	ErrClosed = errors.New("cache closed")
)
