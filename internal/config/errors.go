package config

import "errors"

// Configuration validation errors.
// These errors are returned by Config.Validate() so callers can use
// errors.Is() while still showing a readable message.
var (
	// ErrNoURL is returned when no page URL was given with --url.
	ErrNoURL = errors.New("no URL specified: use --url")

	// ErrNoDir is returned when the destination directory is empty.
	ErrNoDir = errors.New("no destination directory specified")

	// ErrInvalidTimeout is returned when the timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidJitter is returned when the probe jitter minimum is below
	// DefaultJitterMin or the maximum is below the minimum.
	ErrInvalidJitter = errors.New("invalid jitter: min must be at least 50ms and max must not be below min")

	// ErrInvalidMaxBodySize is returned when the max body size is not positive.
	ErrInvalidMaxBodySize = errors.New("invalid max body size: must be positive")

	// ErrInvalidRequestInterval is returned when the per-host request interval is negative.
	ErrInvalidRequestInterval = errors.New("invalid request interval: must not be negative")

	// ErrUnknownParser is returned when --parser names an unknown backend.
	ErrUnknownParser = errors.New("unknown parser: must be \"goquery\" or \"html\"")
)
