package config

import "errors"

// Configuration validation errors returned by Config.Validate.
// Callers match them with errors.Is.
var (
	// ErrNoSeedSource is returned when no seed source is configured.
	ErrNoSeedSource = errors.New("no seed source specified")

	// ErrEmptySeedSource is returned when a seed source is the empty string.
	ErrEmptySeedSource = errors.New("seed source must not be empty")

	// ErrInvalidTimeout is returned when the timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidBatchSize is returned when the batch size is not positive.
	ErrInvalidBatchSize = errors.New("invalid batch size: must be positive")

	// ErrConflictingReportFormats is returned when both --json and --markdown
	// are specified. Only one output format can be used at a time.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")

	// ErrInvalidMaxBodySize is returned when the max body size is negative.
	// Use 0 to use the default limit.
	ErrInvalidMaxBodySize = errors.New("invalid max body size: must be non-negative")

	// ErrNoHistoryDir is returned when history is enabled without a directory.
	ErrNoHistoryDir = errors.New("history enabled but no database directory set")
)
