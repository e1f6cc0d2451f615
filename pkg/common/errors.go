package common

import "errors"

// The two failure kinds the pipeline can report. Everything else (zero
// capacity, constant series, missing GPU telemetry for a bucket, negative
// efficiency gap) is expected data and never raises.
var (
	// ErrValidation marks schema or range violations found in a raw table.
	// Validation is all-or-nothing: one violation aborts the table before
	// any metric is derived from it.
	ErrValidation = errors.New("validation failed")

	// ErrConfig marks invalid-argument conditions resolved at call time,
	// such as an unknown scenario or normalization method.
	ErrConfig = errors.New("invalid configuration")
)
