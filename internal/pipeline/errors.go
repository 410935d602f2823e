// Package pipeline runs the backup, mutation and export phases of a
// normalization run over an address store.
package pipeline

import "errors"

// Error classes surfaced by a run. Callers test them with errors.Is.
var (
	// ErrValidation is returned before any row is touched: missing columns,
	// bad options, an unusable target or a failed backup.
	ErrValidation = errors.New("validation error")

	// ErrDecode means neither the primary nor the fallback encoding could
	// decode an input file.
	ErrDecode = errors.New("decode error")

	// ErrStorage is a read, write or commit failure once the run has started.
	ErrStorage = errors.New("storage error")
)
