// Package errs defines the sentinel error taxonomy surfaced by the
// scheduling core, wrapped with structured context at the point of
// failure.
package errs

import (
	"errors"

	"github.com/awslabs/operatorpkg/serrors"
)

// Sentinel errors. Callers compare with errors.Is; use Wrap to attach
// structured diagnostic fields without losing that comparability.
var (
	ErrConfig                     = errors.New("invalid configuration")
	ErrValidation                 = errors.New("malformed input")
	ErrInfeasibleSchedule         = errors.New("solver could not satisfy tier-1 constraints")
	ErrTimeout                    = errors.New("operation exceeded its time budget")
	ErrCancelled                  = errors.New("operation was cancelled")
	ErrLockContention             = errors.New("distributed lock is currently held")
	ErrNoDraftAvailable           = errors.New("no draft schedule state is staged")
	ErrCheckpointValidationFailed = errors.New("draft has tier-1 violations under strict mode")
	ErrStateNotFound              = errors.New("schedule state not found")
	ErrInternalInvariant          = errors.New("internal invariant violated")
)

// Wrap attaches structured key/value context to a sentinel (or any) error,
// preserving errors.Is/errors.As against the original.
func Wrap(err error, keysAndValues ...any) error {
	if err == nil {
		return nil
	}
	return serrors.Wrap(err, keysAndValues...)
}

// Is reports whether err matches target anywhere in its chain, including
// through serrors.Error wrapping.
func Is(err, target error) bool {
	return errors.Is(err, target)
}
