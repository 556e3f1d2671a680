package moderation

import (
	"errors"
	"fmt"
)

// Sentinel errors for the moderation engine. Handlers classify failures
// with errors.Is and turn them into user-facing denial reasons.
var (
	// ErrUnauthorized is returned when a non-admin invokes a restricted action.
	ErrUnauthorized = errors.New("moderation: issuer is not authorized")

	// ErrInvalidTarget is returned when a command requiring a reply target
	// is invoked without one.
	ErrInvalidTarget = errors.New("moderation: command requires a reply target")

	// ErrClassifierTimeout is returned when the external classifier did not
	// answer within the configured deadline. The pipeline degrades to a
	// neutral/clean verdict when it sees this error.
	ErrClassifierTimeout = errors.New("moderation: classifier timed out")

	// ErrStoreUnavailable is returned when the persistence layer is
	// unreachable. The triggering operation must fail rather than silently
	// skip a reputation mutation.
	ErrStoreUnavailable = errors.New("moderation: reputation store unavailable")
)

// TransportError reports a failed enforcement dispatch (delete, restrict,
// ban, notify). It is logged and surfaced, never rolled back: reputation
// deltas committed before the dispatch stay committed.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("moderation: transport %s failed: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// storeErr tags a persistence failure with the ErrStoreUnavailable sentinel.
func storeErr(err error) error {
	return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
}
