package debate

import (
	"errors"
	"fmt"
)

var (
	ErrPuzzleRequired  = errors.New("puzzle is required")
	ErrNoParticipants  = errors.New("no cards configured")
	ErrNoFacilitator   = errors.New("no participant holds the facilitator role")
	ErrInvalidCard     = errors.New("invalid card")
	ErrDebateRunning   = errors.New("debate already in progress")
	ErrSessionNotFound = errors.New("session not found")
	ErrNoBackend       = errors.New("no conversational backend configured")
	ErrDefaultSession  = errors.New("the default session cannot be deleted")
)

// ConfigurationError rejects a request whose input cannot start a debate.
// Session state is left untouched.
type ConfigurationError struct {
	Reason string
	Err    error
}

func (e *ConfigurationError) Error() string {
	if e.Reason == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %s", e.Err, e.Reason)
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

func configurationError(err error, reason string) error {
	return &ConfigurationError{Reason: reason, Err: err}
}

// ConflictError rejects a request that races with a running debate.
type ConflictError struct {
	Op string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s rejected: %s", e.Op, ErrDebateRunning)
}

func (e *ConflictError) Unwrap() error { return ErrDebateRunning }

// TransientCallError wraps a failed respond call. It never leaves a round.
type TransientCallError struct {
	Speaker string
	Round   int
	Err     error
}

func (e *TransientCallError) Error() string {
	return fmt.Sprintf("round %d: %s failed to respond: %v", e.Round, e.Speaker, e.Err)
}

func (e *TransientCallError) Unwrap() error { return e.Err }

// FatalEngineError reports a fault outside the per-turn recovery scope.
type FatalEngineError struct {
	Cause any
}

func (e *FatalEngineError) Error() string {
	return fmt.Sprintf("debate engine fault: %v", e.Cause)
}

func (e *FatalEngineError) Unwrap() error {
	if err, ok := e.Cause.(error); ok {
		return err
	}
	return nil
}

// IsConfiguration reports whether err rejects the caller's input.
func IsConfiguration(err error) bool {
	var target *ConfigurationError
	return errors.As(err, &target)
}

// IsConflict reports whether err was caused by a running debate.
func IsConflict(err error) bool {
	return errors.Is(err, ErrDebateRunning)
}
