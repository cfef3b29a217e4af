package learning

import "errors"

// Domain errors for the learning package. Checked with errors.Is().
var (
	// ErrSessionAlreadyActive is returned when a device already has a
	// non-terminal session.
	ErrSessionAlreadyActive = errors.New("learning: session already active")

	// ErrSessionNotFound is returned when a session ID is unknown.
	ErrSessionNotFound = errors.New("learning: session not found")

	// ErrSessionNotActive is returned when cancelling an already-terminal
	// session.
	ErrSessionNotActive = errors.New("learning: session not active")

	// ErrSessionNotSucceeded is returned when saving a session that did
	// not capture a code.
	ErrSessionNotSucceeded = errors.New("learning: session not succeeded")

	// ErrSessionStillActive is returned when discarding a session that
	// has not reached a terminal state.
	ErrSessionStillActive = errors.New("learning: session still active")

	// ErrInvalidTimeout is returned when a requested timeout is below the
	// configured minimum.
	ErrInvalidTimeout = errors.New("learning: invalid timeout")
)
