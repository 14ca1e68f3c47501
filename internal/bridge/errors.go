package bridge

import "errors"

// Domain errors for the bridge package.
var (
	// ErrNoSessions is returned when Run is given no controller sessions.
	ErrNoSessions = errors.New("bridge: no controller sessions")

	// ErrInput is returned when the sextet input cannot be opened.
	ErrInput = errors.New("bridge: input unavailable")
)
