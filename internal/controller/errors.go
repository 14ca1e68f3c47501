package controller

import "errors"

// Domain errors for the controller package.
var (
	// ErrNotConnected is returned by a Client when a command cannot be sent
	// because the connection is down. Sessions treat it as a dropped command.
	ErrNotConnected = errors.New("controller: not connected")

	// ErrStopped is returned by WaitConnected once the supervisor is stopped.
	ErrStopped = errors.New("controller: supervisor stopped")

	// ErrUnknownLight is reported when a light name has no key on the
	// controller.
	ErrUnknownLight = errors.New("controller: unknown light")
)
