package appstate

import "errors"

var (
	ErrInvalidStateTransition = errors.New("invalid state transition")
	ErrAlreadyTerminated      = errors.New("application already terminated")
	ErrNilShutdowner          = errors.New("shutdowner cannot be nil")

	// ErrTerminationRequested means the termination file appeared before the
	// gateway became ready.
	ErrTerminationRequested = errors.New("termination file present")
)
