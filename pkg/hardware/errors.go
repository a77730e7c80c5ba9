package hardware

import "errors"

var (
	// ErrInvalidParameter is returned when a command carries a value the
	// device cannot accept.
	ErrInvalidParameter = errors.New("invalid parameter")
	// ErrNotSet is returned when a go/execute command arrives before its
	// matching set command.
	ErrNotSet = errors.New("target not set")
	// ErrNotImplemented is returned for legacy commands the simulator does
	// not model.
	ErrNotImplemented = errors.New("not implemented")
)
