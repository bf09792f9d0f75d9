package loop

import "errors"

var (
	ErrAlreadyStarted  = errors.New("loop already started")
	ErrNotStarted      = errors.New("loop not started")
	ErrShutdownTimeout = errors.New("loop shutdown timeout exceeded")
)
