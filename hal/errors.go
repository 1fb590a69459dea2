package hal

import "errors"

// Sentinel errors shared by all peripheral modules. Operations wrap these
// with context, so match with errors.Is.
var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrNotInitialized  = errors.New("not initialized")
	ErrNotReady        = errors.New("not ready")
)
