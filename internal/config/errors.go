package config

import "errors"

// Validation errors.
var (
	ErrInvalidConsole  = errors.New("invalid console configuration")
	ErrInvalidLogLevel = errors.New("unknown log level")
)
