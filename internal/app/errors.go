package app

import (
	"errors"
	"fmt"
)

// Application errors.
var (
	// ErrQuit signals a normal, user-requested exit.
	ErrQuit = errors.New("quit requested")

	// ErrAlreadyRunning indicates Run was called while already running.
	ErrAlreadyRunning = errors.New("application already running")
)

// InitError wraps a component startup failure.
type InitError struct {
	Component string
	Err       error
}

func (e *InitError) Error() string {
	return fmt.Sprintf("initializing %s: %v", e.Component, e.Err)
}

func (e *InitError) Unwrap() error { return e.Err }
