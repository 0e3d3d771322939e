package task

import "errors"

// Wait-protocol errors surfaced to callers.
var (
	// ErrNoChild is returned when the selector matches no child of the
	// caller, or names a task that is not the caller's child.
	ErrNoChild = errors.New("no waitable child")

	// ErrFault is returned when a status or rusage destination rejects
	// the copy.
	ErrFault = errors.New("status destination unwritable")

	// ErrNoTask is returned by Create when the parent id names no task.
	ErrNoTask = errors.New("no such task")
)
