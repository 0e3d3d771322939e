package console

import "errors"

// Sentinel errors for console construction.
var (
	// ErrNilBackend is returned when New is given no video backend.
	ErrNilBackend = errors.New("video backend is nil")

	// ErrInvalidSize is returned when the grid or scrollback dimensions
	// are out of range.
	ErrInvalidSize = errors.New("invalid console dimensions")

	// ErrInvalidTabSize is returned when the tab size does not fit the
	// grid width.
	ErrInvalidTabSize = errors.New("invalid tab size")
)
