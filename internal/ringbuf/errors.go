package ringbuf

import "errors"

// Sentinel errors for ring buffer construction.
var (
	// ErrInvalidCapacity is returned when the requested capacity is not
	// between 1 and MaxCapacity.
	ErrInvalidCapacity = errors.New("capacity out of range")
)
