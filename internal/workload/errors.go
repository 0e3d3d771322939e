package workload

import "errors"

// ErrInvalidSpec marks a workload definition that fails validation.
var ErrInvalidSpec = errors.New("invalid workload spec")
