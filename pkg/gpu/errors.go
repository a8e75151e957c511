package gpu

import "errors"

var (
	// ErrInvalidSize is returned by Context.Alloc for a non-positive size.
	ErrInvalidSize = errors.New("gpu: invalid allocation size")
)
