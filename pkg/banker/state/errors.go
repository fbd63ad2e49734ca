package state

import "errors"

var (
	// ErrDimensionMismatch is returned when a row or vector length does not
	// match the resource-type count, or the maximum matrix has a different
	// number of rows than the allocation matrix.
	ErrDimensionMismatch = errors.New("dimension mismatch")

	// ErrNegativeQuantity is returned when an input quantity is negative, or
	// when a maximum entry is below its allocation so that need would be negative.
	ErrNegativeQuantity = errors.New("negative quantity")

	// ErrIndexOutOfRange is returned when a process index is not in [0, P).
	ErrIndexOutOfRange = errors.New("process index out of range")

	// ErrReleaseExceedsAllocation is returned when a process tries to release
	// more units than it currently holds.
	ErrReleaseExceedsAllocation = errors.New("release exceeds allocation")

	// ErrInvariantViolated is returned by Verify when a state invariant no longer holds.
	ErrInvariantViolated = errors.New("state invariant violated")
)
