package core

import "errors"

// Bus errors.
var (
	// ErrInvalidBinding indicates a role bound to a nil port, or a required
	// role (clock, select) that is missing.
	ErrInvalidBinding = errors.New("softspi: invalid binding")

	// ErrPinIndexOutOfRange indicates a pin index outside 0-7.
	ErrPinIndexOutOfRange = errors.New("softspi: pin index out of range")

	// ErrNotReady indicates clock, select and data-out are not all bound.
	ErrNotReady = errors.New("softspi: bus not initialized")

	// ErrInvalidBitOrder indicates a bit order other than LSBFirst or MSBFirst.
	ErrInvalidBitOrder = errors.New("softspi: invalid bit order")

	// ErrBufferMismatch indicates tx and rx buffers of different lengths.
	ErrBufferMismatch = errors.New("softspi: tx and rx buffer lengths must match")

	// ErrPortIO indicates a failure reported by a register's backing I/O.
	ErrPortIO = errors.New("softspi: port I/O failed")
)
