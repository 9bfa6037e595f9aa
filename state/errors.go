package state

import (
	"github.com/pkg/errors"
)

var (
	// ErrIndexOutOfRange is returned for body indices outside [0, BodyCount()).
	ErrIndexOutOfRange = errors.New("body index out of range")

	// ErrInvalidLength is returned when a packed vector's length is not a whole number of bodies.
	ErrInvalidLength = errors.New("invalid packed state length")

	// ErrFixedSize is returned when resizing a state created with NewFixed.
	ErrFixedSize = errors.New("state has a fixed body count")

	// ErrNegativeBodyCount is returned when a state is created or resized to fewer than zero bodies.
	ErrNegativeBodyCount = errors.New("negative body count")
)

// NewIndexOutOfRangeError is used when an accessor is called with a bad body index.
func NewIndexOutOfRangeError(index, bodies int) error {
	return errors.Wrapf(ErrIndexOutOfRange, "index %d with %d bodies", index, bodies)
}

// NewInvalidLengthError is used when a vector cannot be split into bodies.
func NewInvalidLengthError(length int) error {
	return errors.Wrapf(ErrInvalidLength, "length %d is not a multiple of %d", length, BodySize)
}

// NewNegativeBodyCountError is used when a body count is below zero.
func NewNegativeBodyCountError(bodies int) error {
	return errors.Wrapf(ErrNegativeBodyCount, "%d bodies", bodies)
}
