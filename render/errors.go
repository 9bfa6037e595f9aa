package render

import (
	"github.com/pkg/errors"
)

var (
	// ErrConfiguration is the root of every error caused by bad construction inputs: malformed
	// geometry, pose lists of the wrong length, bad intrinsics or resolution.
	ErrConfiguration = errors.New("renderer configuration error")

	// ErrInvalidGeometry is returned when a mesh has a malformed or out of range triangle.
	ErrInvalidGeometry = errors.Wrap(ErrConfiguration, "invalid geometry")

	// ErrPoseCount is returned when the number of poses does not match the number of bodies.
	ErrPoseCount = errors.Wrap(ErrConfiguration, "pose count mismatch")

	// ErrNoParameters is returned by Render when no intrinsics have been set.
	ErrNoParameters = errors.Wrap(ErrConfiguration, "camera parameters not set")

	// ErrIndexOutOfRange is returned for body indices outside [0, BodyCount()).
	ErrIndexOutOfRange = errors.New("body index out of range")
)

// NewInvalidGeometryError is used when body's triangle tri cannot be stored.
func NewInvalidGeometryError(body, tri int, format string, args ...interface{}) error {
	return errors.Wrapf(ErrInvalidGeometry, "body %d triangle %d: "+format, append([]interface{}{body, tri}, args...)...)
}

// NewPoseCountError is used when a pose list does not have one entry per body.
func NewPoseCountError(got, bodies int) error {
	return errors.Wrapf(ErrPoseCount, "got %d poses for %d bodies", got, bodies)
}

// NewIndexOutOfRangeError is used when a body index is not in the store.
func NewIndexOutOfRangeError(index, bodies int) error {
	return errors.Wrapf(ErrIndexOutOfRange, "index %d with %d bodies", index, bodies)
}

// NewCameraError is used when the camera matrix or resolution is unusable.
func NewCameraError(format string, args ...interface{}) error {
	return errors.Wrapf(ErrConfiguration, "camera: "+format, args...)
}
