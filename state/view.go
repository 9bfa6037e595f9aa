package state

import (
	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/num/quat"

	"go.viam.com/posetrack/spatialmath"
)

// Vector3View is a live, writable window onto three values of a MultiBodyState. Writes through
// it are visible in the state and vice versa. A view is invalidated by Resize.
type Vector3View []float64

// Vector returns the current values.
func (v Vector3View) Vector() r3.Vector {
	return r3.Vector{X: v[0], Y: v[1], Z: v[2]}
}

// Set writes vec into the state.
func (v Vector3View) Set(vec r3.Vector) {
	v[0], v[1], v[2] = vec.X, vec.Y, vec.Z
}

// QuaternionView is a live window onto a body's four orientation coefficients, x, y, z, w.
type QuaternionView []float64

// Coefficients returns the raw coefficients.
func (v QuaternionView) Coefficients() [4]float64 {
	return [4]float64{v[0], v[1], v[2], v[3]}
}

// Quaternion returns the normalized orientation.
func (v QuaternionView) Quaternion() quat.Number {
	return spatialmath.Normalize(spatialmath.QuaternionFromCoefficients(v.Coefficients()))
}

// SetCoefficients writes raw coefficients. They are stored as given.
func (v QuaternionView) SetCoefficients(c [4]float64) {
	copy(v, c[:])
}

// Set writes q into the state.
func (v QuaternionView) Set(q quat.Number) {
	v.SetCoefficients(spatialmath.QuaternionCoefficients(q))
}

// BodyView is a live window onto one body's full record.
type BodyView []float64

// Position returns a view of the body's position.
func (b BodyView) Position() Vector3View {
	return Vector3View(b[PositionOffset : PositionOffset+3 : PositionOffset+3])
}

// Orientation returns a view of the body's orientation.
func (b BodyView) Orientation() QuaternionView {
	return QuaternionView(b[OrientationOffset : OrientationOffset+4 : OrientationOffset+4])
}

// LinearVelocity returns a view of the body's linear velocity.
func (b BodyView) LinearVelocity() Vector3View {
	return Vector3View(b[LinearVelocityOffset : LinearVelocityOffset+3 : LinearVelocityOffset+3])
}

// AngularVelocity returns a view of the body's angular velocity.
func (b BodyView) AngularVelocity() Vector3View {
	return Vector3View(b[AngularVelocityOffset:BodySize:BodySize])
}

// BodyView returns a view of body i's record.
func (s *MultiBodyState) BodyView(i int) (BodyView, error) {
	f, err := s.field(i, 0, BodySize)
	if err != nil {
		return nil, err
	}
	return BodyView(f), nil
}

// PositionView returns a view of body i's position.
func (s *MultiBodyState) PositionView(i int) (Vector3View, error) {
	f, err := s.field(i, PositionOffset, 3)
	return Vector3View(f), err
}

// OrientationView returns a view of body i's orientation.
func (s *MultiBodyState) OrientationView(i int) (QuaternionView, error) {
	f, err := s.field(i, OrientationOffset, 4)
	return QuaternionView(f), err
}

// LinearVelocityView returns a view of body i's linear velocity.
func (s *MultiBodyState) LinearVelocityView(i int) (Vector3View, error) {
	f, err := s.field(i, LinearVelocityOffset, 3)
	return Vector3View(f), err
}

// AngularVelocityView returns a view of body i's angular velocity.
func (s *MultiBodyState) AngularVelocityView(i int) (Vector3View, error) {
	f, err := s.field(i, AngularVelocityOffset, 3)
	return Vector3View(f), err
}

// SetPosition writes body i's position.
func (s *MultiBodyState) SetPosition(i int, p r3.Vector) error {
	v, err := s.PositionView(i)
	if err != nil {
		return err
	}
	v.Set(p)
	return nil
}

// SetOrientation writes body i's raw orientation coefficients, x, y, z, w.
func (s *MultiBodyState) SetOrientation(i int, c [4]float64) error {
	v, err := s.OrientationView(i)
	if err != nil {
		return err
	}
	v.SetCoefficients(c)
	return nil
}

// SetQuaternion writes body i's orientation.
func (s *MultiBodyState) SetQuaternion(i int, q quat.Number) error {
	v, err := s.OrientationView(i)
	if err != nil {
		return err
	}
	v.Set(q)
	return nil
}

// SetLinearVelocity writes body i's linear velocity.
func (s *MultiBodyState) SetLinearVelocity(i int, vel r3.Vector) error {
	v, err := s.LinearVelocityView(i)
	if err != nil {
		return err
	}
	v.Set(vel)
	return nil
}

// SetAngularVelocity writes body i's angular velocity.
func (s *MultiBodyState) SetAngularVelocity(i int, vel r3.Vector) error {
	v, err := s.AngularVelocityView(i)
	if err != nil {
		return err
	}
	v.Set(vel)
	return nil
}
