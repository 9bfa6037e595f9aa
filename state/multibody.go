// Package state packs the kinematic state of many rigid bodies into one float64 slice.
//
// Each body takes BodySize consecutive values: position (3), orientation quaternion (4, in
// x, y, z, w order), linear velocity (3) and angular velocity (3). Stored quaternions are never
// renormalized; Quaternion and RotationMatrix normalize on read.
package state

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/num/quat"

	"go.viam.com/posetrack/spatialmath"
)

// Layout of one body's record.
const (
	BodySize = 13

	PositionOffset        = 0
	OrientationOffset     = 3
	LinearVelocityOffset  = 7
	AngularVelocityOffset = 10
)

// MultiBodyState is the packed state of a number of rigid bodies.
type MultiBodyState struct {
	data  []float64
	fixed bool
}

// New returns a state for the given number of bodies with every value zero except the
// orientations, which are the identity. A negative count is an error.
func New(bodies int) (*MultiBodyState, error) {
	if bodies < 0 {
		return nil, NewNegativeBodyCountError(bodies)
	}
	s := &MultiBodyState{}
	s.grow(bodies)
	return s, nil
}

// NewFixed is like New but the body count can never change.
func NewFixed(bodies int) (*MultiBodyState, error) {
	s, err := New(bodies)
	if err != nil {
		return nil, err
	}
	s.fixed = true
	return s, nil
}

// NewFromVector returns a state holding a copy of v, whose length must be a multiple of
// BodySize. Orientations are taken as they are.
func NewFromVector(v []float64) (*MultiBodyState, error) {
	if len(v)%BodySize != 0 {
		return nil, NewInvalidLengthError(len(v))
	}
	data := make([]float64, len(v))
	copy(data, v)
	return &MultiBodyState{data: data}, nil
}

// grow appends bodies with identity orientations.
func (s *MultiBodyState) grow(bodies int) {
	for b := 0; b < bodies; b++ {
		var record [BodySize]float64
		record[OrientationOffset+3] = 1
		s.data = append(s.data, record[:]...)
	}
}

// Len returns the number of scalars, BodyCount()*BodySize.
func (s *MultiBodyState) Len() int {
	return len(s.data)
}

// BodyCount returns the number of bodies.
func (s *MultiBodyState) BodyCount() int {
	return len(s.data) / BodySize
}

// IsFixed reports whether the state was created with NewFixed.
func (s *MultiBodyState) IsFixed() bool {
	return s.fixed
}

// Resize changes the number of bodies. Existing bodies keep their values and new ones get the
// New defaults. Views taken before a resize must not be used after it.
func (s *MultiBodyState) Resize(bodies int) error {
	if s.fixed {
		return ErrFixedSize
	}
	if bodies < 0 {
		return NewNegativeBodyCountError(bodies)
	}
	if current := s.BodyCount(); bodies <= current {
		s.data = append([]float64(nil), s.data[:bodies*BodySize]...)
		return nil
	}
	data := make([]float64, len(s.data), bodies*BodySize)
	copy(data, s.data)
	s.data = data
	s.grow(bodies - s.BodyCount())
	return nil
}

// AddBody appends one body with the New defaults and returns its index.
func (s *MultiBodyState) AddBody() (int, error) {
	if err := s.Resize(s.BodyCount() + 1); err != nil {
		return 0, err
	}
	return s.BodyCount() - 1, nil
}

// Vector returns a copy of the packed values.
func (s *MultiBodyState) Vector() []float64 {
	return append([]float64(nil), s.data...)
}

// SetVector overwrites every value. v must have exactly Len() values.
func (s *MultiBodyState) SetVector(v []float64) error {
	if len(v) != len(s.data) {
		return NewInvalidLengthError(len(v))
	}
	copy(s.data, v)
	return nil
}

// Clone returns an independent copy.
func (s *MultiBodyState) Clone() *MultiBodyState {
	return &MultiBodyState{data: s.Vector(), fixed: s.fixed}
}

// field returns the capped sub-slice [offset, offset+size) of body i.
func (s *MultiBodyState) field(i, offset, size int) ([]float64, error) {
	if i < 0 || i >= s.BodyCount() {
		return nil, NewIndexOutOfRangeError(i, s.BodyCount())
	}
	start := i*BodySize + offset
	end := start + size
	return s.data[start:end:end], nil
}

func (s *MultiBodyState) vector3(i, offset int) (r3.Vector, error) {
	f, err := s.field(i, offset, 3)
	if err != nil {
		return r3.Vector{}, err
	}
	return r3.Vector{X: f[0], Y: f[1], Z: f[2]}, nil
}

// Position returns body i's position.
func (s *MultiBodyState) Position(i int) (r3.Vector, error) {
	return s.vector3(i, PositionOffset)
}

// LinearVelocity returns body i's linear velocity.
func (s *MultiBodyState) LinearVelocity(i int) (r3.Vector, error) {
	return s.vector3(i, LinearVelocityOffset)
}

// AngularVelocity returns body i's angular velocity.
func (s *MultiBodyState) AngularVelocity(i int) (r3.Vector, error) {
	return s.vector3(i, AngularVelocityOffset)
}

// Orientation returns body i's raw quaternion coefficients in x, y, z, w order.
func (s *MultiBodyState) Orientation(i int) ([4]float64, error) {
	f, err := s.field(i, OrientationOffset, 4)
	if err != nil {
		return [4]float64{}, err
	}
	return [4]float64{f[0], f[1], f[2], f[3]}, nil
}

// Quaternion returns body i's orientation as a unit quaternion. All-zero coefficients read as the
// identity.
func (s *MultiBodyState) Quaternion(i int) (quat.Number, error) {
	c, err := s.Orientation(i)
	if err != nil {
		return quat.Number{}, err
	}
	return spatialmath.Normalize(spatialmath.QuaternionFromCoefficients(c)), nil
}

// RotationMatrix returns body i's orientation as a rotation matrix.
func (s *MultiBodyState) RotationMatrix(i int) (spatialmath.RotationMatrix, error) {
	q, err := s.Quaternion(i)
	if err != nil {
		return spatialmath.RotationMatrix{}, err
	}
	return spatialmath.QuaternionToRotationMatrix(q), nil
}

// EulerVector returns body i's orientation as a rotation vector, the axis scaled by the angle.
func (s *MultiBodyState) EulerVector(i int) (r3.Vector, error) {
	q, err := s.Quaternion(i)
	if err != nil {
		return r3.Vector{}, err
	}
	return spatialmath.EulerVectorFromQuaternion(q), nil
}

// Pose returns body i's orientation and position as a pose.
func (s *MultiBodyState) Pose(i int) (spatialmath.Pose, error) {
	rot, err := s.RotationMatrix(i)
	if err != nil {
		return spatialmath.Pose{}, err
	}
	pos, err := s.Position(i)
	if err != nil {
		return spatialmath.Pose{}, err
	}
	return spatialmath.NewPose(rot, pos), nil
}

// HomogeneousMatrix returns body i's pose as a 4x4 transform.
func (s *MultiBodyState) HomogeneousMatrix(i int) (mgl64.Mat4, error) {
	p, err := s.Pose(i)
	if err != nil {
		return mgl64.Mat4{}, err
	}
	return p.Affine(), nil
}

// SetPose writes body i's position and orientation from a pose.
func (s *MultiBodyState) SetPose(i int, p spatialmath.Pose) error {
	body, err := s.BodyView(i)
	if err != nil {
		return err
	}
	body.Position().Set(p.Translation)
	body.Orientation().Set(p.Rotation.Quaternion())
	return nil
}
