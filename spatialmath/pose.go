// Package spatialmath defines spatial mathematical operations: rigid poses, rotations, triangles and meshes.
package spatialmath

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/num/quat"
)

// Pose is a rigid transform that maps a point p in a body's reference frame to
// Rotation*p + Translation in camera coordinates.
type Pose struct {
	Rotation    RotationMatrix
	Translation r3.Vector
}

// NewPose returns a pose from a rotation and a translation.
func NewPose(rotation RotationMatrix, translation r3.Vector) Pose {
	return Pose{Rotation: rotation, Translation: translation}
}

// NewZeroPose returns the identity pose.
func NewZeroPose() Pose {
	return Pose{Rotation: IdentityRotation()}
}

// NewPoseFromQuaternion returns a pose from a (not necessarily normalized) quaternion and a
// translation.
func NewPoseFromQuaternion(q quat.Number, translation r3.Vector) Pose {
	return Pose{Rotation: QuaternionToRotationMatrix(q), Translation: translation}
}

// NewPoseFromAffine reads a pose out of a 4x4 affine transform. The upper left 3x3 block is the
// rotation and the first three entries of the last column are the translation; the bottom row is
// ignored.
func NewPoseFromAffine(m mgl64.Mat4) Pose {
	var rm RotationMatrix
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			rm.mat[r*3+c] = m.At(r, c)
		}
	}
	return Pose{
		Rotation:    rm,
		Translation: r3.Vector{X: m.At(0, 3), Y: m.At(1, 3), Z: m.At(2, 3)},
	}
}

// Affine returns the pose as a homogeneous 4x4 transform.
func (p Pose) Affine() mgl64.Mat4 {
	rm := p.Rotation
	return mgl64.Mat4FromRows(
		mgl64.Vec4{rm.At(0, 0), rm.At(0, 1), rm.At(0, 2), p.Translation.X},
		mgl64.Vec4{rm.At(1, 0), rm.At(1, 1), rm.At(1, 2), p.Translation.Y},
		mgl64.Vec4{rm.At(2, 0), rm.At(2, 1), rm.At(2, 2), p.Translation.Z},
		mgl64.Vec4{0, 0, 0, 1},
	)
}

// Apply transforms a point by the pose.
func (p Pose) Apply(v r3.Vector) r3.Vector {
	return p.Rotation.Mul(v).Add(p.Translation)
}

// Compose returns the pose that applies b first and then a.
func Compose(a, b Pose) Pose {
	return Pose{
		Rotation:    a.Rotation.MulMatrix(b.Rotation),
		Translation: a.Apply(b.Translation),
	}
}

// PoseAlmostEqual compares two poses element-wise.
func PoseAlmostEqual(a, b Pose, tol float64) bool {
	return RotationMatrixAlmostEqual(a.Rotation, b.Rotation, tol) &&
		a.Translation.Sub(b.Translation).Norm() <= tol
}

func (p Pose) String() string {
	return fmt.Sprintf("{R: %v, t: %v}", p.Rotation.mat, p.Translation)
}
