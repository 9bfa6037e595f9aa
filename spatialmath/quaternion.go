package spatialmath

import (
	"math"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/num/quat"
)

const angleEpsilon = 1e-12

// IdentityQuaternion returns the quaternion that signifies no rotation.
func IdentityQuaternion() quat.Number {
	return quat.Number{Real: 1}
}

// Normalize scales a quaternion to unit length. A zero quaternion normalizes to the identity.
func Normalize(q quat.Number) quat.Number {
	norm := quat.Abs(q)
	if norm == 0 || math.IsNaN(norm) || math.IsInf(norm, 0) {
		return IdentityQuaternion()
	}
	return quat.Scale(1/norm, q)
}

// QuaternionAlmostEqual is an equality test for all the float components of a quaternion. q and -q
// are not considered equal.
func QuaternionAlmostEqual(a, b quat.Number, tol float64) bool {
	return math.Abs(a.Real-b.Real) < tol &&
		math.Abs(a.Imag-b.Imag) < tol &&
		math.Abs(a.Jmag-b.Jmag) < tol &&
		math.Abs(a.Kmag-b.Kmag) < tol
}

// QuaternionFromCoefficients builds a quaternion from its coefficients in (x, y, z, w) order, the
// order used by packed state vectors.
func QuaternionFromCoefficients(c [4]float64) quat.Number {
	return quat.Number{Real: c[3], Imag: c[0], Jmag: c[1], Kmag: c[2]}
}

// QuaternionCoefficients returns the coefficients of q in (x, y, z, w) order.
func QuaternionCoefficients(q quat.Number) [4]float64 {
	return [4]float64{q.Imag, q.Jmag, q.Kmag, q.Real}
}

// QuaternionToRotationMatrix converts a quaternion to a rotation matrix. The quaternion is
// normalized first.
func QuaternionToRotationMatrix(q quat.Number) RotationMatrix {
	q = Normalize(q)
	w, x, y, z := q.Real, q.Imag, q.Jmag, q.Kmag
	return RotationMatrix{mat: [9]float64{
		1 - 2*(y*y+z*z), 2 * (x*y - w*z), 2 * (x*z + w*y),
		2 * (x*y + w*z), 1 - 2*(x*x+z*z), 2 * (y*z - w*x),
		2 * (x*z - w*y), 2 * (y*z + w*x), 1 - 2*(x*x+y*y),
	}}
}

// QuaternionFromEulerVector converts a rotation vector (unit axis scaled by the angle in radians)
// to a quaternion. A vector whose axis cannot be normalized maps to the identity.
func QuaternionFromEulerVector(v r3.Vector) quat.Number {
	angle := v.Norm()
	if angle < angleEpsilon || math.IsNaN(angle) || math.IsInf(angle, 0) {
		return IdentityQuaternion()
	}
	axis := v.Mul(1 / angle)
	s := math.Sin(angle / 2)
	return quat.Number{Real: math.Cos(angle / 2), Imag: axis.X * s, Jmag: axis.Y * s, Kmag: axis.Z * s}
}

// EulerVectorFromQuaternion converts a quaternion to a rotation vector with angle in [0, pi].
func EulerVectorFromQuaternion(q quat.Number) r3.Vector {
	q = Normalize(q)
	if q.Real < 0 {
		q = quat.Scale(-1, q)
	}
	imag := r3.Vector{X: q.Imag, Y: q.Jmag, Z: q.Kmag}
	sinHalf := imag.Norm()
	if sinHalf < angleEpsilon {
		return r3.Vector{}
	}
	angle := 2 * math.Atan2(sinHalf, q.Real)
	return imag.Mul(angle / sinHalf)
}
