package spatialmath

import (
	"math"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/num/quat"
)

// RotationMatrix is a 3x3 matrix in row major order.
// m[3*r + c] is the element in the r'th row and c'th column.
type RotationMatrix struct {
	mat [9]float64
}

// NewRotationMatrix creates a rotation matrix from 9 row major elements. The elements are not
// checked for orthonormality.
func NewRotationMatrix(m []float64) (RotationMatrix, error) {
	if len(m) != 9 {
		return RotationMatrix{}, errors.Errorf("input slice has %d elements, need exactly 9", len(m))
	}
	var rm RotationMatrix
	copy(rm.mat[:], m)
	return rm, nil
}

// NewRotationMatrixFromRows creates a rotation matrix from its three rows.
func NewRotationMatrixFromRows(r0, r1, r2 r3.Vector) RotationMatrix {
	return RotationMatrix{mat: [9]float64{
		r0.X, r0.Y, r0.Z,
		r1.X, r1.Y, r1.Z,
		r2.X, r2.Y, r2.Z,
	}}
}

// IdentityRotation returns the rotation matrix that signifies no rotation.
func IdentityRotation() RotationMatrix {
	return RotationMatrix{mat: [9]float64{1, 0, 0, 0, 1, 0, 0, 0, 1}}
}

// At returns the element at the given row and column.
func (rm RotationMatrix) At(row, col int) float64 {
	return rm.mat[row*3+col]
}

// Row returns the given row as a vector.
func (rm RotationMatrix) Row(row int) r3.Vector {
	return r3.Vector{X: rm.mat[row*3], Y: rm.mat[row*3+1], Z: rm.mat[row*3+2]}
}

// Col returns the given column as a vector.
func (rm RotationMatrix) Col(col int) r3.Vector {
	return r3.Vector{X: rm.mat[col], Y: rm.mat[col+3], Z: rm.mat[col+6]}
}

// Elements returns a row major copy of the 9 elements.
func (rm RotationMatrix) Elements() []float64 {
	out := make([]float64, 9)
	copy(out, rm.mat[:])
	return out
}

// Mul applies the rotation to a vector.
func (rm RotationMatrix) Mul(v r3.Vector) r3.Vector {
	return r3.Vector{
		X: rm.mat[0]*v.X + rm.mat[1]*v.Y + rm.mat[2]*v.Z,
		Y: rm.mat[3]*v.X + rm.mat[4]*v.Y + rm.mat[5]*v.Z,
		Z: rm.mat[6]*v.X + rm.mat[7]*v.Y + rm.mat[8]*v.Z,
	}
}

// MulMatrix returns rm * other.
func (rm RotationMatrix) MulMatrix(other RotationMatrix) RotationMatrix {
	var out RotationMatrix
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			out.mat[r*3+c] = rm.mat[r*3]*other.mat[c] + rm.mat[r*3+1]*other.mat[3+c] + rm.mat[r*3+2]*other.mat[6+c]
		}
	}
	return out
}

// Transpose returns the transpose, which for a rotation is its inverse.
func (rm RotationMatrix) Transpose() RotationMatrix {
	return RotationMatrix{mat: [9]float64{
		rm.mat[0], rm.mat[3], rm.mat[6],
		rm.mat[1], rm.mat[4], rm.mat[7],
		rm.mat[2], rm.mat[5], rm.mat[8],
	}}
}

// Determinant returns the determinant of the matrix.
func (rm RotationMatrix) Determinant() float64 {
	return rm.Row(0).Dot(rm.Row(1).Cross(rm.Row(2)))
}

// IsRotation reports whether the matrix is orthonormal with determinant +1 within tol.
func (rm RotationMatrix) IsRotation(tol float64) bool {
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			expected := 0.
			if i == j {
				expected = 1
			}
			if math.Abs(rm.Row(i).Dot(rm.Row(j))-expected) > tol {
				return false
			}
		}
	}
	return math.Abs(rm.Determinant()-1) <= tol
}

// Quaternion converts the rotation matrix to a unit quaternion with a non-negative real part.
func (rm RotationMatrix) Quaternion() quat.Number {
	m := rm.mat
	var q quat.Number
	trace := m[0] + m[4] + m[8]
	switch {
	case trace > 0:
		s := 0.5 / math.Sqrt(trace+1)
		q = quat.Number{Real: 0.25 / s, Imag: (m[7] - m[5]) * s, Jmag: (m[2] - m[6]) * s, Kmag: (m[3] - m[1]) * s}
	case m[0] > m[4] && m[0] > m[8]:
		s := 2 * math.Sqrt(1+m[0]-m[4]-m[8])
		q = quat.Number{Real: (m[7] - m[5]) / s, Imag: 0.25 * s, Jmag: (m[1] + m[3]) / s, Kmag: (m[2] + m[6]) / s}
	case m[4] > m[8]:
		s := 2 * math.Sqrt(1+m[4]-m[0]-m[8])
		q = quat.Number{Real: (m[2] - m[6]) / s, Imag: (m[1] + m[3]) / s, Jmag: 0.25 * s, Kmag: (m[5] + m[7]) / s}
	default:
		s := 2 * math.Sqrt(1+m[8]-m[0]-m[4])
		q = quat.Number{Real: (m[3] - m[1]) / s, Imag: (m[2] + m[6]) / s, Jmag: (m[5] + m[7]) / s, Kmag: 0.25 * s}
	}
	if q.Real < 0 {
		q = quat.Scale(-1, q)
	}
	return Normalize(q)
}

// RotationMatrixAlmostEqual compares two rotation matrices element-wise.
func RotationMatrixAlmostEqual(a, b RotationMatrix, tol float64) bool {
	for i := range a.mat {
		if math.Abs(a.mat[i]-b.mat[i]) > tol {
			return false
		}
	}
	return true
}
