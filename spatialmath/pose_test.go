package spatialmath

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/golang/geo/r3"
	"go.viam.com/test"
	"gonum.org/v1/gonum/num/quat"
)

func TestRotationMatrix(t *testing.T) {
	_, err := NewRotationMatrix([]float64{1, 0, 0})
	test.That(t, err, test.ShouldNotBeNil)

	rm, err := NewRotationMatrix([]float64{0, -1, 0, 1, 0, 0, 0, 0, 1})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, rm.IsRotation(1e-9), test.ShouldBeTrue)
	test.That(t, rm.Mul(r3.Vector{1, 0, 0}), test.ShouldResemble, r3.Vector{0, 1, 0})
	test.That(t, rm.Row(0), test.ShouldResemble, r3.Vector{0, -1, 0})
	test.That(t, rm.Col(0), test.ShouldResemble, r3.Vector{0, 1, 0})
	test.That(t, RotationMatrixAlmostEqual(rm.MulMatrix(rm.Transpose()), IdentityRotation(), 1e-12), test.ShouldBeTrue)

	scaled, err := NewRotationMatrix([]float64{2, 0, 0, 0, 1, 0, 0, 0, 1})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, scaled.IsRotation(1e-9), test.ShouldBeFalse)

	reflection := NewRotationMatrixFromRows(r3.Vector{-1, 0, 0}, r3.Vector{0, 1, 0}, r3.Vector{0, 0, 1})
	test.That(t, reflection.IsRotation(1e-9), test.ShouldBeFalse)
}

func TestQuaternionConversions(t *testing.T) {
	t.Run("coefficient order is x y z w", func(t *testing.T) {
		q := QuaternionFromCoefficients([4]float64{0.1, 0.2, 0.3, 0.9})
		test.That(t, q, test.ShouldResemble, quat.Number{Real: 0.9, Imag: 0.1, Jmag: 0.2, Kmag: 0.3})
		test.That(t, QuaternionCoefficients(q), test.ShouldResemble, [4]float64{0.1, 0.2, 0.3, 0.9})
		test.That(t, QuaternionCoefficients(IdentityQuaternion()), test.ShouldResemble, [4]float64{0, 0, 0, 1})
	})

	t.Run("normalize", func(t *testing.T) {
		test.That(t, Normalize(quat.Number{}), test.ShouldResemble, IdentityQuaternion())
		n := Normalize(quat.Number{Real: 2})
		test.That(t, n, test.ShouldResemble, IdentityQuaternion())
	})

	t.Run("matrix round trip", func(t *testing.T) {
		for _, ev := range []r3.Vector{
			{0, 0, 0},
			{math.Pi / 2, 0, 0},
			{0, 1, 0},
			{0.3, -0.2, 0.9},
			{0, 0, math.Pi - 0.01},
		} {
			q := QuaternionFromEulerVector(ev)
			rm := QuaternionToRotationMatrix(q)
			test.That(t, rm.IsRotation(1e-9), test.ShouldBeTrue)
			back := rm.Quaternion()
			test.That(t, QuaternionAlmostEqual(back, q, 1e-9), test.ShouldBeTrue)
			test.That(t, EulerVectorFromQuaternion(back).Sub(ev).Norm(), test.ShouldBeLessThan, 1e-9)
		}
	})

	t.Run("quarter turn about z", func(t *testing.T) {
		rm := QuaternionToRotationMatrix(QuaternionFromEulerVector(r3.Vector{0, 0, math.Pi / 2}))
		test.That(t, rm.Mul(r3.Vector{1, 0, 0}).Sub(r3.Vector{0, 1, 0}).Norm(), test.ShouldBeLessThan, 1e-12)
	})
}

func TestPose(t *testing.T) {
	rot := QuaternionToRotationMatrix(QuaternionFromEulerVector(r3.Vector{0, 0, math.Pi / 2}))
	p := NewPose(rot, r3.Vector{1, 2, 3})

	t.Run("apply", func(t *testing.T) {
		test.That(t, p.Apply(r3.Vector{1, 0, 0}).Sub(r3.Vector{1, 3, 3}).Norm(), test.ShouldBeLessThan, 1e-12)
		test.That(t, NewZeroPose().Apply(r3.Vector{4, 5, 6}), test.ShouldResemble, r3.Vector{4, 5, 6})
	})

	t.Run("affine round trip", func(t *testing.T) {
		m := p.Affine()
		test.That(t, m.At(3, 3), test.ShouldEqual, 1.)
		test.That(t, m.At(0, 3), test.ShouldEqual, 1.)
		test.That(t, PoseAlmostEqual(NewPoseFromAffine(m), p, 1e-12), test.ShouldBeTrue)

		fromMgl := NewPoseFromAffine(mgl64.Translate3D(1, 2, 3).Mul4(mgl64.HomogRotate3DZ(math.Pi / 2)))
		test.That(t, PoseAlmostEqual(fromMgl, p, 1e-12), test.ShouldBeTrue)
	})

	t.Run("compose", func(t *testing.T) {
		q := NewPose(IdentityRotation(), r3.Vector{0, 0, 1})
		composed := Compose(p, q)
		pt := r3.Vector{0.5, -1, 2}
		test.That(t, composed.Apply(pt).Sub(p.Apply(q.Apply(pt))).Norm(), test.ShouldBeLessThan, 1e-12)
	})

	t.Run("from quaternion", func(t *testing.T) {
		fromQ := NewPoseFromQuaternion(quat.Number{Real: 2}, r3.Vector{})
		test.That(t, PoseAlmostEqual(fromQ, NewZeroPose(), 1e-12), test.ShouldBeTrue)
	})
}
