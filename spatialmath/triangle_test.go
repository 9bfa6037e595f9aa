package spatialmath

import (
	"math"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"
)

func TestBasicTriangleFunctions(t *testing.T) {
	expectedPts := []r3.Vector{{0, 0, 0}, {3, 0, 0}, {0, 3, 0}}
	tri := NewTriangle(expectedPts[0], expectedPts[1], expectedPts[2])

	expectedNormal := r3.Vector{0, 0, 1}
	expectedArea := 4.5
	expectedCentroid := r3.Vector{1, 1, 0}

	t.Run("constructor", func(t *testing.T) {
		test.That(t, tri.Points(), test.ShouldResemble, expectedPts)
		test.That(t, tri.Normal(), test.ShouldResemble, expectedNormal)
	})

	t.Run("area", func(t *testing.T) {
		test.That(t, tri.Area(), test.ShouldEqual, expectedArea)
	})

	t.Run("centroid", func(t *testing.T) {
		test.That(t, tri.Centroid(), test.ShouldResemble, expectedCentroid)
	})

	t.Run("transform", func(t *testing.T) {
		rot := QuaternionToRotationMatrix(QuaternionFromEulerVector(r3.Vector{0, 0, math.Pi / 2}))
		tf := NewPose(rot, r3.Vector{1, 1, 1})
		tri2 := tri.Transform(tf)
		for i := range tri2.Points() {
			test.That(t, tri2.Points()[i].Sub(tf.Apply(expectedPts[i])).Norm(), test.ShouldBeLessThan, 1e-12)
		}
		test.That(t, tri2.Normal().Sub(expectedNormal).Norm(), test.ShouldBeLessThan, 1e-12)
	})

	t.Run("degenerate normal", func(t *testing.T) {
		line := NewTriangle(r3.Vector{0, 0, 0}, r3.Vector{1, 1, 1}, r3.Vector{2, 2, 2})
		test.That(t, line.Normal(), test.ShouldResemble, r3.Vector{})
		test.That(t, line.Area(), test.ShouldEqual, 0.)
	})
}

func TestRayTriangleIntersection(t *testing.T) {
	tri := NewTriangle(r3.Vector{-1, -1, 5}, r3.Vector{1, -1, 5}, r3.Vector{0, 1, 5})

	t.Run("straight hit", func(t *testing.T) {
		s, ok := tri.IntersectRay(r3.Vector{}, r3.Vector{0, 0, 1})
		test.That(t, ok, test.ShouldBeTrue)
		test.That(t, s, test.ShouldAlmostEqual, 5.)
	})

	t.Run("hit on a scaled ray", func(t *testing.T) {
		s, ok := tri.IntersectRay(r3.Vector{}, r3.Vector{0, 0, 2})
		test.That(t, ok, test.ShouldBeTrue)
		test.That(t, s, test.ShouldAlmostEqual, 2.5)
	})

	t.Run("hit on an edge", func(t *testing.T) {
		s, ok := tri.IntersectRay(r3.Vector{}, r3.Vector{0, -0.2, 1})
		test.That(t, ok, test.ShouldBeTrue)
		test.That(t, s, test.ShouldAlmostEqual, 5.)
	})

	t.Run("miss outside", func(t *testing.T) {
		_, ok := tri.IntersectRay(r3.Vector{}, r3.Vector{1, 1, 1})
		test.That(t, ok, test.ShouldBeFalse)
	})

	t.Run("miss behind", func(t *testing.T) {
		_, ok := tri.IntersectRay(r3.Vector{}, r3.Vector{0, 0, -1})
		test.That(t, ok, test.ShouldBeFalse)
	})

	t.Run("origin offset", func(t *testing.T) {
		s, ok := tri.IntersectRay(r3.Vector{0, 0, 4}, r3.Vector{0, 0, 1})
		test.That(t, ok, test.ShouldBeTrue)
		test.That(t, s, test.ShouldAlmostEqual, 1.)
	})

	t.Run("parallel ray", func(t *testing.T) {
		_, ok := tri.IntersectRay(r3.Vector{0, 0, 5}, r3.Vector{1, 0, 0})
		test.That(t, ok, test.ShouldBeFalse)
	})

	t.Run("degenerate triangle", func(t *testing.T) {
		line := NewTriangle(r3.Vector{0, 0, 5}, r3.Vector{1, 0, 5}, r3.Vector{2, 0, 5})
		s, ok := line.IntersectRay(r3.Vector{}, r3.Vector{0.1, 0, 1})
		test.That(t, ok, test.ShouldBeFalse)
		test.That(t, math.IsNaN(s), test.ShouldBeFalse)
	})

	t.Run("winding does not matter", func(t *testing.T) {
		flipped := NewTriangle(r3.Vector{0, 1, 5}, r3.Vector{1, -1, 5}, r3.Vector{-1, -1, 5})
		s, ok := flipped.IntersectRay(r3.Vector{}, r3.Vector{0, 0, 1})
		test.That(t, ok, test.ShouldBeTrue)
		test.That(t, s, test.ShouldAlmostEqual, 5.)
	})
}
