package spatialmath

import (
	"math"

	"github.com/golang/geo/r3"
)

// parallelEpsilon bounds |normal . direction| below which a ray is treated as parallel to a plane.
const parallelEpsilon = 1e-12

// insideEpsilon is the relative slack allowed on the edge tests of a ray hit.
const insideEpsilon = 1e-9

// Triangle is three points and the unit normal of the plane they span.
type Triangle struct {
	p0 r3.Vector
	p1 r3.Vector
	p2 r3.Vector

	normal r3.Vector
}

// NewTriangle creates a triangle. Points are taken counterclockwise around the normal.
func NewTriangle(p0, p1, p2 r3.Vector) *Triangle {
	return &Triangle{
		p0:     p0,
		p1:     p1,
		p2:     p2,
		normal: PlaneNormal(p0, p1, p2),
	}
}

// PlaneNormal returns the unit normal of the plane through three points, or the zero vector when
// the points are collinear.
func PlaneNormal(p0, p1, p2 r3.Vector) r3.Vector {
	n := p1.Sub(p0).Cross(p2.Sub(p0))
	norm := n.Norm()
	if norm == 0 || math.IsNaN(norm) {
		return r3.Vector{}
	}
	return n.Mul(1 / norm)
}

func (t *Triangle) Points() []r3.Vector {
	return []r3.Vector{t.p0, t.p1, t.p2}
}

func (t *Triangle) Normal() r3.Vector {
	return t.normal
}

// Area returns the area of the triangle.
func (t *Triangle) Area() float64 {
	return TriangleArea(t.p0, t.p1, t.p2)
}

// Centroid returns the mean of the three points.
func (t *Triangle) Centroid() r3.Vector {
	return t.p0.Add(t.p1).Add(t.p2).Mul(1. / 3.)
}

// Transform returns a copy of the triangle moved by the pose.
func (t *Triangle) Transform(p Pose) *Triangle {
	return &Triangle{
		p0:     p.Apply(t.p0),
		p1:     p.Apply(t.p1),
		p2:     p.Apply(t.p2),
		normal: p.Rotation.Mul(t.normal),
	}
}

// IntersectRay intersects the ray origin + s*dir, s > 0, with the triangle and returns s.
func (t *Triangle) IntersectRay(origin, dir r3.Vector) (float64, bool) {
	return RayTriangleIntersection(dir, t.p0.Sub(origin), t.p1.Sub(origin), t.p2.Sub(origin), t.normal)
}

// TriangleArea returns the area spanned by three points.
func TriangleArea(p0, p1, p2 r3.Vector) float64 {
	return 0.5 * p1.Sub(p0).Cross(p2.Sub(p0)).Norm()
}

// RayTriangleIntersection intersects a ray from the origin along dir with the triangle p0 p1 p2
// whose unit normal is normal. It returns the ray parameter s of the hit point s*dir.
//
// Rays parallel to the plane, degenerate triangles (zero normal), hits behind the origin and
// hits outside the triangle are all misses. No NaN is ever returned with ok == true.
func RayTriangleIntersection(dir, p0, p1, p2, normal r3.Vector) (float64, bool) {
	denom := normal.Dot(dir)
	if math.Abs(denom) < parallelEpsilon || math.IsNaN(denom) {
		return 0, false
	}
	s := normal.Dot(p0) / denom
	if !(s > 0) || math.IsInf(s, 0) {
		return 0, false
	}
	hit := dir.Mul(s)

	// twice the signed sub-areas opposite each vertex; all non-negative when the hit is inside
	e0 := p1.Sub(p0).Cross(hit.Sub(p0)).Dot(normal)
	e1 := p2.Sub(p1).Cross(hit.Sub(p1)).Dot(normal)
	e2 := p0.Sub(p2).Cross(hit.Sub(p2)).Dot(normal)
	tol := -insideEpsilon * (e0 + e1 + e2)
	if e0 < tol || e1 < tol || e2 < tol {
		return 0, false
	}
	return s, true
}
