package render

import (
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"go.viam.com/posetrack/spatialmath"
)

// body is one rigid body's reference mesh plus everything derived from it at load time.
type body struct {
	vertices  []r3.Vector
	triangles [][3]int
	normals   []r3.Vector

	centroid r3.Vector
	weight   float64
}

// GeometryStore owns the reference meshes of every body. Pose updates never touch it.
type GeometryStore struct {
	bodies []body
	// bumped by ReplaceBody so renderers know to refresh their posed copies
	version uint64
}

// NewGeometryStore builds a store from per-body vertex lists and per-body triangle index lists.
// Every triangle must have exactly three indices, each in range for its body.
func NewGeometryStore(vertices [][]r3.Vector, triangles [][][]int) (*GeometryStore, error) {
	if len(vertices) != len(triangles) {
		return nil, errors.Wrapf(ErrInvalidGeometry, "%d vertex lists but %d triangle lists", len(vertices), len(triangles))
	}
	bodies := make([]body, len(vertices))
	for i := range vertices {
		b, err := newBody(i, vertices[i], triangles[i])
		if err != nil {
			return nil, err
		}
		bodies[i] = b
	}
	return &GeometryStore{bodies: bodies}, nil
}

// NewGeometryStoreFromMeshes builds a store with one body per mesh, in order.
func NewGeometryStoreFromMeshes(meshes ...*spatialmath.Mesh) (*GeometryStore, error) {
	vertices := make([][]r3.Vector, len(meshes))
	triangles := make([][][]int, len(meshes))
	for i, m := range meshes {
		if m == nil {
			return nil, errors.Wrapf(ErrInvalidGeometry, "body %d: nil mesh", i)
		}
		vertices[i] = m.Vertices()
		triangles[i] = m.Indices()
	}
	return NewGeometryStore(vertices, triangles)
}

func newBody(index int, vertices []r3.Vector, triangles [][]int) (body, error) {
	b := body{
		vertices:  make([]r3.Vector, len(vertices)),
		triangles: make([][3]int, len(triangles)),
		normals:   make([]r3.Vector, len(triangles)),
	}
	copy(b.vertices, vertices)

	for t, tri := range triangles {
		if len(tri) != 3 {
			return body{}, NewInvalidGeometryError(index, t, "has %d indices", len(tri))
		}
		for _, idx := range tri {
			if idx < 0 || idx >= len(vertices) {
				return body{}, NewInvalidGeometryError(index, t, "vertex index %d out of range [0, %d)", idx, len(vertices))
			}
		}
		b.triangles[t] = [3]int{tri[0], tri[1], tri[2]}
		b.normals[t] = spatialmath.PlaneNormal(vertices[tri[0]], vertices[tri[1]], vertices[tri[2]])
	}
	b.centroid, b.weight = centroidAndWeight(b.vertices, b.triangles)
	return b, nil
}

// centroidAndWeight returns the area weighted mean of the triangle centroids and the total area.
// Meshes without area fall back to the plain vertex mean with zero weight.
func centroidAndWeight(vertices []r3.Vector, triangles [][3]int) (r3.Vector, float64) {
	var sum r3.Vector
	var area float64
	for _, tri := range triangles {
		p0, p1, p2 := vertices[tri[0]], vertices[tri[1]], vertices[tri[2]]
		a := spatialmath.TriangleArea(p0, p1, p2)
		sum = sum.Add(p0.Add(p1).Add(p2).Mul(a / 3))
		area += a
	}
	if area > 0 {
		return sum.Mul(1 / area), area
	}

	var mean r3.Vector
	for _, v := range vertices {
		mean = mean.Add(v)
	}
	if len(vertices) > 0 {
		mean = mean.Mul(1 / float64(len(vertices)))
	}
	return mean, 0
}

// BodyCount returns the number of bodies.
func (gs *GeometryStore) BodyCount() int {
	return len(gs.bodies)
}

// TriangleCount returns the number of triangles over all bodies.
func (gs *GeometryStore) TriangleCount() int {
	total := 0
	for _, b := range gs.bodies {
		total += len(b.triangles)
	}
	return total
}

func (gs *GeometryStore) body(i int) (*body, error) {
	if i < 0 || i >= len(gs.bodies) {
		return nil, NewIndexOutOfRangeError(i, len(gs.bodies))
	}
	return &gs.bodies[i], nil
}

// Vertices returns a copy of body i's reference vertices.
func (gs *GeometryStore) Vertices(i int) ([]r3.Vector, error) {
	b, err := gs.body(i)
	if err != nil {
		return nil, err
	}
	out := make([]r3.Vector, len(b.vertices))
	copy(out, b.vertices)
	return out, nil
}

// Triangles returns a copy of body i's triangles.
func (gs *GeometryStore) Triangles(i int) ([][3]int, error) {
	b, err := gs.body(i)
	if err != nil {
		return nil, err
	}
	out := make([][3]int, len(b.triangles))
	copy(out, b.triangles)
	return out, nil
}

// Normals returns a copy of body i's reference triangle normals. Degenerate triangles have a zero
// normal.
func (gs *GeometryStore) Normals(i int) ([]r3.Vector, error) {
	b, err := gs.body(i)
	if err != nil {
		return nil, err
	}
	out := make([]r3.Vector, len(b.normals))
	copy(out, b.normals)
	return out, nil
}

// Centroid returns body i's cached centroid in its reference frame.
func (gs *GeometryStore) Centroid(i int) (r3.Vector, error) {
	b, err := gs.body(i)
	if err != nil {
		return r3.Vector{}, err
	}
	return b.centroid, nil
}

// Weight returns body i's cached weight, its total surface area.
func (gs *GeometryStore) Weight(i int) (float64, error) {
	b, err := gs.body(i)
	if err != nil {
		return 0, err
	}
	return b.weight, nil
}

// ReplaceBody swaps in new geometry for body i and recomputes its normals, centroid and weight.
// On error the store is unchanged.
func (gs *GeometryStore) ReplaceBody(i int, vertices []r3.Vector, triangles [][]int) error {
	if _, err := gs.body(i); err != nil {
		return err
	}
	b, err := newBody(i, vertices, triangles)
	if err != nil {
		return err
	}
	gs.bodies[i] = b
	gs.version++
	return nil
}

// Clone returns a deep copy, for handing one store to each worker.
func (gs *GeometryStore) Clone() *GeometryStore {
	bodies := make([]body, len(gs.bodies))
	for i, b := range gs.bodies {
		bodies[i] = body{
			vertices:  append([]r3.Vector(nil), b.vertices...),
			triangles: append([][3]int(nil), b.triangles...),
			normals:   append([]r3.Vector(nil), b.normals...),
			centroid:  b.centroid,
			weight:    b.weight,
		}
	}
	return &GeometryStore{bodies: bodies, version: gs.version}
}
