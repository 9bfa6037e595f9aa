package spatialmath

import (
	"io"
	"os"
	"path/filepath"

	"github.com/chenzhekl/goply"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"github.com/spf13/cast"
	"go.viam.com/utils"
)

// Mesh is a triangulated surface given as a vertex list and triangles indexing into it.
type Mesh struct {
	vertices  []r3.Vector
	triangles [][3]int
	label     string
}

// NewMesh creates a mesh. The triangle indices are not validated here; stores that consume the
// mesh do that.
func NewMesh(vertices []r3.Vector, triangles [][3]int, label string) *Mesh {
	return &Mesh{
		vertices:  vertices,
		triangles: triangles,
		label:     label,
	}
}

func (m *Mesh) Label() string {
	return m.label
}

// Vertices returns the vertex list.
func (m *Mesh) Vertices() []r3.Vector {
	return m.vertices
}

// Faces returns the triangles as index triples.
func (m *Mesh) Faces() [][3]int {
	return m.triangles
}

// Indices returns the triangles as index slices, the form render.NewGeometryStore takes.
func (m *Mesh) Indices() [][]int {
	out := make([][]int, len(m.triangles))
	for i, tri := range m.triangles {
		out[i] = []int{tri[0], tri[1], tri[2]}
	}
	return out
}

// Triangles materializes every face as a Triangle. Faces with out of range indices are skipped.
func (m *Mesh) Triangles() []*Triangle {
	tris := make([]*Triangle, 0, len(m.triangles))
	for _, tri := range m.triangles {
		if !m.validFace(tri) {
			continue
		}
		tris = append(tris, NewTriangle(m.vertices[tri[0]], m.vertices[tri[1]], m.vertices[tri[2]]))
	}
	return tris
}

// Transform returns a copy of the mesh with every vertex moved by the pose.
func (m *Mesh) Transform(p Pose) *Mesh {
	verts := make([]r3.Vector, len(m.vertices))
	for i, v := range m.vertices {
		verts[i] = p.Apply(v)
	}
	return &Mesh{vertices: verts, triangles: m.triangles, label: m.label}
}

func (m *Mesh) validFace(tri [3]int) bool {
	for _, idx := range tri {
		if idx < 0 || idx >= len(m.vertices) {
			return false
		}
	}
	return true
}

// NewMeshFromPLYFile loads an ascii PLY file. The mesh is labeled with the file's base name.
func NewMeshFromPLYFile(path string) (*Mesh, error) {
	//nolint:gosec
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "error opening PLY file")
	}
	defer utils.UncheckedErrorFunc(f.Close)
	m, err := NewMeshFromPLY(f)
	if err != nil {
		return nil, errors.Wrapf(err, "error reading %q", path)
	}
	m.label = filepath.Base(path)
	return m, nil
}

// NewMeshFromPLY parses an ascii PLY stream with "vertex" elements carrying x, y, z and "face"
// elements carrying a vertex_indices (or vertex_index) list. Polygons with more than three
// vertices are split into a triangle fan.
func NewMeshFromPLY(r io.Reader) (m *Mesh, err error) {
	// the PLY parser reports malformed input by panicking
	defer func() {
		if thePanic := recover(); thePanic != nil {
			m = nil
			err = errors.Errorf("malformed PLY data: %v", thePanic)
		}
	}()
	ply := goply.New(r)

	plyVertices := ply.Elements("vertex")
	vertices := make([]r3.Vector, 0, len(plyVertices))
	for i, elem := range plyVertices {
		var coords [3]float64
		for j, name := range []string{"x", "y", "z"} {
			raw := elem.Property(name)
			if raw == nil {
				return nil, errors.Errorf("vertex %d is missing the %q property", i, name)
			}
			v, err := cast.ToFloat64E(raw)
			if err != nil {
				return nil, errors.Wrapf(err, "vertex %d has a bad %q property", i, name)
			}
			coords[j] = v
		}
		vertices = append(vertices, r3.Vector{X: coords[0], Y: coords[1], Z: coords[2]})
	}

	var triangles [][3]int
	for i, elem := range ply.Elements("face") {
		raw := elem.Property("vertex_indices")
		if raw == nil {
			raw = elem.Property("vertex_index")
		}
		list, ok := raw.([]interface{})
		if !ok {
			return nil, errors.Errorf("face %d has no vertex index list", i)
		}
		if len(list) < 3 {
			return nil, errors.Errorf("face %d has %d vertices, need at least 3", i, len(list))
		}
		idx := make([]int, len(list))
		for j, v := range list {
			n, err := cast.ToIntE(v)
			if err != nil {
				return nil, errors.Wrapf(err, "face %d index %d", i, j)
			}
			if n < 0 || n >= len(vertices) {
				return nil, errors.Errorf("face %d references vertex %d of %d", i, n, len(vertices))
			}
			idx[j] = n
		}
		for j := 1; j+1 < len(idx); j++ {
			triangles = append(triangles, [3]int{idx[0], idx[j], idx[j+1]})
		}
	}
	return NewMesh(vertices, triangles, ""), nil
}
