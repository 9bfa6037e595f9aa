package render

import (
	"math"

	"github.com/golang/geo/r3"

	"go.viam.com/posetrack/spatialmath"
)

// zBuffer holds the nearest depth per pixel and the body that produced it (-1 for none).
type zBuffer struct {
	depth []float64
	body  []int
}

func newZBuffer(pixels int) *zBuffer {
	zb := &zBuffer{depth: make([]float64, pixels), body: make([]int, pixels)}
	for i := range zb.depth {
		zb.depth[i] = math.Inf(1)
		zb.body[i] = -1
	}
	return zb
}

// rasterize finds, for every pixel, the nearest intersection over all posed triangles. Bodies are
// visited in index order and triangles in storage order, and only a strictly nearer hit replaces
// the current one, so equal depths resolve to the lowest body then the lowest triangle.
func (r *Renderer) rasterize(cam *camera) *zBuffer {
	zb := newZBuffer(cam.pixels())
	if len(r.posed) == 0 {
		return zb
	}

	rays := make([]r3.Vector, cam.pixels())
	for row := 0; row < cam.rows; row++ {
		for col := 0; col < cam.cols; col++ {
			rays[row*cam.cols+col] = cam.ray(row, col)
		}
	}

	for b := range r.posed {
		posed := &r.posed[b]
		for t, tri := range r.geometry.bodies[b].triangles {
			normal := posed.normals[t]
			if normal == (r3.Vector{}) {
				continue
			}
			p0, p1, p2 := posed.vertices[tri[0]], posed.vertices[tri[1]], posed.vertices[tri[2]]
			minRow, maxRow, minCol, maxCol, visible := cam.candidates(p0, p1, p2)
			if !visible {
				continue
			}
			for row := minRow; row <= maxRow; row++ {
				for col := minCol; col <= maxCol; col++ {
					idx := row*cam.cols + col
					dir := rays[idx]
					s, ok := spatialmath.RayTriangleIntersection(dir, p0, p1, p2, normal)
					if !ok {
						continue
					}
					depth := s * dir.Z
					// depths are reported as float32
					if !(depth > 0) || depth > math.MaxFloat32 {
						continue
					}
					if depth < zb.depth[idx] {
						zb.depth[idx] = depth
						zb.body[idx] = b
					}
				}
			}
		}
	}
	return zb
}

// candidates returns the pixel window a triangle can cover. When every vertex is in front of the
// camera this is the bounding box of the projected vertices; otherwise it is the whole image.
func (c *camera) candidates(p0, p1, p2 r3.Vector) (minRow, maxRow, minCol, maxCol int, visible bool) {
	minU, minV := math.Inf(1), math.Inf(1)
	maxU, maxV := math.Inf(-1), math.Inf(-1)
	for _, p := range [3]r3.Vector{p0, p1, p2} {
		u, v, ok := c.project(p)
		if !ok || math.IsNaN(u) || math.IsNaN(v) {
			return 0, c.rows - 1, 0, c.cols - 1, true
		}
		minU, maxU = math.Min(minU, u), math.Max(maxU, u)
		minV, maxV = math.Min(minV, v), math.Max(maxV, v)
	}
	lowCol := math.Max(0, math.Floor(minU))
	highCol := math.Min(float64(c.cols-1), math.Ceil(maxU))
	lowRow := math.Max(0, math.Floor(minV))
	highRow := math.Min(float64(c.rows-1), math.Ceil(maxV))
	if lowCol > highCol || lowRow > highRow {
		return 0, 0, 0, 0, false
	}
	return int(lowRow), int(highRow), int(lowCol), int(highCol), true
}

func (zb *zBuffer) depthImage() DepthImage {
	img := make(DepthImage, len(zb.depth))
	for i, d := range zb.depth {
		if zb.body[i] < 0 {
			img[i] = NoIntersection()
			continue
		}
		img[i] = float32(d)
	}
	return img
}

func (zb *zBuffer) hitList() HitList {
	n := 0
	for _, b := range zb.body {
		if b >= 0 {
			n++
		}
	}
	hl := HitList{
		Indices: make([]int, 0, n),
		Depths:  make([]float32, 0, n),
		Bodies:  make([]int, 0, n),
	}
	for i, b := range zb.body {
		if b < 0 {
			continue
		}
		hl.Indices = append(hl.Indices, i)
		hl.Depths = append(hl.Depths, float32(zb.depth[i]))
		hl.Bodies = append(hl.Bodies, b)
	}
	return hl
}
