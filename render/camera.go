package render

import (
	"math"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/mat"
)

// camera is a validated intrinsic matrix with its inverse and the image size.
type camera struct {
	k    *mat.Dense
	kInv *mat.Dense
	rows int
	cols int
}

func newCamera(k mat.Matrix, rows, cols int) (*camera, error) {
	if k == nil {
		return nil, NewCameraError("nil camera matrix")
	}
	if r, c := k.Dims(); r != 3 || c != 3 {
		return nil, NewCameraError("matrix must be 3x3, got %dx%d", r, c)
	}
	if rows <= 0 || cols <= 0 {
		return nil, NewCameraError("resolution must be positive, got %d rows and %d cols", rows, cols)
	}
	dense := mat.DenseCopyOf(k)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			if v := dense.At(i, j); math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, NewCameraError("non-finite entry %v at (%d, %d)", v, i, j)
			}
		}
	}
	var inv mat.Dense
	if err := inv.Inverse(dense); err != nil {
		return nil, NewCameraError("matrix is not invertible: %v", err)
	}
	return &camera{k: dense, kInv: &inv, rows: rows, cols: cols}, nil
}

// ray returns the direction K^-1 (col, row, 1) of the pixel's viewing ray.
func (c *camera) ray(row, col int) r3.Vector {
	u, v := float64(col), float64(row)
	return r3.Vector{
		X: c.kInv.At(0, 0)*u + c.kInv.At(0, 1)*v + c.kInv.At(0, 2),
		Y: c.kInv.At(1, 0)*u + c.kInv.At(1, 1)*v + c.kInv.At(1, 2),
		Z: c.kInv.At(2, 0)*u + c.kInv.At(2, 1)*v + c.kInv.At(2, 2),
	}
}

// project maps a camera frame point to pixel coordinates. ok is false when the point is not in
// front of the image plane, in which case the coordinates are meaningless.
func (c *camera) project(p r3.Vector) (u, v float64, ok bool) {
	x := c.k.At(0, 0)*p.X + c.k.At(0, 1)*p.Y + c.k.At(0, 2)*p.Z
	y := c.k.At(1, 0)*p.X + c.k.At(1, 1)*p.Y + c.k.At(1, 2)*p.Z
	w := c.k.At(2, 0)*p.X + c.k.At(2, 1)*p.Y + c.k.At(2, 2)*p.Z
	if !(w > 0) {
		return 0, 0, false
	}
	return x / w, y / w, true
}

func (c *camera) pixels() int {
	return c.rows * c.cols
}
