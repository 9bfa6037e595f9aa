package render

import (
	"math"
)

// NoIntersection returns the depth of a pixel whose ray hit nothing, +Inf.
func NoIntersection() float32 {
	return float32(math.Inf(1))
}

// IsNoIntersection reports whether d is the no intersection depth.
func IsNoIntersection(d float32) bool {
	return math.IsInf(float64(d), 1)
}

// DepthImage is a row-major depth image: pixel (row, col) is at row*cols + col. Every value is a
// finite positive depth or NoIntersection.
type DepthImage []float32

// Hits returns how many pixels have a finite depth.
func (img DepthImage) Hits() int {
	n := 0
	for _, d := range img {
		if !IsNoIntersection(d) {
			n++
		}
	}
	return n
}

// HitList is the sparse form of a render: one entry per pixel that hit a body, in increasing
// pixel index order. The three slices always have the same length.
type HitList struct {
	Indices []int
	Depths  []float32
	// Bodies holds the index of the body each pixel hit.
	Bodies []int
}

// Len returns the number of hits.
func (hl HitList) Len() int {
	return len(hl.Indices)
}

// DepthImage expands the hit list into a dense image with the given number of pixels.
func (hl HitList) DepthImage(pixels int) DepthImage {
	img := make(DepthImage, pixels)
	for i := range img {
		img[i] = NoIntersection()
	}
	for i, idx := range hl.Indices {
		if idx >= 0 && idx < pixels {
			img[idx] = hl.Depths[i]
		}
	}
	return img
}
