package render

import (
	"math"
	"testing"

	"go.viam.com/test"
)

func TestNoIntersection(t *testing.T) {
	test.That(t, math.IsInf(float64(NoIntersection()), 1), test.ShouldBeTrue)
	test.That(t, IsNoIntersection(NoIntersection()), test.ShouldBeTrue)
	test.That(t, IsNoIntersection(float32(math.MaxFloat32)), test.ShouldBeFalse)
	test.That(t, IsNoIntersection(float32(math.Inf(-1))), test.ShouldBeFalse)

	// Writing into an image never changes the sentinel handed to the next image.
	img := HitList{Indices: []int{1}, Depths: []float32{2}, Bodies: []int{0}}.DepthImage(3)
	img[0] = 7
	test.That(t, IsNoIntersection(img[2]), test.ShouldBeTrue)
	test.That(t, img.Hits(), test.ShouldEqual, 2)
	test.That(t, NoIntersection(), test.ShouldEqual, float32(math.Inf(1)))
}
