package render

import (
	"context"
	"errors"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"

	"go.viam.com/posetrack/logging"
	"go.viam.com/posetrack/spatialmath"
)

func poolPoseSets(n int) [][]spatialmath.Pose {
	sets := make([][]spatialmath.Pose, n)
	for i := range sets {
		f := float64(i)
		sets[i] = []spatialmath.Pose{
			spatialmath.NewPoseFromQuaternion(
				spatialmath.QuaternionFromEulerVector(r3.Vector{X: 0.05 * f, Y: -0.03 * f}),
				r3.Vector{X: 0.1 * f, Z: 1 + 0.2*f},
			),
			spatialmath.NewPose(spatialmath.IdentityRotation(), r3.Vector{Y: -0.2, Z: 2 - 0.1*f}),
		}
	}
	return sets
}

func TestPoolMatchesSequential(t *testing.T) {
	logger := logging.NewTestLogger(t)
	verts, tris := bigTriangle(0)
	small := []r3.Vector{{-0.5, -0.5, 0}, {0.5, -0.5, 0}, {0, 0.5, 0}}
	gs, err := NewGeometryStore([][]r3.Vector{verts, small}, [][][]int{tris, {{0, 1, 2}}})
	test.That(t, err, test.ShouldBeNil)

	pool, err := NewPool(gs, testCamera(), testRows, testCols, 3, logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, pool.Size(), test.ShouldEqual, 3)

	sets := poolPoseSets(10)
	images, err := pool.RenderAll(context.Background(), sets)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, len(images), test.ShouldEqual, len(sets))

	sequential, err := NewRendererWithCamera(gs, testCamera(), testRows, testCols, logger)
	test.That(t, err, test.ShouldBeNil)
	for i, poses := range sets {
		test.That(t, sequential.SetPoseSet(poses), test.ShouldBeNil)
		want, err := sequential.Render()
		test.That(t, err, test.ShouldBeNil)
		test.That(t, images[i], test.ShouldResemble, want)
	}

	// the pool's workers render their own copies of the geometry
	test.That(t, gs.ReplaceBody(1, verts, tris), test.ShouldBeNil)
	again, err := pool.RenderAll(context.Background(), sets[:1])
	test.That(t, err, test.ShouldBeNil)
	test.That(t, again[0], test.ShouldResemble, images[0])
}

func TestPoolErrors(t *testing.T) {
	logger := logging.NewTestLogger(t)
	verts, tris := bigTriangle(1)
	gs, err := NewGeometryStore([][]r3.Vector{verts}, [][][]int{tris})
	test.That(t, err, test.ShouldBeNil)

	_, err = NewPool(nil, testCamera(), testRows, testCols, 1, logger)
	test.That(t, errors.Is(err, ErrConfiguration), test.ShouldBeTrue)
	_, err = NewPool(gs, testCamera(), 0, testCols, 1, logger)
	test.That(t, errors.Is(err, ErrConfiguration), test.ShouldBeTrue)

	pool, err := NewPool(gs, testCamera(), testRows, testCols, 0, logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, pool.Size(), test.ShouldBeGreaterThan, 0)

	t.Run("pose count", func(t *testing.T) {
		sets := [][]spatialmath.Pose{{spatialmath.NewZeroPose()}, {}, {spatialmath.NewZeroPose()}}
		_, err := pool.RenderAll(context.Background(), sets)
		test.That(t, errors.Is(err, ErrPoseCount), test.ShouldBeTrue)
		test.That(t, err.Error(), test.ShouldContainSubstring, "pose set 1")
	})

	t.Run("canceled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := pool.RenderAll(ctx, [][]spatialmath.Pose{{spatialmath.NewZeroPose()}})
		test.That(t, errors.Is(err, context.Canceled), test.ShouldBeTrue)
	})

	t.Run("workers returned", func(t *testing.T) {
		images, err := pool.RenderAll(context.Background(), [][]spatialmath.Pose{{spatialmath.NewZeroPose()}})
		test.That(t, err, test.ShouldBeNil)
		test.That(t, len(images), test.ShouldEqual, 1)
		test.That(t, images[0].Hits(), test.ShouldEqual, testRows*testCols)
	})

	images, err := pool.RenderAll(context.Background(), nil)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, len(images), test.ShouldEqual, 0)
}
