package transform

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"go.viam.com/test"
	"gonum.org/v1/gonum/mat"

	"go.viam.com/posetrack/rimage"
)

func testIntrinsics() *PinholeCameraIntrinsics {
	return &PinholeCameraIntrinsics{Width: 4, Height: 3, Fx: 2, Fy: 2, Ppx: 1.5, Ppy: 1}
}

func TestCheckValid(t *testing.T) {
	var nilParams *PinholeCameraIntrinsics
	test.That(t, errors.Is(nilParams.CheckValid(), ErrNoIntrinsics), test.ShouldBeTrue)

	test.That(t, testIntrinsics().CheckValid(), test.ShouldBeNil)

	for _, mutate := range []func(p *PinholeCameraIntrinsics){
		func(p *PinholeCameraIntrinsics) { p.Width = 0 },
		func(p *PinholeCameraIntrinsics) { p.Height = -1 },
		func(p *PinholeCameraIntrinsics) { p.Fx = 0 },
		func(p *PinholeCameraIntrinsics) { p.Fy = -2 },
		func(p *PinholeCameraIntrinsics) { p.Ppx = -1 },
		func(p *PinholeCameraIntrinsics) { p.Ppy = -1 },
	} {
		params := testIntrinsics()
		mutate(params)
		err := params.CheckValid()
		test.That(t, err, test.ShouldNotBeNil)
		test.That(t, errors.Is(err, ErrNoIntrinsics), test.ShouldBeTrue)
	}
}

func TestCameraMatrixRoundTrip(t *testing.T) {
	params := testIntrinsics()
	k := params.CameraMatrix()
	test.That(t, mat.Equal(k, mat.NewDense(3, 3, []float64{
		2, 0, 1.5,
		0, 2, 1,
		0, 0, 1,
	})), test.ShouldBeTrue)

	back, err := NewPinholeCameraIntrinsicsFromCameraMatrix(k, 4, 3)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, back, test.ShouldResemble, params)

	skewed := mat.DenseCopyOf(k)
	skewed.Set(0, 1, 0.1)
	_, err = NewPinholeCameraIntrinsicsFromCameraMatrix(skewed, 4, 3)
	test.That(t, err, test.ShouldNotBeNil)

	_, err = NewPinholeCameraIntrinsicsFromCameraMatrix(mat.NewDense(2, 2, nil), 4, 3)
	test.That(t, err, test.ShouldNotBeNil)

	_, err = NewPinholeCameraIntrinsicsFromCameraMatrix(k, 0, 3)
	test.That(t, errors.Is(err, ErrNoIntrinsics), test.ShouldBeTrue)

	var nilParams *PinholeCameraIntrinsics
	test.That(t, nilParams.CameraMatrix(), test.ShouldBeNil)
}

func TestPixelPointProjection(t *testing.T) {
	params := testIntrinsics()
	x, y, z := params.PixelToPoint(3.5, 3, 2)
	test.That(t, x, test.ShouldAlmostEqual, 2.)
	test.That(t, y, test.ShouldAlmostEqual, 2.)
	test.That(t, z, test.ShouldEqual, 2.)

	u, v := params.PointToPixel(x, y, z)
	test.That(t, u, test.ShouldEqual, 4.)
	test.That(t, v, test.ShouldEqual, 3.)

	u, v = params.PointToPixel(1, 1, 0)
	test.That(t, u, test.ShouldEqual, -1.)
	test.That(t, v, test.ShouldEqual, -1.)
}

func TestIntrinsicsFromJSONFile(t *testing.T) {
	fn := filepath.Join(t.TempDir(), "intrinsics.json")
	err := os.WriteFile(fn, []byte(`{"width_px": 4, "height_px": 3, "fx": 2, "fy": 2, "ppx": 1.5, "ppy": 1}`), 0o600)
	test.That(t, err, test.ShouldBeNil)

	params, err := NewPinholeCameraIntrinsicsFromJSONFile(fn)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, params, test.ShouldResemble, testIntrinsics())

	_, err = NewPinholeCameraIntrinsicsFromJSONFile(filepath.Join(t.TempDir(), "missing.json"))
	test.That(t, err, test.ShouldNotBeNil)

	test.That(t, os.WriteFile(fn, []byte(`{"width_px": `), 0o600), test.ShouldBeNil)
	_, err = NewPinholeCameraIntrinsicsFromJSONFile(fn)
	test.That(t, err, test.ShouldNotBeNil)
}

func TestBackProjection(t *testing.T) {
	params := testIntrinsics()
	dm := rimage.NewEmptyDepthMap(4, 3)
	dm.Set(1, 1, 2000)

	pc, err := params.DepthMapToPointCloud(dm)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, pc.Size(), test.ShouldEqual, 1)
	_, got := pc.At(-0.5, 0, 2)
	test.That(t, got, test.ShouldBeTrue)

	_, err = params.DepthMapToPointCloud(rimage.NewEmptyDepthMap(3, 3))
	test.That(t, err, test.ShouldNotBeNil)
	_, err = params.DepthMapToPointCloud(nil)
	test.That(t, err, test.ShouldNotBeNil)

	// pixel 5 is column 1, row 1
	pc, err = params.PixelsToPointCloud([]int{5, 11}, []float32{2, float32(math.Inf(1))}, []int{7, 0})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, pc.Size(), test.ShouldEqual, 1)
	d, got := pc.At(-0.5, 0, 2)
	test.That(t, got, test.ShouldBeTrue)
	test.That(t, d.Value(), test.ShouldEqual, 7)
	test.That(t, pc.MetaData().HasColor, test.ShouldBeTrue)

	_, err = params.PixelsToPointCloud([]int{12}, []float32{1}, nil)
	test.That(t, err, test.ShouldNotBeNil)
	_, err = params.PixelsToPointCloud([]int{1, 2}, []float32{1}, nil)
	test.That(t, err, test.ShouldNotBeNil)
}
