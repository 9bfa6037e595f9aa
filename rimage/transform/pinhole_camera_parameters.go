// Package transform holds pinhole camera models used to render and back-project depth images.
package transform

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"gonum.org/v1/gonum/mat"

	"go.viam.com/posetrack/pointcloud"
	"go.viam.com/posetrack/rimage"
)

// ErrNoIntrinsics is when a camera does not have intrinsics parameters or other parameters.
var ErrNoIntrinsics = errors.New("camera intrinsic parameters are not available")

// NewNoIntrinsicsError is used when the intriniscs are not defined.
func NewNoIntrinsicsError(msg string) error {
	return errors.Wrap(ErrNoIntrinsics, msg)
}

// PinholeCameraIntrinsics holds the parameters necessary to do a perspective projection of a 3D scene to the 2D plane.
type PinholeCameraIntrinsics struct {
	Width  int     `json:"width_px" yaml:"width_px"`
	Height int     `json:"height_px" yaml:"height_px"`
	Fx     float64 `json:"fx" yaml:"fx"`
	Fy     float64 `json:"fy" yaml:"fy"`
	Ppx    float64 `json:"ppx" yaml:"ppx"`
	Ppy    float64 `json:"ppy" yaml:"ppy"`
}

// CheckValid checks if the fields for PinholeCameraIntrinsics have valid inputs.
func (params *PinholeCameraIntrinsics) CheckValid() error {
	if params == nil {
		return NewNoIntrinsicsError("Intrinsics do not exist")
	}
	if params.Width <= 0 || params.Height <= 0 {
		return NewNoIntrinsicsError(fmt.Sprintf("Invalid size (%#v, %#v)", params.Width, params.Height))
	}
	if params.Fx <= 0 {
		return NewNoIntrinsicsError(fmt.Sprintf("Invalid focal length Fx = %#v", params.Fx))
	}
	if params.Fy <= 0 {
		return NewNoIntrinsicsError(fmt.Sprintf("Invalid focal length Fy = %#v", params.Fy))
	}
	if params.Ppx < 0 {
		return NewNoIntrinsicsError(fmt.Sprintf("Invalid principal X point Ppx = %#v", params.Ppx))
	}
	if params.Ppy < 0 {
		return NewNoIntrinsicsError(fmt.Sprintf("Invalid principal Y point Ppy = %#v", params.Ppy))
	}
	return nil
}

// NewPinholeCameraIntrinsicsFromJSONFile takes in a file path to a JSON and turns it into PinholeCameraIntrinsics.
func NewPinholeCameraIntrinsicsFromJSONFile(jsonPath string) (intrinsics *PinholeCameraIntrinsics, err error) {
	//nolint:gosec
	jsonFile, err := os.Open(jsonPath)
	if err != nil {
		return nil, errors.Wrap(err, "error opening JSON file")
	}
	defer func() {
		err = multierr.Combine(err, jsonFile.Close())
	}()
	byteValue, err := io.ReadAll(jsonFile)
	if err != nil {
		return nil, errors.Wrap(err, "error reading JSON data")
	}
	intrinsics = &PinholeCameraIntrinsics{}
	if err := json.Unmarshal(byteValue, intrinsics); err != nil {
		return nil, errors.Wrap(err, "error parsing JSON string")
	}
	return intrinsics, nil
}

// NewPinholeCameraIntrinsicsFromCameraMatrix reads fx, fy, ppx and ppy out of a 3x3 camera matrix.
// Only skew free matrices with a last row of (0, 0, 1) describe a pinhole camera.
func NewPinholeCameraIntrinsicsFromCameraMatrix(k mat.Matrix, width, height int) (*PinholeCameraIntrinsics, error) {
	if k == nil {
		return nil, NewNoIntrinsicsError("camera matrix is nil")
	}
	if r, c := k.Dims(); r != 3 || c != 3 {
		return nil, errors.Errorf("camera matrix must be 3x3, got %dx%d", r, c)
	}
	if k.At(0, 1) != 0 || k.At(1, 0) != 0 || k.At(2, 0) != 0 || k.At(2, 1) != 0 || k.At(2, 2) != 1 {
		return nil, errors.Errorf("camera matrix is not a skew free pinhole model: %v", mat.Formatted(k, mat.Squeeze()))
	}
	params := &PinholeCameraIntrinsics{
		Width:  width,
		Height: height,
		Fx:     k.At(0, 0),
		Fy:     k.At(1, 1),
		Ppx:    k.At(0, 2),
		Ppy:    k.At(1, 2),
	}
	if err := params.CheckValid(); err != nil {
		return nil, err
	}
	return params, nil
}

// PixelToPoint transforms a pixel with depth to a 3D point cloud.
// The intrinsics parameters should be the ones of the sensor used to obtain the image that
// contains the pixel.
func (params *PinholeCameraIntrinsics) PixelToPoint(x, y, z float64) (float64, float64, float64) {
	if params == nil {
		return float64(0), float64(0), float64(0)
	}
	xOverZ := (x - params.Ppx) / params.Fx
	yOverZ := (y - params.Ppy) / params.Fy
	// get x and y
	xm := xOverZ * z
	ym := yOverZ * z
	return xm, ym, z
}

// PointToPixel projects a 3D point to a pixel in an image plane.
// The intrinsics parameters should be the ones of the sensor we want to project to.
func (params *PinholeCameraIntrinsics) PointToPixel(x, y, z float64) (float64, float64) {
	if z != 0. {
		xPx := math.Round((x/z)*params.Fx + params.Ppx)
		yPx := math.Round((y/z)*params.Fy + params.Ppy)
		return xPx, yPx
	}
	// if depth is zero at this pixel, return negative coordinates so that the cropping to image bounds will filter it out
	return -1.0, -1.0
}

// CameraMatrix creates a new camera matrix and returns it.
// Camera matrix:
// [[fx 0 ppx],
//
//	[0 fy ppy],
//	[0 0  1]]
func (params *PinholeCameraIntrinsics) CameraMatrix() *mat.Dense {
	if params == nil {
		return nil
	}
	cameraMatrix := mat.NewDense(3, 3, nil)
	cameraMatrix.Set(0, 0, params.Fx)
	cameraMatrix.Set(1, 1, params.Fy)
	cameraMatrix.Set(0, 2, params.Ppx)
	cameraMatrix.Set(1, 2, params.Ppy)
	cameraMatrix.Set(2, 2, 1)
	return cameraMatrix
}

// DepthMapToPointCloud back-projects every non-zero pixel of a mm depth map into a cloud in meters.
func (params *PinholeCameraIntrinsics) DepthMapToPointCloud(dm *rimage.DepthMap) (pointcloud.PointCloud, error) {
	if err := params.CheckValid(); err != nil {
		return nil, err
	}
	if dm == nil {
		return nil, errors.New("no depth channel. Cannot project to Pointcloud")
	}
	if params.Width != dm.Width() || params.Height != dm.Height() {
		return nil, errors.Errorf("depth map and intrinsics dimensions don't match Depth(%d,%d) != Intrinsics(%d,%d)",
			dm.Width(), dm.Height(), params.Width, params.Height)
	}
	pc := pointcloud.NewWithPrealloc(dm.Width() * dm.Height())
	for y := 0; y < dm.Height(); y++ {
		for x := 0; x < dm.Width(); x++ {
			z := dm.GetDepth(x, y)
			if z == 0 {
				continue
			}
			px, py, pz := params.PixelToPoint(float64(x), float64(y), float64(z)/1000.)
			if err := pc.Set(pointcloud.NewVector(px, py, pz), pointcloud.NewBasicData()); err != nil {
				return nil, err
			}
		}
	}
	return pc, nil
}

// PixelsToPointCloud back-projects sparse hits, given as row-major pixel indices with their depth,
// into a cloud. When labels is non-nil each point carries its label and the label's color.
func (params *PinholeCameraIntrinsics) PixelsToPointCloud(
	indices []int, depths []float32, labels []int,
) (pointcloud.PointCloud, error) {
	if err := params.CheckValid(); err != nil {
		return nil, err
	}
	if len(indices) != len(depths) || (labels != nil && len(labels) != len(indices)) {
		return nil, errors.Errorf("mismatched hit arrays: %d indices, %d depths, %d labels",
			len(indices), len(depths), len(labels))
	}
	pc := pointcloud.NewWithPrealloc(len(indices))
	for i, idx := range indices {
		if idx < 0 || idx >= params.Width*params.Height {
			return nil, errors.Errorf("pixel index %d outside a %dx%d image", idx, params.Width, params.Height)
		}
		z := float64(depths[i])
		if math.IsNaN(z) || math.IsInf(z, 0) {
			continue
		}
		px, py, pz := params.PixelToPoint(float64(idx%params.Width), float64(idx/params.Width), z)
		var d pointcloud.Data
		if labels != nil {
			d = pointcloud.NewLabeledData(labels[i], pointcloud.LabelColor(labels[i]))
		} else {
			d = pointcloud.NewBasicData()
		}
		if err := pc.Set(r3.Vector{px, py, pz}, d); err != nil {
			return nil, err
		}
	}
	return pc, nil
}
