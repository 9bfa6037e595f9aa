// Package render predicts the depth image a camera would see of a set of posed rigid meshes.
//
// A Renderer holds the reference geometry, one pose per body and optionally the camera
// intrinsics. Renders resolve, per pixel, the nearest intersection of the pixel's viewing ray with
// every posed triangle. A Renderer is not safe for concurrent use; Pool hands out one per worker.
package render

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"go.viam.com/posetrack/logging"
	"go.viam.com/posetrack/spatialmath"
)

// posedBody is a body's geometry moved by its current pose.
type posedBody struct {
	pose     spatialmath.Pose
	vertices []r3.Vector
	normals  []r3.Vector
	centroid r3.Vector
}

// Renderer renders depth images of the bodies in a GeometryStore.
type Renderer struct {
	geometry *GeometryStore
	logger   logging.Logger

	poses []spatialmath.Pose

	posed        []posedBody
	posedVersion uint64

	camera *camera
}

// NewRenderer returns a renderer with every body at the identity pose and no intrinsics. Render
// fails until SetParameters is called; RenderDepth and RenderHits work right away.
func NewRenderer(geometry *GeometryStore, logger logging.Logger) *Renderer {
	if geometry == nil {
		geometry = &GeometryStore{}
	}
	r := &Renderer{
		geometry: geometry,
		logger:   logger,
		poses:    make([]spatialmath.Pose, geometry.BodyCount()),
	}
	for i := range r.poses {
		r.poses[i] = spatialmath.NewZeroPose()
	}
	r.refresh(true)
	logger.Debugw("renderer created", "bodies", geometry.BodyCount(), "triangles", geometry.TriangleCount())
	return r
}

// NewRendererWithCamera returns a renderer with intrinsics already set.
func NewRendererWithCamera(
	geometry *GeometryStore,
	cameraMatrix mat.Matrix,
	rows, cols int,
	logger logging.Logger,
) (*Renderer, error) {
	cam, err := newCamera(cameraMatrix, rows, cols)
	if err != nil {
		return nil, err
	}
	r := NewRenderer(geometry, logger)
	r.camera = cam
	return r, nil
}

// Geometry returns the store the renderer draws from.
func (r *Renderer) Geometry() *GeometryStore {
	return r.geometry
}

// SetPoseSet replaces every body's pose. The list must have one pose per body, in body order;
// otherwise nothing changes.
func (r *Renderer) SetPoseSet(poses []spatialmath.Pose) error {
	if len(poses) != r.geometry.BodyCount() {
		return NewPoseCountError(len(poses), r.geometry.BodyCount())
	}
	copy(r.poses, poses)
	r.refresh(false)
	return nil
}

// SetPoses replaces every body's pose from parallel rotation and translation lists.
func (r *Renderer) SetPoses(rotations []spatialmath.RotationMatrix, translations []r3.Vector) error {
	if len(rotations) != len(translations) {
		return errors.Wrapf(ErrPoseCount, "%d rotations but %d translations", len(rotations), len(translations))
	}
	poses := make([]spatialmath.Pose, len(rotations))
	for i := range rotations {
		poses[i] = spatialmath.NewPose(rotations[i], translations[i])
	}
	return r.SetPoseSet(poses)
}

// SetAffinePoses replaces every body's pose from 4x4 homogeneous transforms.
func (r *Renderer) SetAffinePoses(transforms []mgl64.Mat4) error {
	poses := make([]spatialmath.Pose, len(transforms))
	for i, m := range transforms {
		poses[i] = spatialmath.NewPoseFromAffine(m)
	}
	return r.SetPoseSet(poses)
}

// Poses returns a copy of the current poses.
func (r *Renderer) Poses() []spatialmath.Pose {
	return append([]spatialmath.Pose(nil), r.poses...)
}

// PosedCentroids returns every body's cached centroid moved by its current pose.
func (r *Renderer) PosedCentroids() []r3.Vector {
	r.refresh(false)
	out := make([]r3.Vector, len(r.posed))
	for i, p := range r.posed {
		out[i] = p.centroid
	}
	return out
}

// SetParameters stores the intrinsics and resolution Render uses. On error the previous ones
// are kept.
func (r *Renderer) SetParameters(cameraMatrix mat.Matrix, rows, cols int) error {
	cam, err := newCamera(cameraMatrix, rows, cols)
	if err != nil {
		return err
	}
	r.camera = cam
	r.logger.Debugw("camera parameters set", "rows", rows, "cols", cols)
	return nil
}

// Parameters returns a copy of the stored camera matrix and the resolution. ok is false if none
// have been set.
func (r *Renderer) Parameters() (cameraMatrix *mat.Dense, rows, cols int, ok bool) {
	if r.camera == nil {
		return nil, 0, 0, false
	}
	return mat.DenseCopyOf(r.camera.k), r.camera.rows, r.camera.cols, true
}

// Render renders a dense depth image with the stored parameters.
func (r *Renderer) Render() (DepthImage, error) {
	if r.camera == nil {
		return nil, ErrNoParameters
	}
	r.refresh(false)
	return r.rasterize(r.camera).depthImage(), nil
}

// RenderHits renders with the given intrinsics and returns only the pixels that hit something.
// The stored parameters are not changed.
func (r *Renderer) RenderHits(cameraMatrix mat.Matrix, rows, cols int) (HitList, error) {
	cam, err := newCamera(cameraMatrix, rows, cols)
	if err != nil {
		return HitList{}, err
	}
	r.refresh(false)
	return r.rasterize(cam).hitList(), nil
}

// RenderDepth renders a dense depth image with the given intrinsics. The stored parameters are
// not changed.
func (r *Renderer) RenderDepth(cameraMatrix mat.Matrix, rows, cols int) (DepthImage, error) {
	cam, err := newCamera(cameraMatrix, rows, cols)
	if err != nil {
		return nil, err
	}
	r.refresh(false)
	return r.rasterize(cam).depthImage(), nil
}

// refresh brings the posed geometry in line with the poses. Bodies whose pose did not change
// since the last refresh are skipped unless the geometry itself changed.
func (r *Renderer) refresh(force bool) {
	if r.posedVersion != r.geometry.version || len(r.posed) != len(r.geometry.bodies) {
		force = true
		r.posed = make([]posedBody, len(r.geometry.bodies))
		r.posedVersion = r.geometry.version
	}
	for i := range r.geometry.bodies {
		if !force && r.posed[i].pose == r.poses[i] && r.posed[i].vertices != nil {
			continue
		}
		r.posed[i] = poseBody(&r.geometry.bodies[i], r.poses[i])
	}
}

func poseBody(b *body, pose spatialmath.Pose) posedBody {
	posed := posedBody{
		pose:     pose,
		vertices: make([]r3.Vector, len(b.vertices)),
		normals:  make([]r3.Vector, len(b.normals)),
		centroid: pose.Apply(b.centroid),
	}
	for i, v := range b.vertices {
		posed.vertices[i] = pose.Apply(v)
	}
	for i, n := range b.normals {
		posed.normals[i] = pose.Rotation.Mul(n)
	}
	return posed
}
