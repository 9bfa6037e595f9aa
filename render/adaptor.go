package render

import (
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"go.viam.com/posetrack/spatialmath"
)

// PoseAdaptor derives one pose per body, in body order, from a state of type S.
type PoseAdaptor[S any] interface {
	PosesFor(state S) ([]spatialmath.Pose, error)
}

// RigidBodies is a state that can report each body's orientation as a rotation matrix and its
// position.
type RigidBodies interface {
	BodyCount() int
	RotationMatrix(i int) (spatialmath.RotationMatrix, error)
	Position(i int) (r3.Vector, error)
}

// RigidBodiesAdaptor reads the rotation matrix and position of each body of a RigidBodies.
type RigidBodiesAdaptor struct{}

// PosesFor returns the poses of bodies 0 to BodyCount()-1.
func (RigidBodiesAdaptor) PosesFor(state RigidBodies) ([]spatialmath.Pose, error) {
	if state == nil {
		return nil, errors.New("nil rigid body state")
	}
	poses := make([]spatialmath.Pose, state.BodyCount())
	for i := range poses {
		rot, err := state.RotationMatrix(i)
		if err != nil {
			return nil, errors.Wrapf(err, "body %d orientation", i)
		}
		pos, err := state.Position(i)
		if err != nil {
			return nil, errors.Wrapf(err, "body %d position", i)
		}
		poses[i] = spatialmath.NewPose(rot, pos)
	}
	return poses, nil
}

// PoseSetAdaptor passes a pose list through unchanged.
type PoseSetAdaptor struct{}

// PosesFor returns a copy of poses.
func (PoseSetAdaptor) PosesFor(poses []spatialmath.Pose) ([]spatialmath.Pose, error) {
	return append([]spatialmath.Pose(nil), poses...), nil
}

// RenderState poses the renderer's bodies from state and renders with the stored parameters.
func RenderState[S any](r *Renderer, adaptor PoseAdaptor[S], state S) (DepthImage, error) {
	poses, err := adaptor.PosesFor(state)
	if err != nil {
		return nil, err
	}
	if err := r.SetPoseSet(poses); err != nil {
		return nil, err
	}
	return r.Render()
}

// RenderStateVector is RenderState followed by ToVector with the given bad value.
func RenderStateVector[S any, T Float](r *Renderer, adaptor PoseAdaptor[S], state S, bad T) ([]T, error) {
	img, err := RenderState(r, adaptor, state)
	if err != nil {
		return nil, err
	}
	return ToVector(img, bad), nil
}
