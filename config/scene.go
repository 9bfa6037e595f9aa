// Package config reads scene files: the camera, the bodies and their initial state.
package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"path/filepath"
	"strings"

	"github.com/a8m/envsubst"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"go.uber.org/multierr"
	"gonum.org/v1/gonum/mat"
	"go.viam.com/utils"
	"gopkg.in/yaml.v3"

	"go.viam.com/posetrack/logging"
	"go.viam.com/posetrack/render"
	"go.viam.com/posetrack/rimage/transform"
	"go.viam.com/posetrack/spatialmath"
	"go.viam.com/posetrack/state"
)

// A Scene describes the depth camera and the rigid bodies it observes.
type Scene struct {
	// ConfigFilePath is where the scene was read from. Relative mesh paths resolve against it.
	ConfigFilePath string `json:"-" yaml:"-"`

	Intrinsics *transform.PinholeCameraIntrinsics `json:"intrinsics" yaml:"intrinsics"`
	BadValue   *float64                           `json:"bad_value,omitempty" yaml:"bad_value,omitempty"`
	Bodies     []Body                             `json:"bodies" yaml:"bodies"`
}

// A Body is one rigid body of a scene. Orientation is a quaternion in x, y, z, w order; empty
// vectors mean zero, or the identity for the orientation.
type Body struct {
	Name            string    `json:"name" yaml:"name"`
	Mesh            string    `json:"mesh" yaml:"mesh"`
	Position        []float64 `json:"position,omitempty" yaml:"position,omitempty"`
	Orientation     []float64 `json:"orientation,omitempty" yaml:"orientation,omitempty"`
	LinearVelocity  []float64 `json:"linear_velocity,omitempty" yaml:"linear_velocity,omitempty"`
	AngularVelocity []float64 `json:"angular_velocity,omitempty" yaml:"angular_velocity,omitempty"`
}

// ReadScene reads a scene from the given file. Environment variables in the file are expanded.
func ReadScene(filePath string, logger logging.Logger) (*Scene, error) {
	buf, err := envsubst.ReadFile(filePath)
	if err != nil {
		return nil, err
	}
	return SceneFromReader(filePath, bytes.NewReader(buf), logger)
}

// SceneFromReader reads a scene from r. originalPath picks the format, YAML for .yaml and .yml
// and JSON otherwise, and is the base for relative mesh paths.
func SceneFromReader(originalPath string, r io.Reader, logger logging.Logger) (*Scene, error) {
	scene := &Scene{}
	switch strings.ToLower(filepath.Ext(originalPath)) {
	case ".yaml", ".yml":
		if err := yaml.NewDecoder(r).Decode(scene); err != nil {
			return nil, errors.Wrap(err, "failed to decode scene from yaml")
		}
	default:
		if err := json.NewDecoder(r).Decode(scene); err != nil {
			return nil, errors.Wrap(err, "failed to decode scene from json")
		}
	}
	scene.ConfigFilePath = originalPath
	if err := scene.Validate("scene"); err != nil {
		return nil, err
	}
	logger.Debugw("scene loaded", "path", originalPath, "bodies", len(scene.Bodies))
	return scene, nil
}

// Validate checks the scene and reports every problem found.
func (s *Scene) Validate(path string) error {
	var errs error
	if err := s.Intrinsics.CheckValid(); err != nil {
		errs = multierr.Append(errs, utils.NewConfigValidationError(path+".intrinsics", err))
	}
	if s.BadValue != nil && math.IsNaN(*s.BadValue) {
		errs = multierr.Append(errs, utils.NewConfigValidationError(path, errors.New("bad_value cannot be NaN")))
	}
	for idx, body := range s.Bodies {
		errs = multierr.Append(errs, body.Validate(fmt.Sprintf("%s.bodies.%d", path, idx)))
	}
	names := lo.Map(s.Bodies, func(b Body, _ int) string { return b.Name })
	for _, dup := range lo.FindDuplicates(names) {
		errs = multierr.Append(errs, utils.NewConfigValidationError(path+".bodies", errors.Errorf("duplicate body name %q", dup)))
	}
	return errs
}

// Validate checks a single body.
func (b *Body) Validate(path string) error {
	var errs error
	if b.Name == "" {
		errs = multierr.Append(errs, utils.NewConfigValidationFieldRequiredError(path, "name"))
	}
	if b.Mesh == "" {
		errs = multierr.Append(errs, utils.NewConfigValidationFieldRequiredError(path, "mesh"))
	}
	for _, field := range []struct {
		name   string
		values []float64
		size   int
	}{
		{"position", b.Position, 3},
		{"orientation", b.Orientation, 4},
		{"linear_velocity", b.LinearVelocity, 3},
		{"angular_velocity", b.AngularVelocity, 3},
	} {
		if len(field.values) == 0 {
			continue
		}
		if len(field.values) != field.size {
			errs = multierr.Append(errs, utils.NewConfigValidationError(path,
				errors.Errorf("%s must have %d values, got %d", field.name, field.size, len(field.values))))
			continue
		}
		if lo.SomeBy(field.values, func(v float64) bool { return math.IsNaN(v) || math.IsInf(v, 0) }) {
			errs = multierr.Append(errs, utils.NewConfigValidationError(path,
				errors.Errorf("%s has a non-finite value", field.name)))
		}
	}
	return errs
}

// MeshPath returns the body's mesh path, resolved against the scene file's directory when relative.
func (s *Scene) MeshPath(b Body) string {
	if filepath.IsAbs(b.Mesh) || s.ConfigFilePath == "" {
		return b.Mesh
	}
	return filepath.Join(filepath.Dir(s.ConfigFilePath), b.Mesh)
}

// LoadMeshes reads every body's PLY mesh into a geometry store, in body order.
func (s *Scene) LoadMeshes() (*render.GeometryStore, error) {
	meshes := make([]*spatialmath.Mesh, 0, len(s.Bodies))
	for _, b := range s.Bodies {
		m, err := spatialmath.NewMeshFromPLYFile(s.MeshPath(b))
		if err != nil {
			return nil, errors.Wrapf(err, "body %q", b.Name)
		}
		meshes = append(meshes, m)
	}
	return render.NewGeometryStoreFromMeshes(meshes...)
}

// ToState builds the packed state of the scene's bodies, in body order.
func (s *Scene) ToState() (*state.MultiBodyState, error) {
	st, err := state.New(len(s.Bodies))
	if err != nil {
		return nil, err
	}
	for i, b := range s.Bodies {
		body, err := st.BodyView(i)
		if err != nil {
			return nil, err
		}
		if len(b.Position) == 3 {
			body.Position().Set(toVector(b.Position))
		}
		if len(b.Orientation) == 4 {
			body.Orientation().SetCoefficients([4]float64(b.Orientation))
		}
		if len(b.LinearVelocity) == 3 {
			body.LinearVelocity().Set(toVector(b.LinearVelocity))
		}
		if len(b.AngularVelocity) == 3 {
			body.AngularVelocity().Set(toVector(b.AngularVelocity))
		}
	}
	return st, nil
}

// CameraMatrix returns the intrinsics as a camera matrix with the image's rows and columns.
func (s *Scene) CameraMatrix() (*mat.Dense, int, int, error) {
	if err := s.Intrinsics.CheckValid(); err != nil {
		return nil, 0, 0, err
	}
	return s.Intrinsics.CameraMatrix(), s.Intrinsics.Height, s.Intrinsics.Width, nil
}

// BadValueOrDefault returns the configured bad value, or +Inf.
func (s *Scene) BadValueOrDefault() float64 {
	if s.BadValue == nil {
		return render.DefaultBadValue[float64]()
	}
	return *s.BadValue
}

func toVector(v []float64) r3.Vector {
	return r3.Vector{X: v[0], Y: v[1], Z: v[2]}
}
