package main

import (
	"os"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"go.uber.org/multierr"
	"gonum.org/v1/gonum/num/quat"

	"go.viam.com/posetrack/config"
	"go.viam.com/posetrack/logging"
	"go.viam.com/posetrack/pointcloud"
	"go.viam.com/posetrack/render"
	"go.viam.com/posetrack/rimage"
	"go.viam.com/posetrack/spatialmath"
	"go.viam.com/posetrack/state"
)

type loadedScene struct {
	scene    *config.Scene
	geometry *render.GeometryStore
	state    *state.MultiBodyState
}

func loadScene(c *cli.Context, logger logging.Logger) (*loadedScene, error) {
	scene, err := config.ReadScene(c.String(flagScene), logger)
	if err != nil {
		return nil, err
	}
	geometry, err := scene.LoadMeshes()
	if err != nil {
		return nil, err
	}
	st, err := scene.ToState()
	if err != nil {
		return nil, err
	}
	return &loadedScene{scene: scene, geometry: geometry, state: st}, nil
}

func renderAction(c *cli.Context, logger logging.Logger) error {
	loaded, err := loadScene(c, logger)
	if err != nil {
		return err
	}
	k, rows, cols, err := loaded.scene.CameraMatrix()
	if err != nil {
		return err
	}
	r, err := render.NewRendererWithCamera(loaded.geometry, k, rows, cols, logger.Sublogger("renderer"))
	if err != nil {
		return err
	}

	img, err := render.RenderState[render.RigidBodies](r, render.RigidBodiesAdaptor{}, loaded.state)
	if err != nil {
		return err
	}
	dm, err := logDepthStats(logger, img, rows, cols, "command", "render")
	if err != nil {
		return err
	}

	if out := c.String(flagOut); out != "" {
		if err := dm.WriteToPNG(out); err != nil {
			return errors.Wrapf(err, "cannot write %q", out)
		}
		logger.Infow("wrote depth png", "path", out)
	}
	if raw := c.String(flagRaw); raw != "" {
		if err := dm.WriteToFile(raw); err != nil {
			return errors.Wrapf(err, "cannot write %q", raw)
		}
		logger.Infow("wrote raw depth map", "path", raw)
	}
	if pcd := c.String(flagPCD); pcd != "" {
		hits, err := r.RenderHits(k, rows, cols)
		if err != nil {
			return err
		}
		pcdType := pointcloud.PCDAscii
		if c.Bool(flagPCDBinary) {
			pcdType = pointcloud.PCDBinary
		}
		if err := writeHitCloud(loaded.scene, hits, pcd, pcdType); err != nil {
			return errors.Wrapf(err, "cannot write %q", pcd)
		}
		logger.Infow("wrote hit point cloud", "path", pcd, "points", hits.Len())
	}
	return nil
}

func writeHitCloud(scene *config.Scene, hits render.HitList, path string, pcdType pointcloud.PCDType) (err error) {
	pc, err := scene.Intrinsics.PixelsToPointCloud(hits.Indices, hits.Depths, hits.Bodies)
	if err != nil {
		return err
	}
	//nolint:gosec
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Combine(err, f.Close())
	}()
	return pointcloud.ToPCD(pc, f, pcdType)
}

func sweepAction(c *cli.Context, logger logging.Logger) error {
	steps := c.Int(flagSteps)
	if steps <= 0 {
		return errors.Errorf("--%s must be positive, got %d", flagSteps, steps)
	}
	loaded, err := loadScene(c, logger)
	if err != nil {
		return err
	}
	k, rows, cols, err := loaded.scene.CameraMatrix()
	if err != nil {
		return err
	}
	pool, err := render.NewPool(loaded.geometry, k, rows, cols, c.Int(flagWorkers), logger.Sublogger("pool"))
	if err != nil {
		return err
	}

	poseSets := make([][]spatialmath.Pose, 0, steps)
	st := loaded.state.Clone()
	for i := 0; i < steps; i++ {
		poses, err := render.RigidBodiesAdaptor{}.PosesFor(st)
		if err != nil {
			return err
		}
		poseSets = append(poseSets, poses)
		if err := advance(st, c.Float64(flagDT)); err != nil {
			return err
		}
	}

	images, err := pool.RenderAll(c.Context, poseSets)
	if err != nil {
		return err
	}
	for i, img := range images {
		if _, err := logDepthStats(logger, img, rows, cols, "step", i); err != nil {
			return err
		}
	}
	return nil
}

// advance moves every body of st forward by dt at its current velocities. Angular velocity is in
// the world frame.
func advance(st *state.MultiBodyState, dt float64) error {
	for i := 0; i < st.BodyCount(); i++ {
		body, err := st.BodyView(i)
		if err != nil {
			return err
		}
		pos := body.Position()
		pos.Set(pos.Vector().Add(body.LinearVelocity().Vector().Mul(dt)))

		omega := body.AngularVelocity().Vector()
		if omega == (r3.Vector{}) {
			continue
		}
		orientation := body.Orientation()
		step := spatialmath.QuaternionFromEulerVector(omega.Mul(dt))
		orientation.Set(spatialmath.Normalize(quat.Mul(step, orientation.Quaternion())))
	}
	return nil
}

func logDepthStats(
	logger logging.Logger, img render.DepthImage, rows, cols int, keysAndValues ...interface{},
) (*rimage.DepthMap, error) {
	dm, err := rimage.NewDepthMapFromMeters(img, cols, rows)
	if err != nil {
		return nil, err
	}
	stats, err := dm.Stats()
	if err != nil {
		return nil, err
	}
	logger.Infow("depth image",
		append(keysAndValues,
			"hits", img.Hits(),
			"pixels", stats.Total,
			"min_mm", stats.Min,
			"max_mm", stats.Max,
			"mean_mm", stats.Mean,
			"median_mm", stats.Median,
			"stddev_mm", stats.StdDev,
		)...,
	)
	return dm, nil
}
