package render

import (
	"context"

	"github.com/pkg/errors"
	"github.com/samber/lo"
	"gonum.org/v1/gonum/mat"

	"go.viam.com/posetrack/logging"
	"go.viam.com/posetrack/spatialmath"
	"go.viam.com/posetrack/utils"
)

// Pool renders many pose sets in parallel. Each worker owns a Renderer over its own copy of the
// geometry, so no renderer is ever shared between goroutines.
type Pool struct {
	workers chan *Renderer
	size    int
	logger  logging.Logger
}

// NewPool creates size workers with the given intrinsics. A non-positive size uses
// utils.ParallelFactor workers.
func NewPool(
	geometry *GeometryStore,
	cameraMatrix mat.Matrix,
	rows, cols, size int,
	logger logging.Logger,
) (*Pool, error) {
	if geometry == nil {
		return nil, errors.Wrap(ErrInvalidGeometry, "nil geometry store")
	}
	if size <= 0 {
		size = utils.ParallelFactor
	}
	p := &Pool{workers: make(chan *Renderer, size), size: size, logger: logger}
	workerLogger := logger.Sublogger("worker")
	for i := 0; i < size; i++ {
		r, err := NewRendererWithCamera(geometry.Clone(), cameraMatrix, rows, cols, workerLogger)
		if err != nil {
			return nil, err
		}
		p.workers <- r
	}
	logger.Debugw("render pool ready", "workers", size)
	return p, nil
}

// Size returns the number of workers.
func (p *Pool) Size() int {
	return p.size
}

// RenderAll renders one depth image per pose set, results in input order. The first failure
// stops pose sets that have not yet started. ctx only bounds waiting for a free worker.
func (p *Pool) RenderAll(ctx context.Context, poseSets [][]spatialmath.Pose) ([]DepthImage, error) {
	results := make([]DepthImage, len(poseSets))
	fs := lo.Map(poseSets, func(poses []spatialmath.Pose, i int) utils.SimpleFunc {
		return func(ctx context.Context) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			var r *Renderer
			select {
			case <-ctx.Done():
				return ctx.Err()
			case r = <-p.workers:
			}
			defer func() { p.workers <- r }()

			if err := r.SetPoseSet(poses); err != nil {
				return errors.Wrapf(err, "pose set %d", i)
			}
			img, err := r.Render()
			if err != nil {
				return errors.Wrapf(err, "pose set %d", i)
			}
			results[i] = img
			return nil
		}
	})
	elapsed, err := utils.RunInParallel(ctx, fs)
	if err != nil {
		return nil, err
	}
	p.logger.Debugw("rendered pose sets", "count", len(poseSets), "elapsed", elapsed)
	return results, nil
}
