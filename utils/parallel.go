// Package utils contains small concurrency helpers shared by the renderer and its worker pool.
package utils

import (
	"context"
	"runtime"
	"sync"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
)

// ParallelFactor is the default number of workers for parallel rendering: one per usable core.
// Tests may lower it.
var ParallelFactor = defaultParallelFactor()

func defaultParallelFactor() int {
	return max(1, runtime.GOMAXPROCS(0))
}

// SimpleFunc is for RunInParallel.
type SimpleFunc func(ctx context.Context) error

// RunInParallel runs every function on its own goroutine and waits for all of them. It returns
// the elapsed time and the combined errors. The first failure, panics included, cancels the
// context the others receive; cancellations caused that way are not reported again.
func RunInParallel(ctx context.Context, fs []SimpleFunc) (time.Duration, error) {
	start := time.Now()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs error
	)
	fail := func(err error) {
		mu.Lock()
		if errs == nil || !errors.Is(err, context.Canceled) {
			errs = multierr.Append(errs, err)
		}
		mu.Unlock()
		cancel()
	}

	wg.Add(len(fs))
	for i, f := range fs {
		go func() {
			defer wg.Done()
			defer func() {
				if thePanic := recover(); thePanic != nil {
					fail(errors.Errorf("parallel function %d panicked: %v", i, thePanic))
				}
			}()
			if err := f(ctx); err != nil {
				fail(err)
			}
		}()
	}

	wg.Wait()
	return time.Since(start), errs
}
