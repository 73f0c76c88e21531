// Package pool is the worker pool for embarrassingly parallel
// per-feature and per-replicate tasks. Workers receive read-only views
// and return self-contained results merged by key, never by arrival
// order.
package pool

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Resolve turns the n_jobs configuration value into a worker count:
// an integer is an absolute count, a fraction in (0, 1) is a share of
// the available processors. Anything non-positive means one worker.
func Resolve(nJobs float64) int {
	cpus := runtime.NumCPU()
	switch {
	case nJobs <= 0:
		return 1
	case nJobs < 1:
		n := int(nJobs * float64(cpus))
		if n < 1 {
			n = 1
		}
		return n
	default:
		n := int(nJobs)
		if n > cpus {
			n = cpus
		}
		return n
	}
}

// Run executes fn for every index in [0, n) across at most workers
// goroutines, stopping on the first error.
func Run(ctx context.Context, workers, n int, fn func(i int) error) error {
	if workers <= 1 {
		for i := 0; i < n; i++ {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := fn(i); err != nil {
				return err
			}
		}
		return nil
	}
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := 0; i < n; i++ {
		i := i
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			return fn(i)
		})
	}
	return g.Wait()
}
