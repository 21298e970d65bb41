// Package parallel runs independent jobs off the frame thread with a
// bounded number of workers and collects their outcomes in order.
package parallel

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"
)

// Result holds the outcome of one task.
type Result[T any] struct {
	Name    string
	Value   T
	Err     error
	Elapsed time.Duration
}

// OK reports whether the task succeeded.
func (r Result[T]) OK() bool { return r.Err == nil }

// Task is a named unit of work.
type Task[T any] struct {
	Name string
	Fn   func(ctx context.Context) (T, error)
}

// Run executes tasks with at most concurrency running at once and returns
// their results in submission order. A failing task never cancels the
// others; errors are reported per result. Tasks not yet started when ctx
// is cancelled report ctx.Err().
func Run[T any](ctx context.Context, tasks []Task[T], concurrency int) []Result[T] {
	if concurrency < 1 {
		concurrency = 4
	}

	results := make([]Result[T], len(tasks))
	g := new(errgroup.Group)
	g.SetLimit(concurrency)

	for i, task := range tasks {
		g.Go(func() error {
			results[i].Name = task.Name
			if err := ctx.Err(); err != nil {
				results[i].Err = err
				return nil
			}
			start := time.Now()
			v, err := task.Fn(ctx)
			results[i].Value = v
			results[i].Err = err
			results[i].Elapsed = time.Since(start)
			return nil // collect, never fail the group
		})
	}

	_ = g.Wait()
	return results
}

// Failed returns the results that carry an error.
func Failed[T any](results []Result[T]) []Result[T] {
	var out []Result[T]
	for _, r := range results {
		if r.Err != nil {
			out = append(out, r)
		}
	}
	return out
}
