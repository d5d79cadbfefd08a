// Package pool runs batches of keyed tasks on a bounded set of
// workers with a per-task timeout.
package pool

import (
	"context"
	"runtime"
	"sync"
	"time"
)

// Result holds one task's outcome.
type Result[T any] struct {
	Key   string
	Value T
	Err   error
}

// Batch fans keys out to at most workers goroutines, each task bounded
// by timeout, and collects results keyed by input key. A task that
// overruns its timeout yields ctx.Err() as its result error. The batch
// aborts early when the parent context is canceled.
func Batch[T any](ctx context.Context, keys []string, workers int, timeout time.Duration, fn func(ctx context.Context, key string) (T, error)) map[string]Result[T] {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	jobs := make(chan string)
	results := make(chan Result[T], len(keys))

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for key := range jobs {
				results <- runOne(ctx, key, timeout, fn)
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, key := range keys {
			select {
			case jobs <- key:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	out := make(map[string]Result[T], len(keys))
	for r := range results {
		out[r.Key] = r
	}
	return out
}

func runOne[T any](ctx context.Context, key string, timeout time.Duration, fn func(ctx context.Context, key string) (T, error)) Result[T] {
	taskCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		taskCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	type outcome struct {
		value T
		err   error
	}
	done := make(chan outcome, 1)
	go func() {
		v, err := fn(taskCtx, key)
		done <- outcome{v, err}
	}()

	select {
	case o := <-done:
		return Result[T]{Key: key, Value: o.value, Err: o.err}
	case <-taskCtx.Done():
		return Result[T]{Key: key, Err: taskCtx.Err()}
	}
}
