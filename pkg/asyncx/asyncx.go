package asyncx

import (
	"context"
	"sync"
	"time"
)

// ─── Timeout ──────────────────────────────────────────────────────────────────

// WithTimeout runs fn with a deadline of d. It returns context.DeadlineExceeded
// once d elapses even if fn ignores its context; fn keeps running in the
// background and its late result is dropped.
func WithTimeout[T any](ctx context.Context, d time.Duration, fn func(context.Context) (T, error)) (T, error) {
	ctx, cancel := context.WithTimeout(ctx, d)
	defer cancel()

	type res struct {
		v   T
		err error
	}

	ch := make(chan res, 1)
	go func() {
		v, err := fn(ctx)
		ch <- res{v, err}
	}()

	select {
	case r := <-ch:
		return r.v, r.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Timeout is WithTimeout for calls that only return an error.
func Timeout(ctx context.Context, d time.Duration, fn func(context.Context) error) error {
	_, err := WithTimeout(ctx, d, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

// ─── Fan-out ──────────────────────────────────────────────────────────────────

// Settle runs all fns concurrently and waits for every one of them. The
// returned slice holds one error (or nil) per fn, in order.
func Settle(ctx context.Context, fns ...func(context.Context) error) []error {
	errs := make([]error, len(fns))
	var wg sync.WaitGroup
	wg.Add(len(fns))

	for i, fn := range fns {
		go func() {
			defer wg.Done()
			errs[i] = fn(ctx)
		}()
	}
	wg.Wait()
	return errs
}
