package asyncx

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestWithTimeout_ReturnsResult(t *testing.T) {
	v, err := WithTimeout(context.Background(), time.Second, func(context.Context) (int, error) {
		return 42, nil
	})
	if err != nil || v != 42 {
		t.Fatalf("got %d, %v", v, err)
	}
}

func TestWithTimeout_IgnoredContextStillTimesOut(t *testing.T) {
	release := make(chan struct{})
	defer close(release)

	start := time.Now()
	_, err := WithTimeout(context.Background(), 20*time.Millisecond, func(context.Context) (string, error) {
		<-release
		return "late", nil
	})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
	if time.Since(start) > time.Second {
		t.Fatal("WithTimeout waited for fn")
	}
}

func TestTimeout_PropagatesError(t *testing.T) {
	boom := errors.New("boom")
	if err := Timeout(context.Background(), time.Second, func(context.Context) error { return boom }); !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
}

func TestSettle_RunsEveryFunction(t *testing.T) {
	var calls atomic.Int32
	boom := errors.New("boom")

	errs := Settle(context.Background(),
		func(context.Context) error { calls.Add(1); return boom },
		func(context.Context) error { calls.Add(1); return nil },
		func(context.Context) error { calls.Add(1); return nil },
	)

	if calls.Load() != 3 {
		t.Fatalf("expected 3 calls, got %d", calls.Load())
	}
	if len(errs) != 3 || !errors.Is(errs[0], boom) || errs[1] != nil || errs[2] != nil {
		t.Fatalf("unexpected errors %v", errs)
	}
}
