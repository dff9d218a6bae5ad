package jobx

import (
	"context"
	"errors"
	"testing"
	"time"
)

type memQueue struct {
	jobs     map[string]*JobInfo
	enqueued []Job
	retried  map[string]time.Duration
	done     []string
}

func newMemQueue() *memQueue {
	return &memQueue{jobs: map[string]*JobInfo{}, retried: map[string]time.Duration{}}
}

func (q *memQueue) Enqueue(_ context.Context, job Job) (string, error) {
	q.enqueued = append(q.enqueued, job)
	return "job-1", nil
}

func (q *memQueue) EnqueueDelayed(ctx context.Context, job Job, _ time.Duration) (string, error) {
	return q.Enqueue(ctx, job)
}

func (q *memQueue) GetJob(_ context.Context, id string) (*JobInfo, error) {
	if j, ok := q.jobs[id]; ok {
		return j, nil
	}
	return nil, jobxErrors.New(ErrJobNotFound)
}

func (q *memQueue) Dequeue(context.Context, []string, time.Duration) (*JobInfo, error) {
	return nil, nil
}

func (q *memQueue) Complete(_ context.Context, id string, _ []byte) error {
	q.jobs[id].Status = JobStatusCompleted
	q.done = append(q.done, id)
	return nil
}

func (q *memQueue) Fail(_ context.Context, id string, msg string) (bool, error) {
	j := q.jobs[id]
	j.Error = msg
	if j.Attempts < j.MaxRetries {
		j.Status = JobStatusRetrying
		return true, nil
	}
	j.Status = JobStatusFailed
	return false, nil
}

func (q *memQueue) Retry(_ context.Context, id string, delay time.Duration) error {
	q.retried[id] = delay
	return nil
}

func (q *memQueue) PromoteScheduled(context.Context, []string) error { return nil }

func TestEnqueue_AppliesDefaults(t *testing.T) {
	q := newMemQueue()
	c := NewClient(q, WithDefaultMaxRetries(8))

	job, err := NewJob("requester.identity.delete", "", map[string]string{"username": "jane@example.com"})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := c.Enqueue(context.Background(), job); err != nil {
		t.Fatal(err)
	}

	got := q.enqueued[0]
	if got.Queue != "default" || got.MaxRetries != 8 {
		t.Fatalf("defaults not applied: %+v", got)
	}
}

func TestNewJob_RequiresType(t *testing.T) {
	if _, err := NewJob("", "default", nil); err == nil {
		t.Fatal("expected error for empty type")
	}
}

func TestDecode(t *testing.T) {
	job, _ := NewJob("t", "q", struct {
		Username string `json:"username"`
	}{"jane@example.com"})
	info := &JobInfo{ID: "1", Type: job.Type, Payload: job.Payload}

	var out struct {
		Username string `json:"username"`
	}
	if err := info.Decode(&out); err != nil || out.Username != "jane@example.com" {
		t.Fatalf("decode: %+v %v", out, err)
	}

	info.Payload = []byte("{broken")
	if err := info.Decode(&out); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestProcessJob(t *testing.T) {
	cases := []struct {
		name       string
		handler    HandlerFunc
		attempts   int
		maxRetries int
		wantStatus JobStatus
		wantRetry  time.Duration
	}{
		{
			name:       "success completes",
			handler:    func(context.Context, *JobInfo) error { return nil },
			attempts:   1,
			maxRetries: 3,
			wantStatus: JobStatusCompleted,
		},
		{
			name:       "failure retries with backoff",
			handler:    func(context.Context, *JobInfo) error { return errors.New("idp down") },
			attempts:   3,
			maxRetries: 5,
			wantStatus: JobStatusRetrying,
			wantRetry:  4 * time.Second,
		},
		{
			name:       "panic is a failure",
			handler:    func(context.Context, *JobInfo) error { panic("boom") },
			attempts:   1,
			maxRetries: 2,
			wantStatus: JobStatusRetrying,
			wantRetry:  time.Second,
		},
		{
			name:       "exhausted fails",
			handler:    func(context.Context, *JobInfo) error { return errors.New("still down") },
			attempts:   2,
			maxRetries: 2,
			wantStatus: JobStatusFailed,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			q := newMemQueue()
			q.jobs["j"] = &JobInfo{ID: "j", Type: "t", Attempts: tc.attempts, MaxRetries: tc.maxRetries}

			c := NewClient(q, WithDefaultRetryDelay(time.Second), WithMaxRetryDelay(time.Minute))
			c.Register("t", tc.handler)
			c.processJob(context.Background(), q.jobs["j"])

			if q.jobs["j"].Status != tc.wantStatus {
				t.Fatalf("expected %s, got %s", tc.wantStatus, q.jobs["j"].Status)
			}
			if got := q.retried["j"]; got != tc.wantRetry {
				t.Fatalf("expected retry delay %v, got %v", tc.wantRetry, got)
			}
		})
	}
}

func TestProcessJob_NoHandler(t *testing.T) {
	q := newMemQueue()
	q.jobs["j"] = &JobInfo{ID: "j", Type: "unknown", Attempts: 1, MaxRetries: 1}

	NewClient(q).processJob(context.Background(), q.jobs["j"])
	if q.jobs["j"].Status != JobStatusFailed {
		t.Fatalf("expected failed, got %s", q.jobs["j"].Status)
	}
}

func TestBackoffCap(t *testing.T) {
	c := NewClient(newMemQueue(), WithDefaultRetryDelay(time.Minute), WithMaxRetryDelay(5*time.Minute))
	if got := c.backoff(10); got != 5*time.Minute {
		t.Fatalf("expected cap, got %v", got)
	}
	if got := c.backoff(1); got != time.Minute {
		t.Fatalf("expected base delay, got %v", got)
	}
}
