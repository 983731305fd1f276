package jobs

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueProcessesJobs(t *testing.T) {
	done := make(chan string, 3)
	q := NewQueue("test", func(_ context.Context, job Job) error {
		done <- job.ID
		return nil
	}, QueueConfig{Workers: 1, BufferSize: 3})
	q.Start(context.Background())
	defer q.Stop()

	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, q.Enqueue(Job{ID: id}))
	}

	var got []string
	for i := 0; i < 3; i++ {
		select {
		case id := <-done:
			got = append(got, id)
		case <-time.After(time.Second):
			t.Fatal("job not processed")
		}
	}
	assert.Equal(t, []string{"a", "b", "c"}, got)
}

func TestQueueWithoutRetriesRunsFailedJobOnce(t *testing.T) {
	var calls int32
	q := NewQueue("test", func(_ context.Context, _ Job) error {
		atomic.AddInt32(&calls, 1)
		return errors.New("boom")
	}, QueueConfig{RetryDelay: time.Millisecond})
	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(Job{ID: "x"}))
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestQueueRetriesUpToMax(t *testing.T) {
	var calls int32
	q := NewQueue("test", func(_ context.Context, _ Job) error {
		atomic.AddInt32(&calls, 1)
		return errors.New("boom")
	}, QueueConfig{MaxRetries: 2, RetryDelay: time.Millisecond})
	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(Job{ID: "x"}))
	assert.Eventually(t, func() bool { return atomic.LoadInt32(&calls) == 3 }, time.Second, 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestQueueRejectsBeforeStart(t *testing.T) {
	q := NewQueue("test", func(context.Context, Job) error { return nil }, QueueConfig{})
	assert.Error(t, q.Enqueue(Job{ID: "x"}))
	assert.Error(t, q.TryEnqueue(Job{ID: "x"}))
}

func TestQueueTryEnqueueReportsFullBuffer(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{}, 1)
	q := NewQueue("test", func(ctx context.Context, _ Job) error {
		started <- struct{}{}
		select {
		case <-release:
		case <-ctx.Done():
		}
		return nil
	}, QueueConfig{Workers: 1, BufferSize: 1})
	q.Start(context.Background())
	defer q.Stop()
	defer close(release)

	require.NoError(t, q.TryEnqueue(Job{ID: "running"}))
	<-started
	require.NoError(t, q.TryEnqueue(Job{ID: "buffered"}))

	err := q.TryEnqueue(Job{ID: "overflow"})
	assert.ErrorIs(t, err, ErrQueueFull)
	assert.Equal(t, 1, q.Pending())
}

func TestQueueObserverAndStats(t *testing.T) {
	type observed struct {
		id     string
		failed bool
	}
	seen := make(chan observed, 2)
	q := NewQueue("test", func(_ context.Context, job Job) error {
		if job.ID == "bad" {
			return errors.New("boom")
		}
		return nil
	}, QueueConfig{
		Observer: func(job Job, err error, _ time.Duration) {
			seen <- observed{id: job.ID, failed: err != nil}
		},
	})
	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(Job{ID: "good"}))
	require.NoError(t, q.Enqueue(Job{ID: "bad"}))

	got := map[string]bool{}
	for i := 0; i < 2; i++ {
		select {
		case o := <-seen:
			got[o.id] = o.failed
		case <-time.After(time.Second):
			t.Fatal("observer not called")
		}
	}
	assert.Equal(t, map[string]bool{"good": false, "bad": true}, got)

	assert.Eventually(t, func() bool {
		stats := q.Stats()
		return stats.Processed == 2 && stats.Failed == 1 && stats.Pending == 0
	}, time.Second, 5*time.Millisecond)
}
