package scheduler

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"whisper-api/internal/app/api"
	apperrors "whisper-api/internal/app/errors"
)

func TestQueue_FIFO(t *testing.T) {
	q := NewQueue(0)
	var jobs []*Job
	for i := 0; i < 50; i++ {
		job := NewJob(fmt.Sprintf("/tmp/%d.wav", i), api.Options{})
		jobs = append(jobs, job)
		require.NoError(t, q.Enqueue(job))
	}
	assert.Equal(t, 50, q.Len())

	for i := 0; i < 50; i++ {
		job, err := q.Dequeue(context.Background())
		require.NoError(t, err)
		assert.Same(t, jobs[i], job)
	}
	assert.Equal(t, 0, q.Len())
}

func TestQueue_DequeueBlocksUntilEnqueue(t *testing.T) {
	q := NewQueue(0)
	got := make(chan *Job, 1)

	go func() {
		job, err := q.Dequeue(context.Background())
		if err == nil {
			got <- job
		}
	}()

	select {
	case <-got:
		t.Fatal("dequeue returned before anything was enqueued")
	case <-time.After(20 * time.Millisecond):
	}

	job := NewJob("/tmp/late.wav", api.Options{})
	require.NoError(t, q.Enqueue(job))

	select {
	case j := <-got:
		assert.Same(t, job, j)
	case <-time.After(time.Second):
		t.Fatal("dequeue did not wake up")
	}
}

func TestQueue_DequeueContextCancelled(t *testing.T) {
	q := NewQueue(0)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	job, err := q.Dequeue(ctx)
	assert.Nil(t, job)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestQueue_DequeuePrefersCancellationOverPendingJobs(t *testing.T) {
	q := NewQueue(0)
	require.NoError(t, q.Enqueue(NewJob("/tmp/a.wav", api.Options{})))
	require.NoError(t, q.Enqueue(NewJob("/tmp/b.wav", api.Options{})))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	job, err := q.Dequeue(ctx)
	assert.Nil(t, job)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 2, q.Len())
	assert.Len(t, q.Close(), 2)
}

func TestQueue_Capacity(t *testing.T) {
	q := NewQueue(2)
	require.NoError(t, q.Enqueue(NewJob("a", api.Options{})))
	require.NoError(t, q.Enqueue(NewJob("b", api.Options{})))

	err := q.Enqueue(NewJob("c", api.Options{}))
	assert.ErrorIs(t, err, apperrors.ErrQueueFull)

	_, err = q.Dequeue(context.Background())
	require.NoError(t, err)
	assert.NoError(t, q.Enqueue(NewJob("d", api.Options{})))
}

func TestQueue_Close(t *testing.T) {
	q := NewQueue(0)
	a := NewJob("a", api.Options{})
	b := NewJob("b", api.Options{})
	require.NoError(t, q.Enqueue(a))
	require.NoError(t, q.Enqueue(b))

	pending := q.Close()
	assert.Equal(t, []*Job{a, b}, pending)
	assert.Nil(t, q.Close())

	assert.ErrorIs(t, q.Enqueue(NewJob("c", api.Options{})), apperrors.ErrSchedulerStopped)

	job, err := q.Dequeue(context.Background())
	assert.Nil(t, job)
	assert.ErrorIs(t, err, apperrors.ErrSchedulerStopped)
}

func TestQueue_CloseWakesBlockedConsumer(t *testing.T) {
	q := NewQueue(0)
	errCh := make(chan error, 1)
	go func() {
		_, err := q.Dequeue(context.Background())
		errCh <- err
	}()

	time.Sleep(10 * time.Millisecond)
	q.Close()

	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, apperrors.ErrSchedulerStopped)
	case <-time.After(time.Second):
		t.Fatal("blocked consumer was not released by Close")
	}
}
