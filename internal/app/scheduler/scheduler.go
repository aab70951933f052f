package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"whisper-api/internal/app/api"
	apperrors "whisper-api/internal/app/errors"
	"whisper-api/internal/app/util/files"
)

// Config bounds the scheduler.
type Config struct {
	// Deadline is the longest Transcribe waits on a job's completion.
	Deadline time.Duration
	// QueueCapacity limits pending jobs; zero means unbounded.
	QueueCapacity int
}

// Result is what a caller gets back from Transcribe.
type Result struct {
	JobID string
	Text  string
}

// Option customises a Scheduler.
type Option func(*Scheduler)

// WithMetrics reports queue and job metrics to m.
func WithMetrics(m *Metrics) Option {
	return func(s *Scheduler) {
		s.metrics = m
	}
}

// WithRecorder stores a JobRecord for every executed job.
func WithRecorder(r Recorder) Option {
	return func(s *Scheduler) {
		s.recorder = r
	}
}

// WithInputRemover replaces how job inputs are deleted.
func WithInputRemover(remove func(path string) error) Option {
	return func(s *Scheduler) {
		s.removeInput = remove
	}
}

// Scheduler owns the queue and its single worker.
type Scheduler struct {
	cfg         Config
	transcriber api.Transcriber
	logger      *zap.Logger
	metrics     *Metrics
	recorder    Recorder
	removeInput func(path string) error

	queue  *Queue
	worker *Worker

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	runErr  error
	stopped bool
}

// New creates a scheduler. Nothing runs until Start.
func New(transcriber api.Transcriber, cfg Config, logger *zap.Logger, opts ...Option) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Scheduler{
		cfg:         cfg,
		transcriber: transcriber,
		logger:      logger.Named("scheduler"),
		removeInput: files.RemoveIfExists,
		queue:       NewQueue(cfg.QueueCapacity),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.metrics == nil {
		s.metrics = NewMetrics(nil)
	}
	s.worker = &Worker{
		queue:       s.queue,
		transcriber: s.transcriber,
		logger:      s.logger,
		metrics:     s.metrics,
		recorder:    s.recorder,
		removeInput: s.removeInput,
	}
	return s
}

// Start launches the worker. Calling Start while it is running is a no-op;
// calling it after Stop returns ErrSchedulerStopped.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return apperrors.ErrSchedulerStopped
	}
	if s.cancel != nil {
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	s.cancel = cancel
	s.done = done

	go func() {
		defer close(done)
		s.runErr = s.worker.Run(ctx)
	}()

	s.logger.Info("scheduler started",
		zap.Duration("deadline", s.cfg.Deadline),
		zap.Int("queue_capacity", s.cfg.QueueCapacity),
	)
	return nil
}

// Stop cancels the worker and waits for it to exit or for ctx to end. A worker
// that exits because it was told to stop is a normal shutdown and yields nil.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return nil
	}
	s.stopped = true
	cancel, done := s.cancel, s.done
	s.mu.Unlock()

	if cancel == nil {
		// Never started: nothing will drain the queue, so abandon it here.
		s.worker.abandonPending()
		return nil
	}

	cancel()
	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}

	if errors.Is(s.runErr, context.Canceled) || errors.Is(s.runErr, apperrors.ErrSchedulerStopped) {
		s.logger.Info("scheduler stopped")
		return nil
	}
	return s.runErr
}

// Running reports whether the worker has been started and not stopped.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancel != nil && !s.stopped
}

// Pending returns the number of queued jobs.
func (s *Scheduler) Pending() int {
	return s.queue.Len()
}

// Submit enqueues a job for input. On success the worker owns input; on error the
// caller still does.
func (s *Scheduler) Submit(input string, opts api.Options) (*Job, error) {
	job := NewJob(input, opts)
	if err := s.queue.Enqueue(job); err != nil {
		s.metrics.Submissions.WithLabelValues(outcomeRejected).Inc()
		s.logger.Warn("submission rejected", zap.String("job_id", job.ID), zap.Error(err))
		return nil, err
	}
	s.metrics.Submissions.WithLabelValues(outcomeAccepted).Inc()
	s.metrics.QueueDepth.Set(float64(s.queue.Len()))
	s.logger.Debug("job queued", zap.String("job_id", job.ID), zap.Int("pending", s.queue.Len()))
	return job, nil
}

// Transcribe submits input and waits for its result for at most the configured
// deadline. A rejected submission removes input. When the deadline passes first
// ErrTimeout is returned and the job keeps running; cancelling ctx likewise only
// abandons the wait.
func (s *Scheduler) Transcribe(ctx context.Context, input string, opts api.Options) (Result, error) {
	job, err := s.Submit(input, opts)
	if err != nil {
		if rmErr := s.removeInput(input); rmErr != nil {
			s.logger.Warn("failed to remove rejected input", zap.String("input", input), zap.Error(rmErr))
		}
		return Result{}, err
	}

	result := Result{JobID: job.ID}

	waitCtx, cancel := ctx, context.CancelFunc(func() {})
	if s.cfg.Deadline > 0 {
		waitCtx, cancel = context.WithTimeout(ctx, s.cfg.Deadline)
	}
	defer cancel()

	_, _ = job.Completion.Wait(waitCtx)
	if job.Completion.Resolved() {
		text, err := job.Completion.Result()
		if err != nil {
			return result, err
		}
		result.Text = text
		return result, nil
	}

	if ctx.Err() != nil {
		s.metrics.Submissions.WithLabelValues(outcomeCancelled).Inc()
		s.logger.Info("caller went away before job finished", zap.String("job_id", job.ID))
		return result, ctx.Err()
	}
	s.metrics.Submissions.WithLabelValues(outcomeTimeout).Inc()
	s.logger.Warn("job wait timed out", zap.String("job_id", job.ID), zap.Duration("deadline", s.cfg.Deadline))
	return result, apperrors.ErrTimeout
}
