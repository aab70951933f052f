package scheduler

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"whisper-api/internal/app/api"
	apperrors "whisper-api/internal/app/errors"
)

// JobRecord summarises one executed job for the optional history log.
type JobRecord struct {
	ID          string
	Language    string
	Prompt      string
	SubmittedAt time.Time
	StartedAt   time.Time
	FinishedAt  time.Time
	Succeeded   bool
	Text        string
	Error       string
}

// Recorder receives a JobRecord after every executed job. Errors are logged only.
type Recorder interface {
	RecordJob(ctx context.Context, record JobRecord) error
}

const recordTimeout = 5 * time.Second

// Worker drains a Queue, executing one job at a time.
type Worker struct {
	queue       *Queue
	transcriber api.Transcriber
	logger      *zap.Logger
	metrics     *Metrics
	recorder    Recorder
	removeInput func(path string) error
}

// Run processes jobs until ctx is cancelled or the queue is closed. On exit the
// queue is closed and every pending job is abandoned: its input is removed and
// its completion fails with ErrSchedulerStopped.
func (w *Worker) Run(ctx context.Context) error {
	w.logger.Info("worker started")
	for {
		job, err := w.queue.Dequeue(ctx)
		if err != nil {
			w.abandonPending()
			w.logger.Info("worker stopped", zap.Error(err))
			return err
		}
		w.metrics.QueueDepth.Set(float64(w.queue.Len()))
		w.execute(ctx, job)
	}
}

func (w *Worker) execute(ctx context.Context, job *Job) {
	logger := w.logger.With(zap.String("job_id", job.ID))
	started := time.Now()
	w.metrics.Running.Set(1)
	w.metrics.QueueWait.Observe(started.Sub(job.SubmittedAt).Seconds())
	logger.Info("job started", zap.Duration("queued", started.Sub(job.SubmittedAt)))

	text, err := w.transcribe(api.WithJobID(ctx, job.ID), job)
	if err != nil && ctx.Err() != nil {
		err = apperrors.Wrap(err, apperrors.ErrSchedulerStopped.Message())
	}

	// Release before settling so a caller that sees the result never sees the input.
	w.release(logger, job)

	finished := time.Now()
	record := JobRecord{
		ID:          job.ID,
		Language:    job.Options.Language,
		Prompt:      job.Options.Prompt,
		SubmittedAt: job.SubmittedAt,
		StartedAt:   started,
		FinishedAt:  finished,
	}

	if err != nil {
		if !job.Completion.Fail(err) {
			logger.Warn("completion already settled")
		}
		w.metrics.Jobs.WithLabelValues(resultFailed).Inc()
		record.Error = err.Error()
		logger.Warn("job failed", zap.Duration("took", finished.Sub(started)), zap.Error(err))
	} else {
		if !job.Completion.Resolve(text) {
			logger.Warn("completion already settled")
		}
		w.metrics.Jobs.WithLabelValues(resultSucceeded).Inc()
		record.Succeeded = true
		record.Text = text
		logger.Info("job succeeded", zap.Duration("took", finished.Sub(started)), zap.Int("chars", len(text)))
	}

	w.metrics.JobDuration.Observe(finished.Sub(started).Seconds())
	w.metrics.Running.Set(0)
	w.record(logger, record)
}

// transcribe runs the collaborator, converting panics and empty diagnostics into
// failures that carry a message.
func (w *Worker) transcribe(ctx context.Context, job *Job) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = apperrors.Newf("transcription panicked: %v", r)
		}
	}()

	text, err = w.transcriber.Transcript(ctx, job.Input, job.Options)
	if err != nil {
		if strings.TrimSpace(err.Error()) == "" {
			return "", apperrors.ErrTranscriptionFailed
		}
		return "", err
	}
	return strings.TrimSpace(text), nil
}

func (w *Worker) release(logger *zap.Logger, job *Job) {
	if err := w.removeInput(job.Input); err != nil {
		logger.Warn("failed to remove job input", zap.String("input", job.Input), zap.Error(err))
	}
}

func (w *Worker) record(logger *zap.Logger, record JobRecord) {
	if w.recorder == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
	defer cancel()
	if err := w.recorder.RecordJob(ctx, record); err != nil {
		logger.Warn("failed to record job", zap.Error(err))
	}
}

func (w *Worker) abandonPending() {
	pending := w.queue.Close()
	for _, job := range pending {
		logger := w.logger.With(zap.String("job_id", job.ID))
		w.release(logger, job)
		job.Completion.Fail(apperrors.ErrSchedulerStopped)
		w.metrics.Jobs.WithLabelValues(resultAbandoned).Inc()
	}
	if len(pending) > 0 {
		w.logger.Info(fmt.Sprintf("abandoned %d pending jobs", len(pending)))
	}
	w.metrics.QueueDepth.Set(0)
}
