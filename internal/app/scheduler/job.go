package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"whisper-api/internal/app/api"
	apperrors "whisper-api/internal/app/errors"
)

// Completion is a single-assignment result slot. The first Resolve or Fail wins;
// later calls are no-ops and report false.
type Completion struct {
	once sync.Once
	done chan struct{}
	text string
	err  error
}

// NewCompletion returns an unresolved slot.
func NewCompletion() *Completion {
	return &Completion{done: make(chan struct{})}
}

// Resolve settles the slot with a transcript.
func (c *Completion) Resolve(text string) bool {
	return c.settle(text, nil)
}

// Fail settles the slot with an error. A nil error is replaced with ErrTranscriptionFailed.
func (c *Completion) Fail(err error) bool {
	if err == nil {
		err = apperrors.ErrTranscriptionFailed
	}
	return c.settle("", err)
}

func (c *Completion) settle(text string, err error) bool {
	settled := false
	c.once.Do(func() {
		c.text = text
		c.err = err
		settled = true
		close(c.done)
	})
	return settled
}

// Done is closed once the slot is settled.
func (c *Completion) Done() <-chan struct{} {
	return c.done
}

// Resolved reports whether the slot has been settled.
func (c *Completion) Resolved() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}

// Result returns the settled value. It must only be called after Done is closed.
func (c *Completion) Result() (string, error) {
	<-c.done
	return c.text, c.err
}

// Wait blocks until the slot is settled or ctx is done.
func (c *Completion) Wait(ctx context.Context) (string, error) {
	select {
	case <-c.done:
		return c.text, c.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Job is one accepted submission. Everything but Completion is immutable after NewJob.
type Job struct {
	ID          string
	Input       string
	Options     api.Options
	SubmittedAt time.Time
	Completion  *Completion
}

// NewJob builds a job with a fresh id and an unresolved completion slot.
func NewJob(input string, opts api.Options) *Job {
	return &Job{
		ID:          uuid.NewString(),
		Input:       input,
		Options:     opts,
		SubmittedAt: time.Now(),
		Completion:  NewCompletion(),
	}
}
