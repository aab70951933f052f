package dto

import (
	"time"

	"whisper-api/internal/api/errors"
	"whisper-api/internal/app/api"
	"whisper-api/internal/app/scheduler"
)

// TranscribeQuery holds the optional decoding hints of POST /transcribe.
type TranscribeQuery struct {
	Language string `form:"language" binding:"omitempty,max=16"`
	Prompt   string `form:"prompt" binding:"omitempty,max=2048"`
}

// Validate performs domain-specific validation
func (q *TranscribeQuery) Validate() error {
	for _, r := range q.Language {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r == '-' || r == '_') {
			return errors.NewValidationError("Invalid transcription request", map[string]string{
				"language": "must be a language code such as en or auto",
			})
		}
	}
	return nil
}

// Options converts the query into transcriber options.
func (q *TranscribeQuery) Options() api.Options {
	return api.Options{Language: q.Language, Prompt: q.Prompt}
}

// TranscriptionResponse is the body of a successful POST /transcribe.
type TranscriptionResponse struct {
	TaskID string `json:"task_id"`
	Text   string `json:"text"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status string `json:"status"`
}

// ListJobsQuery pages the job history.
type ListJobsQuery struct {
	Limit int `form:"limit" binding:"omitempty,min=1,max=500"`
}

// JobResponse is one entry of the job history.
type JobResponse struct {
	ID          string    `json:"id"`
	Language    string    `json:"language,omitempty"`
	Prompt      string    `json:"prompt,omitempty"`
	Succeeded   bool      `json:"succeeded"`
	Text        string    `json:"text,omitempty"`
	Error       string    `json:"error,omitempty"`
	SubmittedAt time.Time `json:"submitted_at"`
	StartedAt   time.Time `json:"started_at"`
	FinishedAt  time.Time `json:"finished_at"`
	QueuedMs    int64     `json:"queued_ms"`
	DurationMs  int64     `json:"duration_ms"`
}

// ListJobsResponse is the body of GET /jobs.
type ListJobsResponse struct {
	Jobs  []JobResponse `json:"jobs"`
	Count int           `json:"count"`
}

// NewJobResponse converts a stored record.
func NewJobResponse(r scheduler.JobRecord) JobResponse {
	return JobResponse{
		ID:          r.ID,
		Language:    r.Language,
		Prompt:      r.Prompt,
		Succeeded:   r.Succeeded,
		Text:        r.Text,
		Error:       r.Error,
		SubmittedAt: r.SubmittedAt,
		StartedAt:   r.StartedAt,
		FinishedAt:  r.FinishedAt,
		QueuedMs:    r.StartedAt.Sub(r.SubmittedAt).Milliseconds(),
		DurationMs:  r.FinishedAt.Sub(r.StartedAt).Milliseconds(),
	}
}
