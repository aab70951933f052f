package repository

import (
	"context"

	"whisper-api/internal/app/scheduler"
)

// HistoryDAO stores executed transcription jobs.
type HistoryDAO interface {
	Close() error

	RecordJob(ctx context.Context, record scheduler.JobRecord) error

	Recent(ctx context.Context, limit int) ([]scheduler.JobRecord, error)
}
