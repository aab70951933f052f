package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"whisper-api/internal/app/scheduler"
)

const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"

	// DefaultRecentLimit caps Recent when the caller passes a non-positive limit.
	DefaultRecentLimit = 50
)

const createTableSQL = `CREATE TABLE IF NOT EXISTS transcription_jobs (
	id            TEXT PRIMARY KEY,
	language      TEXT NOT NULL DEFAULT '',
	prompt        TEXT NOT NULL DEFAULT '',
	submitted_at  TIMESTAMP NOT NULL,
	started_at    TIMESTAMP NOT NULL,
	finished_at   TIMESTAMP NOT NULL,
	succeeded     BOOLEAN NOT NULL,
	transcription TEXT NOT NULL DEFAULT '',
	error_message TEXT NOT NULL DEFAULT ''
)`

const jobColumns = `id, language, prompt, submitted_at, started_at, finished_at,
	succeeded, transcription, error_message`

// PlaceholderFunc generates parameter placeholders for different SQL dialects
type PlaceholderFunc func(n int) string

// HistoryDB is the database/sql implementation of HistoryDAO shared by sqlite3 and postgres.
type HistoryDB struct {
	db           *sql.DB
	driverName   string
	placeholders PlaceholderFunc
}

var _ HistoryDAO = (*HistoryDB)(nil)
var _ scheduler.Recorder = (*HistoryDB)(nil)

// NewHistoryDB wraps an open connection.
func NewHistoryDB(db *sql.DB, driverName string) *HistoryDB {
	var placeholders PlaceholderFunc

	switch driverName {
	case DriverPostgres:
		placeholders = func(n int) string { return fmt.Sprintf("$%d", n) }
	default:
		placeholders = func(n int) string { return "?" }
	}

	return &HistoryDB{
		db:           db,
		driverName:   driverName,
		placeholders: placeholders,
	}
}

// EnsureSchema creates the jobs table if needed.
func (h *HistoryDB) EnsureSchema(ctx context.Context) error {
	if _, err := h.db.ExecContext(ctx, createTableSQL); err != nil {
		return fmt.Errorf("create table failed: %w", err)
	}
	return nil
}

// RecordJob inserts one executed job.
func (h *HistoryDB) RecordJob(ctx context.Context, record scheduler.JobRecord) error {
	params := make([]string, 9)
	for i := range params {
		params[i] = h.placeholders(i + 1)
	}

	query := fmt.Sprintf(
		"INSERT INTO transcription_jobs (%s) VALUES (%s)",
		jobColumns, strings.Join(params, ", "),
	)

	_, err := h.db.ExecContext(ctx, query,
		record.ID, record.Language, record.Prompt,
		record.SubmittedAt.UTC(), record.StartedAt.UTC(), record.FinishedAt.UTC(),
		record.Succeeded, record.Text, record.Error,
	)
	if err != nil {
		return fmt.Errorf("insert failed: %w", err)
	}
	return nil
}

// Recent returns up to limit jobs, newest first.
func (h *HistoryDB) Recent(ctx context.Context, limit int) ([]scheduler.JobRecord, error) {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}

	query := fmt.Sprintf(
		"SELECT %s FROM transcription_jobs ORDER BY finished_at DESC LIMIT %s",
		jobColumns, h.placeholders(1),
	)

	rows, err := h.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	var records []scheduler.JobRecord
	for rows.Next() {
		var r scheduler.JobRecord
		err := rows.Scan(
			&r.ID, &r.Language, &r.Prompt,
			&r.SubmittedAt, &r.StartedAt, &r.FinishedAt,
			&r.Succeeded, &r.Text, &r.Error,
		)
		if err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}
		records = append(records, r)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return records, nil
}

// Close closes the database connection
func (h *HistoryDB) Close() error {
	if h.db != nil {
		return h.db.Close()
	}
	return nil
}

// DB returns the underlying database connection
func (h *HistoryDB) DB() *sql.DB {
	return h.db
}
