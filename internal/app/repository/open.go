package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	apperrors "whisper-api/internal/app/errors"
)

const openTimeout = 10 * time.Second

// Open connects to driverName at dsn and ensures the schema exists. For sqlite3 the
// dsn is a file path; shared-cache read/write mode is added when no query is given.
func Open(driverName, dsn string) (*HistoryDB, error) {
	switch driverName {
	case DriverSQLite:
		if dsn == "" {
			return nil, apperrors.RequiredField("HISTORY_DSN")
		}
		dsn = sqliteDSN(dsn)
	case DriverPostgres:
		if dsn == "" {
			return nil, apperrors.RequiredField("HISTORY_DSN")
		}
	default:
		return nil, apperrors.InvalidField("HISTORY_DRIVER", fmt.Sprintf("unsupported driver %q", driverName))
	}

	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if driverName == DriverSQLite {
		// One writer; the worker records jobs sequentially anyway.
		db.SetMaxOpenConns(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), openTimeout)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	history := NewHistoryDB(db, driverName)
	if err := history.EnsureSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return history, nil
}

func sqliteDSN(path string) string {
	if strings.HasPrefix(path, "file:") || strings.HasPrefix(path, ":memory:") {
		return path
	}
	return fmt.Sprintf("file:%s?cache=shared&mode=rwc", path)
}
