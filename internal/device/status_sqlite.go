package device

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 200
)

// SQLiteStatusRepository implements StatusRepository using SQLite.
//
// It stores one row per device per sweep in the device_status table.
type SQLiteStatusRepository struct {
	db *sql.DB
}

// NewSQLiteStatusRepository creates a new SQLite status repository.
//
// Parameters:
//   - db: Open SQLite connection used for queries
//
// Returns:
//   - *SQLiteStatusRepository: Repository instance ready for use
func NewSQLiteStatusRepository(db *sql.DB) *SQLiteStatusRepository {
	return &SQLiteStatusRepository{db: db}
}

// RecordStatus inserts a new status observation for a device.
//
// Parameters:
//   - ctx: Context for cancellation and timeout
//   - deviceID: Unique device identifier
//   - status: Observed status (e.g. "on", "off")
//
// Returns:
//   - error: nil on success, otherwise the underlying database error
func (r *SQLiteStatusRepository) RecordStatus(ctx context.Context, deviceID string, status string) error {
	if deviceID == "" {
		return fmt.Errorf("device id is required")
	}
	if status == "" {
		return fmt.Errorf("status is required")
	}

	_, err := r.db.ExecContext(ctx,
		"INSERT INTO device_status (device_id, status, recorded_at) VALUES (?, ?, ?)",
		deviceID,
		status,
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting device status: %w", err)
	}

	return nil
}

// History returns recent status observations for a device, ordered newest first.
//
// Parameters:
//   - ctx: Context for cancellation and timeout
//   - deviceID: Unique device identifier
//   - limit: Maximum entries to return (default 50, max 200)
//
// Returns:
//   - []StatusEntry: Observations ordered by recorded_at DESC
//   - error: nil on success, otherwise the underlying query error
func (r *SQLiteStatusRepository) History(ctx context.Context, deviceID string, limit int) ([]StatusEntry, error) {
	if deviceID == "" {
		return nil, fmt.Errorf("device id is required")
	}
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, device_id, status, recorded_at
		 FROM device_status
		 WHERE device_id = ?
		 ORDER BY recorded_at DESC, id DESC
		 LIMIT ?`,
		deviceID,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying device status: %w", err)
	}
	defer rows.Close()

	entries := make([]StatusEntry, 0, limit)
	for rows.Next() {
		var entry StatusEntry
		var recordedAt string

		if err := rows.Scan(&entry.ID, &entry.DeviceID, &entry.Status, &recordedAt); err != nil {
			return nil, fmt.Errorf("scanning device status: %w", err)
		}

		timestamp, err := parseStatusTimestamp(recordedAt)
		if err != nil {
			return nil, err
		}
		entry.RecordedAt = timestamp

		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating device status: %w", err)
	}

	return entries, nil
}

// Prune deletes status observations older than the given duration.
//
// Parameters:
//   - ctx: Context for cancellation and timeout
//   - olderThan: Duration to retain (entries older than now-olderThan are deleted)
//
// Returns:
//   - int64: Number of rows deleted
//   - error: nil on success, otherwise the underlying database error
func (r *SQLiteStatusRepository) Prune(ctx context.Context, olderThan time.Duration) (int64, error) {
	if olderThan <= 0 {
		return 0, fmt.Errorf("olderThan must be positive")
	}

	cutoff := time.Now().UTC().Add(-olderThan).Format(time.RFC3339)
	result, err := r.db.ExecContext(ctx,
		"DELETE FROM device_status WHERE recorded_at < ?",
		cutoff,
	)
	if err != nil {
		return 0, fmt.Errorf("deleting device status: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("checking rows affected: %w", err)
	}

	return rowsAffected, nil
}

// parseStatusTimestamp parses a timestamp stored in SQLite.
func parseStatusTimestamp(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, fmt.Errorf("recorded_at is empty")
	}

	timestamp, err := time.Parse(time.RFC3339, value)
	if err == nil {
		return timestamp, nil
	}

	fallback, fallbackErr := time.Parse("2006-01-02T15:04:05Z", value)
	if fallbackErr == nil {
		return fallback, nil
	}

	return time.Time{}, fmt.Errorf("parsing recorded_at: %w", err)
}
