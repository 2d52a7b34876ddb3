package device

import (
	"context"
	"time"
)

// StatusEntry is one recorded device status observation.
type StatusEntry struct {
	ID         int64
	DeviceID   string
	Status     string
	RecordedAt time.Time
}

// StatusRepository persists device status observations.
type StatusRepository interface {
	// RecordStatus inserts a new status observation for a device.
	RecordStatus(ctx context.Context, deviceID string, status string) error

	// History returns recent observations for a device, newest first.
	History(ctx context.Context, deviceID string, limit int) ([]StatusEntry, error)

	// Prune deletes observations older than the given duration and returns
	// the number of rows removed.
	Prune(ctx context.Context, olderThan time.Duration) (int64, error)
}

// Logger interface for optional logging support.
// Compatible with logging.Logger and slog.Logger.
type Logger interface {
	Error(msg string, args ...any)
	Warn(msg string, args ...any)
	Info(msg string, args ...any)
}
