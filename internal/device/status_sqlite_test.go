package device

import (
	"context"
	"database/sql"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// openStatusDB creates an in-memory database with the device_status schema.
func openStatusDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("opening in-memory database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(`
		CREATE TABLE device_status (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			device_id TEXT NOT NULL,
			status TEXT NOT NULL,
			recorded_at TEXT NOT NULL
		)
	`)
	if err != nil {
		t.Fatalf("creating device_status table: %v", err)
	}

	return db
}

// =============================================================================
// RecordStatus Tests
// =============================================================================

func TestRecordStatus(t *testing.T) {
	repo := NewSQLiteStatusRepository(openStatusDB(t))
	ctx := context.Background()

	if err := repo.RecordStatus(ctx, "living_room_light", "off"); err != nil {
		t.Fatalf("RecordStatus() error = %v", err)
	}

	entries, err := repo.History(ctx, "living_room_light", 10)
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(entries))
	}
	if entries[0].Status != "off" {
		t.Errorf("Status = %q, want %q", entries[0].Status, "off")
	}
	if entries[0].RecordedAt.IsZero() {
		t.Error("RecordedAt is zero, want parsed timestamp")
	}
}

func TestRecordStatus_Validation(t *testing.T) {
	repo := NewSQLiteStatusRepository(openStatusDB(t))
	ctx := context.Background()

	if err := repo.RecordStatus(ctx, "", "off"); err == nil {
		t.Error("RecordStatus() with empty device id succeeded, want error")
	}
	if err := repo.RecordStatus(ctx, "living_room_light", ""); err == nil {
		t.Error("RecordStatus() with empty status succeeded, want error")
	}
}

// =============================================================================
// History Tests
// =============================================================================

func TestHistory_NewestFirst(t *testing.T) {
	db := openStatusDB(t)
	repo := NewSQLiteStatusRepository(db)
	ctx := context.Background()

	// Insert with explicit timestamps so ordering is deterministic.
	base := time.Date(2026, 8, 23, 10, 0, 0, 0, time.UTC)
	for i, status := range []string{"off", "on", "off"} {
		_, err := db.Exec(
			"INSERT INTO device_status (device_id, status, recorded_at) VALUES (?, ?, ?)",
			"bedroom_fan", status, base.Add(time.Duration(i)*time.Minute).Format(time.RFC3339),
		)
		if err != nil {
			t.Fatalf("seeding row: %v", err)
		}
	}

	entries, err := repo.History(ctx, "bedroom_fan", 10)
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}

	if len(entries) != 3 {
		t.Fatalf("got %d entries, want 3", len(entries))
	}
	if entries[0].Status != "off" || entries[1].Status != "on" {
		t.Errorf("entries not newest-first: %q, %q, %q",
			entries[0].Status, entries[1].Status, entries[2].Status)
	}
}

func TestHistory_LimitClamped(t *testing.T) {
	repo := NewSQLiteStatusRepository(openStatusDB(t))
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if err := repo.RecordStatus(ctx, "bedroom_fan", "off"); err != nil {
			t.Fatalf("RecordStatus() error = %v", err)
		}
	}

	tests := []struct {
		name  string
		limit int
		want  int
	}{
		{"explicit limit", 2, 2},
		{"zero uses default", 0, 5},
		{"negative uses default", -1, 5},
		{"above max clamps", maxHistoryLimit + 100, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entries, err := repo.History(ctx, "bedroom_fan", tt.limit)
			if err != nil {
				t.Fatalf("History() error = %v", err)
			}
			if len(entries) != tt.want {
				t.Errorf("got %d entries, want %d", len(entries), tt.want)
			}
		})
	}
}

func TestHistory_PerDevice(t *testing.T) {
	repo := NewSQLiteStatusRepository(openStatusDB(t))
	ctx := context.Background()

	if err := repo.RecordStatus(ctx, "living_room_light", "on"); err != nil {
		t.Fatalf("RecordStatus() error = %v", err)
	}
	if err := repo.RecordStatus(ctx, "bedroom_fan", "off"); err != nil {
		t.Fatalf("RecordStatus() error = %v", err)
	}

	entries, err := repo.History(ctx, "living_room_light", 10)
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1 (only living_room_light)", len(entries))
	}
	if entries[0].DeviceID != "living_room_light" {
		t.Errorf("DeviceID = %q, want living_room_light", entries[0].DeviceID)
	}
}

// =============================================================================
// Prune Tests
// =============================================================================

func TestPrune(t *testing.T) {
	db := openStatusDB(t)
	repo := NewSQLiteStatusRepository(db)
	ctx := context.Background()

	// One old row, one fresh row.
	old := time.Now().UTC().Add(-48 * time.Hour).Format(time.RFC3339)
	if _, err := db.Exec(
		"INSERT INTO device_status (device_id, status, recorded_at) VALUES (?, ?, ?)",
		"bedroom_fan", "on", old,
	); err != nil {
		t.Fatalf("seeding old row: %v", err)
	}
	if err := repo.RecordStatus(ctx, "bedroom_fan", "off"); err != nil {
		t.Fatalf("RecordStatus() error = %v", err)
	}

	deleted, err := repo.Prune(ctx, 24*time.Hour)
	if err != nil {
		t.Fatalf("Prune() error = %v", err)
	}
	if deleted != 1 {
		t.Errorf("Prune() deleted %d rows, want 1", deleted)
	}

	entries, err := repo.History(ctx, "bedroom_fan", 10)
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("got %d entries after prune, want 1", len(entries))
	}
}

func TestPrune_InvalidDuration(t *testing.T) {
	repo := NewSQLiteStatusRepository(openStatusDB(t))

	if _, err := repo.Prune(context.Background(), 0); err == nil {
		t.Error("Prune(0) succeeded, want error")
	}
}
