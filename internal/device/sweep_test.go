package device

import (
	"context"
	"errors"
	"testing"
	"time"
)

// memoryRepo records status writes in memory.
type memoryRepo struct {
	recorded []recordedStatus
	err      error
}

type recordedStatus struct {
	deviceID string
	status   string
}

func (r *memoryRepo) RecordStatus(_ context.Context, deviceID, status string) error {
	if r.err != nil {
		return r.err
	}
	r.recorded = append(r.recorded, recordedStatus{deviceID: deviceID, status: status})
	return nil
}

func (r *memoryRepo) History(context.Context, string, int) ([]StatusEntry, error) {
	return nil, nil
}

func (r *memoryRepo) Prune(context.Context, time.Duration) (int64, error) {
	return 0, nil
}

// failingReader fails for one device and reports "on" for the rest.
type failingReader struct {
	failDevice string
}

func (r failingReader) Status(_ context.Context, deviceID string) (string, error) {
	if deviceID == r.failDevice {
		return "", errors.New("device unreachable")
	}
	return "on", nil
}

func TestSweep_RecordsEveryDevice(t *testing.T) {
	repo := &memoryRepo{}
	sweep := NewSweep([]string{"living_room_light", "bedroom_fan"}, StubStatusReader{}, repo, nil)

	reading, err := sweep.Read(context.Background())
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}

	if reading.Source != "devices" {
		t.Errorf("Source = %q, want %q", reading.Source, "devices")
	}

	for _, deviceID := range []string{"living_room_light", "bedroom_fan"} {
		value, ok := reading.Values[deviceID]
		if !ok {
			t.Fatalf("reading missing device %q", deviceID)
		}
		if got := value.Payload(); got != "off" {
			t.Errorf("%s status = %q, want stub %q", deviceID, got, "off")
		}
	}

	if len(repo.recorded) != 2 {
		t.Fatalf("repo recorded %d statuses, want 2", len(repo.recorded))
	}
}

func TestSweep_DeviceFailureDoesNotStopSweep(t *testing.T) {
	repo := &memoryRepo{}
	sweep := NewSweep(
		[]string{"living_room_light", "bedroom_fan"},
		failingReader{failDevice: "living_room_light"},
		repo,
		nil,
	)

	reading, err := sweep.Read(context.Background())
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}

	if !reading.Values["living_room_light"].IsNull() {
		t.Error("failed device status should be explicit null")
	}
	if got := reading.Values["bedroom_fan"].Payload(); got != "on" {
		t.Errorf("bedroom_fan status = %q, want %q", got, "on")
	}

	// Only the healthy device reaches the repository.
	if len(repo.recorded) != 1 || repo.recorded[0].deviceID != "bedroom_fan" {
		t.Errorf("repo recorded = %v, want only bedroom_fan", repo.recorded)
	}
}

func TestSweep_RepositoryFailureDoesNotAffectReading(t *testing.T) {
	repo := &memoryRepo{err: errors.New("database is locked")}
	sweep := NewSweep([]string{"living_room_light"}, StubStatusReader{}, repo, nil)

	reading, err := sweep.Read(context.Background())
	if err != nil {
		t.Fatalf("Read() error = %v, want nil (repo failures are logged)", err)
	}

	if got := reading.Values["living_room_light"].Payload(); got != "off" {
		t.Errorf("status = %q, want %q despite repo failure", got, "off")
	}
}

func TestSweep_NilRepository(t *testing.T) {
	sweep := NewSweep([]string{"living_room_light"}, StubStatusReader{}, nil, nil)

	if _, err := sweep.Read(context.Background()); err != nil {
		t.Fatalf("Read() with nil repo error = %v", err)
	}
}
