package device

import (
	"context"
	"time"

	"github.com/nerrad567/domisafe-core/internal/sensor"
)

// StatusReader reports the current status of a device.
type StatusReader interface {
	Status(ctx context.Context, deviceID string) (string, error)
}

// StubStatusReader reports every device as "off". It stands in until the
// devices expose a real control interface.
//
// TODO: replace with the MQTT command/state bridge once the smart plugs
// publish their own state topics.
type StubStatusReader struct{}

// Status always reports "off".
func (StubStatusReader) Status(context.Context, string) (string, error) {
	return "off", nil
}

// Sweep polls the status of every configured device and records each
// observation in the status repository.
//
// Sweep implements sensor.Source so the poller can schedule it like any
// other activity. Its reading carries one text metric per device; the feed
// channel map for the sweep is typically empty, so statuses stay local
// (journal + database) rather than going to the cloud broker.
type Sweep struct {
	devices []string
	reader  StatusReader
	repo    StatusRepository
	logger  Logger
	now     func() time.Time
}

// NewSweep creates a device status sweep over the configured device IDs.
//
// Parameters:
//   - devices: device identifiers from config
//   - reader: status reader (StubStatusReader until real control exists)
//   - repo: status repository; nil disables database recording
//   - logger: optional; repository failures are logged at Warn
func NewSweep(devices []string, reader StatusReader, repo StatusRepository, logger Logger) *Sweep {
	return &Sweep{
		devices: devices,
		reader:  reader,
		repo:    repo,
		logger:  logger,
		now:     time.Now,
	}
}

// Name identifies the source in logs and journal records.
func (s *Sweep) Name() string { return "devices" }

// Read polls every configured device once.
//
// A failure for one device does not stop the sweep: that device's metric
// becomes an explicit null and the rest are still polled. Repository write
// failures are logged and do not affect the reading.
func (s *Sweep) Read(ctx context.Context) (sensor.Reading, error) {
	reading := sensor.Reading{
		Timestamp: s.now(),
		Source:    s.Name(),
		Values:    make(map[string]sensor.Value, len(s.devices)),
	}

	for _, deviceID := range s.devices {
		status, err := s.reader.Status(ctx, deviceID)
		if err != nil {
			if s.logger != nil {
				s.logger.Warn("device status read failed", "device", deviceID, "error", err)
			}
			reading.Values[deviceID] = sensor.Null()
			continue
		}

		reading.Values[deviceID] = sensor.Text(status)

		if s.repo != nil {
			if err := s.repo.RecordStatus(ctx, deviceID, status); err != nil && s.logger != nil {
				s.logger.Warn("device status record failed", "device", deviceID, "error", err)
			}
		}
	}

	return reading, nil
}
