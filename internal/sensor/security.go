package sensor

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"
)

// buzzerChirp is how long the buzzer sounds when motion is detected.
const buzzerChirp = 700 * time.Millisecond

// MotionDetector abstracts the PIR motion sensor.
type MotionDetector interface {
	Detect(ctx context.Context) (bool, error)
}

// Alerter abstracts the local alert outputs (status LED and buzzer).
type Alerter interface {
	SetLED(on bool) error
	SetBuzzer(on bool) error
}

// Camera abstracts the capture device. Capture writes a JPEG to the given
// path. Close releases the device handle.
type Camera interface {
	Capture(ctx context.Context, path string) error
	Close() error
}

// NullMotionDetector never detects motion. Used when no PIR is attached.
type NullMotionDetector struct{}

func (NullMotionDetector) Detect(context.Context) (bool, error) { return false, nil }

// NullAlerter discards all alert output.
type NullAlerter struct{}

func (NullAlerter) SetLED(bool) error    { return nil }
func (NullAlerter) SetBuzzer(bool) error { return nil }

// NullCamera captures nothing and reports an error so the image metric
// stays null rather than pointing at a file that does not exist.
type NullCamera struct{}

func (NullCamera) Capture(context.Context, string) error {
	return fmt.Errorf("sensor: no camera attached")
}

func (NullCamera) Close() error { return nil }

// Security polls the motion detector and drives the alert chain when motion
// is seen: LED on, a short buzzer chirp, and an image capture. Without
// motion the LED is switched off and no image is taken.
//
// Thread Safety:
//   - Read and Close are safe to call from different goroutines; Read is
//     never called concurrently with itself (single polling goroutine).
type Security struct {
	detector MotionDetector
	alerter  Alerter
	camera   Camera
	imageDir string
	logger   Logger

	// lastImage is the most recent successful capture path; guarded by mu
	// because Close can race the polling goroutine during shutdown.
	lastImage string
	closed    bool
	mu        sync.Mutex

	now   func() time.Time
	sleep func(time.Duration)
}

// NewSecurity creates a security source. Captured images land in imageDir
// as motion_YYYYMMDD_HHMMSS.jpg.
func NewSecurity(detector MotionDetector, alerter Alerter, camera Camera, imageDir string, logger Logger) *Security {
	return &Security{
		detector: detector,
		alerter:  alerter,
		camera:   camera,
		imageDir: imageDir,
		logger:   logger,
		now:      time.Now,
		sleep:    time.Sleep,
	}
}

// Name identifies the source in logs and journal records.
func (s *Security) Name() string { return "security" }

// Read polls the motion detector once and, on motion, fires the alert chain.
//
// The reading always carries motion_detected, led_status and buzzer_status.
// camera_last_image is the path of the most recent capture, or an explicit
// null when no image has been taken yet.
func (s *Security) Read(ctx context.Context) (Reading, error) {
	reading := Reading{
		Timestamp: s.now(),
		Source:    s.Name(),
		Values:    make(map[string]Value, 4),
	}

	motion, err := s.detector.Detect(ctx)
	if err != nil {
		if s.logger != nil {
			s.logger.Warn("motion detector read failed", "error", err)
		}
		reading.Values["motion_detected"] = Null()
		reading.Values["led_status"] = Null()
		reading.Values["buzzer_status"] = Null()
		reading.Values["camera_last_image"] = s.lastImageValue()
		return reading, nil
	}

	buzzed := false
	if motion {
		s.alert(ctx)
		buzzed = true
	} else {
		if err := s.alerter.SetLED(false); err != nil && s.logger != nil {
			s.logger.Warn("led off failed", "error", err)
		}
	}

	reading.Values["motion_detected"] = boolMetric(motion)
	reading.Values["led_status"] = boolMetric(motion)
	reading.Values["buzzer_status"] = boolMetric(buzzed)
	reading.Values["camera_last_image"] = s.lastImageValue()
	return reading, nil
}

// alert drives the response to detected motion: LED on, buzzer chirp, capture.
func (s *Security) alert(ctx context.Context) {
	if err := s.alerter.SetLED(true); err != nil && s.logger != nil {
		s.logger.Warn("led on failed", "error", err)
	}

	if err := s.alerter.SetBuzzer(true); err != nil {
		if s.logger != nil {
			s.logger.Warn("buzzer on failed", "error", err)
		}
	} else {
		s.sleep(buzzerChirp)
		if err := s.alerter.SetBuzzer(false); err != nil && s.logger != nil {
			s.logger.Warn("buzzer off failed", "error", err)
		}
	}

	s.capture(ctx)
}

// capture takes a timestamped image and records it as the latest capture.
func (s *Security) capture(ctx context.Context) {
	name := fmt.Sprintf("motion_%s.jpg", s.now().Format("20060102_150405"))
	path := filepath.Join(s.imageDir, name)

	if err := s.camera.Capture(ctx, path); err != nil {
		if s.logger != nil {
			s.logger.Warn("image capture failed", "path", path, "error", err)
		}
		return
	}

	s.mu.Lock()
	s.lastImage = path
	s.mu.Unlock()

	if s.logger != nil {
		s.logger.Info("motion image captured", "path", path)
	}
}

// lastImageValue returns the latest capture path, or null before any capture.
func (s *Security) lastImageValue() Value {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lastImage == "" {
		return Null()
	}
	return Text(s.lastImage)
}

// Close releases the camera device. Safe to call more than once.
func (s *Security) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	return s.camera.Close()
}

// boolMetric maps a boolean state onto the 1/0 wire convention.
func boolMetric(on bool) Value {
	if on {
		return Int(1)
	}
	return Int(0)
}
