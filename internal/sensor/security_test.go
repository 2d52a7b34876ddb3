package sensor

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

// fakeDetector returns a scripted sequence of detections.
type fakeDetector struct {
	results []bool
	err     error
	calls   int
}

func (d *fakeDetector) Detect(context.Context) (bool, error) {
	if d.err != nil {
		return false, d.err
	}
	if d.calls >= len(d.results) {
		return false, nil
	}
	result := d.results[d.calls]
	d.calls++
	return result, nil
}

// recordingAlerter records the order of LED/buzzer operations.
type recordingAlerter struct {
	ops []string
}

func (a *recordingAlerter) SetLED(on bool) error {
	a.ops = append(a.ops, "led="+onOff(on))
	return nil
}

func (a *recordingAlerter) SetBuzzer(on bool) error {
	a.ops = append(a.ops, "buzzer="+onOff(on))
	return nil
}

func onOff(on bool) string {
	if on {
		return "on"
	}
	return "off"
}

// fakeCamera records capture paths, optionally failing.
type fakeCamera struct {
	paths  []string
	err    error
	closed int
}

func (c *fakeCamera) Capture(_ context.Context, path string) error {
	if c.err != nil {
		return c.err
	}
	c.paths = append(c.paths, path)
	return nil
}

func (c *fakeCamera) Close() error {
	c.closed++
	return nil
}

// newTestSecurity wires a Security source with fakes and a frozen clock.
func newTestSecurity(detector MotionDetector, alerter Alerter, camera Camera) *Security {
	s := NewSecurity(detector, alerter, camera, "/tmp/images", nil)
	s.now = func() time.Time { return time.Date(2026, 8, 23, 10, 15, 0, 0, time.UTC) }
	s.sleep = func(time.Duration) {}
	return s
}

// =============================================================================
// Motion Response Tests
// =============================================================================

func TestSecurity_MotionFiresAlertChain(t *testing.T) {
	alerter := &recordingAlerter{}
	camera := &fakeCamera{}
	sec := newTestSecurity(&fakeDetector{results: []bool{true}}, alerter, camera)

	var slept time.Duration
	sec.sleep = func(d time.Duration) { slept = d }

	reading, err := sec.Read(context.Background())
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}

	wantOps := []string{"led=on", "buzzer=on", "buzzer=off"}
	if len(alerter.ops) != len(wantOps) {
		t.Fatalf("alerter ops = %v, want %v", alerter.ops, wantOps)
	}
	for i, op := range alerter.ops {
		if op != wantOps[i] {
			t.Errorf("alerter op[%d] = %q, want %q", i, op, wantOps[i])
		}
	}

	if slept != buzzerChirp {
		t.Errorf("buzzer chirp = %v, want %v", slept, buzzerChirp)
	}

	if got := reading.Values["motion_detected"].Payload(); got != "1" {
		t.Errorf("motion_detected = %q, want 1", got)
	}
	if got := reading.Values["led_status"].Payload(); got != "1" {
		t.Errorf("led_status = %q, want 1", got)
	}
	if got := reading.Values["buzzer_status"].Payload(); got != "1" {
		t.Errorf("buzzer_status = %q, want 1", got)
	}
}

func TestSecurity_MotionCapturesTimestampedImage(t *testing.T) {
	camera := &fakeCamera{}
	sec := newTestSecurity(&fakeDetector{results: []bool{true}}, &recordingAlerter{}, camera)

	reading, err := sec.Read(context.Background())
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}

	if len(camera.paths) != 1 {
		t.Fatalf("got %d captures, want 1", len(camera.paths))
	}

	want := "motion_20260823_101500.jpg"
	if !strings.HasSuffix(camera.paths[0], want) {
		t.Errorf("capture path = %q, want suffix %q", camera.paths[0], want)
	}

	image := reading.Values["camera_last_image"]
	if image.IsNull() {
		t.Fatal("camera_last_image is null after successful capture")
	}
	if got := image.Payload(); got != camera.paths[0] {
		t.Errorf("camera_last_image = %q, want %q", got, camera.paths[0])
	}
}

func TestSecurity_NoMotionTurnsLEDOff(t *testing.T) {
	alerter := &recordingAlerter{}
	camera := &fakeCamera{}
	sec := newTestSecurity(&fakeDetector{results: []bool{false}}, alerter, camera)

	reading, err := sec.Read(context.Background())
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}

	if len(alerter.ops) != 1 || alerter.ops[0] != "led=off" {
		t.Errorf("alerter ops = %v, want [led=off]", alerter.ops)
	}
	if len(camera.paths) != 0 {
		t.Errorf("got %d captures without motion, want 0", len(camera.paths))
	}

	if got := reading.Values["motion_detected"].Payload(); got != "0" {
		t.Errorf("motion_detected = %q, want 0", got)
	}
	if got := reading.Values["buzzer_status"].Payload(); got != "0" {
		t.Errorf("buzzer_status = %q, want 0", got)
	}

	// No capture yet: the image metric is an explicit null, not absent.
	image, ok := reading.Values["camera_last_image"]
	if !ok {
		t.Fatal("camera_last_image missing from reading")
	}
	if !image.IsNull() {
		t.Errorf("camera_last_image = %q before any capture, want null", image.Payload())
	}
}

func TestSecurity_LastImagePersistsAcrossCycles(t *testing.T) {
	camera := &fakeCamera{}
	sec := newTestSecurity(&fakeDetector{results: []bool{true, false}}, &recordingAlerter{}, camera)

	if _, err := sec.Read(context.Background()); err != nil {
		t.Fatalf("first Read() error = %v", err)
	}
	reading, err := sec.Read(context.Background())
	if err != nil {
		t.Fatalf("second Read() error = %v", err)
	}

	image := reading.Values["camera_last_image"]
	if image.IsNull() {
		t.Fatal("camera_last_image reset to null on a quiet cycle")
	}
	if got := image.Payload(); got != camera.paths[0] {
		t.Errorf("camera_last_image = %q, want earlier capture %q", got, camera.paths[0])
	}
}

func TestSecurity_CaptureFailureKeepsPreviousImage(t *testing.T) {
	camera := &fakeCamera{}
	detector := &fakeDetector{results: []bool{true, true}}
	sec := newTestSecurity(detector, &recordingAlerter{}, camera)

	if _, err := sec.Read(context.Background()); err != nil {
		t.Fatalf("first Read() error = %v", err)
	}

	camera.err = errors.New("device busy")
	reading, err := sec.Read(context.Background())
	if err != nil {
		t.Fatalf("second Read() error = %v", err)
	}

	image := reading.Values["camera_last_image"]
	if got := image.Payload(); got != camera.paths[0] {
		t.Errorf("camera_last_image = %q after capture failure, want previous %q", got, camera.paths[0])
	}
}

// =============================================================================
// Degraded Hardware Tests
// =============================================================================

func TestSecurity_DetectorFailureYieldsNulls(t *testing.T) {
	detector := &fakeDetector{err: errors.New("gpio read failed")}
	sec := newTestSecurity(detector, &recordingAlerter{}, &fakeCamera{})

	reading, err := sec.Read(context.Background())
	if err != nil {
		t.Fatalf("Read() error = %v, want nil (failures degrade to nulls)", err)
	}

	for _, metric := range []string{"motion_detected", "led_status", "buzzer_status"} {
		value, ok := reading.Values[metric]
		if !ok {
			t.Fatalf("reading missing metric %q", metric)
		}
		if !value.IsNull() {
			t.Errorf("%s = %q after detector failure, want null", metric, value.Payload())
		}
	}
}

func TestSecurity_Close(t *testing.T) {
	camera := &fakeCamera{}
	sec := newTestSecurity(NullMotionDetector{}, NullAlerter{}, camera)

	if err := sec.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := sec.Close(); err != nil {
		t.Fatalf("second Close() error = %v", err)
	}

	if camera.closed != 1 {
		t.Errorf("camera closed %d times, want exactly 1", camera.closed)
	}
}
