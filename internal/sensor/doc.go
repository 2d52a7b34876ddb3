// Package sensor defines the reading model and the hardware-facing sources
// for the DomiSafe agent.
//
// A Source produces Readings: timestamped maps of metric name to Value.
// Values carry an explicit null state, distinct from a metric being absent
// from the map. The distinction propagates all the way to the broker: null
// publishes as the literal "null", absent publishes nothing.
//
// Two sources live here:
//
//   - Environmental: temperature, humidity and pressure from a Probe.
//     Probe failures degrade to explicit nulls, never to errors.
//   - Security: motion detection with a local alert chain (LED, buzzer
//     chirp, timestamped image capture).
//
// Hardware is abstracted behind small interfaces (Probe, MotionDetector,
// Alerter, Camera) with Null implementations for hosts without the
// peripherals attached. The device status sweep lives in internal/device.
package sensor
