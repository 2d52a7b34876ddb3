package sensor

import (
	"context"
	"errors"
	"time"
)

// ErrNoProbe is returned by NullProbe: no environmental hardware is attached.
var ErrNoProbe = errors.New("sensor: no environmental probe attached")

// EnvironmentSample is one raw sample from an environmental probe.
type EnvironmentSample struct {
	Temperature float64 // degrees Celsius
	Humidity    float64 // percent relative humidity
	Pressure    float64 // hPa
}

// Probe abstracts the environmental sensing hardware (e.g. a BME280).
type Probe interface {
	Sample(ctx context.Context) (EnvironmentSample, error)
}

// NullProbe is the no-hardware probe. Every sample fails with ErrNoProbe,
// which the environmental source translates into explicit null metrics.
type NullProbe struct{}

// Sample always fails; there is no hardware behind it.
func (NullProbe) Sample(context.Context) (EnvironmentSample, error) {
	return EnvironmentSample{}, ErrNoProbe
}

// Environmental reads temperature, humidity and pressure from a Probe.
//
// A probe failure is not an error at the source level: the reading carries
// explicit nulls for all three metrics so the outage is visible downstream
// rather than silently absent.
type Environmental struct {
	probe  Probe
	logger Logger
	now    func() time.Time
}

// NewEnvironmental creates an environmental source backed by the given probe.
func NewEnvironmental(probe Probe, logger Logger) *Environmental {
	return &Environmental{
		probe:  probe,
		logger: logger,
		now:    time.Now,
	}
}

// Name identifies the source in logs and journal records.
func (e *Environmental) Name() string { return "environmental" }

// Read samples the probe once.
//
// Returns:
//   - Reading with temperature/humidity/pressure values, or explicit nulls
//     for all three when the probe fails
//   - error: always nil; probe failures degrade to nulls
func (e *Environmental) Read(ctx context.Context) (Reading, error) {
	reading := Reading{
		Timestamp: e.now(),
		Source:    e.Name(),
		Values:    make(map[string]Value, 3),
	}

	sample, err := e.probe.Sample(ctx)
	if err != nil {
		if e.logger != nil && !errors.Is(err, ErrNoProbe) {
			e.logger.Warn("environmental probe read failed", "error", err)
		}
		reading.Values["temperature"] = Null()
		reading.Values["humidity"] = Null()
		reading.Values["pressure"] = Null()
		return reading, nil
	}

	reading.Values["temperature"] = Float(sample.Temperature)
	reading.Values["humidity"] = Float(sample.Humidity)
	reading.Values["pressure"] = Float(sample.Pressure)
	return reading, nil
}
