package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/nerrad567/domisafe-core/internal/sensor"
)

// WriteReading mirrors a sensor reading into the local time-series store.
//
// Each concrete metric becomes a field on a "readings" point tagged with the
// source. Explicit nulls are skipped here: the journal is the system of
// record for outages, the mirror only holds plottable values.
//
// The write is non-blocking; data is batched and sent asynchronously.
//
// Parameters:
//   - reading: The reading to mirror (its own timestamp is used)
func (c *Client) WriteReading(reading sensor.Reading) {
	if !c.IsConnected() {
		return
	}

	fields := make(map[string]interface{}, len(reading.Values))
	for name, value := range reading.Values {
		if value.IsNull() {
			continue
		}
		fields[name] = value.Field()
	}
	if len(fields) == 0 {
		return
	}

	point := write.NewPoint(
		"readings",
		map[string]string{"source": reading.Source},
		fields,
		reading.Timestamp,
	)

	c.writeAPI.WritePoint(point)
}

// WritePoint writes a custom point with full control over tags and fields.
//
// Use this for measurements that don't fit the reading model (e.g. agent
// health stats).
//
// Parameters:
//   - measurement: The measurement name (table)
//   - tags: Key-value pairs for indexing (low cardinality)
//   - fields: Key-value pairs for the actual data
//
// Example:
//
//	client.WritePoint("agent_stats",
//	    map[string]string{"host": "domisafe-01"},
//	    map[string]interface{}{"publish_failures": 3})
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]interface{}) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(measurement, tags, fields, time.Now())
	c.writeAPI.WritePoint(point)
}

// WritePointWithTime writes a custom point with a specific timestamp.
//
// Use this when the timestamp is not "now" (e.g., delayed data).
//
// Parameters:
//   - measurement: The measurement name
//   - tags: Key-value pairs for indexing
//   - fields: Key-value pairs for the data
//   - timestamp: The exact time for this data point
func (c *Client) WritePointWithTime(measurement string, tags map[string]string, fields map[string]interface{}, timestamp time.Time) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(measurement, tags, fields, timestamp)
	c.writeAPI.WritePoint(point)
}
