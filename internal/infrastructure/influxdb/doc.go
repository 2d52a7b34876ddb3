// Package influxdb provides the optional local time-series mirror for
// DomiSafe readings.
//
// It wraps the official influxdb-client-go v2 library with DomiSafe-specific
// patterns for connection management, reading writes, and health monitoring.
//
// # Purpose
//
// The mirror is strictly secondary storage: the JSONL journal is the system
// of record, and the cloud broker carries the live view. When enabled, the
// mirror gives local dashboards queryable history without a cloud round trip.
//
// # Usage
//
//	cfg := config.InfluxDBConfig{
//	    Enabled: true,
//	    URL:     "http://localhost:8086",
//	    Token:   "your-token",
//	    Org:     "domisafe",
//	    Bucket:  "readings",
//	}
//
//	client, err := influxdb.Connect(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	client.WriteReading(reading)
//
// # Thread Safety
//
// All methods are safe for concurrent use from multiple goroutines.
// The underlying write API uses non-blocking batched writes.
//
// # Error Handling
//
// Write operations are non-blocking and batch errors are logged via a callback.
// Connection and health check errors are returned directly.
//
// # Performance
//
// Writes are batched according to config.yaml settings (batch_size, flush_interval).
// This reduces network overhead for high-frequency telemetry data.
package influxdb
