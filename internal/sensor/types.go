package sensor

import (
	"context"
	"encoding/json"
	"strconv"
	"time"
)

// valueKind discriminates the payload representation of a Value.
type valueKind int

const (
	kindNull valueKind = iota
	kindFloat
	kindInt
	kindBool
	kindText
)

// Value is a single metric reading.
//
// A Value is either a concrete measurement (float, int, bool or text) or an
// explicit null. Null is distinct from absence: a null value is published to
// the broker as the literal string "null" so that downstream dashboards can
// distinguish "the sensor reported nothing" from "the agent never asked".
// An absent metric simply does not appear in the Reading at all.
type Value struct {
	kind valueKind
	f    float64
	i    int64
	b    bool
	s    string
}

// Float returns a Value holding a floating point measurement.
func Float(v float64) Value { return Value{kind: kindFloat, f: v} }

// Int returns a Value holding an integer measurement.
func Int(v int64) Value { return Value{kind: kindInt, i: v} }

// Bool returns a Value holding a boolean measurement.
// Booleans serialise as 1/0 on the wire.
func Bool(v bool) Value { return Value{kind: kindBool, b: v} }

// Text returns a Value holding a string measurement (e.g. an image path).
func Text(v string) Value { return Value{kind: kindText, s: v} }

// Null returns the explicit null Value.
func Null() Value { return Value{kind: kindNull} }

// IsNull reports whether the value is an explicit null.
func (v Value) IsNull() bool { return v.kind == kindNull }

// Payload returns the broker wire representation of the value.
//
// Explicit nulls become the literal string "null"; booleans become "1"/"0";
// floats use the shortest representation that round-trips.
func (v Value) Payload() string {
	switch v.kind {
	case kindFloat:
		return strconv.FormatFloat(v.f, 'f', -1, 64)
	case kindInt:
		return strconv.FormatInt(v.i, 10)
	case kindBool:
		if v.b {
			return "1"
		}
		return "0"
	case kindText:
		return v.s
	default:
		return "null"
	}
}

// Field returns the native Go value for time-series field encoding.
// Explicit nulls return nil; callers mirroring to a TSDB skip those.
func (v Value) Field() any {
	switch v.kind {
	case kindFloat:
		return v.f
	case kindInt:
		return v.i
	case kindBool:
		return v.b
	case kindText:
		return v.s
	default:
		return nil
	}
}

// MarshalJSON implements json.Marshaler for journal records.
// Nulls serialise as JSON null, not the string "null".
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case kindFloat:
		return json.Marshal(v.f)
	case kindInt:
		return json.Marshal(v.i)
	case kindBool:
		return json.Marshal(v.b)
	case kindText:
		return json.Marshal(v.s)
	default:
		return []byte("null"), nil
	}
}

// Reading is one polling cycle's worth of metrics from a single source.
//
// Values maps metric name to measurement. A metric missing from the map was
// not sampled this cycle and is skipped entirely downstream; a metric present
// with a null Value is propagated as an explicit null.
type Reading struct {
	Timestamp time.Time
	Source    string
	Values    map[string]Value
}

// Record returns the journal representation of the reading: a flat map
// suitable for JSONL encoding, with metrics inlined alongside the metadata.
func (r Reading) Record() map[string]any {
	record := make(map[string]any, len(r.Values)+2)
	record["timestamp"] = r.Timestamp.UTC().Format(time.RFC3339)
	record["source"] = r.Source
	for name, value := range r.Values {
		record[name] = value
	}
	return record
}

// Logger interface for optional logging support.
// Compatible with logging.Logger and slog.Logger.
type Logger interface {
	Error(msg string, args ...any)
	Warn(msg string, args ...any)
	Info(msg string, args ...any)
}

// Source produces Readings on demand. Implementations must be safe to call
// from the polling goroutine; they are never called concurrently with
// themselves.
type Source interface {
	// Name identifies the source in logs and journal records.
	Name() string

	// Read samples the source once. A degraded source should return a
	// Reading with explicit null values rather than an error where possible;
	// errors are reserved for failures that produced no reading at all.
	Read(ctx context.Context) (Reading, error)
}
