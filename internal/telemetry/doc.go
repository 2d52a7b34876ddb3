// Package telemetry publishes sensor readings to broker feed topics.
//
// The Publisher maps metric names to feed channels, serialises values to
// their wire form (explicit nulls become the literal "null"), and enforces a
// minimum spacing between consecutive publishes to stay inside the broker's
// per-account rate limit.
//
// Publishing is best effort on top of local persistence: readings are
// journaled before they reach this package, so a broker outage costs
// nothing but the live dashboard view.
package telemetry
