// Package device implements the periodic device status sweep and its
// SQLite-backed history.
//
// The Sweep polls every configured device on the slow cadence, records each
// observation in the device_status table, and exposes the results as a
// sensor.Source so the poller schedules it alongside the environmental and
// security activities. Status history is queryable per device and pruned by
// age.
//
// Device control is not wired yet: StubStatusReader reports a fixed "off"
// for every device, keeping the sweep, persistence and scheduling paths
// exercised until real device integrations land.
package device
