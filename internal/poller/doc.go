// Package poller schedules the agent's polling activities on a single
// goroutine.
//
// Each Activity pairs a sensor.Source with an interval and an optional map
// of feed channels. A base ticker (default 1s) drives the loop; an activity
// fires when its interval has elapsed since its last firing, so cadences are
// level-triggered rather than drift-corrected.
//
// Every firing runs the same pipeline in order:
//
//  1. Read the source
//  2. Append the reading to the journal (system of record)
//  3. Mirror to the local time-series store, if enabled
//  4. Publish to the broker feeds, if the activity has channels
//
// Errors at any stage are logged and never stop the loop: the agent keeps
// collecting through broker outages, database locks and flaky sensors.
package poller
