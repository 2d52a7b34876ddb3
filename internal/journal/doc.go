// Package journal provides append-only local persistence for sensor
// readings.
//
// Records are written as JSON Lines, one file per stream per day
// (YYYYMMDD_<stream>.jsonl). The journal is the durability layer under the
// telemetry pipeline: every reading is appended here before any publish is
// attempted, so a broker outage never loses data, only live visibility.
//
// The date in the filename is fixed when the journal is opened. A process
// that runs across midnight keeps writing to the start-date file; the daily
// archiver relies on that when it zips yesterday's files by name.
package journal
