package mqtt

import "fmt"

// Topics provides builders for the broker's topic scheme.
// Using these helpers ensures consistent topic naming across the codebase.
//
// Feed publishes follow the {username}/feeds/{channel} convention:
//
//	topics := mqtt.Topics{Username: "homeuser"}
//	topics.Feed("temperature") // "homeuser/feeds/temperature"
type Topics struct {
	Username string
}

// =============================================================================
// Feed Topics
// =============================================================================

// Feed returns the publish topic for a named channel.
//
// Example: homeuser/feeds/temperature
func (t Topics) Feed(channel string) string {
	return fmt.Sprintf("%s/feeds/%s", t.Username, channel)
}

// =============================================================================
// Broker Side Channels
// =============================================================================

// Errors returns the broker's per-account error topic. The broker publishes
// human-readable error descriptions here (e.g. malformed payloads).
//
// Example: homeuser/errors
func (t Topics) Errors() string {
	return fmt.Sprintf("%s/errors", t.Username)
}

// Throttle returns the broker's per-account throttle topic. The broker
// publishes rate-limit warnings here when the account publishes too fast.
//
// Example: homeuser/throttle
func (t Topics) Throttle() string {
	return fmt.Sprintf("%s/throttle", t.Username)
}
