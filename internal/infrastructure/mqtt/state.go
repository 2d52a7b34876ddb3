package mqtt

// ConnectionState describes the broker session lifecycle.
//
// Transitions are owned exclusively by Client; no external code mutates the
// state. The legal transitions are:
//
//	Disconnected → Connecting            (Connect)
//	Connecting   → Connected             (broker acknowledged)
//	Connecting   → Disconnected          (attempt failed)
//	Connected    → Reconnecting          (transport-level disconnect)
//	Reconnecting → Connected             (retry succeeded)
//	Reconnecting → Reconnecting          (retry failed, loop continues)
//	any          → Disconnected          (Close; terminal)
type ConnectionState int

const (
	// StateDisconnected is the initial and terminal state.
	StateDisconnected ConnectionState = iota

	// StateConnecting means a blocking connect attempt is in flight.
	StateConnecting

	// StateConnected means an authenticated session is established.
	// Only this state permits publish calls.
	StateConnected

	// StateReconnecting means the session dropped and the retry loop
	// is running. Retries continue indefinitely until Close.
	StateReconnecting
)

// String returns a human-readable state name for logging.
func (s ConnectionState) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateReconnecting:
		return "reconnecting"
	default:
		return "unknown"
	}
}
