// Package mqtt provides the broker connection manager for the DomiSafe agent.
//
// This package manages:
//   - The single authenticated session to the cloud telemetry broker
//   - An explicit connection state machine (Disconnected, Connecting,
//     Connected, Reconnecting)
//   - Fail-fast publishing to feed topics
//   - Automatic reconnection with a fixed delay and unbounded retries
//   - Subscriptions to the broker's error/throttle side channels,
//     restored across reconnects
//
// # Reconnection
//
// Paho's built-in auto-reconnect is disabled. The client runs its own retry
// loop so that every attempt can present a fresh session identity: brokers
// reject a CONNECT whose client identifier collides with a session they have
// not yet reaped, and reusing the identity after a network drop triggers
// exactly that. Retries use a fixed short delay and never give up; only
// Close stops them. Backoff is deliberately not exponential — a single
// device reconnecting to one broker gains nothing from it.
//
// # Security Considerations
//
//   - TLS (MinVersion 1.2) is the default transport; plaintext is available
//     only as a legacy fallback via broker.tls=false
//   - The broker key is carried in memory only and never logged
//
// # Usage
//
//	client := mqtt.New(cfg.Broker)
//	client.SetLogger(log)
//	if err := client.Connect(); err != nil {
//	    log.Warn("initial connect failed, retrying in background", "error", err)
//	    client.Reconnect()
//	}
//	defer client.Close()
//
//	topic := mqtt.Topics{Username: cfg.Broker.Username}.Feed("temperature")
//	err := client.Publish(topic, []byte("21.5"))
package mqtt
