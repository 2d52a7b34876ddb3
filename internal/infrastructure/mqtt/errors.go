package mqtt

import (
	"errors"
	"fmt"

	"github.com/eclipse/paho.mqtt.golang/packets"
)

// Domain-specific errors for broker operations.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrNotConnected is returned when attempting operations on a disconnected client.
	ErrNotConnected = errors.New("mqtt: client not connected")

	// ErrConnectTimeout is returned when the broker does not acknowledge the
	// session within the connect timeout.
	ErrConnectTimeout = errors.New("mqtt: connect timed out")

	// ErrConnectionRejected is returned when the broker refuses the session at
	// the protocol level (bad credentials, identifier conflict). Wrapped by
	// RejectionError, which carries the CONNACK return code.
	ErrConnectionRejected = errors.New("mqtt: connection rejected by broker")

	// ErrConnectionFailed is returned when a connection attempt fails at the
	// transport level (refused, unreachable, TLS failure).
	ErrConnectionFailed = errors.New("mqtt: connection failed")

	// ErrPublishFailed is returned when a publish operation fails.
	ErrPublishFailed = errors.New("mqtt: publish failed")

	// ErrSubscribeFailed is returned when a subscribe operation fails.
	ErrSubscribeFailed = errors.New("mqtt: subscribe failed")

	// ErrUnsubscribeFailed is returned when an unsubscribe operation fails.
	ErrUnsubscribeFailed = errors.New("mqtt: unsubscribe failed")

	// ErrInvalidQoS is returned when an invalid QoS level is specified.
	// Valid QoS levels are 0, 1, or 2.
	ErrInvalidQoS = errors.New("mqtt: invalid QoS level (must be 0, 1, or 2)")

	// ErrInvalidTopic is returned when an empty or invalid topic is provided.
	ErrInvalidTopic = errors.New("mqtt: topic cannot be empty")
)

// RejectionError is a protocol-level connection refusal from the broker.
//
// Code is the CONNACK return code (e.g. 4 for bad username or password,
// 2 for identifier rejected); Reason is its human-readable description.
// Unwraps to ErrConnectionRejected.
type RejectionError struct {
	Code   byte
	Reason string
}

// Error implements the error interface.
func (e *RejectionError) Error() string {
	return fmt.Sprintf("mqtt: connection rejected (code %d): %s", e.Code, e.Reason)
}

// Unwrap allows errors.Is(err, ErrConnectionRejected).
func (e *RejectionError) Unwrap() error {
	return ErrConnectionRejected
}

// classifyConnectError maps a paho connect error into the package taxonomy.
//
// Paho surfaces CONNACK refusals as the sentinel errors in its packets
// package; anything else is treated as a transport failure.
func classifyConnectError(err error) error {
	for code, connErr := range packets.ConnErrors {
		if connErr == nil {
			continue
		}
		if errors.Is(err, connErr) {
			return &RejectionError{Code: code, Reason: connErr.Error()}
		}
	}
	return fmt.Errorf("%w: %w", ErrConnectionFailed, err)
}
