package mqtt

import (
	"fmt"
)

// Maximum payload size for published messages (100KB).
// Feed values are short strings; anything near this limit is a caller bug.
const maxPayloadSize = 100 << 10

// Publish sends a message to the specified topic.
//
// Publishing is synchronous fail-fast: if the session is not in the
// Connected state the call returns ErrNotConnected immediately. There is no
// queuing and no blocking wait for reconnection — the caller retries on its
// next cycle. Messages are sent at QoS 0 (at-most-once best effort).
//
// Parameters:
//   - topic: The topic to publish to (e.g. "homeuser/feeds/temperature")
//   - payload: The message payload (UTF-8 string bytes, max 100KB)
//
// Returns:
//   - error: nil on success, or wrapped error describing the failure
//
// Example:
//
//	topic := mqtt.Topics{Username: "homeuser"}.Feed("temperature")
//	err := client.Publish(topic, []byte("21.5"))
func (c *Client) Publish(topic string, payload []byte) error {
	// Validate inputs
	if topic == "" {
		return ErrInvalidTopic
	}
	if len(payload) > maxPayloadSize {
		return fmt.Errorf("%w: payload size %d exceeds maximum %d bytes", ErrPublishFailed, len(payload), maxPayloadSize)
	}

	// Check connection state. Connecting and Reconnecting never
	// short-circuit into publish calls.
	c.connMu.RLock()
	state := c.state
	client := c.client
	c.connMu.RUnlock()

	if state != StateConnected || client == nil {
		return ErrNotConnected
	}

	// Publish with timeout
	token := client.Publish(topic, publishQoS, false, payload)
	if !token.WaitTimeout(defaultPublishTimeout) {
		return fmt.Errorf("%w: timeout after %v", ErrPublishFailed, defaultPublishTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("%w: %w", ErrPublishFailed, err)
	}

	return nil
}

// PublishString is a convenience method that publishes a string payload.
//
// This is equivalent to calling Publish with []byte(payload).
func (c *Client) PublishString(topic string, payload string) error {
	return c.Publish(topic, []byte(payload))
}
