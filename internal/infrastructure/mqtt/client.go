package mqtt

import (
	"sync"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/nerrad567/domisafe-core/internal/infrastructure/config"
)

// Client owns the single authenticated session to the telemetry broker.
//
// It wraps paho.mqtt.golang with an explicit connection state machine,
// fail-fast publishing, and its own reconnect loop: fixed delay, unbounded
// retries, and a fresh session identity on every attempt. Paho's built-in
// reconnection is disabled (see buildClientOptions).
//
// Thread Safety:
//   - All methods are safe for concurrent use from multiple goroutines.
//   - Transport callbacks (connection lost) run on paho's network goroutine
//     and synchronise with callers through the state mutex.
//   - At most one live transport connection exists at any time; the previous
//     paho client is torn down before a new attempt is made.
type Client struct {
	cfg config.BrokerConfig

	// client is the current paho client; nil when no attempt has succeeded
	// yet or after Close. Guarded by connMu together with state/identity.
	client   pahomqtt.Client
	state    ConnectionState
	identity string
	connMu   sync.RWMutex

	// subscriptions tracks active subscriptions for restoration after a
	// reconnect (each reconnect builds a new paho client, so broker-side
	// subscription state does not survive).
	subscriptions map[string]subscription
	subMu         sync.RWMutex

	// onStateChange is invoked after every state transition (optional).
	onStateChange func(from, to ConnectionState)
	callbackMu    sync.RWMutex

	// stopCh cancels the reconnect loop; closed exactly once by Close.
	stopCh   chan struct{}
	stopOnce sync.Once

	// reconnecting guards against more than one retry loop at a time.
	reconnecting bool
	reconnectMu  sync.Mutex
	wg           sync.WaitGroup

	logger   Logger
	loggerMu sync.RWMutex
}

// Logger interface for optional logging support.
// Compatible with logging.Logger and slog.Logger.
type Logger interface {
	Error(msg string, args ...any)
	Warn(msg string, args ...any)
	Info(msg string, args ...any)
}

// subscription holds subscription details for restoration after reconnect.
type subscription struct {
	topic   string
	qos     byte
	handler MessageHandler
}

// MessageHandler is the callback signature for received messages.
//
// Handlers are invoked in separate goroutines by the paho library.
// They should not block for extended periods.
//
// Parameters:
//   - topic: The topic the message was received on (wildcards expanded)
//   - payload: The raw message payload
//
// Returns:
//   - error: Logged but does not affect message acknowledgment
type MessageHandler func(topic string, payload []byte) error

// New creates a disconnected Client for the given broker configuration.
// Call Connect to establish the initial session.
func New(cfg config.BrokerConfig) *Client {
	return &Client{
		cfg:           cfg,
		state:         StateDisconnected,
		subscriptions: make(map[string]subscription),
		stopCh:        make(chan struct{}),
	}
}

// Connect performs one blocking connection attempt.
//
// It opens a TLS session to the configured host:port, authenticates with
// username/key, and blocks until the broker acknowledges the session or the
// connect timeout (10s) elapses.
//
// Returns:
//   - nil: the session is established; state is Connected
//   - ErrConnectTimeout: the broker did not acknowledge in time
//   - RejectionError: the broker refused the session (check the code)
//   - ErrConnectionFailed: transport-level failure
//
// On error the state returns to Disconnected. Callers that want the
// indefinite retry behaviour after a failed initial attempt call Reconnect.
func (c *Client) Connect() error {
	c.setState(StateConnecting)
	if err := c.attempt(); err != nil {
		c.setState(StateDisconnected)
		return err
	}
	return nil
}

// attempt makes a single connection attempt with a fresh session identity.
// The caller is responsible for having set Connecting or Reconnecting.
func (c *Client) attempt() error {
	// At most one live transport: tear down the previous client first.
	c.teardownTransport()

	identity := c.sessionIdentity()
	opts := buildClientOptions(c.cfg, identity)
	opts.SetConnectionLostHandler(func(_ pahomqtt.Client, err error) {
		c.handleConnectionLost(err)
	})

	client := pahomqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(defaultConnectTimeout) {
		client.Disconnect(0)
		return ErrConnectTimeout
	}
	if err := token.Error(); err != nil {
		return classifyConnectError(err)
	}

	c.connMu.Lock()
	c.client = client
	c.identity = identity
	c.connMu.Unlock()

	c.setState(StateConnected)

	// The new session starts clean; re-establish tracked subscriptions.
	c.restoreSubscriptions()

	return nil
}

// sessionIdentity returns the identity for the next connection attempt.
// A configured client_id pins the identity; otherwise a fresh one is
// generated per attempt.
func (c *Client) sessionIdentity() string {
	if c.cfg.ClientID != "" {
		return c.cfg.ClientID
	}
	return newSessionIdentity()
}

// handleConnectionLost is invoked by paho when the session drops unexpectedly.
func (c *Client) handleConnectionLost(err error) {
	select {
	case <-c.stopCh:
		// Shutting down; the drop is expected.
		return
	default:
	}

	if logger := c.getLogger(); logger != nil {
		logger.Warn("broker connection lost", "error", err)
	}

	c.setState(StateReconnecting)
	c.Reconnect()
}

// Reconnect starts the background retry loop if it is not already running.
//
// The loop waits the configured fixed delay between attempts and retries
// indefinitely, generating a new session identity each time, until an
// attempt succeeds or Close is called. There is no exponential backoff:
// a single-device agent reconnecting to one broker does not need one.
func (c *Client) Reconnect() {
	c.reconnectMu.Lock()
	if c.reconnecting {
		c.reconnectMu.Unlock()
		return
	}
	c.reconnecting = true
	c.reconnectMu.Unlock()

	if c.State() != StateReconnecting {
		c.setState(StateReconnecting)
	}

	c.wg.Add(1)
	go c.reconnectLoop()
}

// reconnectLoop retries until success or shutdown.
func (c *Client) reconnectLoop() {
	defer c.wg.Done()
	defer func() {
		c.reconnectMu.Lock()
		c.reconnecting = false
		c.reconnectMu.Unlock()
	}()

	delay := time.Duration(c.cfg.ReconnectDelay) * time.Second
	if delay <= 0 {
		delay = 2 * time.Second
	}

	for attempt := 1; ; attempt++ {
		select {
		case <-c.stopCh:
			return
		case <-time.After(delay):
		}

		err := c.attempt()
		if err == nil {
			if logger := c.getLogger(); logger != nil {
				logger.Info("broker session re-established",
					"attempts", attempt,
					"client_id", c.SessionIdentity(),
				)
			}
			return
		}

		if logger := c.getLogger(); logger != nil {
			logger.Warn("reconnect attempt failed",
				"attempt", attempt,
				"retry_in", delay.String(),
				"error", err,
			)
		}
	}
}

// teardownTransport disconnects and discards the current paho client, if any.
func (c *Client) teardownTransport() {
	c.connMu.Lock()
	old := c.client
	c.client = nil
	c.connMu.Unlock()

	if old != nil {
		old.Disconnect(disconnectQuiesce)
	}
}

// restoreSubscriptions re-subscribes to all tracked topics on the new session.
func (c *Client) restoreSubscriptions() {
	c.connMu.RLock()
	client := c.client
	c.connMu.RUnlock()
	if client == nil {
		return
	}

	c.subMu.RLock()
	defer c.subMu.RUnlock()

	for _, sub := range c.subscriptions {
		// Errors during restoration are non-fatal; the broker side channel
		// subscriptions are best effort.
		client.Subscribe(sub.topic, sub.qos, c.wrapHandler(sub.handler))
	}
}

// setState transitions the state machine and notifies the observer.
func (c *Client) setState(next ConnectionState) {
	c.connMu.Lock()
	prev := c.state
	c.state = next
	c.connMu.Unlock()

	if prev == next {
		return
	}

	c.callbackMu.RLock()
	callback := c.onStateChange
	c.callbackMu.RUnlock()
	if callback != nil {
		callback(prev, next)
	}
}

// State returns the current connection state without side effects.
func (c *Client) State() ConnectionState {
	c.connMu.RLock()
	defer c.connMu.RUnlock()
	return c.state
}

// IsConnected reports whether the session is established.
// Non-blocking and side-effect free; safe to call at any frequency.
func (c *Client) IsConnected() bool {
	c.connMu.RLock()
	defer c.connMu.RUnlock()
	return c.state == StateConnected && c.client != nil && c.client.IsConnected()
}

// SessionIdentity returns the client identifier of the current session.
// Empty until the first successful connect.
func (c *Client) SessionIdentity() string {
	c.connMu.RLock()
	defer c.connMu.RUnlock()
	return c.identity
}

// SetOnStateChange sets a callback invoked after every state transition.
// The callback runs on the goroutine that caused the transition and must
// not call back into the client.
func (c *Client) SetOnStateChange(callback func(from, to ConnectionState)) {
	c.callbackMu.Lock()
	c.onStateChange = callback
	c.callbackMu.Unlock()
}

// SetLogger sets a logger for connection lifecycle and handler logging.
// If not set, lifecycle events are not logged.
func (c *Client) SetLogger(logger Logger) {
	c.loggerMu.Lock()
	c.logger = logger
	c.loggerMu.Unlock()
}

// getLogger returns the current logger (may be nil).
func (c *Client) getLogger() Logger {
	c.loggerMu.RLock()
	defer c.loggerMu.RUnlock()
	return c.logger
}

// Close stops the client: it cancels any pending reconnect attempt,
// disconnects the transport, and leaves the state machine in its terminal
// Disconnected state. Safe to call more than once.
func (c *Client) Close() error {
	c.stopOnce.Do(func() {
		close(c.stopCh)
	})

	// Wait for a running reconnect loop to observe the stop signal.
	c.wg.Wait()

	c.teardownTransport()
	c.setState(StateDisconnected)

	return nil
}

// wrapHandler wraps a MessageHandler with panic recovery and optional logging.
func (c *Client) wrapHandler(handler MessageHandler) pahomqtt.MessageHandler {
	return func(_ pahomqtt.Client, msg pahomqtt.Message) {
		defer func() {
			if r := recover(); r != nil {
				if logger := c.getLogger(); logger != nil {
					logger.Error("message handler panic recovered",
						"topic", msg.Topic(),
						"panic", r,
					)
				}
			}
		}()

		if err := handler(msg.Topic(), msg.Payload()); err != nil {
			if logger := c.getLogger(); logger != nil {
				logger.Warn("message handler returned error",
					"topic", msg.Topic(),
					"error", err,
				)
			}
		}
	}
}
