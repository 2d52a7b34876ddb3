package mqtt

import (
	"crypto/tls"
	"fmt"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/nerrad567/domisafe-core/internal/infrastructure/config"
)

// Connection constants.
const (
	// defaultConnectTimeout is the maximum time to wait for the broker to
	// acknowledge a session before the attempt fails with ErrConnectTimeout.
	defaultConnectTimeout = 10 * time.Second

	// defaultPublishTimeout is the maximum time to wait for publish completion.
	defaultPublishTimeout = 5 * time.Second

	// disconnectQuiesce is the time to wait for pending operations when
	// tearing down a paho client (milliseconds).
	disconnectQuiesce = 250

	// clientIDPrefix prefixes generated session identities.
	clientIDPrefix = "domisafe"

	// identitySuffixLen is the number of uuid characters appended to the
	// prefix for a generated session identity.
	identitySuffixLen = 8

	// publishQoS is the QoS used for feed publishes. Delivery is
	// at-most-once best effort; failures are logged and retried on the
	// next poll cycle, never queued.
	publishQoS = 0

	// maxQoS is the maximum QoS level supported for subscriptions.
	maxQoS = 2

	// tlsMinVersion is the minimum TLS version for secure connections.
	tlsMinVersion = tls.VersionTLS12
)

// buildClientOptions creates paho MQTT options for one connection attempt.
//
// This configures:
//   - Broker URL (ssl:// by default; tcp:// only for the legacy plaintext fallback)
//   - The session identity for this attempt
//   - Username/key authentication
//   - Clean session (no broker-side session state survives reconnects)
//   - TLS configuration (MinVersion 1.2)
//
// Paho's own auto-reconnect and connect-retry are deliberately disabled:
// reconnection is owned by Client so that every attempt can present a fresh
// session identity, which paho's built-in retry cannot do.
func buildClientOptions(cfg config.BrokerConfig, clientID string) *pahomqtt.ClientOptions {
	opts := pahomqtt.NewClientOptions()

	scheme := "tcp"
	if cfg.TLS {
		scheme = "ssl"
	}
	brokerURL := fmt.Sprintf("%s://%s:%d", scheme, cfg.Host, cfg.Port)
	opts.AddBroker(brokerURL)

	opts.SetClientID(clientID)

	opts.SetUsername(cfg.Username)
	opts.SetPassword(cfg.Key)

	// Clean session - start fresh on connect (no persistent session on broker)
	opts.SetCleanSession(true)

	// Reconnection is handled by Client, not paho.
	opts.SetAutoReconnect(false)
	opts.SetConnectRetry(false)

	opts.SetConnectTimeout(defaultConnectTimeout)

	keepAlive := time.Duration(cfg.KeepAlive) * time.Second
	if keepAlive <= 0 {
		keepAlive = 60 * time.Second
	}
	opts.SetKeepAlive(keepAlive)

	if cfg.TLS {
		opts.SetTLSConfig(&tls.Config{
			MinVersion: tlsMinVersion,
		})
	}

	return opts
}

// newSessionIdentity generates a fresh client identifier.
//
// A new identity per connection attempt avoids broker-side identifier
// conflicts when the previous session has not yet been reaped.
func newSessionIdentity() string {
	return fmt.Sprintf("%s-%s", clientIDPrefix, uuid.NewString()[:identitySuffixLen])
}
