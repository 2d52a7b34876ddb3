package telemetry

import (
	"sort"
	"sync"
	"time"

	"github.com/nerrad567/domisafe-core/internal/sensor"
)

// defaultMinGap is the inter-publish spacing used when none is configured.
// Cloud brokers rate-limit per account; spacing out individual feed
// publishes keeps a burst of metrics from one reading under the limit.
const defaultMinGap = 200 * time.Millisecond

// Connection is the broker surface the publisher needs. Satisfied by
// mqtt.Client.
type Connection interface {
	Publish(topic string, payload []byte) error
	IsConnected() bool
}

// TopicBuilder maps a feed channel to its publish topic. Satisfied by
// mqtt.Topics.
type TopicBuilder interface {
	Feed(channel string) string
}

// Logger interface for optional logging support.
// Compatible with logging.Logger and slog.Logger.
type Logger interface {
	Error(msg string, args ...any)
	Warn(msg string, args ...any)
	Info(msg string, args ...any)
}

// Publisher pushes readings to broker feeds with a minimum spacing between
// consecutive publishes.
//
// The spacing is enforced across all callers through a shared watermark: no
// two publishes, whatever reading they belong to, are ever closer together
// than the configured gap.
//
// Thread Safety:
//   - PublishReading is safe for concurrent use; the watermark mutex is held
//     across the wait and the publish so concurrent callers serialise.
type Publisher struct {
	conn   Connection
	topics TopicBuilder
	minGap time.Duration
	logger Logger

	// lastPublish is the watermark for rate gating; guarded by mu.
	lastPublish time.Time
	mu          sync.Mutex

	now   func() time.Time
	sleep func(time.Duration)
}

// NewPublisher creates a publisher over the given connection.
//
// Parameters:
//   - conn: broker connection (fail-fast when offline)
//   - topics: feed topic builder for the account
//   - minGap: minimum spacing between publishes; <= 0 uses the default
//   - logger: optional; publish failures are logged at Warn
func NewPublisher(conn Connection, topics TopicBuilder, minGap time.Duration, logger Logger) *Publisher {
	if minGap <= 0 {
		minGap = defaultMinGap
	}
	return &Publisher{
		conn:   conn,
		topics: topics,
		minGap: minGap,
		logger: logger,
		now:    time.Now,
		sleep:  time.Sleep,
	}
}

// PublishReading publishes the reading's metrics to their feed channels.
//
// channels maps metric name to feed channel. Metrics absent from the reading
// are skipped entirely; explicit nulls publish as the literal "null".
// Publishes happen in metric-name order so wire traffic is deterministic.
//
// A publish failure for one metric does not stop the rest: each metric is
// attempted independently and failures are logged.
//
// Returns:
//   - true: every attempted publish succeeded (vacuously true when the
//     reading carried nothing to publish)
//   - false: the broker is offline, or at least one publish failed
func (p *Publisher) PublishReading(reading sensor.Reading, channels map[string]string) bool {
	if !p.conn.IsConnected() {
		if p.logger != nil {
			p.logger.Info("broker offline, reading not published", "source", reading.Source)
		}
		return false
	}

	metrics := make([]string, 0, len(channels))
	for metric := range channels {
		metrics = append(metrics, metric)
	}
	sort.Strings(metrics)

	ok := true
	for _, metric := range metrics {
		value, present := reading.Values[metric]
		if !present {
			// Absent means "not sampled this cycle": publish nothing.
			continue
		}

		topic := p.topics.Feed(channels[metric])
		if err := p.publishGated(topic, []byte(value.Payload())); err != nil {
			ok = false
			if p.logger != nil {
				p.logger.Warn("feed publish failed",
					"source", reading.Source,
					"metric", metric,
					"topic", topic,
					"error", err,
				)
			}
		}
	}

	return ok
}

// publishGated waits out the minimum inter-publish gap, then publishes.
//
// The watermark advances on failed publishes too. Deliberate: a failed
// attempt still hit the broker, so pacing from it keeps the gap between
// successes at least minGap and never shorter.
func (p *Publisher) publishGated(topic string, payload []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if elapsed := p.now().Sub(p.lastPublish); elapsed < p.minGap {
		p.sleep(p.minGap - elapsed)
	}

	err := p.conn.Publish(topic, payload)
	p.lastPublish = p.now()
	return err
}
