package poller

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/nerrad567/domisafe-core/internal/sensor"
)

// ErrStopTimeout is returned by Stop when the polling goroutine does not
// exit within the grace period.
var ErrStopTimeout = errors.New("poller: stop timed out")

// defaultBaseTick is the scheduler resolution used when none is configured.
const defaultBaseTick = time.Second

// Activity is one scheduled polling task.
type Activity struct {
	// Name identifies the activity in logs and names its journal stream.
	Name string

	// Interval is the minimum time between firings. Intervals are checked
	// at base-tick resolution, so the effective cadence rounds up to the
	// next tick.
	Interval time.Duration

	// Channels maps metric names to broker feed channels. An empty map
	// keeps the activity local: journaled and mirrored, never published.
	Channels map[string]string

	// Source produces the activity's readings.
	Source sensor.Source
}

// Journal persists readings before any publish attempt. Satisfied by
// journal.Journal.
type Journal interface {
	Append(stream string, record any) error
}

// Mirror duplicates readings into local time-series storage. Satisfied by
// influxdb.Client.
type Mirror interface {
	WriteReading(reading sensor.Reading)
}

// Publisher pushes readings to the broker. Satisfied by
// telemetry.Publisher.
type Publisher interface {
	PublishReading(reading sensor.Reading, channels map[string]string) bool
}

// Logger interface for optional logging support.
// Compatible with logging.Logger and slog.Logger.
type Logger interface {
	Error(msg string, args ...any)
	Warn(msg string, args ...any)
	Info(msg string, args ...any)
}

// Poller runs all activities on a single goroutine.
//
// A base ticker wakes the goroutine once per tick; each activity fires when
// its interval has elapsed since it last fired. One goroutine means one
// activity runs at a time: a slow sensor delays the others for that tick but
// nothing interleaves, which keeps the sources free of locking.
//
// Every firing follows the same order: read, journal, mirror, publish. The
// journal write comes first so a broker outage can never lose a reading.
// All errors along the way are logged and never stop the loop.
type Poller struct {
	activities []Activity
	journal    Journal
	mirror     Mirror
	publisher  Publisher
	baseTick   time.Duration
	logger     Logger

	// lastFired tracks per-activity firing times; only the polling
	// goroutine touches it.
	lastFired map[string]time.Time

	now func() time.Time

	stopCh   chan struct{}
	stopOnce sync.Once
	done     chan struct{}
	started  bool
	mu       sync.Mutex
}

// New creates a poller over the given activities.
//
// Parameters:
//   - activities: the scheduled tasks; fired in slice order within a tick
//   - journal: reading persistence (required)
//   - mirror: optional time-series mirror; nil disables mirroring
//   - publisher: broker publisher (required)
//   - baseTick: scheduler resolution; <= 0 uses the default (1s)
//   - logger: optional
func New(activities []Activity, journal Journal, mirror Mirror, publisher Publisher, baseTick time.Duration, logger Logger) *Poller {
	if baseTick <= 0 {
		baseTick = defaultBaseTick
	}
	return &Poller{
		activities: activities,
		journal:    journal,
		mirror:     mirror,
		publisher:  publisher,
		baseTick:   baseTick,
		logger:     logger,
		lastFired:  make(map[string]time.Time, len(activities)),
		now:        time.Now,
		stopCh:     make(chan struct{}),
		done:       make(chan struct{}),
	}
}

// Start launches the polling goroutine. Calling Start more than once is a
// no-op. The poller stops when ctx is cancelled or Stop is called.
func (p *Poller) Start(ctx context.Context) {
	p.mu.Lock()
	if p.started {
		p.mu.Unlock()
		return
	}
	p.started = true
	p.mu.Unlock()

	go p.run(ctx)
}

// run is the polling loop. Every activity is due on the first tick because
// lastFired starts empty.
func (p *Poller) run(ctx context.Context) {
	defer close(p.done)

	if p.logger != nil {
		p.logger.Info("poller started",
			"activities", len(p.activities),
			"base_tick", p.baseTick.String(),
		)
	}

	ticker := time.NewTicker(p.baseTick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-p.stopCh:
			return
		case <-ticker.C:
			p.tick(ctx)
		}
	}
}

// tick fires every activity whose interval has elapsed.
func (p *Poller) tick(ctx context.Context) {
	now := p.now()

	for _, activity := range p.activities {
		if now.Sub(p.lastFired[activity.Name]) < activity.Interval {
			continue
		}
		p.lastFired[activity.Name] = now
		p.fire(ctx, activity)
	}
}

// fire runs one activity: read, journal, mirror, publish. Failures are
// logged; the sequence continues so a broken stage never hides the ones
// before it.
func (p *Poller) fire(ctx context.Context, activity Activity) {
	reading, err := activity.Source.Read(ctx)
	if err != nil {
		if p.logger != nil {
			p.logger.Error("activity read failed", "activity", activity.Name, "error", err)
		}
		return
	}

	// Persist before publish: the journal is the system of record.
	if err := p.journal.Append(activity.Name, reading.Record()); err != nil {
		if p.logger != nil {
			p.logger.Error("journal append failed", "activity", activity.Name, "error", err)
		}
	}

	if p.mirror != nil {
		p.mirror.WriteReading(reading)
	}

	if len(activity.Channels) > 0 {
		p.publisher.PublishReading(reading, activity.Channels)
	}
}

// Stop signals the polling goroutine and waits up to grace for it to exit.
//
// A firing in progress is allowed to finish; the join is best effort and a
// stuck sensor read cannot hang shutdown past the grace period.
//
// Returns:
//   - nil: the goroutine exited (or was never started)
//   - ErrStopTimeout: the goroutine is still running after the grace period
func (p *Poller) Stop(grace time.Duration) error {
	p.stopOnce.Do(func() {
		close(p.stopCh)
	})

	p.mu.Lock()
	started := p.started
	p.mu.Unlock()
	if !started {
		return nil
	}

	select {
	case <-p.done:
		return nil
	case <-time.After(grace):
		if p.logger != nil {
			p.logger.Warn("poller did not stop within grace period", "grace", grace.String())
		}
		return ErrStopTimeout
	}
}
