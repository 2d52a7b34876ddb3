package journal

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// ErrClosed is returned by Append after Close.
var ErrClosed = errors.New("journal: closed")

// defaultFlushInterval is the flush cadence used when none is configured.
const defaultFlushInterval = 10 * time.Second

// Logger interface for optional logging support.
// Compatible with logging.Logger and slog.Logger.
type Logger interface {
	Error(msg string, args ...any)
	Warn(msg string, args ...any)
	Info(msg string, args ...any)
}

// Journal persists records as JSON Lines, one file per stream.
//
// Files are named YYYYMMDD_<stream>.jsonl. The date component is fixed when
// the journal is opened: an agent that runs across midnight keeps writing to
// the start-date file until it is restarted. Daily archival assumes this and
// collects yesterday's files by name.
//
// Writes go through buffered writers; a background flusher drains the
// buffers and fsyncs at a fixed cadence so an abrupt power loss costs at
// most one flush interval of records.
//
// Thread Safety:
//   - Append and Close are safe for concurrent use.
type Journal struct {
	dir        string
	date       string
	flushEvery time.Duration
	logger     Logger

	// streams maps stream name to its open file; guarded by mu together
	// with closed.
	streams map[string]*streamFile
	closed  bool
	mu      sync.Mutex

	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// streamFile pairs a file handle with its buffered writer.
type streamFile struct {
	file   *os.File
	writer *bufio.Writer
}

// Open creates (or reopens) a journal rooted at dir and starts the
// background flusher.
//
// Parameters:
//   - dir: journal directory, created if missing
//   - flushEvery: fsync cadence; <= 0 uses the default (10s)
//   - logger: optional; flush failures are logged at Error
//
// Returns:
//   - *Journal: ready for Append
//   - error: if the directory cannot be created
func Open(dir string, flushEvery time.Duration, logger Logger) (*Journal, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating journal directory: %w", err)
	}
	if flushEvery <= 0 {
		flushEvery = defaultFlushInterval
	}

	j := &Journal{
		dir:        dir,
		date:       time.Now().Format("20060102"),
		flushEvery: flushEvery,
		logger:     logger,
		streams:    make(map[string]*streamFile),
		stopCh:     make(chan struct{}),
	}

	j.wg.Add(1)
	go j.flushLoop()

	return j, nil
}

// Append writes one record to the named stream as a single JSON line.
//
// The write lands in a buffer; durability follows at the next flush tick or
// Close, whichever comes first.
//
// Parameters:
//   - stream: stream name (e.g. "security", "environmental")
//   - record: any JSON-encodable value
//
// Returns:
//   - error: encoding failure, file open failure, or ErrClosed
func (j *Journal) Append(stream string, record any) error {
	line, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encoding journal record: %w", err)
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	if j.closed {
		return ErrClosed
	}

	sf, err := j.stream(stream)
	if err != nil {
		return err
	}

	if _, err := sf.writer.Write(line); err != nil {
		return fmt.Errorf("writing journal record: %w", err)
	}
	if err := sf.writer.WriteByte('\n'); err != nil {
		return fmt.Errorf("writing journal record: %w", err)
	}

	return nil
}

// Path returns the file path the named stream writes to.
func (j *Journal) Path(stream string) string {
	return filepath.Join(j.dir, fmt.Sprintf("%s_%s.jsonl", j.date, stream))
}

// stream returns the open file for a stream, opening it on first use.
// Caller holds mu.
func (j *Journal) stream(name string) (*streamFile, error) {
	if sf, ok := j.streams[name]; ok {
		return sf, nil
	}

	file, err := os.OpenFile(j.Path(name), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening journal stream %s: %w", name, err)
	}

	sf := &streamFile{file: file, writer: bufio.NewWriter(file)}
	j.streams[name] = sf
	return sf, nil
}

// flushLoop drains buffers and fsyncs at the configured cadence.
func (j *Journal) flushLoop() {
	defer j.wg.Done()

	ticker := time.NewTicker(j.flushEvery)
	defer ticker.Stop()

	for {
		select {
		case <-j.stopCh:
			return
		case <-ticker.C:
			j.flushAll()
		}
	}
}

// flushAll flushes and syncs every open stream.
func (j *Journal) flushAll() {
	j.mu.Lock()
	defer j.mu.Unlock()

	for name, sf := range j.streams {
		if err := sf.writer.Flush(); err != nil {
			if j.logger != nil {
				j.logger.Error("journal flush failed", "stream", name, "error", err)
			}
			continue
		}
		if err := sf.file.Sync(); err != nil && j.logger != nil {
			j.logger.Error("journal sync failed", "stream", name, "error", err)
		}
	}
}

// Close stops the flusher, performs a final flush, and closes all stream
// files. Safe to call more than once; Append fails with ErrClosed afterwards.
func (j *Journal) Close() error {
	j.stopOnce.Do(func() {
		close(j.stopCh)
	})
	j.wg.Wait()

	j.flushAll()

	j.mu.Lock()
	defer j.mu.Unlock()

	if j.closed {
		return nil
	}
	j.closed = true

	var firstErr error
	for name, sf := range j.streams {
		if err := sf.file.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("closing journal stream %s: %w", name, err)
		}
	}
	j.streams = make(map[string]*streamFile)

	return firstErr
}
