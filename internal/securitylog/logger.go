// Package securitylog records security events raised while gatekeeping submissions.
package securitylog

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/go-video-intake/internal/domain"
	"github.com/go-video-intake/internal/pkg/id"
)

const (
	defaultSinkTimeout = 5 * time.Second
	defaultQueueSize   = 256
)

// Sink receives high-severity events for alerting or archival.
type Sink interface {
	Name() string
	Publish(ctx context.Context, ev domain.SecurityEvent) error
}

// Logger writes security events as structured log records and fans
// high-severity ones out to sinks from a background worker, so callers never
// wait on a sink. Safe for concurrent use.
type Logger struct {
	log         *slog.Logger
	sinks       []Sink
	now         func() time.Time
	sinkTimeout time.Duration

	mu     sync.RWMutex
	closed bool
	queue  chan domain.SecurityEvent
	done   chan struct{}
}

// New returns a Logger writing to log. A nil log uses slog.Default().
// When sinks are given a worker is started; stop it with Close.
func New(log *slog.Logger, sinks ...Sink) *Logger {
	return newLogger(log, defaultQueueSize, sinks)
}

func newLogger(log *slog.Logger, queueSize int, sinks []Sink) *Logger {
	if log == nil {
		log = slog.Default()
	}
	l := &Logger{log: log, sinks: sinks, now: time.Now, sinkTimeout: defaultSinkTimeout}
	if len(sinks) > 0 {
		l.queue = make(chan domain.SecurityEvent, queueSize)
		l.done = make(chan struct{})
		go l.run()
	}
	return l
}

// Close stops accepting sink work and waits until queued events are
// published or ctx ends. It is safe to call more than once.
func (l *Logger) Close(ctx context.Context) error {
	l.mu.Lock()
	if !l.closed {
		l.closed = true
		if l.queue != nil {
			close(l.queue)
		}
	}
	l.mu.Unlock()

	if l.done == nil {
		return nil
	}
	select {
	case <-l.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Record stamps ev with an id and timestamp and emits it.
// Sink delivery is queued; failures and drops are logged and never returned.
func (l *Logger) Record(ctx context.Context, ev domain.SecurityEvent) {
	if ev.Severity == "" {
		ev.Severity = domain.SeverityInfo
	}
	if ev.Timestamp.IsZero() {
		ev.Timestamp = l.now().UTC()
	}
	if ev.ID == "" {
		ev.ID = id.New()
	}

	attrs := []any{
		"event_id", ev.ID,
		"type", ev.Type,
		"severity", string(ev.Severity),
		"ip", ev.IP,
		"user_agent", ev.UserAgent,
		"timestamp", ev.Timestamp,
	}
	if len(ev.Details) > 0 {
		attrs = append(attrs, "details", ev.Details)
	}
	l.log.Log(ctx, level(ev.Severity), "security event", attrs...)

	if ev.Severity != domain.SeverityHigh {
		return
	}
	l.log.Error("security alert", attrs...)
	l.enqueue(ev)
}

func (l *Logger) enqueue(ev domain.SecurityEvent) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.queue == nil || l.closed {
		return
	}
	select {
	case l.queue <- ev:
	default:
		l.log.Warn("security sink queue full, event dropped", "event_id", ev.ID, "type", ev.Type)
	}
}

func (l *Logger) run() {
	defer close(l.done)
	for ev := range l.queue {
		for _, s := range l.sinks {
			ctx, cancel := context.WithTimeout(context.Background(), l.sinkTimeout)
			if err := s.Publish(ctx, ev); err != nil {
				l.log.Warn("security sink publish failed", "sink", s.Name(), "event_id", ev.ID, "err", err)
			}
			cancel()
		}
	}
}

func level(s domain.Severity) slog.Level {
	switch s {
	case domain.SeverityMedium, domain.SeverityHigh:
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}
