// Clinicguard - Clinic Platform Request Authorization Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/clinicguard

package audit

import (
	"context"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/tomtom215/clinicguard/internal/logging"
)

// SinkConfig holds configuration for the audit sink.
type SinkConfig struct {
	// BufferSize is the size of the async write buffer.
	BufferSize int

	// WriteTimeout bounds a single store append.
	WriteTimeout time.Duration

	// WarnInterval is the minimum gap between store failure warnings.
	WarnInterval time.Duration
}

// DefaultSinkConfig returns sensible defaults.
func DefaultSinkConfig() SinkConfig {
	return SinkConfig{
		BufferSize:   4096,
		WriteTimeout: 5 * time.Second,
		WarnInterval: 30 * time.Second,
	}
}

// Sink queues audit events for asynchronous storage. Record never blocks
// and never fails; events that cannot be stored go to the fallback log.
type Sink struct {
	store       Store
	events      chan *Event
	timeout     time.Duration
	fallback    zerolog.Logger
	warnLimiter *rate.Limiter

	mu       sync.RWMutex
	closed   bool
	stopChan chan struct{}
	wg       sync.WaitGroup
}

// NewSink creates a sink writing to store and starts its writer.
// A nil store sends every event to the fallback log.
func NewSink(store Store, cfg SinkConfig) *Sink {
	def := DefaultSinkConfig()
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = def.BufferSize
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = def.WriteTimeout
	}
	if cfg.WarnInterval <= 0 {
		cfg.WarnInterval = def.WarnInterval
	}

	s := &Sink{
		store:       store,
		events:      make(chan *Event, cfg.BufferSize),
		timeout:     cfg.WriteTimeout,
		fallback:    logging.WithComponent("audit_fallback"),
		warnLimiter: rate.NewLimiter(rate.Every(cfg.WarnInterval), 1),
		stopChan:    make(chan struct{}),
	}

	s.wg.Add(1)
	go s.asyncWriter()

	return s
}

// SetFallbackLogger replaces the fallback logger. Intended for tests.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func (s *Sink) SetFallbackLogger(l zerolog.Logger) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fallback = l
}

// Record enqueues event. Missing ID, timestamp, request and correlation
// IDs are filled from ctx.
func (s *Sink) Record(ctx context.Context, event *Event) {
	if event == nil {
		return
	}
	if event.ID == "" {
		event.ID = NewEventID()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	if ctx != nil {
		if event.RequestID == "" {
			event.RequestID = logging.RequestIDFromContext(ctx)
		}
		if event.CorrelationID == "" {
			event.CorrelationID = logging.CorrelationIDFromContext(ctx)
		}
	}
	EventsRecordedTotal.WithLabelValues(string(event.Type)).Inc()

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		s.writeFallback(event, fallbackClosed)
		return
	}

	select {
	case s.events <- event:
		QueueDepth.Inc()
	default:
		s.writeFallback(event, fallbackBufferFull)
	}
}

// asyncWriter processes events from the buffer.
func (s *Sink) asyncWriter() {
	defer s.wg.Done()

	for {
		select {
		case <-s.stopChan:
			// Drain remaining events
			for {
				select {
				case event := <-s.events:
					s.writeEvent(event)
				default:
					return
				}
			}
		case event := <-s.events:
			s.writeEvent(event)
		}
	}
}

// writeEvent persists an event, falling back to the local log on failure.
func (s *Sink) writeEvent(event *Event) {
	QueueDepth.Dec()

	if s.store == nil {
		s.writeFallback(event, fallbackStoreError)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	if err := s.store.Append(ctx, event); err != nil {
		if s.warnLimiter.Allow() {
			logging.Warn().Err(err).Str("event_id", event.ID).Msg("Audit store append failed, using fallback log")
		}
		s.mu.RLock()
		s.writeFallback(event, fallbackStoreError)
		s.mu.RUnlock()
		return
	}
	EventsStoredTotal.Inc()
}

// writeFallback writes event to the fallback log. Callers hold s.mu.
func (s *Sink) writeFallback(event *Event, reason string) {
	FallbackWritesTotal.WithLabelValues(reason).Inc()

	data, err := json.Marshal(event)
	if err != nil {
		s.fallback.Error().Err(err).Str("event_id", event.ID).Msg("Failed to marshal audit event")
		return
	}
	s.fallback.Log().
		Str("fallback_reason", reason).
		RawJSON("event", data).
		Msg("Audit event")
}

// RunWithContext blocks until ctx is done, then drains the sink.
func (s *Sink) RunWithContext(ctx context.Context) error {
	<-ctx.Done()
	if err := s.Close(); err != nil {
		return err
	}
	return ctx.Err()
}

// String implements fmt.Stringer for supervisor logging.
func (s *Sink) String() string {
	return "audit-sink"
}

// Close stops accepting events and waits for queued events to be written.
// Safe to call more than once.
func (s *Sink) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	close(s.stopChan)
	s.mu.Unlock()

	s.wg.Wait()
	return nil
}
