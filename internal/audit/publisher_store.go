// Clinicguard - Clinic Platform Request Authorization Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/clinicguard

package audit

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/goccy/go-json"
)

// ErrPublisherClosed is returned by Append after Close.
var ErrPublisherClosed = errors.New("audit publisher is closed")

// Message metadata keys set on forwarded events.
const (
	MetadataEventType = "event_type"
	MetadataSeverity  = "severity"
	MetadataOutcome   = "outcome"
	MetadataTenantID  = "tenant_id"
)

// PublisherStore forwards audit events to a Watermill publisher.
// The message UUID is the event ID so consumers can deduplicate.
type PublisherStore struct {
	publisher message.Publisher
	topic     string

	mu     sync.RWMutex
	closed bool
}

// NewPublisherStore creates a store publishing to topic.
func NewPublisherStore(publisher message.Publisher, topic string) *PublisherStore {
	return &PublisherStore{publisher: publisher, topic: topic}
}

// Append publishes event as a JSON message.
func (s *PublisherStore) Append(ctx context.Context, event *Event) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrPublisherClosed
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal audit event: %w", err)
	}

	msg := message.NewMessage(event.ID, data)
	msg.SetContext(ctx)
	msg.Metadata.Set(MetadataEventType, string(event.Type))
	msg.Metadata.Set(MetadataSeverity, string(event.Severity))
	msg.Metadata.Set(MetadataOutcome, string(event.Outcome))
	if event.TenantID != "" {
		msg.Metadata.Set(MetadataTenantID, event.TenantID)
	}

	if err := s.publisher.Publish(s.topic, msg); err != nil {
		return fmt.Errorf("publish audit event: %w", err)
	}
	return nil
}

// Close closes the underlying publisher.
func (s *PublisherStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.publisher.Close()
}

// DecodeEvent decodes a message produced by PublisherStore.
func DecodeEvent(msg *message.Message) (*Event, error) {
	var event Event
	if err := json.Unmarshal(msg.Payload, &event); err != nil {
		return nil, fmt.Errorf("decode audit event: %w", err)
	}
	return &event, nil
}
