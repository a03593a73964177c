// Clinicguard - Clinic Platform Request Authorization Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/clinicguard

package audit

import (
	"context"
	"fmt"
	"sync"
)

// DefaultMemoryCapacity bounds a MemoryStore built with a non-positive size.
const DefaultMemoryCapacity = 10000

// MemoryStore keeps the most recent decisions in a fixed ring. Once full,
// each Append overwrites the oldest event. Used by the CLI check command
// and in tests; nothing survives a restart.
type MemoryStore struct {
	mu   sync.RWMutex
	ring []Event
	next int // slot the next Append writes
	size int // occupied slots
}

// NewMemoryStore returns a ring holding at most capacity events.
func NewMemoryStore(capacity int) *MemoryStore {
	if capacity <= 0 {
		capacity = DefaultMemoryCapacity
	}
	return &MemoryStore{ring: make([]Event, capacity)}
}

func (s *MemoryStore) Append(ctx context.Context, event *Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	s.ring[s.next] = *event
	s.next = (s.next + 1) % len(s.ring)
	if s.size < len(s.ring) {
		s.size++
	}
	s.mu.Unlock()
	return nil
}

// newestFirst calls fn for each stored event from newest to oldest until fn
// returns false. Caller holds s.mu.
func (s *MemoryStore) newestFirst(fn func(e *Event) bool) {
	n := len(s.ring)
	for i := 1; i <= s.size; i++ {
		if !fn(&s.ring[(s.next-i+n)%n]) {
			return
		}
	}
}

func (s *MemoryStore) Get(_ context.Context, id string) (*Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var found *Event
	s.newestFirst(func(e *Event) bool {
		if e.ID != id {
			return true
		}
		cp := *e
		found = &cp
		return false
	})
	if found == nil {
		return nil, fmt.Errorf("%w: %s", ErrEventNotFound, id)
	}
	return found, nil
}

// Query returns events matching filter, newest first, up to filter.Limit.
func (s *MemoryStore) Query(_ context.Context, filter QueryFilter) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Event
	s.newestFirst(func(e *Event) bool {
		if filter.Matches(e) {
			out = append(out, *e)
		}
		return filter.Limit <= 0 || len(out) < filter.Limit
	})
	return out, nil
}

func (s *MemoryStore) Count(_ context.Context, filter QueryFilter) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int64
	s.newestFirst(func(e *Event) bool {
		if filter.Matches(e) {
			n++
		}
		return true
	})
	return n, nil
}

// Clear drops every event.
func (s *MemoryStore) Clear() {
	s.mu.Lock()
	clear(s.ring)
	s.next, s.size = 0, 0
	s.mu.Unlock()
}

// Len is the number of events currently held.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.size
}
