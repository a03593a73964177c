// Clinicguard - Clinic Platform Request Authorization Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/clinicguard

package identity

import (
	"context"
	"sync"

	"github.com/tomtom215/clinicguard/internal/config"
)

// MemoryStore is an in-process identity store for development and tests.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]*UserRecord
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]*UserRecord)}
}

// NewMemoryStoreFromSeeds creates a store holding the configured users.
func NewMemoryStoreFromSeeds(seeds []config.UserSeed) *MemoryStore {
	s := NewMemoryStore()
	for _, u := range seeds {
		s.Put(&UserRecord{
			ID:             u.ID,
			Email:          u.Email,
			DisplayName:    u.DisplayName,
			Role:           u.Role,
			TenantID:       u.TenantID,
			IsActive:       u.Active,
			ScopesOverride: u.Scopes,
		})
	}
	return s
}

// FindByID implements Store.
func (s *MemoryStore) FindByID(ctx context.Context, id string) (*UserRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.records[id]
	if !ok {
		return nil, ErrNotFound
	}
	return r.clone(), nil
}

// Put inserts or replaces a record.
func (s *MemoryStore) Put(r *UserRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[r.ID] = r.clone()
}

// SetActive flips the active flag. It returns ErrNotFound for unknown ids.
func (s *MemoryStore) SetActive(id string, active bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.records[id]
	if !ok {
		return ErrNotFound
	}
	r.IsActive = active
	return nil
}

// SetRole changes a subject's role. It returns ErrNotFound for unknown ids.
func (s *MemoryStore) SetRole(id, role string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.records[id]
	if !ok {
		return ErrNotFound
	}
	r.Role = role
	return nil
}

// Delete removes a record.
func (s *MemoryStore) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, id)
}

// Len returns the number of records.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}
