// Clinicguard - Clinic Platform Request Authorization Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/clinicguard

// Package identity provides the identity store consulted on every
// authorization decision. The store is authoritative for a subject's role,
// tenant and active flag, so revocations take effect without waiting for
// token expiry.
package identity

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned when no record exists for the subject.
	ErrNotFound = errors.New("identity not found")

	// ErrUnavailable is returned when the backing store cannot answer,
	// including when the circuit breaker is open.
	ErrUnavailable = errors.New("identity store unavailable")
)

// UserRecord is the authoritative identity of a subject.
type UserRecord struct {
	ID             string
	Email          string
	DisplayName    string
	Role           string
	TenantID       string
	IsActive       bool
	ScopesOverride []string
}

// Store looks up identities by subject id. Implementations must honor ctx
// cancellation and deadlines.
type Store interface {
	FindByID(ctx context.Context, id string) (*UserRecord, error)
}

// clone returns a deep copy so callers cannot mutate stored state.
func (r *UserRecord) clone() *UserRecord {
	c := *r
	c.ScopesOverride = append([]string(nil), r.ScopesOverride...)
	return &c
}
