// Clinicguard - Clinic Platform Request Authorization Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/clinicguard

//go:build integration

package identity

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tomtom215/clinicguard/internal/testinfra"
)

func TestPostgresStore_Integration(t *testing.T) {
	testinfra.SkipIfNoDocker(t)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pg, err := testinfra.NewPostgresContainer(ctx)
	if err != nil {
		t.Fatalf("start postgres: %v", err)
	}
	t.Cleanup(func() { testinfra.CleanupContainer(t, context.Background(), pg.Container) })

	pool, err := OpenPool(ctx, pg.DSN, 4)
	if err != nil {
		t.Fatalf("OpenPool() error: %v", err)
	}
	t.Cleanup(pool.Close)

	if err := Migrate(ctx, pool); err != nil {
		t.Fatalf("Migrate() error: %v", err)
	}
	if _, err := pool.Exec(ctx, `
INSERT INTO identities (id, email, role, tenant_id, is_active, scopes_override)
VALUES ('u-1', 'nurse@clinic-1.example', 'nurse', 'clinic-1', true, ARRAY['report:export']),
       ('u-2', NULL, 'doctor', NULL, false, '{}')`); err != nil {
		t.Fatalf("seed identities: %v", err)
	}

	store := NewPostgresStore(pool)

	rec, err := store.FindByID(ctx, "u-1")
	if err != nil {
		t.Fatalf("FindByID(u-1) error: %v", err)
	}
	if rec.Role != "nurse" || rec.TenantID != "clinic-1" || !rec.IsActive {
		t.Errorf("FindByID(u-1) = %+v", rec)
	}
	if len(rec.ScopesOverride) != 1 || rec.ScopesOverride[0] != "report:export" {
		t.Errorf("ScopesOverride = %v", rec.ScopesOverride)
	}

	rec, err = store.FindByID(ctx, "u-2")
	if err != nil {
		t.Fatalf("FindByID(u-2) error: %v", err)
	}
	if rec.IsActive || rec.Email != "" || rec.TenantID != "" {
		t.Errorf("FindByID(u-2) = %+v, want inactive with empty nullable fields", rec)
	}

	if _, err := store.FindByID(ctx, "ghost"); !errors.Is(err, ErrNotFound) {
		t.Errorf("FindByID(ghost) = %v, want ErrNotFound", err)
	}

	// A lookup bounded by an already-expired deadline fails with the context error.
	expired, cancelExpired := context.WithTimeout(ctx, time.Nanosecond)
	defer cancelExpired()
	time.Sleep(time.Millisecond)
	if _, err := store.FindByID(expired, "u-1"); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("FindByID(expired ctx) = %v, want context.DeadlineExceeded", err)
	}
}
