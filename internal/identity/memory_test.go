// Clinicguard - Clinic Platform Request Authorization Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/clinicguard

package identity

import (
	"context"
	"errors"
	"testing"

	"github.com/tomtom215/clinicguard/internal/config"
)

func TestMemoryStore_FindByID(t *testing.T) {
	t.Parallel()

	store := NewMemoryStoreFromSeeds([]config.UserSeed{
		{ID: "u-1", Email: "nurse@clinic-1.example", Role: "nurse", TenantID: "clinic-1", Active: true, Scopes: []string{"report:export"}},
		{ID: "u-2", Role: "doctor", TenantID: "clinic-2"},
	})

	rec, err := store.FindByID(context.Background(), "u-1")
	if err != nil {
		t.Fatalf("FindByID() error: %v", err)
	}
	if rec.Role != "nurse" || rec.TenantID != "clinic-1" || !rec.IsActive {
		t.Errorf("FindByID() = %+v", rec)
	}
	if len(rec.ScopesOverride) != 1 || rec.ScopesOverride[0] != "report:export" {
		t.Errorf("ScopesOverride = %v", rec.ScopesOverride)
	}

	inactive, err := store.FindByID(context.Background(), "u-2")
	if err != nil {
		t.Fatalf("FindByID() error: %v", err)
	}
	if inactive.IsActive {
		t.Error("seed without active flag should be inactive")
	}

	if _, err := store.FindByID(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("FindByID(missing) error = %v, want ErrNotFound", err)
	}
}

func TestMemoryStore_ReturnsCopies(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()
	store.Put(&UserRecord{ID: "u-1", Role: "nurse", IsActive: true, ScopesOverride: []string{"a"}})

	rec, _ := store.FindByID(context.Background(), "u-1")
	rec.Role = "admin"
	rec.ScopesOverride[0] = "*"

	again, _ := store.FindByID(context.Background(), "u-1")
	if again.Role != "nurse" || again.ScopesOverride[0] != "a" {
		t.Errorf("stored record mutated through returned copy: %+v", again)
	}
}

func TestMemoryStore_Revocation(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()
	store.Put(&UserRecord{ID: "u-1", Role: "doctor", IsActive: true})

	if err := store.SetActive("u-1", false); err != nil {
		t.Fatalf("SetActive() error: %v", err)
	}
	if err := store.SetRole("u-1", "receptionist"); err != nil {
		t.Fatalf("SetRole() error: %v", err)
	}
	rec, _ := store.FindByID(context.Background(), "u-1")
	if rec.IsActive || rec.Role != "receptionist" {
		t.Errorf("FindByID() = %+v, want inactive receptionist", rec)
	}

	if err := store.SetActive("ghost", true); !errors.Is(err, ErrNotFound) {
		t.Errorf("SetActive(ghost) = %v, want ErrNotFound", err)
	}

	store.Delete("u-1")
	if store.Len() != 0 {
		t.Errorf("Len() = %d after delete", store.Len())
	}
}

func TestMemoryStore_CanceledContext(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()
	store.Put(&UserRecord{ID: "u-1", Role: "nurse", IsActive: true})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := store.FindByID(ctx, "u-1"); !errors.Is(err, context.Canceled) {
		t.Errorf("FindByID() error = %v, want context.Canceled", err)
	}
}
