// Clinicguard - Clinic Platform Request Authorization Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/clinicguard

package audit

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

// sampleEvents returns events one second apart starting at base.
func sampleEvents(base time.Time) []*Event {
	return []*Event{
		{ID: "e1", Timestamp: base, Type: EventTypeAuthFailure, Severity: SeverityWarning, Outcome: OutcomeDenied, Reason: "Expired"},
		{ID: "e2", Timestamp: base.Add(time.Second), Type: EventTypeAuthzGranted, Severity: SeverityInfo, Outcome: OutcomeAllowed, PrincipalID: "u-1", TenantID: "clinic-1", Reason: "Allowed", Operation: "patients.read"},
		{ID: "e3", Timestamp: base.Add(2 * time.Second), Type: EventTypeTenantMismatch, Severity: SeverityError, Outcome: OutcomeDenied, PrincipalID: "u-1", TenantID: "clinic-1", TargetTenantID: "clinic-2", Reason: "TenantMismatch", Source: Source{IPAddress: "10.0.0.7"}},
		{ID: "e4", Timestamp: base.Add(3 * time.Second), Type: EventTypeCrossTenantAccess, Severity: SeverityWarning, Outcome: OutcomeAllowed, PrincipalID: "u-9", TenantID: "clinic-9", TargetTenantID: "clinic-2", Reason: "Allowed", RequestID: "req-4"},
	}
}

// queryStore is satisfied by MemoryStore and BadgerStore.
type queryStore interface {
	Store
	Querier
	Get(ctx context.Context, id string) (*Event, error)
}

func runQueryContract(t *testing.T, store queryStore) {
	t.Helper()
	ctx := context.Background()
	base := time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC)

	for _, e := range sampleEvents(base) {
		if err := store.Append(ctx, e); err != nil {
			t.Fatalf("Append(%s) error: %v", e.ID, err)
		}
	}

	start := base.Add(time.Second)
	end := base.Add(2 * time.Second)

	tests := []struct {
		name   string
		filter QueryFilter
		want   []string
	}{
		{"all newest first", QueryFilter{}, []string{"e4", "e3", "e2", "e1"}},
		{"limit", QueryFilter{Limit: 2}, []string{"e4", "e3"}},
		{"by type", QueryFilter{Types: []EventType{EventTypeTenantMismatch, EventTypeAuthFailure}}, []string{"e3", "e1"}},
		{"by outcome", QueryFilter{Outcomes: []Outcome{OutcomeAllowed}}, []string{"e4", "e2"}},
		{"by severity", QueryFilter{Severities: []Severity{SeverityError}}, []string{"e3"}},
		{"by principal", QueryFilter{PrincipalID: "u-1"}, []string{"e3", "e2"}},
		{"tenant matches target", QueryFilter{TenantID: "clinic-2"}, []string{"e4", "e3"}},
		{"by reason", QueryFilter{Reason: "Expired"}, []string{"e1"}},
		{"by operation", QueryFilter{Operation: "patients.read"}, []string{"e2"}},
		{"by source ip", QueryFilter{SourceIP: "10.0.0.7"}, []string{"e3"}},
		{"by request id", QueryFilter{RequestID: "req-4"}, []string{"e4"}},
		{"time range", QueryFilter{StartTime: &start, EndTime: &end}, []string{"e3", "e2"}},
		{"no match", QueryFilter{PrincipalID: "ghost"}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := store.Query(ctx, tt.filter)
			if err != nil {
				t.Fatalf("Query() error: %v", err)
			}
			ids := make([]string, len(got))
			for i := range got {
				ids[i] = got[i].ID
			}
			if fmt.Sprint(ids) != fmt.Sprint(tt.want) && !(len(ids) == 0 && len(tt.want) == 0) {
				t.Errorf("Query() ids = %v, want %v", ids, tt.want)
			}
		})
	}

	e, err := store.Get(ctx, "e3")
	if err != nil {
		t.Fatalf("Get(e3) error: %v", err)
	}
	if e.TargetTenantID != "clinic-2" || e.Source.IPAddress != "10.0.0.7" {
		t.Errorf("Get(e3) = %+v", e)
	}
	if _, err := store.Get(ctx, "missing"); !errors.Is(err, ErrEventNotFound) {
		t.Errorf("Get(missing) = %v, want ErrEventNotFound", err)
	}
}

// =====================================================
// MemoryStore
// =====================================================

func TestMemoryStore_Query(t *testing.T) {
	runQueryContract(t, NewMemoryStore(100))
}

func TestMemoryStore_EvictsOldest(t *testing.T) {
	store := NewMemoryStore(10)
	ctx := context.Background()
	for i := 0; i < 15; i++ {
		store.Append(ctx, &Event{ID: fmt.Sprintf("e%d", i)})
	}
	if store.Len() != 10 {
		t.Errorf("Len() = %d, want 10", store.Len())
	}
	if _, err := store.Get(ctx, "e14"); err != nil {
		t.Errorf("newest event evicted: %v", err)
	}
	for _, id := range []string{"e0", "e4"} {
		if _, err := store.Get(ctx, id); err == nil {
			t.Errorf("%s should have been evicted", id)
		}
	}
	if _, err := store.Get(ctx, "e5"); err != nil {
		t.Errorf("e5 should survive: %v", err)
	}

	n, _ := store.Count(ctx, QueryFilter{})
	if int(n) != store.Len() {
		t.Errorf("Count() = %d, Len() = %d", n, store.Len())
	}

	store.Clear()
	if store.Len() != 0 {
		t.Errorf("Len() after Clear = %d", store.Len())
	}
}

func TestMemoryStore_CanceledContext(t *testing.T) {
	store := NewMemoryStore(10)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := store.Append(ctx, &Event{ID: "x"}); !errors.Is(err, context.Canceled) {
		t.Errorf("Append() = %v, want context.Canceled", err)
	}
}

// =====================================================
// BadgerStore
// =====================================================

func openTestBadger(t *testing.T) *BadgerStore {
	t.Helper()
	store, err := OpenBadgerStore("")
	if err != nil {
		t.Fatalf("OpenBadgerStore() error: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestBadgerStore_Query(t *testing.T) {
	runQueryContract(t, openTestBadger(t))
}

func TestBadgerStore_RejectsDuplicateID(t *testing.T) {
	store := openTestBadger(t)
	ctx := context.Background()
	e := &Event{ID: "dup", Timestamp: time.Now()}

	if err := store.Append(ctx, e); err != nil {
		t.Fatalf("first Append() error: %v", err)
	}
	if err := store.Append(ctx, &Event{ID: "dup", Timestamp: time.Now().Add(time.Minute)}); err == nil {
		t.Error("second Append() with same ID should fail")
	}
	events, _ := store.Query(ctx, QueryFilter{})
	if len(events) != 1 {
		t.Errorf("events = %d, want 1", len(events))
	}
}

func TestBadgerStore_RejectsPreEpochTimestamps(t *testing.T) {
	store := openTestBadger(t)
	ctx := context.Background()

	tests := []struct {
		name string
		ts   time.Time
	}{
		{"zero", time.Time{}},
		{"epoch", time.Unix(0, 0)},
		{"before epoch", time.Date(1969, 12, 31, 23, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := store.Append(ctx, &Event{ID: "old-" + tt.name, Timestamp: tt.ts})
			if !errors.Is(err, ErrInvalidTimestamp) {
				t.Errorf("Append() = %v, want ErrInvalidTimestamp", err)
			}
		})
	}

	if err := store.Append(ctx, &Event{ID: "now", Timestamp: time.Now()}); err != nil {
		t.Fatalf("Append() error: %v", err)
	}
	events, _ := store.Query(ctx, QueryFilter{})
	if len(events) != 1 || events[0].ID != "now" {
		t.Errorf("events = %+v, want only the stamped event", events)
	}
}

func TestBadgerStore_PersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	store, err := OpenBadgerStore(dir)
	if err != nil {
		t.Fatalf("OpenBadgerStore() error: %v", err)
	}
	if err := store.Append(ctx, &Event{ID: "keep", Timestamp: time.Now(), Reason: "Allowed"}); err != nil {
		t.Fatalf("Append() error: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}

	reopened, err := OpenBadgerStore(dir)
	if err != nil {
		t.Fatalf("reopen error: %v", err)
	}
	defer reopened.Close()

	e, err := reopened.Get(ctx, "keep")
	if err != nil {
		t.Fatalf("Get() after reopen error: %v", err)
	}
	if e.Reason != "Allowed" {
		t.Errorf("Reason = %q, want Allowed", e.Reason)
	}
}
