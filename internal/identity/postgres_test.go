// Clinicguard - Clinic Platform Request Authorization Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/clinicguard

package identity

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
)

// fakeRow scans a fixed record or returns err.
type fakeRow struct {
	rec *UserRecord
	err error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	*dest[0].(*string) = r.rec.ID
	*dest[1].(*string) = r.rec.Email
	*dest[2].(*string) = r.rec.DisplayName
	*dest[3].(*string) = r.rec.Role
	*dest[4].(*string) = r.rec.TenantID
	*dest[5].(*bool) = r.rec.IsActive
	*dest[6].(*[]string) = r.rec.ScopesOverride
	return nil
}

type fakeQuerier struct {
	row    fakeRow
	lastID any
}

func (q *fakeQuerier) QueryRow(_ context.Context, _ string, args ...any) pgx.Row {
	if len(args) > 0 {
		q.lastID = args[0]
	}
	return q.row
}

func TestPostgresStore_FindByID(t *testing.T) {
	t.Parallel()

	q := &fakeQuerier{row: fakeRow{rec: &UserRecord{
		ID: "u-9", Email: "dr@clinic-3.example", Role: "doctor", TenantID: "clinic-3", IsActive: true,
		ScopesOverride: []string{"report:export"},
	}}}
	store := &PostgresStore{db: q}

	rec, err := store.FindByID(context.Background(), "u-9")
	if err != nil {
		t.Fatalf("FindByID() error: %v", err)
	}
	if q.lastID != "u-9" {
		t.Errorf("query arg = %v, want u-9", q.lastID)
	}
	if rec.Role != "doctor" || rec.TenantID != "clinic-3" || len(rec.ScopesOverride) != 1 {
		t.Errorf("FindByID() = %+v", rec)
	}
}

func TestPostgresStore_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		rowErr  error
		wantErr error
	}{
		{"no rows", pgx.ErrNoRows, ErrNotFound},
		{"deadline", context.DeadlineExceeded, context.DeadlineExceeded},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			store := &PostgresStore{db: &fakeQuerier{row: fakeRow{err: tt.rowErr}}}
			if _, err := store.FindByID(context.Background(), "u-1"); !errors.Is(err, tt.wantErr) {
				t.Errorf("FindByID() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestOpenPool_RequiresDSN(t *testing.T) {
	t.Parallel()

	if _, err := OpenPool(context.Background(), "  ", 4); err == nil {
		t.Error("OpenPool() expected error for empty dsn")
	}
}
