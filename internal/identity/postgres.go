// Clinicguard - Clinic Platform Request Authorization Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/clinicguard

package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Schema creates the identities table read by PostgresStore.
const Schema = `
CREATE TABLE IF NOT EXISTS identities (
    id              TEXT PRIMARY KEY,
    email           TEXT,
    display_name    TEXT,
    role            TEXT NOT NULL,
    tenant_id       TEXT,
    is_active       BOOLEAN NOT NULL DEFAULT TRUE,
    scopes_override TEXT[] NOT NULL DEFAULT '{}',
    updated_at      TIMESTAMPTZ NOT NULL DEFAULT now()
)`

const findByIDQuery = `
SELECT id, COALESCE(email, ''), COALESCE(display_name, ''), role,
       COALESCE(tenant_id, ''), is_active, scopes_override
FROM identities
WHERE id = $1`

// querier is the subset of pgxpool.Pool used by the store.
type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore reads identities from PostgreSQL.
type PostgresStore struct {
	db querier
}

// NewPostgresStore creates a store over an existing pool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: pool}
}

// OpenPool connects a pgx pool and verifies connectivity.
func OpenPool(ctx context.Context, dsn string, maxConns int32) (*pgxpool.Pool, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, errors.New("identity dsn is required")
	}
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse identity dsn: %w", err)
	}
	if maxConns > 0 {
		cfg.MaxConns = maxConns
	}

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	pool, err := pgxpool.NewWithConfig(connectCtx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(connectCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return pool, nil
}

// Migrate creates the identities table when missing.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("create identities table: %w", err)
	}
	return nil
}

// FindByID implements Store.
func (s *PostgresStore) FindByID(ctx context.Context, id string) (*UserRecord, error) {
	start := time.Now()
	var r UserRecord
	err := s.db.QueryRow(ctx, findByIDQuery, id).Scan(
		&r.ID,
		&r.Email,
		&r.DisplayName,
		&r.Role,
		&r.TenantID,
		&r.IsActive,
		&r.ScopesOverride,
	)
	LookupDuration.WithLabelValues("postgres").Observe(time.Since(start).Seconds())

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query identity: %w", err)
	}
	return &r, nil
}
