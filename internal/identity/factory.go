// Clinicguard - Clinic Platform Request Authorization Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/clinicguard

package identity

import (
	"context"
	"fmt"

	"github.com/tomtom215/clinicguard/internal/config"
	"github.com/tomtom215/clinicguard/internal/logging"
)

// OpenStore creates the configured identity store, wrapped in a circuit
// breaker when enabled. The returned close function is never nil.
func OpenStore(ctx context.Context, cfg *config.IdentityConfig) (Store, func(), error) {
	noop := func() {}

	var store Store
	closeFn := noop

	switch cfg.Backend {
	case config.IdentityBackendMemory, "":
		store = NewMemoryStoreFromSeeds(cfg.Users)
		logging.Info().Int("users", len(cfg.Users)).Msg("Identity store: memory")

	case config.IdentityBackendPostgres:
		pool, err := OpenPool(ctx, cfg.DSN, cfg.MaxConns)
		if err != nil {
			return nil, noop, err
		}
		if err := Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, noop, err
		}
		store = NewPostgresStore(pool)
		closeFn = pool.Close
		logging.Info().Int32("max_conns", cfg.MaxConns).Msg("Identity store: postgres")

	default:
		return nil, noop, fmt.Errorf("unknown identity backend %q", cfg.Backend)
	}

	if cfg.Breaker.Enabled {
		store = NewBreakerStore(store, cfg.Breaker)
	}
	return store, closeFn, nil
}
