// Clinicguard - Clinic Platform Request Authorization Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/clinicguard

package auth

import (
	"context"
	"time"

	"github.com/tomtom215/clinicguard/internal/logging"
)

// KeyRefresher refreshes a KeyCache on a fixed interval.
type KeyRefresher struct {
	cache    *KeyCache
	interval time.Duration
}

// NewKeyRefresher creates a refresher. Interval defaults to 15 minutes.
func NewKeyRefresher(cache *KeyCache, interval time.Duration) *KeyRefresher {
	if interval <= 0 {
		interval = 15 * time.Minute
	}
	return &KeyRefresher{cache: cache, interval: interval}
}

// RunWithContext refreshes until ctx is canceled. A failed refresh keeps the
// previous keys and is retried on the next tick.
func (r *KeyRefresher) RunWithContext(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := r.cache.Refresh(ctx, TriggerTimer); err != nil {
				logging.Warn().
					Err(err).
					Time("last_refresh", r.cache.LastRefresh()).
					Msg("Scheduled key refresh failed, keeping cached keys")
			}
		}
	}
}

// String implements fmt.Stringer for supervisor logging.
func (r *KeyRefresher) String() string {
	return "key-refresher"
}
