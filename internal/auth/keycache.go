// Clinicguard - Clinic Platform Request Authorization Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/clinicguard

package auth

import (
	"context"
	"fmt"
	"sort"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"github.com/tomtom215/clinicguard/internal/logging"
)

// Refresh triggers, used as metric labels.
const (
	TriggerStartup    = "startup"
	TriggerTimer      = "timer"
	TriggerUnknownKID = "unknown_kid"
)

// KeyCacheConfig configures a KeyCache.
type KeyCacheConfig struct {
	// RefreshTimeout bounds a single provider fetch. Default: 200ms.
	RefreshTimeout time.Duration

	// MinRefreshInterval is the minimum spacing between refreshes forced by
	// an unknown key id. Zero disables throttling; negative selects 10s.
	MinRefreshInterval time.Duration
}

// keySnapshot is an immutable view of the provider's key set.
type keySnapshot struct {
	byID    map[string]PublicKey
	all     []PublicKey
	fetched time.Time
}

// KeyCache holds the signer's keys for request-path verification.
// Reads are lock-free; refreshes are single-flight and swap the snapshot
// atomically, so in-flight verifications keep the keys they started with.
type KeyCache struct {
	provider KeyProvider
	timeout  time.Duration
	limiter  *rate.Limiter
	group    singleflight.Group
	snapshot atomic.Pointer[keySnapshot]
}

// NewKeyCache creates an empty cache. Call Refresh before serving traffic.
func NewKeyCache(provider KeyProvider, cfg KeyCacheConfig) *KeyCache {
	if cfg.RefreshTimeout <= 0 {
		cfg.RefreshTimeout = 200 * time.Millisecond
	}
	if cfg.MinRefreshInterval < 0 {
		cfg.MinRefreshInterval = 10 * time.Second
	}

	limit := rate.Inf
	if cfg.MinRefreshInterval > 0 {
		limit = rate.Every(cfg.MinRefreshInterval)
	}

	c := &KeyCache{
		provider: provider,
		timeout:  cfg.RefreshTimeout,
		limiter:  rate.NewLimiter(limit, 1),
	}
	c.snapshot.Store(&keySnapshot{byID: map[string]PublicKey{}})
	return c
}

// Refresh fetches the provider's keys and replaces the cached set.
// On failure the previous set stays in place.
func (c *KeyCache) Refresh(ctx context.Context, trigger string) error {
	_, err, _ := c.group.Do("refresh", func() (interface{}, error) {
		return nil, c.fetch(ctx, trigger)
	})
	return err
}

func (c *KeyCache) fetch(ctx context.Context, trigger string) error {
	// Detached from the caller: the fetch is shared by every waiter.
	fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.timeout)
	defer cancel()

	start := time.Now()
	keys, err := c.provider.CurrentKeys(fetchCtx)
	KeyRefreshDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		KeyRefreshesTotal.WithLabelValues(trigger, "error").Inc()
		return fmt.Errorf("refresh verification keys: %w", err)
	}

	next := newKeySnapshot(keys)
	if len(next.all) == 0 {
		KeyRefreshesTotal.WithLabelValues(trigger, "error").Inc()
		return ErrNoKeys
	}

	prev := c.snapshot.Swap(next)
	KeyRefreshesTotal.WithLabelValues(trigger, "success").Inc()
	VerificationKeys.Set(float64(len(next.all)))
	detectRotation(prev, next)
	return nil
}

func newKeySnapshot(keys []PublicKey) *keySnapshot {
	snap := &keySnapshot{
		byID:    make(map[string]PublicKey, len(keys)),
		all:     make([]PublicKey, 0, len(keys)),
		fetched: time.Now(),
	}
	for _, k := range keys {
		if k.Key == nil {
			continue
		}
		if k.ID != "" {
			if _, dup := snap.byID[k.ID]; dup {
				logging.Warn().Str("kid", k.ID).Msg("Duplicate key id in key set, keeping first")
				continue
			}
			snap.byID[k.ID] = k
		}
		snap.all = append(snap.all, k)
	}
	return snap
}

// detectRotation logs keys added or removed between two snapshots.
func detectRotation(prev, next *keySnapshot) {
	if prev == nil || prev.fetched.IsZero() {
		logging.Info().Int("keys", len(next.all)).Msg("Verification keys loaded")
		return
	}

	added, removed := 0, 0
	for kid := range next.byID {
		if _, ok := prev.byID[kid]; !ok {
			added++
			logging.Info().Str("kid", kid).Msg("Verification key added")
		}
	}
	for kid := range prev.byID {
		if _, ok := next.byID[kid]; !ok {
			removed++
			logging.Info().Str("kid", kid).Msg("Verification key removed")
		}
	}

	if added > 0 || removed > 0 {
		KeyRotationsTotal.Inc()
		logging.Info().
			Int("keys_added", added).
			Int("keys_removed", removed).
			Int("keys_total", len(next.all)).
			Msg("Verification key rotation detected")
	}
}

// Lookup returns the cached key with the given id.
func (c *KeyCache) Lookup(kid string) (PublicKey, bool) {
	k, ok := c.snapshot.Load().byID[kid]
	return k, ok
}

// Keys returns the cached keys.
func (c *KeyCache) Keys() []PublicKey {
	return append([]PublicKey(nil), c.snapshot.Load().all...)
}

// KeyIDs returns the sorted ids of cached keys.
func (c *KeyCache) KeyIDs() []string {
	snap := c.snapshot.Load()
	ids := make([]string, 0, len(snap.byID))
	for id := range snap.byID {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// LastRefresh returns the time of the last successful refresh.
func (c *KeyCache) LastRefresh() time.Time {
	return c.snapshot.Load().fetched
}

// resolve returns the key for kid, forcing one throttled refresh on a miss.
func (c *KeyCache) resolve(ctx context.Context, kid string) (PublicKey, error) {
	if k, ok := c.Lookup(kid); ok {
		return k, nil
	}
	c.forceRefresh(ctx)
	if k, ok := c.Lookup(kid); ok {
		return k, nil
	}
	return PublicKey{}, fmt.Errorf("%w %q", ErrUnknownKeyID, kid)
}

// candidates returns every cached key able to verify alg, forcing one
// throttled refresh when none is cached.
func (c *KeyCache) candidates(ctx context.Context, alg string) []PublicKey {
	if keys := c.supporting(alg); len(keys) > 0 {
		return keys
	}
	c.forceRefresh(ctx)
	return c.supporting(alg)
}

func (c *KeyCache) supporting(alg string) []PublicKey {
	all := c.snapshot.Load().all
	out := make([]PublicKey, 0, len(all))
	for _, k := range all {
		if k.Supports(alg) {
			out = append(out, k)
		}
	}
	return out
}

// forceRefresh joins an in-flight forced refresh or starts one if the rate
// limit allows. Concurrent misses share a single provider call.
func (c *KeyCache) forceRefresh(ctx context.Context) {
	_, _, _ = c.group.Do("forced", func() (interface{}, error) {
		if !c.limiter.Allow() {
			KeyRefreshesThrottledTotal.Inc()
			return nil, nil
		}
		if err := c.Refresh(ctx, TriggerUnknownKID); err != nil {
			logging.Warn().Err(err).Msg("Forced key refresh failed, using cached keys")
		}
		return nil, nil
	})
}
