// Clinicguard - Clinic Platform Request Authorization Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/clinicguard

package authz

import (
	"context"
	"time"

	"github.com/tomtom215/clinicguard/internal/logging"
)

// HierarchyReloader rebuilds the role hierarchy from its source on an
// interval. Invalid policies keep the active snapshot.
type HierarchyReloader struct {
	holder   *HierarchyHolder
	source   HierarchySource
	interval time.Duration
}

// NewHierarchyReloader creates a reloader. Interval defaults to one minute.
func NewHierarchyReloader(holder *HierarchyHolder, source HierarchySource, interval time.Duration) *HierarchyReloader {
	if interval <= 0 {
		interval = time.Minute
	}
	return &HierarchyReloader{holder: holder, source: source, interval: interval}
}

// Reload loads the source once and swaps it in when it differs.
// It reports whether the active snapshot changed.
func (r *HierarchyReloader) Reload() (bool, error) {
	next, err := LoadRoleHierarchy(r.source)
	if err != nil {
		HierarchyReloadsTotal.WithLabelValues("failure").Inc()
		return false, err
	}

	if next.Equal(r.holder.Load()) {
		HierarchyReloadsTotal.WithLabelValues("unchanged").Inc()
		return false, nil
	}

	r.holder.Swap(next)
	HierarchyReloadsTotal.WithLabelValues("changed").Inc()
	HierarchyRoles.Set(float64(len(next.Roles())))
	logging.Info().
		Int("roles", len(next.Roles())).
		Str("policy", r.source.PolicyPath).
		Msg("Role hierarchy reloaded")
	return true, nil
}

// RunWithContext reloads until ctx is canceled.
func (r *HierarchyReloader) RunWithContext(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, err := r.Reload(); err != nil {
				logging.Warn().
					Err(err).
					Str("policy", r.source.PolicyPath).
					Msg("Role hierarchy reload failed, keeping active snapshot")
			}
		}
	}
}

// String implements fmt.Stringer for supervisor logging.
func (r *HierarchyReloader) String() string {
	return "hierarchy-reloader"
}
