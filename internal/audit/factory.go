// Clinicguard - Clinic Platform Request Authorization Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/clinicguard

package audit

import (
	"fmt"

	"github.com/tomtom215/clinicguard/internal/config"
)

// OpenStore creates the configured audit store. The returned close function
// releases backend resources and is never nil.
func OpenStore(cfg *config.AuditConfig) (Store, func() error, error) {
	noop := func() error { return nil }

	switch cfg.Backend {
	case config.AuditBackendMemory, "":
		return NewMemoryStore(cfg.MemoryCapacity), noop, nil
	case config.AuditBackendBadger:
		store, err := OpenBadgerStore(cfg.BadgerPath)
		if err != nil {
			return nil, noop, err
		}
		return store, store.Close, nil
	case config.AuditBackendNATS:
		pub, err := NewNATSPublisher(&cfg.NATS)
		if err != nil {
			return nil, noop, err
		}
		store := NewPublisherStore(pub, cfg.NATS.Topic)
		return store, store.Close, nil
	default:
		return nil, noop, fmt.Errorf("unknown audit backend %q", cfg.Backend)
	}
}
