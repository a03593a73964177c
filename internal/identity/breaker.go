// Clinicguard - Clinic Platform Request Authorization Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/clinicguard

package identity

import (
	"context"
	"errors"
	"fmt"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/clinicguard/internal/config"
	"github.com/tomtom215/clinicguard/internal/logging"
)

// BreakerStore wraps a Store with a circuit breaker. While the circuit is
// open lookups fail fast with ErrUnavailable instead of waiting on a
// struggling backend.
type BreakerStore struct {
	next Store
	cb   *gobreaker.CircuitBreaker[*UserRecord]
	name string
}

// NewBreakerStore wraps next. The circuit opens after FailureThreshold
// consecutive infrastructure failures; ErrNotFound and caller cancellation
// do not count as failures.
func NewBreakerStore(next Store, cfg config.BreakerConfig) *BreakerStore {
	name := "identity-store"
	BreakerState.WithLabelValues(name).Set(0)

	threshold := cfg.FailureThreshold
	if threshold == 0 {
		threshold = 5
	}

	cb := gobreaker.NewCircuitBreaker[*UserRecord](gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			trip := counts.ConsecutiveFailures >= threshold
			if trip {
				logging.Warn().
					Uint32("consecutive_failures", counts.ConsecutiveFailures).
					Msg("[CIRCUIT BREAKER] Opening identity store circuit")
			}
			return trip
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Info().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("[CIRCUIT BREAKER] State transition")
			BreakerState.WithLabelValues(name).Set(stateToFloat(to))
			BreakerTransitions.WithLabelValues(name, from.String(), to.String()).Inc()
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrNotFound) || errors.Is(err, context.Canceled)
		},
	})

	return &BreakerStore{next: next, cb: cb, name: name}
}

// FindByID implements Store.
func (b *BreakerStore) FindByID(ctx context.Context, id string) (*UserRecord, error) {
	rec, err := b.cb.Execute(func() (*UserRecord, error) {
		return b.next.FindByID(ctx, id)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		BreakerRejections.WithLabelValues(b.name).Inc()
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return rec, err
}

// State returns the breaker state name.
func (b *BreakerStore) State() string {
	return b.cb.State().String()
}

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}
