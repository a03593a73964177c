// Clinicguard - Clinic Platform Request Authorization Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/clinicguard

package supervisor

import (
	"context"
	"log/slog"
	"time"

	"github.com/thejerf/suture/v4"
	"github.com/thejerf/sutureslog"
)

// TreeConfig tunes suture restart behavior. Zero fields take the values
// from DefaultTreeConfig.
type TreeConfig struct {
	FailureThreshold float64       // failures tolerated before backoff
	FailureDecay     float64       // seconds for the failure count to halve
	FailureBackoff   time.Duration // pause once the threshold is crossed
	ShutdownTimeout  time.Duration // per-service stop deadline
}

// DefaultTreeConfig returns suture's documented defaults.
func DefaultTreeConfig() TreeConfig {
	return TreeConfig{
		FailureThreshold: 5,
		FailureDecay:     30,
		FailureBackoff:   15 * time.Second,
		ShutdownTimeout:  10 * time.Second,
	}
}

func (c TreeConfig) withDefaults() TreeConfig {
	d := DefaultTreeConfig()
	if c.FailureThreshold <= 0 {
		c.FailureThreshold = d.FailureThreshold
	}
	if c.FailureDecay <= 0 {
		c.FailureDecay = d.FailureDecay
	}
	if c.FailureBackoff <= 0 {
		c.FailureBackoff = d.FailureBackoff
	}
	if c.ShutdownTimeout <= 0 {
		c.ShutdownTimeout = d.ShutdownTimeout
	}
	return c
}

func (c TreeConfig) sutureSpec() suture.Spec {
	return suture.Spec{
		FailureThreshold: c.FailureThreshold,
		FailureDecay:     c.FailureDecay,
		FailureBackoff:   c.FailureBackoff,
		Timeout:          c.ShutdownTimeout,
	}
}

// SupervisorTree owns every long-running piece of the decision service,
// split into layers that restart independently:
//
//	clinicguard
//	├── audit-layer   audit sink writer
//	├── policy-layer  key refresher, role hierarchy reloader
//	└── api-layer     HTTP server
//
// A failing key endpoint or policy file restarts only the policy layer; the
// API keeps deciding with the last good keys and hierarchy snapshot.
type SupervisorTree struct {
	root   *suture.Supervisor
	audit  *suture.Supervisor
	policy *suture.Supervisor
	api    *suture.Supervisor
	config TreeConfig
}

// NewSupervisorTree builds the layers and reports supervisor events to
// logger.
func NewSupervisorTree(logger *slog.Logger, config TreeConfig) (*SupervisorTree, error) {
	config = config.withDefaults()

	rootSpec := config.sutureSpec()
	rootSpec.EventHook = (&sutureslog.Handler{Logger: logger}).MustHook()

	t := &SupervisorTree{
		root:   suture.New("clinicguard", rootSpec),
		audit:  suture.New("audit-layer", config.sutureSpec()),
		policy: suture.New("policy-layer", config.sutureSpec()),
		api:    suture.New("api-layer", config.sutureSpec()),
		config: config,
	}
	for _, layer := range []*suture.Supervisor{t.audit, t.policy, t.api} {
		t.root.Add(layer)
	}
	return t, nil
}

// Root returns the root supervisor.
func (t *SupervisorTree) Root() *suture.Supervisor {
	return t.root
}

// AddAuditService adds a service to the audit layer.
func (t *SupervisorTree) AddAuditService(svc suture.Service) suture.ServiceToken {
	return t.audit.Add(svc)
}

// AddPolicyService adds a service to the policy layer. Use it for the key
// refresher and the hierarchy reloader.
func (t *SupervisorTree) AddPolicyService(svc suture.Service) suture.ServiceToken {
	return t.policy.Add(svc)
}

// AddAPIService adds a service to the API layer.
func (t *SupervisorTree) AddAPIService(svc suture.Service) suture.ServiceToken {
	return t.api.Add(svc)
}

// RemovePolicyService removes a service added with AddPolicyService.
func (t *SupervisorTree) RemovePolicyService(token suture.ServiceToken) error {
	return t.policy.Remove(token)
}

// Serve runs the tree until ctx is canceled.
func (t *SupervisorTree) Serve(ctx context.Context) error {
	return t.root.Serve(ctx)
}

// ServeBackground runs the tree in a goroutine. The channel receives the
// result when the tree stops.
func (t *SupervisorTree) ServeBackground(ctx context.Context) <-chan error {
	return t.root.ServeBackground(ctx)
}

// UnstoppedServiceReport lists services that missed the shutdown timeout.
func (t *SupervisorTree) UnstoppedServiceReport() ([]suture.UnstoppedService, error) {
	return t.root.UnstoppedServiceReport()
}
