// Clinicguard - Clinic Platform Request Authorization Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/clinicguard

package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/tomtom215/clinicguard/internal/auth"
	"github.com/tomtom215/clinicguard/internal/authz"
	"github.com/tomtom215/clinicguard/internal/config"
	"github.com/tomtom215/clinicguard/internal/identity"
	"github.com/tomtom215/clinicguard/internal/logging"
)

// components is the assembled decision core. Close releases the identity
// store; the audit recorder is owned by the caller.
type components struct {
	keys      *auth.KeyCache
	verifier  *auth.Verifier
	store     identity.Store
	holder    *authz.HierarchyHolder
	source    authz.HierarchySource
	catalog   *authz.Catalog
	pipeline  *authz.Pipeline
	closeFunc func()
}

func (c *components) Close() {
	if c.closeFunc != nil {
		c.closeFunc()
	}
}

// buildComponents wires verifier, resolver, authorizers and pipeline from
// cfg. The key cache is populated before returning; a signer that cannot be
// reached at startup is an error.
func buildComponents(ctx context.Context, cfg *config.Config, recorder authz.AuditRecorder) (*components, error) {
	if recorder == nil {
		return nil, errors.New("audit recorder is required")
	}

	provider, err := auth.NewKeyProvider(&cfg.Token, nil)
	if err != nil {
		return nil, fmt.Errorf("key provider: %w", err)
	}
	keys := auth.NewKeyCache(provider, auth.KeyCacheConfigFrom(&cfg.Token))
	if err := keys.Refresh(ctx, auth.TriggerStartup); err != nil {
		return nil, fmt.Errorf("initial key refresh: %w", err)
	}
	verifier := auth.NewVerifier(keys, auth.VerifierConfigFrom(&cfg.Token))

	source := authz.HierarchySource{
		ModelPath:  cfg.Authz.ModelPath,
		PolicyPath: cfg.Authz.PolicyPath,
	}
	hierarchy, err := authz.LoadRoleHierarchy(source)
	if err != nil {
		return nil, fmt.Errorf("role hierarchy: %w", err)
	}
	holder := authz.NewHierarchyHolder(hierarchy)

	catalog, err := authz.CatalogFromConfig(cfg.Authz.Operations)
	if err != nil {
		return nil, fmt.Errorf("operation catalog: %w", err)
	}

	store, closeStore, err := identity.OpenStore(ctx, &cfg.Identity)
	if err != nil {
		return nil, fmt.Errorf("identity store: %w", err)
	}

	resolver := authz.NewResolver(store, holder, authz.ResolverConfig{
		LookupTimeout:   cfg.Identity.LookupTimeout,
		FullAccessScope: cfg.Authz.FullAccessScope,
	})

	pipeline, err := authz.NewPipeline(authz.PipelineConfig{
		Verifier: verifier,
		Resolver: resolver,
		Scopes:   authz.NewScopeAuthorizer(holder, cfg.Authz.FullAccessScope),
		Tenants:  authz.NewTenantEnforcer(holder, cfg.Authz.CrossTenantScope, cfg.Authz.FullAccessScope),
		Audit:    recorder,
		Catalog:  catalog,
	})
	if err != nil {
		closeStore()
		return nil, err
	}

	logging.Info().
		Strs("key_ids", keys.KeyIDs()).
		Int("roles", len(hierarchy.Roles())).
		Int("operations", len(catalog.Names())).
		Msg("Decision core ready")

	return &components{
		keys:      keys,
		verifier:  verifier,
		store:     store,
		holder:    holder,
		source:    source,
		catalog:   catalog,
		pipeline:  pipeline,
		closeFunc: closeStore,
	}, nil
}
