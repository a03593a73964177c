// Clinicguard - Clinic Platform Request Authorization Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/clinicguard

package httpguard

import (
	"context"
	"sync"
	"testing"

	"github.com/tomtom215/clinicguard/internal/audit"
	"github.com/tomtom215/clinicguard/internal/auth/authtest"
	"github.com/tomtom215/clinicguard/internal/authz"
	"github.com/tomtom215/clinicguard/internal/config"
	"github.com/tomtom215/clinicguard/internal/identity"
)

// stubDecider returns a fixed decision and records what it was asked.
type stubDecider struct {
	mu        sync.Mutex
	decision  authz.Decision
	token     string
	req       authz.PermissionRequirement
	operation string
	tenant    authz.TenantContext
	source    audit.Source
	calls     int
}

func (s *stubDecider) Authorize(ctx context.Context, token string, req authz.PermissionRequirement, tenant authz.TenantContext) authz.Decision {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	s.token, s.req, s.tenant = token, req, tenant
	s.source = audit.SourceFromContext(ctx)
	return s.decision
}

func (s *stubDecider) AuthorizeOperation(ctx context.Context, token, operation string, tenant authz.TenantContext) authz.Decision {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	s.token, s.operation, s.tenant = token, operation, tenant
	s.source = audit.SourceFromContext(ctx)
	return s.decision
}

type recordingAudit struct {
	mu     sync.Mutex
	events []audit.Event
}

func (r *recordingAudit) Record(ctx context.Context, e *audit.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, *e)
}

func (r *recordingAudit) all() []audit.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]audit.Event(nil), r.events...)
}

// realPipeline wires the authorization pipeline over a few seeded users.
func realPipeline(t *testing.T) (*authz.Pipeline, *authtest.Issuer, *recordingAudit) {
	t.Helper()

	hierarchy, err := authz.DefaultRoleHierarchy()
	if err != nil {
		t.Fatalf("DefaultRoleHierarchy() error: %v", err)
	}
	holder := authz.NewHierarchyHolder(hierarchy)
	store := identity.NewMemoryStoreFromSeeds([]config.UserSeed{
		{ID: "nurse-1", Role: "nurse", TenantID: "clinic-1", Active: true},
		{ID: "support-1", Role: "support", TenantID: "clinic-hq", Active: true},
		{ID: "gone-1", Role: "nurse", TenantID: "clinic-1", Active: false},
	})
	catalog, err := authz.NewCatalog(authz.Operation{Name: "records.read", Requirement: authz.RequireAll("record:read")})
	if err != nil {
		t.Fatalf("NewCatalog() error: %v", err)
	}

	issuer := authtest.NewIssuer()
	rec := &recordingAudit{}
	p, err := authz.NewPipeline(authz.PipelineConfig{
		Verifier: issuer.Verifier(),
		Resolver: authz.NewResolver(store, holder, authz.ResolverConfig{}),
		Scopes:   authz.NewScopeAuthorizer(holder, ""),
		Tenants:  authz.NewTenantEnforcer(holder, "", ""),
		Audit:    rec,
		Catalog:  catalog,
	})
	if err != nil {
		t.Fatalf("NewPipeline() error: %v", err)
	}
	return p, issuer, rec
}

func bearer(token string) string {
	return "Bearer " + token
}

func authtestClaims(subject string, scopes ...string) authtest.Claims {
	return authtest.Claims{Subject: subject, Scopes: scopes}
}
