// Clinicguard - Clinic Platform Request Authorization Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/clinicguard

package authz

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/tomtom215/clinicguard/internal/audit"
	"github.com/tomtom215/clinicguard/internal/auth"
	"github.com/tomtom215/clinicguard/internal/auth/authtest"
	"github.com/tomtom215/clinicguard/internal/config"
	"github.com/tomtom215/clinicguard/internal/identity"
)

// =====================================================
// Test doubles
// =====================================================

// recordingAudit keeps every recorded event.
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

func (r *recordingAudit) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

// slowStore waits before answering and honors cancellation.
type slowStore struct {
	delay time.Duration
	next  identity.Store
}

func (s *slowStore) FindByID(ctx context.Context, id string) (*identity.UserRecord, error) {
	select {
	case <-time.After(s.delay):
		return s.next.FindByID(ctx, id)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// stubbornStore ignores its context.
type stubbornStore struct {
	delay time.Duration
}

func (s *stubbornStore) FindByID(ctx context.Context, id string) (*identity.UserRecord, error) {
	time.Sleep(s.delay)
	return &identity.UserRecord{ID: id, Role: "nurse", IsActive: true}, nil
}

type errStore struct{ err error }

func (s errStore) FindByID(ctx context.Context, id string) (*identity.UserRecord, error) {
	return nil, s.err
}

type panicStore struct{}

func (panicStore) FindByID(ctx context.Context, id string) (*identity.UserRecord, error) {
	panic("driver exploded")
}

// panicResolver panics inside the pipeline.
type panicResolver struct{}

func (panicResolver) Resolve(ctx context.Context, claims *auth.ClaimSet) (*Principal, error) {
	panic("resolver bug")
}

// countingStore counts lookups.
type countingStore struct {
	next  identity.Store
	calls atomic.Int32
}

func (s *countingStore) FindByID(ctx context.Context, id string) (*identity.UserRecord, error) {
	s.calls.Add(1)
	return s.next.FindByID(ctx, id)
}

var errBackendDown = errors.New("connection refused")

// =====================================================
// Environment
// =====================================================

var testUsers = []config.UserSeed{
	{ID: "admin-1", Role: "admin", TenantID: "clinic-1", Active: true},
	{ID: "manager-1", Role: "manager", TenantID: "clinic-1", Active: true},
	{ID: "doctor-1", Role: "doctor", TenantID: "clinic-1", Active: true},
	{ID: "nurse-1", Email: "nurse@clinic-1.example", Role: "nurse", TenantID: "clinic-1", Active: true},
	{ID: "recep-1", Role: "receptionist", TenantID: "clinic-1", Active: true, Scopes: []string{"report:export"}},
	{ID: "support-1", Role: "support", TenantID: "clinic-hq", Active: true},
	{ID: "inactive-1", Role: "doctor", TenantID: "clinic-1", Active: false},
	{ID: "floating-1", Role: "nurse", Active: true},
}

type testEnv struct {
	issuer   *authtest.Issuer
	store    *identity.MemoryStore
	holder   *HierarchyHolder
	audit    *recordingAudit
	pipeline *Pipeline
}

func defaultHolder(t *testing.T) *HierarchyHolder {
	t.Helper()
	h, err := DefaultRoleHierarchy()
	if err != nil {
		t.Fatalf("DefaultRoleHierarchy() error: %v", err)
	}
	return NewHierarchyHolder(h)
}

// newTestEnv wires a pipeline over seeded users. store may wrap the seeded
// memory store; nil uses it directly.
func newTestEnv(t *testing.T, wrap func(identity.Store) identity.Store) *testEnv {
	t.Helper()

	env := &testEnv{
		issuer: authtest.NewIssuer(),
		store:  identity.NewMemoryStoreFromSeeds(testUsers),
		holder: defaultHolder(t),
		audit:  &recordingAudit{},
	}

	var store identity.Store = env.store
	if wrap != nil {
		store = wrap(store)
	}

	p, err := NewPipeline(PipelineConfig{
		Verifier: env.issuer.Verifier(),
		Resolver: NewResolver(store, env.holder, ResolverConfig{LookupTimeout: 50 * time.Millisecond}),
		Scopes:   NewScopeAuthorizer(env.holder, ""),
		Tenants:  NewTenantEnforcer(env.holder, "", ""),
		Audit:    env.audit,
	})
	if err != nil {
		t.Fatalf("NewPipeline() error: %v", err)
	}
	env.pipeline = p
	return env
}

// token mints a valid token for subject carrying scopes.
func (e *testEnv) token(subject string, scopes ...string) string {
	return e.issuer.Token(authtest.Claims{Subject: subject, Scopes: scopes})
}

// claimsFor verifies a freshly minted token.
func claimsFor(t *testing.T, issuer *authtest.Issuer, c authtest.Claims) *auth.ClaimSet {
	t.Helper()
	cs, err := issuer.Verifier().Verify(context.Background(), issuer.Token(c))
	if err != nil {
		t.Fatalf("Verify() error: %v", err)
	}
	return cs
}

func principal(role, tenant string, active bool, scopes ...string) *Principal {
	return &Principal{ID: "p-" + role, Role: role, TenantID: tenant, IsActive: active, Scopes: NewScopeSet(scopes...)}
}
