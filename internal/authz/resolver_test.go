// Clinicguard - Clinic Platform Request Authorization Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/clinicguard

package authz

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tomtom215/clinicguard/internal/auth/authtest"
	"github.com/tomtom215/clinicguard/internal/config"
	"github.com/tomtom215/clinicguard/internal/identity"
)

func newTestResolver(t *testing.T, store identity.Store, timeout time.Duration) *Resolver {
	t.Helper()
	return NewResolver(store, defaultHolder(t), ResolverConfig{LookupTimeout: timeout})
}

func assertReason(t *testing.T, err error, want Reason) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", want)
	}
	if got := ReasonOf(err); got != want {
		t.Errorf("ReasonOf(%v) = %s, want %s", err, got, want)
	}
}

// =====================================================
// Scope derivation
// =====================================================

func TestResolver_ScopeDerivation(t *testing.T) {
	t.Parallel()
	issuer := authtest.NewIssuer()
	r := newTestResolver(t, identity.NewMemoryStoreFromSeeds(testUsers), time.Second)

	tests := []struct {
		name    string
		subject string
		claimed []string
		want    []string
	}{
		{"claims filtered by role", "nurse-1", []string{"patient:read", "billing:write"}, []string{"patient:read"}},
		{"inherited scopes accepted", "doctor-1", []string{"appointment:write", "record:write"}, []string{"appointment:write", "record:write"}},
		{"no claims", "nurse-1", nil, nil},
		{"override added", "recep-1", []string{"patient:read"}, []string{"patient:read", "report:export"}},
		{"full access keeps every claim", "admin-1", []string{"anything:at_all"}, []string{"anything:at_all"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims := claimsFor(t, issuer, authtest.Claims{Subject: tt.subject, Scopes: tt.claimed})
			p, err := r.Resolve(context.Background(), claims)
			if err != nil {
				t.Fatalf("Resolve() error: %v", err)
			}
			if !p.Scopes.Equal(NewScopeSet(tt.want...)) {
				t.Errorf("Scopes = %s, want %v", p.Scopes, tt.want)
			}
		})
	}
}

func TestResolver_StoreIsAuthoritative(t *testing.T) {
	t.Parallel()
	issuer := authtest.NewIssuer()
	r := newTestResolver(t, identity.NewMemoryStoreFromSeeds(testUsers), time.Second)

	claims := claimsFor(t, issuer, authtest.Claims{Subject: "nurse-1", Role: "admin", TenantID: "clinic-9"})
	p, err := r.Resolve(context.Background(), claims)
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}
	if p.Role != "nurse" || p.TenantID != "clinic-1" {
		t.Errorf("Principal = %s/%s, want nurse/clinic-1", p.Role, p.TenantID)
	}
	if p.Email != "nurse@clinic-1.example" || !p.IsActive {
		t.Errorf("Principal = %+v", p)
	}

	// Records without a tenant fall back to the claim.
	claims = claimsFor(t, issuer, authtest.Claims{Subject: "floating-1", TenantID: "clinic-7"})
	p, err = r.Resolve(context.Background(), claims)
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}
	if p.TenantID != "clinic-7" {
		t.Errorf("TenantID = %q, want claim fallback clinic-7", p.TenantID)
	}
}

func TestResolver_ReturnsFreshPrincipals(t *testing.T) {
	t.Parallel()
	issuer := authtest.NewIssuer()
	r := newTestResolver(t, identity.NewMemoryStoreFromSeeds(testUsers), time.Second)
	claims := claimsFor(t, issuer, authtest.Claims{Subject: "nurse-1"})

	a, errA := r.Resolve(context.Background(), claims)
	b, errB := r.Resolve(context.Background(), claims)
	if errA != nil || errB != nil {
		t.Fatalf("Resolve() errors: %v, %v", errA, errB)
	}
	if a == b {
		t.Error("Resolve() must return a new principal per call")
	}
}

// =====================================================
// Failure classification
// =====================================================

func TestResolver_Failures(t *testing.T) {
	t.Parallel()
	issuer := authtest.NewIssuer()
	seeded := identity.NewMemoryStoreFromSeeds(testUsers)

	tests := []struct {
		name    string
		store   identity.Store
		subject string
		want    Reason
	}{
		{"unknown subject", seeded, "ghost", ReasonPrincipalInactive},
		{"deactivated", seeded, "inactive-1", ReasonPrincipalInactive},
		{"backend down", errStore{err: errBackendDown}, "nurse-1", ReasonIdentityUnavailable},
		{"store reports unavailable", errStore{err: identity.ErrUnavailable}, "nurse-1", ReasonIdentityUnavailable},
		{"store timeout", &slowStore{delay: time.Second, next: seeded}, "nurse-1", ReasonIdentityLookupTimeout},
		{"store ignores context", &stubbornStore{delay: time.Second}, "nurse-1", ReasonIdentityLookupTimeout},
		{"store panics", panicStore{}, "nurse-1", ReasonInternalError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestResolver(t, tt.store, 30*time.Millisecond)
			claims := claimsFor(t, issuer, authtest.Claims{Subject: tt.subject})

			start := time.Now()
			p, err := r.Resolve(context.Background(), claims)
			if p != nil {
				t.Errorf("Principal = %+v, want nil", p)
			}
			assertReason(t, err, tt.want)
			if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
				t.Errorf("Resolve() took %s, lookup not bounded", elapsed)
			}
		})
	}
}

func TestResolver_ParentCancellation(t *testing.T) {
	t.Parallel()
	issuer := authtest.NewIssuer()
	r := newTestResolver(t, &slowStore{delay: time.Second, next: identity.NewMemoryStoreFromSeeds(testUsers)}, time.Second)
	claims := claimsFor(t, issuer, authtest.Claims{Subject: "nurse-1"})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	_, err := r.Resolve(ctx, claims)
	assertReason(t, err, ReasonRequestCanceled)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error should wrap context.Canceled, got %v", err)
	}
}

func TestResolver_BreakerOpen(t *testing.T) {
	t.Parallel()
	issuer := authtest.NewIssuer()
	failing := &countingStore{next: errStore{err: errBackendDown}}
	store := identity.NewBreakerStore(failing, config.BreakerConfig{
		Enabled:          true,
		MaxRequests:      1,
		Timeout:          time.Minute,
		FailureThreshold: 2,
	})
	r := newTestResolver(t, store, time.Second)
	claims := claimsFor(t, issuer, authtest.Claims{Subject: "nurse-1"})

	for i := 0; i < 5; i++ {
		_, err := r.Resolve(context.Background(), claims)
		assertReason(t, err, ReasonIdentityUnavailable)
	}
	if got := failing.calls.Load(); got != 2 {
		t.Errorf("backend calls = %d, want 2 before the circuit opened", got)
	}
}

func TestResolver_NilClaims(t *testing.T) {
	t.Parallel()
	r := newTestResolver(t, identity.NewMemoryStoreFromSeeds(testUsers), time.Second)
	_, err := r.Resolve(context.Background(), nil)
	assertReason(t, err, ReasonInternalError)
}
