// Clinicguard - Clinic Platform Request Authorization Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/clinicguard

package authz

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tomtom215/clinicguard/internal/auth"
	"github.com/tomtom215/clinicguard/internal/identity"
	"github.com/tomtom215/clinicguard/internal/logging"
)

// DefaultLookupTimeout bounds one identity store lookup.
const DefaultLookupTimeout = 200 * time.Millisecond

// ResolverConfig configures a Resolver.
type ResolverConfig struct {
	// LookupTimeout bounds the identity lookup. Defaults to 200ms.
	LookupTimeout time.Duration

	// FullAccessScope marks roles that support every claim scope.
	FullAccessScope string
}

// Resolver turns verified claims into a Principal. The identity store is
// authoritative for role, active flag and tenant.
type Resolver struct {
	store   identity.Store
	roles   RoleScopes
	timeout time.Duration
	full    string
}

// NewResolver creates a resolver over store and roles.
func NewResolver(store identity.Store, roles RoleScopes, cfg ResolverConfig) *Resolver {
	if cfg.LookupTimeout <= 0 {
		cfg.LookupTimeout = DefaultLookupTimeout
	}
	if cfg.FullAccessScope == "" {
		cfg.FullAccessScope = DefaultFullAccessScope
	}
	return &Resolver{
		store:   store,
		roles:   roles,
		timeout: cfg.LookupTimeout,
		full:    cfg.FullAccessScope,
	}
}

type lookupResult struct {
	rec *identity.UserRecord
	err error
}

// Resolve looks up the claims' subject and builds the principal. Errors are
// *Error values with reason PrincipalInactive, IdentityLookupTimeout,
// IdentityUnavailable, RequestCanceled or InternalError.
func (r *Resolver) Resolve(ctx context.Context, claims *auth.ClaimSet) (*Principal, error) {
	if claims == nil {
		return nil, newError(ReasonInternalError, "nil claim set")
	}

	rec, err := r.lookup(ctx, claims.Subject())
	if err != nil {
		return nil, err
	}
	if !rec.IsActive {
		return nil, newError(ReasonPrincipalInactive, "subject %q is deactivated", claims.Subject())
	}

	tenant := rec.TenantID
	if tenant == "" {
		tenant = claims.TenantID()
	}
	if claims.Role() != "" && claims.Role() != rec.Role {
		logging.Ctx(ctx).Debug().
			Str("subject", claims.Subject()).
			Str("claim_role", claims.Role()).
			Str("store_role", rec.Role).
			Msg("Token role differs from identity store, using store role")
	}

	implied := r.roles.ImpliedScopes(rec.Role)
	claimed := NewScopeSet(claims.Scopes()...)
	var granted ScopeSet
	if implied.Has(r.full) {
		granted = claimed
	} else {
		granted = claimed.Intersect(implied)
	}

	return &Principal{
		ID:          rec.ID,
		Email:       rec.Email,
		DisplayName: rec.DisplayName,
		Role:        rec.Role,
		Scopes:      granted.Union(NewScopeSet(rec.ScopesOverride...)),
		TenantID:    tenant,
		IsActive:    rec.IsActive,
	}, nil
}

// lookup queries the store under the resolver timeout. A store that ignores
// its context still cannot hold the request past the deadline.
func (r *Resolver) lookup(ctx context.Context, id string) (*identity.UserRecord, error) {
	lookupCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	done := make(chan lookupResult, 1)
	go func() {
		defer func() {
			if p := recover(); p != nil {
				done <- lookupResult{err: newError(ReasonInternalError, "identity store panic: %v", p)}
			}
		}()
		rec, err := r.store.FindByID(lookupCtx, id)
		done <- lookupResult{rec: rec, err: err}
	}()

	var res lookupResult
	select {
	case res = <-done:
	case <-lookupCtx.Done():
		res = lookupResult{err: lookupCtx.Err()}
	}

	if res.err == nil && res.rec == nil {
		res.err = identity.ErrNotFound
	}
	if res.err == nil {
		return res.rec, nil
	}
	return nil, r.classify(ctx, id, res.err)
}

func (r *Resolver) classify(ctx context.Context, id string, err error) error {
	var ae *Error
	switch {
	case ctx.Err() != nil:
		return &Error{Reason: ReasonRequestCanceled, Err: ctx.Err()}
	case errors.As(err, &ae):
		return ae
	case errors.Is(err, identity.ErrNotFound):
		return newError(ReasonPrincipalInactive, "subject %q not found", id)
	case errors.Is(err, context.DeadlineExceeded):
		return &Error{Reason: ReasonIdentityLookupTimeout, Err: fmt.Errorf("identity lookup exceeded %s: %w", r.timeout, err)}
	default:
		return &Error{Reason: ReasonIdentityUnavailable, Err: err}
	}
}
