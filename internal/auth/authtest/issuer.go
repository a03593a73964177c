// Clinicguard - Clinic Platform Request Authorization Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/clinicguard

// Package authtest mints HS256 access tokens for tests and wires a Verifier
// that accepts them.
package authtest

import (
	"context"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/tomtom215/clinicguard/internal/auth"
)

// Claims describes a token to mint. Zero times get defaults relative to the
// issuer's clock: iat one minute ago, exp one hour ahead.
type Claims struct {
	Subject   string
	TenantID  string
	Role      string
	Scopes    []string
	Audience  []string
	Issuer    string
	IssuedAt  time.Time
	ExpiresAt time.Time
	NotBefore time.Time
}

// Issuer signs tokens with a fixed HMAC key.
type Issuer struct {
	KeyID  string
	Secret []byte
	Now    func() time.Time
}

// NewIssuer returns an issuer with a deterministic development key.
func NewIssuer() *Issuer {
	return &Issuer{
		KeyID:  "test-hs256",
		Secret: []byte("clinicguard-test-secret-0123456789abcdef"),
		Now:    time.Now,
	}
}

// Key returns the verification key matching the issuer.
func (i *Issuer) Key() auth.PublicKey {
	return auth.NewHMACKey(i.KeyID, i.Secret)
}

// Verifier returns a verifier whose cache holds only the issuer's key.
func (i *Issuer) Verifier() *auth.Verifier {
	cache := auth.NewKeyCache(auth.NewStaticKeyProvider(i.Key()), auth.KeyCacheConfig{})
	if err := cache.Refresh(context.Background(), auth.TriggerStartup); err != nil {
		panic("authtest: static key refresh failed: " + err.Error())
	}
	return auth.NewVerifier(cache, auth.VerifierConfig{
		Algorithms: []string{"HS256"},
		Now:        i.Now,
	})
}

// Token signs c and returns the compact serialization.
func (i *Issuer) Token(c Claims) string {
	now := i.Now()
	if c.IssuedAt.IsZero() {
		c.IssuedAt = now.Add(-time.Minute)
	}
	if c.ExpiresAt.IsZero() {
		c.ExpiresAt = now.Add(time.Hour)
	}

	mc := jwt.MapClaims{
		"sub": c.Subject,
		"iat": jwt.NewNumericDate(c.IssuedAt),
		"exp": jwt.NewNumericDate(c.ExpiresAt),
	}
	if !c.NotBefore.IsZero() {
		mc["nbf"] = jwt.NewNumericDate(c.NotBefore)
	}
	if len(c.Scopes) > 0 {
		mc["scope"] = strings.Join(c.Scopes, " ")
	}
	if c.TenantID != "" {
		mc["tenant_id"] = c.TenantID
	}
	if c.Role != "" {
		mc["role"] = c.Role
	}
	if c.Issuer != "" {
		mc["iss"] = c.Issuer
	}
	if len(c.Audience) > 0 {
		mc["aud"] = c.Audience
	}

	return i.Sign(mc)
}

// Sign signs arbitrary claims with the issuer's key.
func (i *Issuer) Sign(claims jwt.Claims) string {
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tok.Header["kid"] = i.KeyID
	signed, err := tok.SignedString(i.Secret)
	if err != nil {
		panic("authtest: sign token: " + err.Error())
	}
	return signed
}
