// Clinicguard - Clinic Platform Request Authorization Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/clinicguard

package auth

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// fakeProvider is a controllable KeyProvider.
type fakeProvider struct {
	mu    sync.Mutex
	keys  []PublicKey
	err   error
	delay time.Duration
	calls atomic.Int32
}

func (f *fakeProvider) CurrentKeys(ctx context.Context) ([]PublicKey, error) {
	f.calls.Add(1)
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return append([]PublicKey(nil), f.keys...), nil
}

func (f *fakeProvider) set(keys ...PublicKey) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.keys = keys
	f.err = nil
}

func (f *fakeProvider) fail(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

// newRSAKey generates a 2048-bit RSA key.
func newRSAKey(t *testing.T) *rsa.PrivateKey {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate RSA key: %v", err)
	}
	return key
}

// validClaims returns claims valid for one hour.
func validClaims() jwt.MapClaims {
	now := time.Now()
	return jwt.MapClaims{
		"sub":       "user-1",
		"tenant_id": "clinic-1",
		"role":      "nurse",
		"scope":     "patient:read appointment:read",
		"iat":       jwt.NewNumericDate(now.Add(-time.Minute)),
		"exp":       jwt.NewNumericDate(now.Add(time.Hour)),
	}
}

// signToken signs claims with method and key; an empty kid omits the header.
func signToken(t *testing.T, method jwt.SigningMethod, key interface{}, kid string, claims jwt.MapClaims) string {
	t.Helper()
	tok := jwt.NewWithClaims(method, claims)
	if kid != "" {
		tok.Header["kid"] = kid
	}
	signed, err := tok.SignedString(key)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

// setupVerifier builds a refreshed cache over provider and a verifier on top.
func setupVerifier(t *testing.T, provider KeyProvider, cacheCfg KeyCacheConfig, cfg VerifierConfig) (*Verifier, *KeyCache) {
	t.Helper()
	cache := NewKeyCache(provider, cacheCfg)
	if err := cache.Refresh(context.Background(), TriggerStartup); err != nil {
		t.Fatalf("initial refresh: %v", err)
	}
	return NewVerifier(cache, cfg), cache
}
