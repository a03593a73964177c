// Clinicguard - Clinic Platform Request Authorization Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/clinicguard

package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-jose/go-jose/v4"
	"github.com/goccy/go-json"
)

// newMockIssuer serves a discovery document and JWKS. advertised overrides
// the issuer field of the document when non-empty.
func newMockIssuer(t *testing.T, set *jose.JSONWebKeySet, advertised string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	issuer := srv.URL
	if advertised != "" {
		issuer = advertised
	}
	mux.HandleFunc("/.well-known/openid-configuration", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"issuer":                 issuer,
			"jwks_uri":               srv.URL + "/oauth/v2/keys",
			"authorization_endpoint": srv.URL + "/oauth/v2/authorize",
			"token_endpoint":         srv.URL + "/oauth/v2/token",
		})
	})
	mux.HandleFunc("/oauth/v2/keys", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(set)
	})
	return srv
}

func TestDiscoverJWKSURI(t *testing.T) {
	t.Parallel()

	srv := newMockIssuer(t, &jose.JSONWebKeySet{}, "")

	uri, err := DiscoverJWKSURI(context.Background(), srv.URL, srv.Client())
	if err != nil {
		t.Fatalf("DiscoverJWKSURI() error: %v", err)
	}
	if uri != srv.URL+"/oauth/v2/keys" {
		t.Errorf("DiscoverJWKSURI() = %q, want %q", uri, srv.URL+"/oauth/v2/keys")
	}
}

func TestDiscoverJWKSURI_IssuerMismatch(t *testing.T) {
	t.Parallel()

	srv := newMockIssuer(t, &jose.JSONWebKeySet{}, "https://impostor.example")
	if _, err := DiscoverJWKSURI(context.Background(), srv.URL, srv.Client()); err == nil {
		t.Error("DiscoverJWKSURI() expected error for mismatched issuer")
	}
}

func TestOIDCKeyProvider_CurrentKeys(t *testing.T) {
	t.Parallel()

	key := newRSAKey(t)
	srv := newMockIssuer(t, &jose.JSONWebKeySet{Keys: []jose.JSONWebKey{
		{Key: &key.PublicKey, KeyID: "zitadel-1", Algorithm: "RS256", Use: "sig"},
	}}, "")

	provider := NewOIDCKeyProvider(srv.URL, srv.Client())
	keys, err := provider.CurrentKeys(context.Background())
	if err != nil {
		t.Fatalf("CurrentKeys() error: %v", err)
	}
	if len(keys) != 1 || keys[0].ID != "zitadel-1" {
		t.Errorf("CurrentKeys() = %+v, want zitadel-1", keys)
	}
}
