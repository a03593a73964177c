// Clinicguard - Clinic Platform Request Authorization Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/clinicguard

package auth

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-jose/go-jose/v4"
	"github.com/goccy/go-json"

	"github.com/tomtom215/clinicguard/internal/logging"
)

// maxJWKSBytes caps the JWKS response body.
const maxJWKSBytes = 1 << 20

// JWKSProvider fetches signing keys from a JWKS endpoint.
type JWKSProvider struct {
	uri        string
	httpClient *http.Client
}

// NewJWKSProvider creates a provider for the given JWKS URI.
func NewJWKSProvider(uri string, client *http.Client) *JWKSProvider {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &JWKSProvider{uri: uri, httpClient: client}
}

// URI returns the JWKS endpoint.
func (p *JWKSProvider) URI() string {
	return p.uri
}

// CurrentKeys fetches and decodes the key set. Private, encryption-only and
// unsupported keys are skipped.
func (p *JWKSProvider) CurrentKeys(ctx context.Context) ([]PublicKey, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.uri, http.NoBody)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch JWKS: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("JWKS fetch failed with status %d", resp.StatusCode)
	}

	var set jose.JSONWebKeySet
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxJWKSBytes)).Decode(&set); err != nil {
		return nil, fmt.Errorf("failed to decode JWKS: %w", err)
	}

	keys := make([]PublicKey, 0, len(set.Keys))
	for i := range set.Keys {
		jwk := &set.Keys[i]
		if jwk.Use != "" && jwk.Use != "sig" {
			continue
		}
		if !jwk.IsPublic() {
			logging.Warn().Str("kid", jwk.KeyID).Msg("JWKS contains a private key, skipping")
			continue
		}
		pk := PublicKey{ID: jwk.KeyID, Algorithm: jwk.Algorithm, Key: jwk.Key}
		if !supportsAny(pk) {
			logging.Debug().Str("kid", jwk.KeyID).Str("alg", jwk.Algorithm).Msg("Unsupported JWKS key, skipping")
			continue
		}
		keys = append(keys, pk)
	}

	if len(keys) == 0 {
		return nil, ErrNoKeys
	}
	return keys, nil
}

// asymmetricAlgorithms are the JWS algorithms accepted from a JWKS.
var asymmetricAlgorithms = []string{
	"RS256", "RS384", "RS512",
	"PS256", "PS384", "PS512",
	"ES256", "ES384", "ES512",
	"EdDSA",
}

func supportsAny(k PublicKey) bool {
	for _, alg := range asymmetricAlgorithms {
		if k.Supports(alg) {
			return true
		}
	}
	return false
}
