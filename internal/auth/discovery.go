// Clinicguard - Clinic Platform Request Authorization Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/clinicguard

package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/zitadel/oidc/v3/pkg/client"
)

// DiscoverJWKSURI reads the issuer's OpenID discovery document and returns
// its jwks_uri.
func DiscoverJWKSURI(ctx context.Context, issuer string, httpClient *http.Client) (string, error) {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	doc, err := client.Discover(ctx, issuer, httpClient)
	if err != nil {
		return "", fmt.Errorf("oidc discovery for %s: %w", issuer, err)
	}
	if doc.JwksURI == "" {
		return "", errors.New("discovery document has no jwks_uri")
	}
	return doc.JwksURI, nil
}

// OIDCKeyProvider resolves the JWKS endpoint through OIDC discovery on first
// use and delegates to a JWKSProvider. A failed fetch forces rediscovery on
// the next call.
type OIDCKeyProvider struct {
	issuer     string
	httpClient *http.Client

	mu   sync.Mutex
	jwks *JWKSProvider
}

// NewOIDCKeyProvider creates a provider for the given issuer.
func NewOIDCKeyProvider(issuer string, httpClient *http.Client) *OIDCKeyProvider {
	return &OIDCKeyProvider{issuer: issuer, httpClient: httpClient}
}

// CurrentKeys implements KeyProvider.
func (p *OIDCKeyProvider) CurrentKeys(ctx context.Context) ([]PublicKey, error) {
	jwks, err := p.provider(ctx)
	if err != nil {
		return nil, err
	}
	keys, err := jwks.CurrentKeys(ctx)
	if err != nil {
		p.mu.Lock()
		p.jwks = nil
		p.mu.Unlock()
		return nil, err
	}
	return keys, nil
}

func (p *OIDCKeyProvider) provider(ctx context.Context) (*JWKSProvider, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.jwks != nil {
		return p.jwks, nil
	}
	uri, err := DiscoverJWKSURI(ctx, p.issuer, p.httpClient)
	if err != nil {
		return nil, err
	}
	p.jwks = NewJWKSProvider(uri, p.httpClient)
	return p.jwks, nil
}
