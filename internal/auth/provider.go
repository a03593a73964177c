// Clinicguard - Clinic Platform Request Authorization Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/clinicguard

package auth

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/tomtom215/clinicguard/internal/config"
)

// DevHMACKeyID is the key id of the development HS256 key.
const DevHMACKeyID = "dev-hmac"

// NewKeyProvider builds the key provider selected by cfg.KeySource.
// A nil client selects each provider's default client.
func NewKeyProvider(cfg *config.TokenConfig, client *http.Client) (KeyProvider, error) {
	switch cfg.KeySource {
	case config.KeySourceStatic, "":
		keys := make([]PublicKey, 0, len(cfg.StaticKeys)+1)
		for _, sk := range cfg.StaticKeys {
			key, err := LoadPEMPublicKey(sk.PEMFile, sk.ID, sk.Algorithm)
			if err != nil {
				return nil, fmt.Errorf("static key %q: %w", sk.ID, err)
			}
			keys = append(keys, key)
		}
		if cfg.HMACSecret != "" {
			keys = append(keys, NewHMACKey(DevHMACKeyID, []byte(cfg.HMACSecret)))
		}
		if len(keys) == 0 {
			return nil, errors.New("static key source requires static_keys or hmac_secret")
		}
		return NewStaticKeyProvider(keys...), nil

	case config.KeySourceJWKS:
		if cfg.JWKSURL == "" {
			return nil, errors.New("jwks key source requires jwks_url")
		}
		return NewJWKSProvider(cfg.JWKSURL, client), nil

	case config.KeySourceOIDC:
		if cfg.Issuer == "" {
			return nil, errors.New("oidc key source requires issuer")
		}
		return NewOIDCKeyProvider(cfg.Issuer, client), nil

	default:
		return nil, fmt.Errorf("unknown key source %q", cfg.KeySource)
	}
}

// VerifierConfigFrom maps token configuration onto VerifierConfig.
func VerifierConfigFrom(cfg *config.TokenConfig) VerifierConfig {
	return VerifierConfig{
		ClockSkew:  cfg.ClockSkew,
		Algorithms: cfg.Algorithms,
		Issuer:     cfg.Issuer,
		Audience:   cfg.Audience,
	}
}

// KeyCacheConfigFrom maps token configuration onto KeyCacheConfig.
func KeyCacheConfigFrom(cfg *config.TokenConfig) KeyCacheConfig {
	return KeyCacheConfig{
		RefreshTimeout:     cfg.RefreshTimeout,
		MinRefreshInterval: cfg.MinRefreshInterval,
	}
}
