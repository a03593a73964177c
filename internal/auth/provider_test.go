// Clinicguard - Clinic Platform Request Authorization Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/clinicguard

package auth

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"crypto/x509"
	"encoding/pem"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/tomtom215/clinicguard/internal/config"
)

func writeEd25519PEM(t *testing.T) string {
	t.Helper()
	pub, _, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	der, err := x509.MarshalPKIXPublicKey(pub)
	if err != nil {
		t.Fatalf("marshal key: %v", err)
	}
	path := filepath.Join(t.TempDir(), "signer.pem")
	if err := os.WriteFile(path, pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der}), 0o600); err != nil {
		t.Fatalf("write key: %v", err)
	}
	return path
}

func TestNewKeyProvider(t *testing.T) {
	pemPath := writeEd25519PEM(t)

	tests := []struct {
		name     string
		cfg      config.TokenConfig
		wantErr  bool
		wantType string
		wantKeys []string
	}{
		{
			name:     "static pem and hmac",
			cfg:      config.TokenConfig{KeySource: config.KeySourceStatic, HMACSecret: "dev-secret", StaticKeys: []config.StaticKeyConfig{{ID: "signer-1", Algorithm: "EdDSA", PEMFile: pemPath}}},
			wantType: "*auth.StaticKeyProvider",
			wantKeys: []string{"signer-1", DevHMACKeyID},
		},
		{
			name:     "empty source means static",
			cfg:      config.TokenConfig{HMACSecret: "dev-secret"},
			wantType: "*auth.StaticKeyProvider",
			wantKeys: []string{DevHMACKeyID},
		},
		{name: "static without keys", cfg: config.TokenConfig{KeySource: config.KeySourceStatic}, wantErr: true},
		{name: "static with missing file", cfg: config.TokenConfig{StaticKeys: []config.StaticKeyConfig{{ID: "k", Algorithm: "EdDSA", PEMFile: "/nonexistent.pem"}}}, wantErr: true},
		{name: "static with wrong algorithm", cfg: config.TokenConfig{StaticKeys: []config.StaticKeyConfig{{ID: "k", Algorithm: "RS256", PEMFile: pemPath}}}, wantErr: true},
		{name: "jwks", cfg: config.TokenConfig{KeySource: config.KeySourceJWKS, JWKSURL: "https://idp.example/jwks"}, wantType: "*auth.JWKSProvider"},
		{name: "jwks without url", cfg: config.TokenConfig{KeySource: config.KeySourceJWKS}, wantErr: true},
		{name: "oidc", cfg: config.TokenConfig{KeySource: config.KeySourceOIDC, Issuer: "https://idp.example"}, wantType: "*auth.OIDCKeyProvider"},
		{name: "oidc without issuer", cfg: config.TokenConfig{KeySource: config.KeySourceOIDC}, wantErr: true},
		{name: "unknown source", cfg: config.TokenConfig{KeySource: "ldap"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewKeyProvider(&tt.cfg, nil)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("NewKeyProvider() = %T, want error", p)
				}
				return
			}
			if err != nil {
				t.Fatalf("NewKeyProvider() error: %v", err)
			}
			if got := typeName(p); got != tt.wantType {
				t.Errorf("provider type = %s, want %s", got, tt.wantType)
			}
			if tt.wantKeys == nil {
				return
			}
			keys, err := p.CurrentKeys(context.Background())
			if err != nil {
				t.Fatalf("CurrentKeys() error: %v", err)
			}
			if len(keys) != len(tt.wantKeys) {
				t.Fatalf("got %d keys, want %d", len(keys), len(tt.wantKeys))
			}
			for i, id := range tt.wantKeys {
				if keys[i].ID != id {
					t.Errorf("key[%d] = %s, want %s", i, keys[i].ID, id)
				}
			}
		})
	}
}

func TestConfigMapping(t *testing.T) {
	cfg := config.Default().Token
	cfg.Issuer = "https://idp.example"
	cfg.Audience = []string{"clinic-api"}

	vc := VerifierConfigFrom(&cfg)
	if vc.ClockSkew != 30*time.Second || vc.Issuer != cfg.Issuer || len(vc.Audience) != 1 {
		t.Errorf("VerifierConfigFrom() = %+v", vc)
	}
	if len(vc.Algorithms) != len(cfg.Algorithms) {
		t.Errorf("algorithms = %v, want %v", vc.Algorithms, cfg.Algorithms)
	}

	kc := KeyCacheConfigFrom(&cfg)
	if kc.RefreshTimeout != 200*time.Millisecond || kc.MinRefreshInterval != 10*time.Second {
		t.Errorf("KeyCacheConfigFrom() = %+v", kc)
	}
}

func typeName(v any) string {
	switch v.(type) {
	case *StaticKeyProvider:
		return "*auth.StaticKeyProvider"
	case *JWKSProvider:
		return "*auth.JWKSProvider"
	case *OIDCKeyProvider:
		return "*auth.OIDCKeyProvider"
	default:
		return "unknown"
	}
}
