// Clinicguard - Clinic Platform Request Authorization Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/clinicguard

package auth

import (
	"context"
	"crypto"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"os"
	"strings"
)

// PublicKey is one verification key published by the trusted signer.
// Key holds *rsa.PublicKey, *ecdsa.PublicKey, ed25519.PublicKey, or []byte
// for HMAC development keys.
type PublicKey struct {
	ID        string
	Algorithm string
	Key       crypto.PublicKey
}

// KeyProvider supplies the signer's currently valid keys.
// Implementations must return at least the current and previous key during
// a rotation window.
type KeyProvider interface {
	CurrentKeys(ctx context.Context) ([]PublicKey, error)
}

// StaticKeyProvider serves a fixed key set.
type StaticKeyProvider struct {
	keys []PublicKey
}

// NewStaticKeyProvider returns a provider for the given keys.
func NewStaticKeyProvider(keys ...PublicKey) *StaticKeyProvider {
	return &StaticKeyProvider{keys: append([]PublicKey(nil), keys...)}
}

// CurrentKeys returns a copy of the configured keys.
func (p *StaticKeyProvider) CurrentKeys(_ context.Context) ([]PublicKey, error) {
	if len(p.keys) == 0 {
		return nil, ErrNoKeys
	}
	return append([]PublicKey(nil), p.keys...), nil
}

// NewHMACKey returns an HS256 development key.
func NewHMACKey(id string, secret []byte) PublicKey {
	return PublicKey{ID: id, Algorithm: "HS256", Key: append([]byte(nil), secret...)}
}

// LoadPEMPublicKey reads a PKIX ("PUBLIC KEY") or PKCS#1 ("RSA PUBLIC KEY")
// PEM file.
func LoadPEMPublicKey(path, id, algorithm string) (PublicKey, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path comes from operator configuration
	if err != nil {
		return PublicKey{}, fmt.Errorf("read key %s: %w", id, err)
	}
	key, err := ParsePEMPublicKey(data)
	if err != nil {
		return PublicKey{}, fmt.Errorf("parse key %s: %w", id, err)
	}
	pk := PublicKey{ID: id, Algorithm: algorithm, Key: key}
	if !pk.Supports(algorithm) {
		return PublicKey{}, fmt.Errorf("key %s: type %T cannot verify %s", id, key, algorithm)
	}
	return pk, nil
}

// ParsePEMPublicKey decodes the first PEM block in data.
func ParsePEMPublicKey(data []byte) (crypto.PublicKey, error) {
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, fmt.Errorf("no PEM block found")
	}
	switch block.Type {
	case "PUBLIC KEY":
		return x509.ParsePKIXPublicKey(block.Bytes)
	case "RSA PUBLIC KEY":
		return x509.ParsePKCS1PublicKey(block.Bytes)
	default:
		return nil, fmt.Errorf("unsupported PEM block type %q", block.Type)
	}
}

// Supports reports whether the key can verify signatures made with alg.
// A key that declares an algorithm only supports that algorithm.
func (k PublicKey) Supports(alg string) bool {
	if k.Algorithm != "" && k.Algorithm != alg {
		return false
	}
	switch key := k.Key.(type) {
	case *rsa.PublicKey:
		return strings.HasPrefix(alg, "RS") || strings.HasPrefix(alg, "PS")
	case *ecdsa.PublicKey:
		switch key.Curve.Params().BitSize {
		case 256:
			return alg == "ES256"
		case 384:
			return alg == "ES384"
		case 521:
			return alg == "ES512"
		}
		return false
	case ed25519.PublicKey:
		return alg == "EdDSA"
	case []byte:
		return strings.HasPrefix(alg, "HS")
	default:
		return false
	}
}
