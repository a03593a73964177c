// Clinicguard - Clinic Platform Request Authorization Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/clinicguard

package auth

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/tomtom215/clinicguard/internal/logging"
)

// VerifierConfig configures token verification.
type VerifierConfig struct {
	// ClockSkew is applied to exp, nbf and iat. Default: 30s.
	ClockSkew time.Duration

	// Algorithms is the allow-list of signing algorithms.
	// Default: the asymmetric RS, PS, ES and EdDSA families.
	Algorithms []string

	// Issuer, when set, must equal iss.
	Issuer string

	// Audience, when set, requires aud to contain one of its entries.
	Audience []string

	// Now overrides the clock in tests.
	Now func() time.Time
}

// Verifier validates bearer tokens against cached key material.
type Verifier struct {
	keys   *KeyCache
	cfg    VerifierConfig
	parser *jwt.Parser
}

// NewVerifier creates a verifier backed by keys.
func NewVerifier(keys *KeyCache, cfg VerifierConfig) *Verifier {
	if cfg.ClockSkew == 0 {
		cfg.ClockSkew = 30 * time.Second
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if len(cfg.Algorithms) == 0 {
		cfg.Algorithms = asymmetricAlgorithms
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods(cfg.Algorithms),
		jwt.WithLeeway(cfg.ClockSkew),
		jwt.WithTimeFunc(cfg.Now),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
	}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}

	return &Verifier{
		keys:   keys,
		cfg:    cfg,
		parser: jwt.NewParser(opts...),
	}
}

// Verify checks token and returns its claims. The returned error wraps one
// of ErrMissingToken, ErrMalformedToken, ErrInvalidSignature, ErrExpired or
// ErrNotYetValid.
func (v *Verifier) Verify(ctx context.Context, token string) (*ClaimSet, error) {
	claims, err := v.verify(ctx, token)
	TokenVerificationsTotal.WithLabelValues(verificationResult(err)).Inc()
	if err != nil {
		logging.Ctx(ctx).Debug().
			Err(err).
			Str("token", logging.RedactToken(token)).
			Msg("Token verification failed")
	}
	return claims, err
}

func (v *Verifier) verify(ctx context.Context, token string) (*ClaimSet, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrMissingToken
	}
	if strings.Count(token, ".") != 2 {
		return nil, fmt.Errorf("%w: expected three segments", ErrMalformedToken)
	}

	var raw tokenClaims
	_, err := v.parser.ParseWithClaims(token, &raw, func(t *jwt.Token) (interface{}, error) {
		return v.keyFor(ctx, t)
	})
	if err != nil {
		return nil, classify(err)
	}

	return v.buildClaimSet(&raw)
}

// keyFor selects verification keys for t: the kid's key when the header
// names one, otherwise every cached key able to verify the algorithm.
func (v *Verifier) keyFor(ctx context.Context, t *jwt.Token) (interface{}, error) {
	alg := t.Method.Alg()

	if kid, _ := t.Header["kid"].(string); kid != "" {
		key, err := v.keys.resolve(ctx, kid)
		if err != nil {
			return nil, err
		}
		if !key.Supports(alg) {
			return nil, fmt.Errorf("key %q cannot verify %s", kid, alg)
		}
		return key.Key, nil
	}

	candidates := v.keys.candidates(ctx, alg)
	if len(candidates) == 0 {
		return nil, fmt.Errorf("no key for algorithm %s", alg)
	}
	set := jwt.VerificationKeySet{Keys: make([]jwt.VerificationKey, 0, len(candidates))}
	for _, k := range candidates {
		set.Keys = append(set.Keys, k.Key)
	}
	return set, nil
}

// classify maps jwt errors onto the verifier's sentinels. Signature checks
// run before claim validation, so temporal errors only surface for tokens
// with a valid signature.
func classify(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return fmt.Errorf("%w: %v", ErrExpired, err)
	case errors.Is(err, jwt.ErrTokenNotValidYet), errors.Is(err, jwt.ErrTokenUsedBeforeIssued):
		return fmt.Errorf("%w: %v", ErrNotYetValid, err)
	case errors.Is(err, jwt.ErrTokenSignatureInvalid),
		errors.Is(err, jwt.ErrTokenUnverifiable),
		errors.Is(err, jwt.ErrTokenInvalidIssuer),
		errors.Is(err, jwt.ErrTokenInvalidAudience):
		return fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	default:
		return fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}
}

func (v *Verifier) buildClaimSet(raw *tokenClaims) (*ClaimSet, error) {
	if strings.TrimSpace(raw.Subject) == "" {
		return nil, fmt.Errorf("%w: missing sub", ErrMalformedToken)
	}
	if raw.IssuedAt == nil {
		return nil, fmt.Errorf("%w: missing iat", ErrMalformedToken)
	}
	if !raw.ExpiresAt.After(raw.IssuedAt.Time) {
		return nil, fmt.Errorf("%w: exp not after iat", ErrMalformedToken)
	}
	if len(v.cfg.Audience) > 0 && !slices.ContainsFunc(raw.Audience, func(a string) bool {
		return slices.Contains(v.cfg.Audience, a)
	}) {
		return nil, fmt.Errorf("%w: audience mismatch", ErrInvalidSignature)
	}

	cs := &ClaimSet{
		subject:   raw.Subject,
		tenantID:  raw.TenantID,
		role:      raw.Role,
		tokenID:   raw.ID,
		issuer:    raw.Issuer,
		scopes:    mergeScopes(raw.Scope, raw.Scp),
		issuedAt:  raw.IssuedAt.Time,
		expiresAt: raw.ExpiresAt.Time,
		notBefore: raw.IssuedAt.Time,
	}
	if raw.NotBefore != nil {
		cs.notBefore = raw.NotBefore.Time
	}
	return cs, nil
}
