// Clinicguard - Clinic Platform Request Authorization Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/clinicguard

/*
Package auth verifies bearer tokens and produces typed claim sets.

The Verifier checks a JWT's structure, signature and validity window against
key material held in a KeyCache. Verification never performs network I/O on
the request path: keys are loaded out of band by a KeyProvider (static PEM
files, a JWKS endpoint, or a JWKS endpoint discovered through OIDC) and kept
fresh by the KeyRefresher service.

# Failure Classes

Every verification failure maps to exactly one sentinel:

	ErrMissingToken      empty or whitespace token
	ErrMalformedToken    structural failure, missing required claim, exp <= iat
	ErrInvalidSignature  bad signature, unknown kid, disallowed algorithm, wrong issuer/audience
	ErrExpired           now > exp + skew
	ErrNotYetValid       now < nbf - skew (or iat in the future)

Signature failures take precedence over temporal failures: an expired token
with a forged signature reports ErrInvalidSignature.

# Key Rotation

The cache holds every key the provider currently publishes, so a previous and
a current key are valid at the same time. A token whose kid is unknown
triggers at most one rate-limited, single-flight refresh bounded by the
refresh timeout; concurrent verifications keep using the current snapshot.

# Claims

	sub        required, becomes ClaimSet.Subject
	exp, iat   required
	nbf        optional, defaults to iat
	scope      space-delimited OAuth2 scopes
	scp        scope array (merged with scope)
	tenant_id  tenant hint
	role       role hint
*/
package auth
