// Clinicguard - Clinic Platform Request Authorization Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/clinicguard

package auth

import "errors"

// Token verification failures. Verifier errors wrap exactly one of these.
var (
	ErrMissingToken     = errors.New("missing bearer token")
	ErrMalformedToken   = errors.New("malformed token")
	ErrInvalidSignature = errors.New("invalid token signature")
	ErrExpired          = errors.New("token expired")
	ErrNotYetValid      = errors.New("token not yet valid")
)

// Key material failures.
var (
	ErrNoKeys       = errors.New("key provider returned no usable keys")
	ErrUnknownKeyID = errors.New("unknown key id")
)
