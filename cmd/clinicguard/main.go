// Clinicguard - Clinic Platform Request Authorization Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/clinicguard

// Package main is the clinicguard command.
//
// Clinicguard decides whether a bearer token may perform an operation
// against a tenant of the clinic platform. Every decision passes through
// token verification, principal resolution, scope authorization and tenant
// isolation, and is recorded as one audit event.
//
// # Commands
//
//	clinicguard serve                 run the supervised decision service
//	clinicguard check --token T ...   evaluate one token offline
//	clinicguard roles                 print the effective role hierarchy
//	clinicguard audit export          export stored audit events (json, cef)
//
// # Configuration
//
// Configuration is loaded via Koanf v2 with layered sources (highest
// priority wins):
//   - Environment variables (CLINICGUARD_CLOCK_SKEW, IDENTITY_BACKEND, ...)
//   - Config file (--config, CLINICGUARD_CONFIG or ./config.yaml)
//   - Built-in defaults
//
// # Signal Handling
//
// serve stops on SIGINT and SIGTERM: the HTTP server drains in-flight
// requests, the audit sink flushes queued events, and background refreshers
// exit.
//
// # Example Usage
//
// Development with a shared HS256 secret and seeded users:
//
//	export TOKEN_HMAC_SECRET=$(openssl rand -hex 32)
//	export TOKEN_ALGORITHMS=HS256
//	clinicguard serve --config config.yaml
//
// Production against an OIDC issuer with PostgreSQL identities:
//
//	export TOKEN_KEY_SOURCE=oidc
//	export TOKEN_ISSUER=https://idp.clinic.example
//	export IDENTITY_BACKEND=postgres
//	export IDENTITY_DSN=postgres://clinicguard@db/clinic
//	export AUDIT_BACKEND=badger
//	clinicguard serve
package main

import (
	"errors"
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		var exitErr *exitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.code)
		}
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
