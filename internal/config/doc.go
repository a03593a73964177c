// Clinicguard - Clinic Platform Request Authorization Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/clinicguard

/*
Package config provides layered configuration loading for Clinicguard.

Configuration is assembled with Koanf v2 from three layers, later layers
overriding earlier ones:

 1. Built-in defaults (defaultConfig)
 2. Optional YAML file (explicit path, CLINICGUARD_CONFIG, or DefaultConfigPaths)
 3. Environment variables mapped through an explicit table

Unmapped environment variables are ignored so that unrelated process
environment cannot leak into the authorization configuration.

# Defaults

	token.clock_skew            30s
	token.refresh_interval      15m
	token.refresh_timeout       200ms
	token.min_refresh_interval  10s
	identity.lookup_timeout     200ms
	authz.full_access_scope     *
	authz.cross_tenant_scope    tenant:cross_access

# Validation

Load validates the result with go-playground/validator struct tags and a
set of cross-field rules (key source requirements, backend requirements).
A configuration that fails validation is never returned.

# Example

	key_source: jwks
	issuer: https://id.clinic.example
	identity:
	  backend: postgres
	  dsn: postgres://clinicguard@db/identity
	authz:
	  operations:
	    update_patient:
	      all_of: [patient:read, patient:write]
*/
package config
