// Clinicguard - Clinic Platform Request Authorization Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/clinicguard

/*
Package httpguard adapts the authorization pipeline to HTTP.

A Guard extracts the bearer token and target tenant from a request, runs the
pipeline and either passes the request on with the Decision in its context or
writes a generic denial. The tenant is taken from the chi route parameter,
then a JSON body field, then the query string.

Status mapping:

	Allowed                 pass through
	authentication failure  401 Unauthorized
	authorization failure   403 Forbidden
	unavailable             503 Service Unavailable
	canceled                499 Client Closed Request

Denial bodies carry only the generic message of the decision's class. The
specific reason is recorded in the audit trail.

The package also provides the chi router for the decision service with its
middleware stack (request ids, CORS, rate limiting, security headers and
Prometheus instrumentation).
*/
package httpguard
