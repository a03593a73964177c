// Clinicguard - Clinic Platform Request Authorization Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/clinicguard

/*
Package services provides suture.Service wrappers for Clinicguard components.

HTTPServerService adapts the ListenAndServe/Shutdown lifecycle of an
*http.Server. RunnerService adapts any component with a
RunWithContext(ctx) error method: the key refresher, the role hierarchy
reloader and the audit sink.

Every wrapper returns ctx.Err() on a normal shutdown and implements
fmt.Stringer so suture can name it in log events.
*/
package services
