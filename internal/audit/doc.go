// Clinicguard - Clinic Platform Request Authorization Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/clinicguard

// Package audit records security audit events for every authorization decision.
//
// # Overview
//
// The audit system provides:
//   - Structured events with typed categories and severities
//   - A non-blocking Sink that never fails the caller
//   - Pluggable append-only storage (memory, Badger, Watermill publisher)
//   - SIEM export via Common Event Format (CEF) and JSON
//   - Multi-dimensional querying for stores that support reads
//
// # Event Types
//
//   - auth.failure: token missing, malformed, badly signed or outside its validity window
//   - auth.principal_inactive: subject unknown or deactivated
//   - identity.unavailable: identity lookup timed out or failed
//   - authz.granted / authz.denied: scope decisions
//   - authz.tenant_mismatch: request addressed another tenant (error severity)
//   - authz.cross_tenant_access: another tenant was accessed through the override scope
//   - authz.internal_error: a pipeline stage failed unexpectedly
//
// # Architecture
//
// The sink uses a producer-consumer pattern:
//
//	Sink.Record() -> Event Buffer (chan) -> Async Writer -> Store
//	                     |                       |
//	                 full: fallback log     error: fallback log
//
// Record never blocks. When the buffer is full, or the store rejects an event,
// the event is written to the local fallback log (component=audit_fallback)
// so no decision goes unrecorded. Store failure warnings are rate limited.
//
// # Storage Backends
//
//   - MemoryStore: bounded ring for development and tests
//   - BadgerStore: durable local key-value storage ordered by timestamp
//   - PublisherStore: forwards events to a Watermill publisher (NATS with -tags nats)
//
// # Export
//
//	events, _ := store.Query(ctx, audit.QueryFilter{Types: []audit.EventType{audit.EventTypeTenantMismatch}})
//	data, _ := audit.NewCEFExporter().Export(events)
package audit
