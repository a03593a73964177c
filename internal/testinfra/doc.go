// Clinicguard - Clinic Platform Request Authorization Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/clinicguard

// Package testinfra provides container-backed infrastructure for integration tests.
//
// All files carry the integration build tag:
//
//	go test -tags integration ./internal/identity/...
//
// # PostgreSQL Container
//
//	func TestPostgresIdentity(t *testing.T) {
//	    testinfra.SkipIfNoDocker(t)
//	    ctx := context.Background()
//	    pg, err := testinfra.NewPostgresContainer(ctx)
//	    if err != nil {
//	        t.Fatal(err)
//	    }
//	    defer testinfra.CleanupContainer(t, ctx, pg.Container)
//
//	    pool, err := identity.OpenPool(ctx, pg.DSN, 4)
//	    ...
//	}
package testinfra
