// Clinicguard - Clinic Platform Request Authorization Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/clinicguard

//go:build integration

package testinfra

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
)

var dockerCheck = sync.OnceValue(func() error {
	provider, err := testcontainers.NewDockerProvider()
	if err != nil {
		return err
	}
	defer provider.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return provider.Health(ctx)
})

// IsDockerAvailable reports whether testcontainers can reach a daemon.
// The check runs once per test binary.
func IsDockerAvailable() bool { return dockerCheck() == nil }

// SkipIfNoDocker skips t when no Docker daemon is reachable.
func SkipIfNoDocker(t *testing.T) {
	t.Helper()
	if err := dockerCheck(); err != nil {
		t.Skipf("docker unavailable: %v", err)
	}
}

// CleanupContainer terminates c, logging failures instead of failing t.
// A nil container is ignored so it can be deferred before the start error
// is checked.
func CleanupContainer(t *testing.T, ctx context.Context, c testcontainers.Container) {
	t.Helper()
	if c == nil {
		return
	}
	if err := c.Terminate(ctx); err != nil {
		t.Logf("terminate %s: %v", c.GetContainerID(), err)
	}
}
