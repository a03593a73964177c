// Clinicguard - Clinic Platform Request Authorization Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/clinicguard

package supervisor

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync/atomic"
	"testing"
)

// mockService runs until canceled, optionally failing its first starts.
type mockService struct {
	name     string
	starts   atomic.Int32
	failures int32
}

func newMockService(name string) *mockService {
	return &mockService{name: name}
}

func (m *mockService) Serve(ctx context.Context) error {
	n := m.starts.Add(1)
	if n <= m.failures {
		return errors.New("simulated failure")
	}
	<-ctx.Done()
	return ctx.Err()
}

func (m *mockService) String() string { return m.name }

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestTree(t *testing.T, cfg TreeConfig) *SupervisorTree {
	t.Helper()
	tree, err := NewSupervisorTree(quietLogger(), cfg)
	if err != nil {
		t.Fatalf("NewSupervisorTree() error: %v", err)
	}
	return tree
}
