// Clinicguard - Clinic Platform Request Authorization Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/clinicguard

package services

import (
	"context"
	"fmt"
)

// ContextRunner is a background component that runs until its context is
// canceled.
//
// Satisfied by:
//   - *auth.KeyRefresher
//   - *authz.HierarchyReloader
//   - *audit.Sink
type ContextRunner interface {
	RunWithContext(ctx context.Context) error
}

// RunnerService wraps a ContextRunner as a supervised service.
//
// Example usage:
//
//	reloader := authz.NewHierarchyReloader(holder, source, time.Minute)
//	tree.AddPolicyService(services.NewRunnerService(reloader))
type RunnerService struct {
	runner ContextRunner
	name   string
}

// NewRunnerService wraps runner. The service is named after the runner's
// String method when it has one.
func NewRunnerService(runner ContextRunner) *RunnerService {
	name := fmt.Sprintf("%T", runner)
	if s, ok := runner.(fmt.Stringer); ok {
		name = s.String()
	}
	return &RunnerService{runner: runner, name: name}
}

// Serve implements suture.Service. It returns ctx.Err() on normal shutdown.
func (s *RunnerService) Serve(ctx context.Context) error {
	return s.runner.RunWithContext(ctx)
}

// String implements fmt.Stringer for suture log messages.
func (s *RunnerService) String() string {
	return s.name
}
