// Clinicguard - Clinic Platform Request Authorization Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/clinicguard

/*
Package supervisor runs the long-lived parts of the decision service under a
suture v4 supervisor tree.

# Overview

Services are grouped in three layers so a failure in one does not restart
the others:

	RootSupervisor ("clinicguard")
	├── "audit-layer"
	│   └── audit sink writer (RunnerService)
	├── "policy-layer"
	│   ├── key refresher (RunnerService, when a JWKS URL is configured)
	│   └── hierarchy reloader (RunnerService, when a policy file is configured)
	└── "api-layer"
	    └── HTTPServerService

The decision pipeline itself is not a service. It reads the current key set
and hierarchy snapshot on every request, so a policy-layer restart never
interrupts authorization; requests keep using the last good snapshot.

# Restart behavior

A service that returns an error is restarted. Once failures exceed
FailureThreshold (decaying at FailureDecay per second) the layer backs off
for FailureBackoff. Returning ctx.Err() after cancellation is a normal stop.

# Usage

	tree, err := supervisor.NewSupervisorTree(logger, supervisor.TreeConfig{
	    ShutdownTimeout: cfg.Server.ShutdownTimeout,
	})
	if err != nil {
	    return err
	}
	tree.AddAuditService(services.NewRunnerService(sink))
	tree.AddPolicyService(services.NewRunnerService(reloader))
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))

	errCh := tree.ServeBackground(ctx)

Events from suture are logged through sutureslog using the slog logger given
to NewSupervisorTree.

# Subpackages

  - services: adapters from HTTP servers and context runners to suture.Service
*/
package supervisor
