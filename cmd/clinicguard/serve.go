// Clinicguard - Clinic Platform Request Authorization Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/clinicguard

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/tomtom215/clinicguard/internal/audit"
	"github.com/tomtom215/clinicguard/internal/auth"
	"github.com/tomtom215/clinicguard/internal/authz"
	"github.com/tomtom215/clinicguard/internal/config"
	"github.com/tomtom215/clinicguard/internal/httpguard"
	"github.com/tomtom215/clinicguard/internal/identity"
	"github.com/tomtom215/clinicguard/internal/logging"
	"github.com/tomtom215/clinicguard/internal/supervisor"
	"github.com/tomtom215/clinicguard/internal/supervisor/services"
)

func newServeCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the supervised decision service",
		Long: `Start the HTTP decision service under a supervisor tree.

Endpoints:
  POST /v1/decisions                  evaluate a requirement for the bearer token
  GET  /v1/whoami                     resolve the bearer token's principal
  GET  /v1/tenants/{tenant_id}/whoami same, scoped to a tenant
  GET  /healthz                       component health
  GET  /metrics                       Prometheus metrics

Background services refresh signer keys (jwks and oidc key sources) and
reload the role hierarchy when a policy file is configured.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, root.cfg)
		},
	}
}

//nolint:gocyclo // sequential startup wiring
func runServe(ctx context.Context, cfg *config.Config) error {
	logging.Info().Str("version", Version).Msg("Starting Clinicguard with supervisor tree")

	store, closeStore, err := audit.OpenStore(&cfg.Audit)
	if err != nil {
		return fmt.Errorf("audit store: %w", err)
	}
	defer func() {
		if err := closeStore(); err != nil {
			logging.Error().Err(err).Msg("Error closing audit store")
		}
	}()
	sink := audit.NewSink(store, audit.SinkConfig{BufferSize: cfg.Audit.BufferSize})
	logging.Info().Str("backend", cfg.Audit.Backend).Msg("Audit sink initialized")

	core, err := buildComponents(ctx, cfg, sink)
	if err != nil {
		_ = sink.Close()
		return err
	}
	defer core.Close()

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	})
	if err != nil {
		_ = sink.Close()
		return fmt.Errorf("supervisor tree: %w", err)
	}

	tree.AddAuditService(services.NewRunnerService(sink))

	if cfg.Token.KeySource != config.KeySourceStatic {
		refresher := auth.NewKeyRefresher(core.keys, cfg.Token.RefreshInterval)
		tree.AddPolicyService(services.NewRunnerService(refresher))
		logging.Info().Dur("interval", cfg.Token.RefreshInterval).Msg("Key refresher enabled")
	}

	if cfg.Authz.PolicyPath != "" && cfg.Authz.ReloadInterval > 0 {
		reloader := authz.NewHierarchyReloader(core.holder, core.source, cfg.Authz.ReloadInterval)
		tree.AddPolicyService(services.NewRunnerService(reloader))
		logging.Info().
			Str("policy", cfg.Authz.PolicyPath).
			Dur("interval", cfg.Authz.ReloadInterval).
			Msg("Hierarchy reloader enabled")
	}

	router := httpguard.NewRouter(httpguard.RouterConfig{
		Decider: core.pipeline,
		Guard:   httpguard.GuardConfig{TenantParam: cfg.Server.TenantParam},
		Middleware: &httpguard.MiddlewareConfig{
			CORSAllowedOrigins: cfg.Server.CORSOrigins,
			CORSMaxAge:         600,
			RateLimitRequests:  cfg.Server.RateLimitRequests,
			RateLimitWindow:    cfg.Server.RateLimitWindow,
			RateLimitDisabled:  cfg.Server.RateLimitDisabled,
		},
		Checks: healthChecks(core),
	})

	server := &http.Server{
		Addr:              cfg.Server.ListenAddr,
		Handler:           router,
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
	}
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))

	logging.Info().Str("addr", cfg.Server.ListenAddr).Msg("Starting supervisor tree")
	errCh := tree.ServeBackground(ctx)

	<-ctx.Done()
	logging.Info().Msg("Shutdown signal received, stopping supervisor tree")

	var treeErr error
	select {
	case treeErr = <-errCh:
	case <-time.After(cfg.Server.ShutdownTimeout + 5*time.Second):
		logging.Warn().Msg("Supervisor tree did not stop in time")
	}

	if report, err := tree.UnstoppedServiceReport(); err == nil && len(report) > 0 {
		for _, svc := range report {
			logging.Warn().Str("service", svc.Name).Msg("Service did not stop within the shutdown timeout")
		}
	}

	// Closing twice is safe; this covers an audit layer that never started.
	if err := sink.Close(); err != nil {
		logging.Error().Err(err).Msg("Error draining audit sink")
	}

	if treeErr != nil && !errors.Is(treeErr, context.Canceled) {
		return treeErr
	}
	logging.Info().Msg("Clinicguard stopped")
	return nil
}

// healthChecks reports the decision core's dependencies to /healthz.
func healthChecks(core *components) map[string]httpguard.HealthCheck {
	checks := map[string]httpguard.HealthCheck{
		"keys": func(ctx context.Context) error {
			if len(core.keys.Keys()) == 0 {
				return errors.New("no verification keys cached")
			}
			return nil
		},
		"hierarchy": func(ctx context.Context) error {
			if core.holder.Load() == nil {
				return errors.New("no role hierarchy loaded")
			}
			return nil
		},
	}
	if b, ok := core.store.(*identity.BreakerStore); ok {
		checks["identity"] = func(ctx context.Context) error {
			if b.State() == "open" {
				return errors.New("identity store circuit open")
			}
			return nil
		}
	}
	return checks
}
