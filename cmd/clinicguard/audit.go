// Clinicguard - Clinic Platform Request Authorization Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/clinicguard

package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/tomtom215/clinicguard/internal/audit"
	"github.com/tomtom215/clinicguard/internal/logging"
)

func newAuditCmd(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Inspect recorded authorization decisions",
	}
	cmd.AddCommand(newAuditExportCmd(root))
	return cmd
}

type exportOptions struct {
	format    string
	output    string
	principal string
	tenant    string
	outcome   string
	reason    string
	operation string
	since     time.Duration
	limit     int
}

func newAuditExportCmd(root *rootOptions) *cobra.Command {
	opts := &exportOptions{}

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export audit events as JSON or CEF",
		Long: `Query the configured audit store and write matching events, newest
first, as a JSON array or as CEF lines for SIEM ingestion.

The badger backend holds an exclusive lock; stop the service before
exporting from its data directory. The nats backend forwards events and
cannot be queried.

Examples:
  clinicguard audit export --since 24h --outcome denied
  clinicguard audit export --format cef --tenant clinic-1 -f audit.cef`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			exporter, err := audit.ExporterFor(opts.format)
			if err != nil {
				return err
			}

			store, closeStore, err := audit.OpenStore(&root.cfg.Audit)
			if err != nil {
				return err
			}
			defer func() {
				if err := closeStore(); err != nil {
					logging.Error().Err(err).Msg("Error closing audit store")
				}
			}()

			querier, ok := store.(audit.Querier)
			if !ok {
				return fmt.Errorf("audit backend %q does not support queries", root.cfg.Audit.Backend)
			}

			events, err := querier.Query(cmd.Context(), opts.filter(time.Now()))
			if err != nil {
				return fmt.Errorf("query audit events: %w", err)
			}
			data, err := exporter.Export(events)
			if err != nil {
				return err
			}

			if opts.output == "" || opts.output == "-" {
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}
			if err := os.WriteFile(opts.output, data, 0o600); err != nil {
				return fmt.Errorf("write %s: %w", opts.output, err)
			}
			logging.Info().Int("events", len(events)).Str("file", opts.output).Msg("Audit export written")
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.format, "format", audit.FormatJSON, "export format: json or cef")
	f.StringVarP(&opts.output, "file", "f", "", "output file (default stdout)")
	f.StringVar(&opts.principal, "principal", "", "only events for this principal id")
	f.StringVar(&opts.tenant, "tenant", "", "only events for this principal or target tenant")
	f.StringVar(&opts.outcome, "outcome", "", "only events with this outcome: allowed or denied")
	f.StringVar(&opts.reason, "reason", "", "only events with this decision reason")
	f.StringVar(&opts.operation, "operation", "", "only events for this catalog operation")
	f.DurationVar(&opts.since, "since", 0, "only events newer than this age (e.g. 24h)")
	f.IntVar(&opts.limit, "limit", 1000, "maximum number of events (0 for all)")
	return cmd
}

func (o *exportOptions) filter(now time.Time) audit.QueryFilter {
	f := audit.QueryFilter{
		PrincipalID: o.principal,
		TenantID:    o.tenant,
		Reason:      o.reason,
		Operation:   o.operation,
		Limit:       o.limit,
	}
	if o.outcome != "" {
		f.Outcomes = []audit.Outcome{audit.Outcome(o.outcome)}
	}
	if o.since > 0 {
		start := now.Add(-o.since)
		f.StartTime = &start
	}
	return f
}
