// Clinicguard - Clinic Platform Request Authorization Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/clinicguard

package main

import (
	"fmt"
	"io"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/tomtom215/clinicguard/internal/config"
	"github.com/tomtom215/clinicguard/internal/logging"
)

// Version is set at build time.
var Version = "dev"

// exitError ends the process with code without printing a usage error.
type exitError struct {
	code int
	msg  string
}

func (e *exitError) Error() string { return e.msg }

// rootOptions carries global flags and the loaded configuration.
type rootOptions struct {
	configPath string
	logLevel   string
	cfg        *config.Config
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "clinicguard",
		Short: "Request authorization core for the clinic platform",
		Long: `clinicguard verifies bearer tokens, resolves principals, checks scopes
and tenant isolation, and records one audit event per decision.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "help" || cmd.Name() == "completion" {
				return nil
			}
			return opts.load(cmd.ErrOrStderr())
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "config file (default: $CLINICGUARD_CONFIG or ./config.yaml)")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "override logging.level")

	cmd.AddCommand(
		newServeCmd(opts),
		newCheckCmd(opts),
		newRolesCmd(opts),
		newAuditCmd(opts),
	)
	return cmd
}

// load reads configuration and initializes the global logger. Logs go to
// w so command output on stdout stays machine readable.
func (o *rootOptions) load(w io.Writer) error {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return err
	}
	if o.logLevel != "" {
		cfg.Logging.Level = o.logLevel
	}
	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
		Output: w,
	})
	o.cfg = cfg
	return nil
}

// writeJSON prints v as indented JSON followed by a newline.
func writeJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	_, err = fmt.Fprintf(w, "%s\n", data)
	return err
}
