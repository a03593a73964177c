// Clinicguard - Clinic Platform Request Authorization Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/clinicguard

// Package logging provides centralized zerolog-based logging for Clinicguard.
//
// # Quick Start
//
//	logging.Init(logging.Config{
//	    Level:  "info",
//	    Format: "json",
//	})
//
//	logging.Info().Msg("Authorization core starting")
//	logging.Ctx(ctx).Warn().Str("reason", "tenant_mismatch").Msg("Access denied")
//
// # Configuration
//
// Environment variables (read by internal/config):
//   - LOG_LEVEL: trace, debug, info, warn, error (default: info)
//   - LOG_FORMAT: json, console (default: json)
//   - LOG_CALLER: true/false (default: false)
//
// # Sensitive Values
//
// Bearer tokens and e-mail addresses must never reach the log stream in clear
// text. Use RedactToken and RedactEmail when a value is needed for correlation.
//
// # slog Bridge
//
// NewSlogLogger returns a *slog.Logger backed by the global zerolog logger, used
// by the suture supervisor event hook (sutureslog).
package logging
