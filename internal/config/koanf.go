// Clinicguard - Clinic Platform Request Authorization Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/clinicguard

package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// ConfigPathEnvVar names the environment variable holding an explicit config file path.
const ConfigPathEnvVar = "CLINICGUARD_CONFIG"

// DefaultConfigPaths are searched in order when no explicit path is given.
var DefaultConfigPaths = []string{
	"clinicguard.yaml",
	"clinicguard.yml",
	"/etc/clinicguard/config.yaml",
}

// Load builds the configuration from defaults, an optional YAML file and
// environment variables (ENV > File > Defaults), then validates it.
// An empty path falls back to CLINICGUARD_CONFIG and DefaultConfigPaths.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path == "" {
		path = findConfigFile()
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// findConfigFile returns the first existing config file, or "" when none exists.
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, p := range DefaultConfigPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// sliceConfigPaths are parsed as comma-separated lists when they arrive as strings.
var sliceConfigPaths = []string{
	"token.audience",
	"token.algorithms",
	"server.cors_origins",
}

// processSliceFields converts comma-separated env values to slices for known slice fields.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok || strVal == "" {
			continue
		}
		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) == 0 {
			continue
		}
		if err := k.Set(path, trimmed); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

// envMappings maps lower-cased environment variable names to koanf paths.
var envMappings = map[string]string{
	// Token verification
	"clinicguard_clock_skew":   "token.clock_skew",
	"token_issuer":             "token.issuer",
	"token_audience":           "token.audience",
	"token_algorithms":         "token.algorithms",
	"token_key_source":         "token.key_source",
	"token_jwks_url":           "token.jwks_url",
	"token_hmac_secret":        "token.hmac_secret",
	"key_refresh_interval":     "token.refresh_interval",
	"key_refresh_timeout":      "token.refresh_timeout",
	"key_min_refresh_interval": "token.min_refresh_interval",

	// Identity store
	"identity_backend":           "identity.backend",
	"identity_dsn":               "identity.dsn",
	"identity_max_conns":         "identity.max_conns",
	"identity_lookup_timeout":    "identity.lookup_timeout",
	"identity_breaker_enabled":   "identity.breaker.enabled",
	"identity_breaker_timeout":   "identity.breaker.timeout",
	"identity_breaker_threshold": "identity.breaker.failure_threshold",

	// Role hierarchy
	"authz_model_path":         "authz.model_path",
	"authz_policy_path":        "authz.policy_path",
	"authz_reload_interval":    "authz.reload_interval",
	"authz_full_access_scope":  "authz.full_access_scope",
	"authz_cross_tenant_scope": "authz.cross_tenant_scope",

	// Audit
	"audit_backend":         "audit.backend",
	"audit_buffer_size":     "audit.buffer_size",
	"audit_memory_capacity": "audit.memory_capacity",
	"audit_badger_path":     "audit.badger_path",
	"audit_nats_url":        "audit.nats.url",
	"audit_nats_topic":      "audit.nats.topic",

	// Server
	"http_listen_addr":      "server.listen_addr",
	"http_read_timeout":     "server.read_timeout",
	"http_write_timeout":    "server.write_timeout",
	"http_shutdown_timeout": "server.shutdown_timeout",
	"http_cors_origins":     "server.cors_origins",
	"http_rate_limit":       "server.rate_limit_requests",
	"http_rate_window":      "server.rate_limit_window",
	"http_rate_disabled":    "server.rate_limit_disabled",
	"http_tenant_param":     "server.tenant_param",

	// Logging
	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",
}

// envTransformFunc maps an environment variable name to its koanf path.
// Unmapped variables return "" and are skipped.
//
// Examples:
//   - CLINICGUARD_CLOCK_SKEW -> token.clock_skew
//   - IDENTITY_LOOKUP_TIMEOUT -> identity.lookup_timeout
//   - KEY_REFRESH_INTERVAL -> token.refresh_interval
func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}
