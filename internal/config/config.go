// Clinicguard - Clinic Platform Request Authorization Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/clinicguard

package config

import "time"

// Key sources for token verification material.
const (
	KeySourceStatic = "static"
	KeySourceJWKS   = "jwks"
	KeySourceOIDC   = "oidc"
)

// Identity store backends.
const (
	IdentityBackendMemory   = "memory"
	IdentityBackendPostgres = "postgres"
)

// Audit storage backends.
const (
	AuditBackendMemory = "memory"
	AuditBackendBadger = "badger"
	AuditBackendNATS   = "nats"
)

// Config is the complete Clinicguard configuration.
type Config struct {
	Token    TokenConfig    `koanf:"token"`
	Identity IdentityConfig `koanf:"identity"`
	Authz    AuthzConfig    `koanf:"authz"`
	Audit    AuditConfig    `koanf:"audit"`
	Server   ServerConfig   `koanf:"server"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// TokenConfig controls bearer token verification and key material.
type TokenConfig struct {
	// ClockSkew is the tolerance applied to exp, nbf and iat.
	ClockSkew time.Duration `koanf:"clock_skew" validate:"gte=0,lte=5m"`

	// Issuer, when set, must match the iss claim. It is also the discovery
	// base for the oidc key source.
	Issuer string `koanf:"issuer"`

	// Audience, when set, requires aud to contain at least one entry.
	Audience []string `koanf:"audience"`

	// Algorithms is the allow-list of JWS algorithms.
	Algorithms []string `koanf:"algorithms" validate:"min=1,dive,oneof=RS256 RS384 RS512 PS256 PS384 PS512 ES256 ES384 ES512 EdDSA HS256"`

	KeySource  string            `koanf:"key_source" validate:"oneof=static jwks oidc"`
	JWKSURL    string            `koanf:"jwks_url" validate:"omitempty,url"`
	StaticKeys []StaticKeyConfig `koanf:"static_keys" validate:"dive"`

	// HMACSecret enables a single HS256 development key. Never use in production.
	HMACSecret string `koanf:"hmac_secret"`

	RefreshInterval    time.Duration `koanf:"refresh_interval" validate:"gt=0"`
	RefreshTimeout     time.Duration `koanf:"refresh_timeout" validate:"gt=0"`
	MinRefreshInterval time.Duration `koanf:"min_refresh_interval" validate:"gte=0"`
}

// StaticKeyConfig is one statically configured verification key.
type StaticKeyConfig struct {
	ID        string `koanf:"id" validate:"required"`
	Algorithm string `koanf:"algorithm" validate:"required"`
	PEMFile   string `koanf:"pem_file" validate:"required"`
}

// IdentityConfig controls the identity store used by the principal resolver.
type IdentityConfig struct {
	Backend       string        `koanf:"backend" validate:"oneof=memory postgres"`
	DSN           string        `koanf:"dsn"`
	MaxConns      int32         `koanf:"max_conns" validate:"gte=1,lte=100"`
	LookupTimeout time.Duration `koanf:"lookup_timeout" validate:"gt=0,lte=10s"`
	Breaker       BreakerConfig `koanf:"breaker"`
	Users         []UserSeed    `koanf:"users" validate:"dive"`
}

// BreakerConfig configures the circuit breaker around the identity store.
type BreakerConfig struct {
	Enabled          bool          `koanf:"enabled"`
	MaxRequests      uint32        `koanf:"max_requests" validate:"gte=1"`
	Interval         time.Duration `koanf:"interval" validate:"gte=0"`
	Timeout          time.Duration `koanf:"timeout" validate:"gt=0"`
	FailureThreshold uint32        `koanf:"failure_threshold" validate:"gte=1"`
}

// UserSeed is an identity record loaded into the memory store.
type UserSeed struct {
	ID          string   `koanf:"id" validate:"required"`
	Email       string   `koanf:"email" validate:"omitempty,email"`
	DisplayName string   `koanf:"display_name"`
	Role        string   `koanf:"role" validate:"required"`
	TenantID    string   `koanf:"tenant_id"`
	Active      bool     `koanf:"active"`
	Scopes      []string `koanf:"scopes"`
}

// AuthzConfig controls the role hierarchy and operation catalog.
type AuthzConfig struct {
	// ModelPath and PolicyPath override the embedded Casbin model and policy.
	ModelPath      string        `koanf:"model_path"`
	PolicyPath     string        `koanf:"policy_path"`
	ReloadInterval time.Duration `koanf:"reload_interval" validate:"gte=0"`

	FullAccessScope  string `koanf:"full_access_scope" validate:"required"`
	CrossTenantScope string `koanf:"cross_tenant_scope" validate:"required"`

	// Operations declares permission requirements by operation name.
	Operations map[string]OperationConfig `koanf:"operations" validate:"dive"`
}

// OperationConfig declares the permission requirement of one operation.
type OperationConfig struct {
	AllOf []string   `koanf:"all_of"`
	AnyOf [][]string `koanf:"any_of"`
}

// AuditConfig controls audit event storage.
type AuditConfig struct {
	Backend        string     `koanf:"backend" validate:"oneof=memory badger nats"`
	BufferSize     int        `koanf:"buffer_size" validate:"gte=1,lte=1000000"`
	MemoryCapacity int        `koanf:"memory_capacity" validate:"gte=1"`
	BadgerPath     string     `koanf:"badger_path"`
	NATS           NATSConfig `koanf:"nats"`
}

// NATSConfig configures audit event forwarding over NATS JetStream.
type NATSConfig struct {
	URL   string `koanf:"url"`
	Topic string `koanf:"topic"`
}

// ServerConfig configures the HTTP decision service.
type ServerConfig struct {
	ListenAddr      string        `koanf:"listen_addr" validate:"required"`
	ReadTimeout     time.Duration `koanf:"read_timeout" validate:"gt=0"`
	WriteTimeout    time.Duration `koanf:"write_timeout" validate:"gt=0"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" validate:"gt=0"`

	// CORSOrigins lists browser origins allowed to call the decision API.
	// Empty disables cross-origin access.
	CORSOrigins []string `koanf:"cors_origins" validate:"dive,url"`

	RateLimitRequests int           `koanf:"rate_limit_requests" validate:"gte=1"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window" validate:"gt=0"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`

	// TenantParam is the chi URL parameter and query/body field naming the
	// target tenant.
	TenantParam string `koanf:"tenant_param" validate:"required"`
}

// LoggingConfig configures the zerolog logger.
type LoggingConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn error"`
	Format string `koanf:"format" validate:"oneof=json console"`
	Caller bool   `koanf:"caller"`
}

// defaultConfig returns a Config with all defaults populated.
func defaultConfig() *Config {
	return &Config{
		Token: TokenConfig{
			ClockSkew:          30 * time.Second,
			Algorithms:         []string{"RS256", "ES256", "EdDSA"},
			KeySource:          KeySourceStatic,
			RefreshInterval:    15 * time.Minute,
			RefreshTimeout:     200 * time.Millisecond,
			MinRefreshInterval: 10 * time.Second,
		},
		Identity: IdentityConfig{
			Backend:       IdentityBackendMemory,
			MaxConns:      10,
			LookupTimeout: 200 * time.Millisecond,
			Breaker: BreakerConfig{
				Enabled:          true,
				MaxRequests:      3,
				Interval:         time.Minute,
				Timeout:          30 * time.Second,
				FailureThreshold: 5,
			},
		},
		Authz: AuthzConfig{
			ReloadInterval:   time.Minute,
			FullAccessScope:  "*",
			CrossTenantScope: "tenant:cross_access",
		},
		Audit: AuditConfig{
			Backend:        AuditBackendMemory,
			BufferSize:     4096,
			MemoryCapacity: 100000,
			BadgerPath:     "/data/audit",
			NATS: NATSConfig{
				URL:   "nats://127.0.0.1:4222",
				Topic: "clinicguard.audit",
			},
		},
		Server: ServerConfig{
			ListenAddr:        ":8086",
			ReadTimeout:       5 * time.Second,
			WriteTimeout:      10 * time.Second,
			ShutdownTimeout:   15 * time.Second,
			RateLimitRequests: 600,
			RateLimitWindow:   time.Minute,
			TenantParam:       "tenant_id",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Default returns the built-in configuration without reading any source.
func Default() *Config {
	return defaultConfig()
}
