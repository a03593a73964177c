// Clinicguard - Clinic Platform Request Authorization Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/clinicguard

package config

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// Validate checks struct-tag constraints, then cross-field rules.
func (c *Config) Validate() error {
	if err := getValidator().Struct(c); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			msgs := make([]string, 0, len(fieldErrs))
			for _, fe := range fieldErrs {
				msgs = append(msgs, describeFieldError(fe))
			}
			return fmt.Errorf("invalid configuration: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid configuration: %w", err)
	}

	checks := []func() error{
		c.validateKeySource,
		c.validateIdentity,
		c.validateAudit,
		c.validateOperations,
	}
	for _, check := range checks {
		if err := check(); err != nil {
			return err
		}
	}
	return nil
}

func describeFieldError(fe validator.FieldError) string {
	field := fe.Namespace()
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	case "url":
		return field + " must be a valid URL"
	case "email":
		return field + " must be a valid email address"
	default:
		if fe.Param() != "" {
			return fmt.Sprintf("%s failed %s=%s", field, fe.Tag(), fe.Param())
		}
		return fmt.Sprintf("%s failed %s", field, fe.Tag())
	}
}

func (c *Config) validateKeySource() error {
	t := &c.Token
	switch t.KeySource {
	case KeySourceStatic:
		if len(t.StaticKeys) == 0 && t.HMACSecret == "" {
			return errors.New("token.key_source=static requires token.static_keys or token.hmac_secret")
		}
		if t.HMACSecret != "" && len(t.HMACSecret) < 32 {
			return errors.New("token.hmac_secret must be at least 32 bytes")
		}
	case KeySourceJWKS:
		if t.JWKSURL == "" {
			return errors.New("token.key_source=jwks requires token.jwks_url")
		}
	case KeySourceOIDC:
		if t.Issuer == "" {
			return errors.New("token.key_source=oidc requires token.issuer")
		}
	}
	if t.MinRefreshInterval > t.RefreshInterval {
		return fmt.Errorf("token.min_refresh_interval (%s) must not exceed token.refresh_interval (%s)",
			t.MinRefreshInterval, t.RefreshInterval)
	}
	return nil
}

func (c *Config) validateIdentity() error {
	if c.Identity.Backend == IdentityBackendPostgres && c.Identity.DSN == "" {
		return errors.New("identity.backend=postgres requires identity.dsn")
	}
	seen := make(map[string]struct{}, len(c.Identity.Users))
	for _, u := range c.Identity.Users {
		if _, dup := seen[u.ID]; dup {
			return fmt.Errorf("identity.users: duplicate id %q", u.ID)
		}
		seen[u.ID] = struct{}{}
	}
	return nil
}

func (c *Config) validateAudit() error {
	switch c.Audit.Backend {
	case AuditBackendBadger:
		if c.Audit.BadgerPath == "" {
			return errors.New("audit.backend=badger requires audit.badger_path")
		}
	case AuditBackendNATS:
		if c.Audit.NATS.URL == "" || c.Audit.NATS.Topic == "" {
			return errors.New("audit.backend=nats requires audit.nats.url and audit.nats.topic")
		}
	}
	return nil
}

func (c *Config) validateOperations() error {
	for name, op := range c.Authz.Operations {
		for i, group := range op.AnyOf {
			if len(group) == 0 {
				return fmt.Errorf("authz.operations.%s.any_of[%d] is empty", name, i)
			}
		}
		for _, s := range op.AllOf {
			if strings.TrimSpace(s) == "" {
				return fmt.Errorf("authz.operations.%s.all_of contains an empty scope", name)
			}
		}
	}
	return nil
}
