// Clinicguard - Clinic Platform Request Authorization Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/clinicguard

package logging

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ctxKey values are unexported so other packages cannot collide with them.
type ctxKey int

const (
	keyRequestID ctxKey = iota
	keyCorrelationID
	keyLogger
)

// GenerateRequestID returns a random UUIDv4 string.
func GenerateRequestID() string { return uuid.NewString() }

// GenerateCorrelationID returns an 8 character id, short enough to read in
// audit exports.
func GenerateCorrelationID() string { return uuid.NewString()[:8] }

func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, keyRequestID, id)
}

func ContextWithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, keyCorrelationID, id)
}

// RequestIDFromContext is "" when no id was attached.
func RequestIDFromContext(ctx context.Context) string {
	return lookup[string](ctx, keyRequestID)
}

// CorrelationIDFromContext is "" when no id was attached.
func CorrelationIDFromContext(ctx context.Context) string {
	return lookup[string](ctx, keyCorrelationID)
}

// ContextWithLogger overrides the logger Ctx builds on.
//
//nolint:gocritic // zerolog.Logger is passed by value
func ContextWithLogger(ctx context.Context, l zerolog.Logger) context.Context {
	return context.WithValue(ctx, keyLogger, l)
}

// LoggerFromContext returns the logger stored by ContextWithLogger or the
// global one.
func LoggerFromContext(ctx context.Context) zerolog.Logger {
	if ctx != nil {
		if l, ok := ctx.Value(keyLogger).(zerolog.Logger); ok {
			return l
		}
	}
	return Logger()
}

// Ctx returns the context logger carrying whichever request and
// correlation ids are present.
//
//	logging.Ctx(r.Context()).Warn().Str("reason", "expired").Msg("token rejected")
func Ctx(ctx context.Context) *zerolog.Logger {
	c := LoggerFromContext(ctx).With()
	for _, f := range []struct {
		key  ctxKey
		name string
	}{
		{keyCorrelationID, "correlation_id"},
		{keyRequestID, "request_id"},
	} {
		if v := lookup[string](ctx, f.key); v != "" {
			c = c.Str(f.name, v)
		}
	}
	l := c.Logger()
	return &l
}

func lookup[T any](ctx context.Context, key ctxKey) T {
	var zero T
	if ctx == nil {
		return zero
	}
	v, _ := ctx.Value(key).(T)
	return v
}
