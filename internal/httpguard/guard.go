// Clinicguard - Clinic Platform Request Authorization Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/clinicguard

package httpguard

import (
	"bytes"
	"context"
	"io"
	"mime"
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/tomtom215/clinicguard/internal/audit"
	"github.com/tomtom215/clinicguard/internal/authz"
	"github.com/tomtom215/clinicguard/internal/logging"
)

// StatusClientClosedRequest is the non-standard status for requests the
// client abandoned before a decision was reached.
const StatusClientClosedRequest = 499

// DefaultTenantParam names the tenant in routes, bodies and queries.
const DefaultTenantParam = "tenant_id"

// DefaultMaxBodyPeek bounds how much of a JSON body is read to find the tenant.
const DefaultMaxBodyPeek = 64 << 10

// Decider runs authorization decisions. *authz.Pipeline implements it.
type Decider interface {
	Authorize(ctx context.Context, token string, req authz.PermissionRequirement, tenant authz.TenantContext) authz.Decision
	AuthorizeOperation(ctx context.Context, token, operation string, tenant authz.TenantContext) authz.Decision
}

// GuardConfig configures a Guard.
type GuardConfig struct {
	// TenantParam is the route parameter, JSON field and query key holding
	// the target tenant. Defaults to "tenant_id".
	TenantParam string

	// MaxBodyPeek bounds the body bytes inspected for the tenant field.
	MaxBodyPeek int64
}

// Guard enforces authorization on HTTP handlers.
type Guard struct {
	decider     Decider
	tenantParam string
	maxPeek     int64
}

// NewGuard creates a guard deciding with d.
func NewGuard(d Decider, cfg GuardConfig) *Guard {
	if cfg.TenantParam == "" {
		cfg.TenantParam = DefaultTenantParam
	}
	if cfg.MaxBodyPeek <= 0 {
		cfg.MaxBodyPeek = DefaultMaxBodyPeek
	}
	return &Guard{decider: d, tenantParam: cfg.TenantParam, maxPeek: cfg.MaxBodyPeek}
}

// Require returns middleware admitting only requests that satisfy req.
func (g *Guard) Require(req authz.PermissionRequirement) func(http.Handler) http.Handler {
	return g.middleware(func(ctx context.Context, token string, tenant authz.TenantContext) authz.Decision {
		return g.decider.Authorize(ctx, token, req, tenant)
	})
}

// RequireOperation returns middleware admitting only requests allowed to
// perform the named catalog operation.
func (g *Guard) RequireOperation(operation string) func(http.Handler) http.Handler {
	return g.middleware(func(ctx context.Context, token string, tenant authz.TenantContext) authz.Decision {
		return g.decider.AuthorizeOperation(ctx, token, operation, tenant)
	})
}

type decideFunc func(ctx context.Context, token string, tenant authz.TenantContext) authz.Decision

func (g *Guard) middleware(decide decideFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := audit.ContextWithSource(r.Context(), SourceFromRequest(r))

			d := decide(ctx, BearerToken(r), g.TenantContext(r))
			if !d.Allowed {
				WriteDenial(w, &d)
				return
			}
			next.ServeHTTP(w, r.WithContext(ContextWithDecision(r.Context(), &d)))
		})
	}
}

// TenantContext finds the target tenant of r: route parameter first, then
// the JSON body field, then the query parameter.
func (g *Guard) TenantContext(r *http.Request) authz.TenantContext {
	return authz.ResolveTenantContext(
		chi.URLParam(r, g.tenantParam),
		g.bodyTenant(r),
		r.URL.Query().Get(g.tenantParam),
	)
}

// bodyTenant reads the tenant field from a JSON body and restores the body
// for the next handler. Bodies larger than the peek limit are not inspected.
func (g *Guard) bodyTenant(r *http.Request) string {
	if r.Body == nil || r.Body == http.NoBody {
		return ""
	}
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil || mediaType != "application/json" {
		return ""
	}

	peek, err := io.ReadAll(io.LimitReader(r.Body, g.maxPeek+1))
	r.Body = readCloser{Reader: io.MultiReader(bytes.NewReader(peek), r.Body), Closer: r.Body}
	if err != nil || int64(len(peek)) > g.maxPeek {
		return ""
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(peek, &fields); err != nil {
		return ""
	}
	raw, ok := fields[g.tenantParam]
	if !ok {
		return ""
	}
	var tenant string
	if err := json.Unmarshal(raw, &tenant); err != nil {
		return ""
	}
	return tenant
}

type readCloser struct {
	io.Reader
	io.Closer
}

// BearerToken returns the token of an "Authorization: Bearer" header, or ""
// when the header is absent or uses another scheme.
func BearerToken(r *http.Request) string {
	h := strings.TrimSpace(r.Header.Get("Authorization"))
	scheme, token, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// SourceFromRequest describes the client of r for audit events.
func SourceFromRequest(r *http.Request) audit.Source {
	ip := r.RemoteAddr
	if host, _, err := net.SplitHostPort(ip); err == nil {
		ip = host
	}
	return audit.Source{
		IPAddress: ip,
		UserAgent: r.UserAgent(),
		Hostname:  r.Host,
		Component: "http",
	}
}

// StatusFor maps a decision onto an HTTP status.
func StatusFor(d *authz.Decision) int {
	switch d.Class() {
	case authz.ClassNone:
		return http.StatusOK
	case authz.ClassAuthentication:
		return http.StatusUnauthorized
	case authz.ClassUnavailable:
		return http.StatusServiceUnavailable
	case authz.ClassCanceled:
		return StatusClientClosedRequest
	default:
		return http.StatusForbidden
	}
}

// ErrorResponse is the body of a denial.
type ErrorResponse struct {
	Error string `json:"error"`
}

// WriteDenial writes the generic response for a denied decision.
func WriteDenial(w http.ResponseWriter, d *authz.Decision) {
	status := StatusFor(d)
	GuardRejectionsTotal.WithLabelValues(strconv.Itoa(status)).Inc()

	switch status {
	case http.StatusUnauthorized:
		w.Header().Set("WWW-Authenticate", `Bearer realm="clinicguard"`)
	case http.StatusServiceUnavailable:
		w.Header().Set("Retry-After", "1")
	}
	writeJSON(w, status, ErrorResponse{Error: d.PublicMessage()})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	data, err := json.Marshal(body)
	if err != nil {
		logging.Error().Err(err).Msg("Failed to marshal JSON response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		logging.Debug().Err(err).Msg("Failed to write JSON response")
	}
}

type decisionKey struct{}

// ContextWithDecision stores d in ctx.
func ContextWithDecision(ctx context.Context, d *authz.Decision) context.Context {
	return context.WithValue(ctx, decisionKey{}, d)
}

// DecisionFromContext returns the decision that admitted the request.
func DecisionFromContext(ctx context.Context) (*authz.Decision, bool) {
	d, ok := ctx.Value(decisionKey{}).(*authz.Decision)
	return d, ok
}
