// Clinicguard - Clinic Platform Request Authorization Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/clinicguard

package httpguard

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/clinicguard/internal/audit"
	"github.com/tomtom215/clinicguard/internal/authz"
	"github.com/tomtom215/clinicguard/internal/logging"
)

// maxDecisionBody bounds POST /v1/decisions bodies.
const maxDecisionBody = 64 << 10

// HealthCheck reports whether a dependency is usable.
type HealthCheck func(ctx context.Context) error

// RouterConfig wires the decision service routes.
type RouterConfig struct {
	Decider    Decider
	Guard      GuardConfig
	Middleware *MiddlewareConfig

	// Checks run on /healthz, keyed by component name.
	Checks map[string]HealthCheck
}

// DecisionRequest is the body of POST /v1/decisions. Operation and an
// explicit requirement are mutually exclusive.
type DecisionRequest struct {
	Operation string     `json:"operation,omitempty" validate:"omitempty,max=128,excluded_with=AllOf AnyOf"`
	AllOf     []string   `json:"all_of,omitempty" validate:"omitempty,max=64,dive,required,max=128"`
	AnyOf     [][]string `json:"any_of,omitempty" validate:"omitempty,max=32,dive,min=1,dive,required,max=128"`
	TenantID  string     `json:"tenant_id,omitempty" validate:"omitempty,max=128"`
}

// DecisionResponse is the body answering POST /v1/decisions.
type DecisionResponse struct {
	Allowed          bool   `json:"allowed"`
	Message          string `json:"message,omitempty"`
	PrincipalID      string `json:"principal_id,omitempty"`
	TenantID         string `json:"tenant_id,omitempty"`
	ImplicitlyScoped bool   `json:"implicitly_scoped,omitempty"`
	CrossTenant      bool   `json:"cross_tenant,omitempty"`
	RequestID        string `json:"request_id,omitempty"`
}

// WhoAmIResponse describes the principal admitted by the guard.
type WhoAmIResponse struct {
	ID       string   `json:"id"`
	Role     string   `json:"role"`
	TenantID string   `json:"tenant_id"`
	Scopes   []string `json:"scopes"`
}

type handlers struct {
	decider     Decider
	tenantParam string
	validate    *validator.Validate
	checks      map[string]HealthCheck
}

// NewRouter builds the decision service router.
func NewRouter(cfg RouterConfig) chi.Router {
	guard := NewGuard(cfg.Decider, cfg.Guard)
	mw := NewMiddleware(cfg.Middleware)
	h := &handlers{
		decider:     cfg.Decider,
		tenantParam: guard.tenantParam,
		validate:    validator.New(validator.WithRequiredStructEnabled()),
		checks:      cfg.Checks,
	}

	r := chi.NewRouter()
	r.Use(RequestIDWithLogging())
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(PrometheusMetrics())
	r.Use(AccessLog())
	r.Use(SecurityHeaders())

	r.Get("/healthz", h.health)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Use(mw.CORS())
		r.Use(mw.RateLimit())

		r.Post("/decisions", h.decide)

		r.With(guard.Require(authz.Authenticated())).Get("/whoami", h.whoami)
		r.With(guard.Require(authz.Authenticated())).
			Get("/tenants/{"+guard.tenantParam+"}/whoami", h.whoami)
	})

	return r
}

func (h *handlers) health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := map[string]string{}
	healthy := true
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			healthy = false
			status[name] = "unhealthy"
			logging.Ctx(ctx).Warn().Err(err).Str("component", name).Msg("Health check failed")
			continue
		}
		status[name] = "ok"
	}

	code := http.StatusOK
	overall := "ok"
	if !healthy {
		code = http.StatusServiceUnavailable
		overall = "degraded"
	}
	writeJSON(w, code, map[string]any{"status": overall, "components": status})
}

// decide evaluates an arbitrary requirement for the bearer token. The status
// follows StatusFor; the body never carries the denial reason.
func (h *handlers) decide(w http.ResponseWriter, r *http.Request) {
	var req DecisionRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxDecisionBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid request: " + validationSummary(err)})
		return
	}

	ctx := audit.ContextWithSource(r.Context(), SourceFromRequest(r))
	tenant := authz.ResolveTenantContext("", req.TenantID, r.URL.Query().Get(h.tenantParam))
	token := BearerToken(r)

	var d authz.Decision
	if req.Operation != "" {
		d = h.decider.AuthorizeOperation(ctx, token, req.Operation, tenant)
	} else {
		d = h.decider.Authorize(ctx, token, authz.PermissionRequirement{AllOf: req.AllOf, AnyOf: req.AnyOf}, tenant)
	}

	resp := DecisionResponse{
		Allowed:   d.Allowed,
		Message:   d.PublicMessage(),
		RequestID: logging.RequestIDFromContext(r.Context()),
	}
	if d.Allowed {
		resp.PrincipalID = d.Principal.ID
		resp.TenantID = d.TenantID
		resp.ImplicitlyScoped = d.ImplicitlyScoped
		resp.CrossTenant = d.CrossTenant
	}
	writeJSON(w, StatusFor(&d), resp)
}

func (h *handlers) whoami(w http.ResponseWriter, r *http.Request) {
	d, ok := DecisionFromContext(r.Context())
	if !ok || d.Principal == nil {
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "missing authorization context"})
		return
	}
	writeJSON(w, http.StatusOK, WhoAmIResponse{
		ID:       d.Principal.ID,
		Role:     d.Principal.Role,
		TenantID: d.TenantID,
		Scopes:   d.Principal.Scopes.Slice(),
	})
}

// validationSummary lists the failing fields without echoing values.
func validationSummary(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return "malformed"
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fe.Field())
	}
	return strings.Join(fields, ", ")
}
