// Clinicguard - Clinic Platform Request Authorization Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/clinicguard

package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/tomtom215/clinicguard/internal/audit"
	"github.com/tomtom215/clinicguard/internal/authz"
	"github.com/tomtom215/clinicguard/internal/logging"
)

// exitDenied is the exit status of a check that produced a denial.
const exitDenied = 2

type checkOptions struct {
	token        string
	operation    string
	allOf        []string
	anyOf        []string
	tenant       string
	tenantSource string
	showAudit    bool
	timeout      time.Duration
}

// checkResult is the printed outcome of one check.
type checkResult struct {
	Allowed          bool          `json:"allowed"`
	Reason           string        `json:"reason"`
	Message          string        `json:"message,omitempty"`
	State            string        `json:"state"`
	Operation        string        `json:"operation,omitempty"`
	PrincipalID      string        `json:"principal_id,omitempty"`
	Role             string        `json:"role,omitempty"`
	Scopes           []string      `json:"effective_scopes,omitempty"`
	TenantID         string        `json:"tenant_id,omitempty"`
	ViolatedTenant   string        `json:"violated_tenant,omitempty"`
	ImplicitlyScoped bool          `json:"implicitly_scoped,omitempty"`
	CrossTenant      bool          `json:"cross_tenant,omitempty"`
	Audit            []audit.Event `json:"audit,omitempty"`
}

func newCheckCmd(root *rootOptions) *cobra.Command {
	opts := &checkOptions{}

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Evaluate a bearer token against a permission requirement",
		Long: `Run one decision through the full pipeline using the configured keys,
identity store and role hierarchy, and print the result as JSON.

The requirement is either a catalog operation (--op) or explicit scopes:
--all-of lists scopes that must all be held; each --any-of flag adds a
comma-separated group, and one complete group must be held.

The exit status is 0 when allowed and 2 when denied.

Examples:
  clinicguard check --token "$TOKEN" --op read_patients --tenant clinic-1
  clinicguard check --token - --all-of patient:read,patient:write < token.txt
  clinicguard check --token "$TOKEN" --any-of record:read --any-of patient:read,tenant:cross_access`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd.Context(), root, opts, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.token, "token", "t", "", `bearer token, or "-" to read it from stdin`)
	f.StringVar(&opts.operation, "op", "", "catalog operation name")
	f.StringSliceVar(&opts.allOf, "all-of", nil, "scopes that must all be held")
	f.StringArrayVar(&opts.anyOf, "any-of", nil, "comma-separated scope group; repeat for alternatives")
	f.StringVar(&opts.tenant, "tenant", "", "target tenant id (empty means the principal's own tenant)")
	f.StringVar(&opts.tenantSource, "tenant-source", "path", "where the tenant was found: path, body or query")
	f.BoolVar(&opts.showAudit, "show-audit", false, "include the recorded audit event in the output")
	f.DurationVar(&opts.timeout, "timeout", 5*time.Second, "overall evaluation timeout")
	cmd.MarkFlagsMutuallyExclusive("op", "all-of")
	cmd.MarkFlagsMutuallyExclusive("op", "any-of")

	return cmd
}

func runCheck(ctx context.Context, root *rootOptions, opts *checkOptions, in io.Reader, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	token, err := readToken(opts.token, in)
	if err != nil {
		return err
	}
	tenant, err := tenantFromFlags(opts.tenant, opts.tenantSource)
	if err != nil {
		return err
	}
	req, err := requirementFromFlags(opts.allOf, opts.anyOf)
	if err != nil {
		return err
	}

	// Offline checks record into memory so the event can be shown; nothing
	// is written to the configured audit backend.
	store := audit.NewMemoryStore(16)
	sink := audit.NewSink(store, audit.DefaultSinkConfig())
	defer sink.Close()

	ctx, cancel := context.WithTimeout(ctx, opts.timeout)
	defer cancel()

	core, err := buildComponents(ctx, root.cfg, sink)
	if err != nil {
		return err
	}
	defer core.Close()

	ctx = audit.ContextWithSource(ctx, audit.Source{Component: "cli"})
	ctx = logging.ContextWithRequestID(ctx, logging.GenerateRequestID())

	var d authz.Decision
	if opts.operation != "" {
		d = core.pipeline.AuthorizeOperation(ctx, token, opts.operation, tenant)
	} else {
		d = core.pipeline.Authorize(ctx, token, req, tenant)
	}

	result := resultFromDecision(&d, core.holder)
	if opts.showAudit {
		if err := sink.Close(); err != nil {
			return fmt.Errorf("flush audit: %w", err)
		}
		events, err := store.Query(context.Background(), audit.QueryFilter{})
		if err != nil {
			return fmt.Errorf("read audit: %w", err)
		}
		result.Audit = events
	}

	if err := writeJSON(out, result); err != nil {
		return err
	}
	if !d.Allowed {
		return &exitError{code: exitDenied, msg: "denied: " + string(d.Reason)}
	}
	return nil
}

func resultFromDecision(d *authz.Decision, roles authz.RoleScopes) checkResult {
	r := checkResult{
		Allowed:          d.Allowed,
		Reason:           string(d.Reason),
		State:            d.State.String(),
		Operation:        d.Operation,
		TenantID:         d.TenantID,
		ViolatedTenant:   d.ViolatedTenant,
		ImplicitlyScoped: d.ImplicitlyScoped,
		CrossTenant:      d.CrossTenant,
	}
	if !d.Allowed {
		r.Message = d.PublicMessage()
	}
	if p := d.Principal; p != nil {
		r.PrincipalID = p.ID
		r.Role = p.Role
		r.Scopes = authz.EffectiveScopes(p, roles).Slice()
	}
	return r
}

func readToken(flag string, in io.Reader) (string, error) {
	if flag != "-" {
		return flag, nil
	}
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read token from stdin: %w", err)
	}
	return strings.TrimSpace(line), nil
}

func tenantFromFlags(id, source string) (authz.TenantContext, error) {
	if strings.TrimSpace(id) == "" {
		return authz.ImplicitTenant(), nil
	}
	switch source {
	case "path", "":
		return authz.ExplicitTenant(id, authz.TenantSourcePath), nil
	case "body":
		return authz.ExplicitTenant(id, authz.TenantSourceBody), nil
	case "query":
		return authz.ExplicitTenant(id, authz.TenantSourceQuery), nil
	default:
		return authz.TenantContext{}, fmt.Errorf("invalid --tenant-source %q: want path, body or query", source)
	}
}

func requirementFromFlags(allOf, anyOf []string) (authz.PermissionRequirement, error) {
	req := authz.PermissionRequirement{AllOf: allOf}
	for _, g := range anyOf {
		var group []string
		for _, s := range strings.Split(g, ",") {
			if s = strings.TrimSpace(s); s != "" {
				group = append(group, s)
			}
		}
		if len(group) == 0 {
			return authz.PermissionRequirement{}, errors.New("--any-of group is empty")
		}
		req.AnyOf = append(req.AnyOf, group)
	}
	return req, nil
}
