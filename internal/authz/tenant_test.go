// Clinicguard - Clinic Platform Request Authorization Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/clinicguard

package authz

import (
	"testing"
)

func TestResolveTenantContext(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name              string
		path, body, query string
		want              TenantContext
	}{
		{"none", "", "", "", TenantContext{Source: TenantSourceUnspecified}},
		{"blank", "  ", "", " ", TenantContext{Source: TenantSourceUnspecified}},
		{"query only", "", "", "c3", TenantContext{TenantID: "c3", Source: TenantSourceQuery}},
		{"body over query", "", "c2", "c3", TenantContext{TenantID: "c2", Source: TenantSourceBody}},
		{"path over all", "c1", "c2", "c3", TenantContext{TenantID: "c1", Source: TenantSourcePath}},
		{"trimmed", " c1 ", "", "", TenantContext{TenantID: "c1", Source: TenantSourcePath}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ResolveTenantContext(tt.path, tt.body, tt.query)
			if got != tt.want {
				t.Errorf("ResolveTenantContext() = %+v, want %+v", got, tt.want)
			}
			if got.IsExplicit() != (tt.want.TenantID != "") {
				t.Errorf("IsExplicit() = %v", got.IsExplicit())
			}
		})
	}
}

func TestTenantEnforcer_Enforce(t *testing.T) {
	t.Parallel()
	e := NewTenantEnforcer(defaultHolder(t), "", "")

	tests := []struct {
		name       string
		p          *Principal
		tc         TenantContext
		wantReason Reason
		want       TenantResult
	}{
		{
			name: "implicit uses own tenant",
			p:    principal("nurse", "c1", true),
			tc:   ImplicitTenant(),
			want: TenantResult{TenantID: "c1", ImplicitlyScoped: true},
		},
		{
			name: "same tenant",
			p:    principal("nurse", "c1", true),
			tc:   ExplicitTenant("c1", TenantSourcePath),
			want: TenantResult{TenantID: "c1"},
		},
		{
			name:       "foreign tenant",
			p:          principal("nurse", "c1", true),
			tc:         ExplicitTenant("c2", TenantSourceBody),
			wantReason: ReasonTenantMismatch,
			want:       TenantResult{TenantID: "c2"},
		},
		{
			name:       "literal without source",
			p:          principal("nurse", "c1", true),
			tc:         TenantContext{TenantID: "c2"},
			wantReason: ReasonTenantMismatch,
			want:       TenantResult{TenantID: "c2"},
		},
		{
			name:       "unspecified source",
			p:          principal("nurse", "c1", true),
			tc:         ExplicitTenant("c2", TenantSourceUnspecified),
			wantReason: ReasonTenantMismatch,
			want:       TenantResult{TenantID: "c2"},
		},
		{
			name: "literal own tenant with padding",
			p:    principal("nurse", "c1", true),
			tc:   TenantContext{TenantID: " c1 "},
			want: TenantResult{TenantID: "c1"},
		},
		{
			name: "blank literal is implicit",
			p:    principal("nurse", "c1", true),
			tc:   TenantContext{TenantID: "   ", Source: TenantSourceQuery},
			want: TenantResult{TenantID: "c1", ImplicitlyScoped: true},
		},
		{
			name:       "principal without tenant",
			p:          principal("nurse", "", true),
			tc:         ExplicitTenant("c2", TenantSourceQuery),
			wantReason: ReasonTenantMismatch,
			want:       TenantResult{TenantID: "c2"},
		},
		{
			name: "override scope held",
			p:    principal("nurse", "c1", true, DefaultCrossTenantScope),
			tc:   ExplicitTenant("c2", TenantSourcePath),
			want: TenantResult{TenantID: "c2", CrossTenant: true},
		},
		{
			name: "override implied by role",
			p:    principal("support", "hq", true),
			tc:   ExplicitTenant("c2", TenantSourcePath),
			want: TenantResult{TenantID: "c2", CrossTenant: true},
		},
		{
			name: "full access implies override",
			p:    principal("admin", "c1", true),
			tc:   ExplicitTenant("c2", TenantSourcePath),
			want: TenantResult{TenantID: "c2", CrossTenant: true},
		},
		{
			name:       "inactive",
			p:          principal("admin", "c1", false),
			tc:         ImplicitTenant(),
			wantReason: ReasonPrincipalInactive,
		},
		{
			name:       "nil principal",
			tc:         ImplicitTenant(),
			wantReason: ReasonPrincipalInactive,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := e.Enforce(tt.p, tt.tc)
			if tt.wantReason == "" {
				if err != nil {
					t.Fatalf("Enforce() error: %v", err)
				}
			} else if ReasonOf(err) != tt.wantReason {
				t.Fatalf("Enforce() error = %v, want %s", err, tt.wantReason)
			}
			if got != tt.want {
				t.Errorf("Enforce() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestTenantEnforcer_CustomOverride(t *testing.T) {
	t.Parallel()
	e := NewTenantEnforcer(nil, "tenant:any", "")

	if _, err := e.Enforce(principal("x", "c1", true, "tenant:any"), ExplicitTenant("c2", TenantSourcePath)); err != nil {
		t.Errorf("custom override should admit foreign tenant: %v", err)
	}
	if _, err := e.Enforce(principal("x", "c1", true, DefaultCrossTenantScope), ExplicitTenant("c2", TenantSourcePath)); err == nil {
		t.Error("default override must not apply when a custom one is configured")
	}
}

func TestTenantSource_String(t *testing.T) {
	t.Parallel()
	for src, want := range map[TenantSource]string{
		TenantSourceUnspecified: "unspecified",
		TenantSourcePath:        "path",
		TenantSourceBody:        "body",
		TenantSourceQuery:       "query",
	} {
		if got := src.String(); got != want {
			t.Errorf("%d.String() = %q, want %q", src, got, want)
		}
	}
}
