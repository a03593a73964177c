// Clinicguard - Clinic Platform Request Authorization Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/clinicguard

package authz

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
)

func histogramCount(t *testing.T, allowed string) uint64 {
	t.Helper()
	m := &dto.Metric{}
	if err := DecisionDuration.WithLabelValues(allowed).(prometheus.Metric).Write(m); err != nil {
		t.Fatalf("write histogram: %v", err)
	}
	return m.GetHistogram().GetSampleCount()
}

func TestRecordDecision(t *testing.T) {
	tests := []struct {
		name          string
		d             Decision
		wantViolation float64
		wantCross     float64
	}{
		{
			name: "allowed",
			d:    Decision{Allowed: true, Reason: ReasonAllowed, State: StateTenantChecked},
		},
		{
			name:      "allowed cross tenant",
			d:         Decision{Allowed: true, Reason: ReasonAllowed, State: StateTenantChecked, CrossTenant: true},
			wantCross: 1,
		},
		{
			name:          "tenant mismatch",
			d:             Decision{Reason: ReasonTenantMismatch, State: StateScopeChecked},
			wantViolation: 1,
		},
		{
			name: "expired",
			d:    Decision{Reason: ReasonExpired, State: StateReceived},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			allowed := "false"
			if tt.d.Allowed {
				allowed = "true"
			}
			counter := DecisionsTotal.WithLabelValues(string(tt.d.Reason), tt.d.State.String())
			beforeCount := testutil.ToFloat64(counter)
			beforeHist := histogramCount(t, allowed)
			beforeViolations := testutil.ToFloat64(TenantViolationsTotal)
			beforeCross := testutil.ToFloat64(CrossTenantAccessTotal)

			RecordDecision(&tt.d, 3*time.Millisecond)

			if got := testutil.ToFloat64(counter) - beforeCount; got != 1 {
				t.Errorf("decisions counter delta = %v, want 1", got)
			}
			if got := histogramCount(t, allowed) - beforeHist; got != 1 {
				t.Errorf("histogram samples delta = %d, want 1", got)
			}
			if got := testutil.ToFloat64(TenantViolationsTotal) - beforeViolations; got != tt.wantViolation {
				t.Errorf("violations delta = %v, want %v", got, tt.wantViolation)
			}
			if got := testutil.ToFloat64(CrossTenantAccessTotal) - beforeCross; got != tt.wantCross {
				t.Errorf("cross-tenant delta = %v, want %v", got, tt.wantCross)
			}
		})
	}
}
