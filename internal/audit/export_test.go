// Clinicguard - Clinic Platform Request Authorization Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/clinicguard

package audit

import (
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
)

func TestExporterFor(t *testing.T) {
	tests := []struct {
		format  string
		wantErr bool
	}{
		{"json", false},
		{"", false},
		{"CEF", false},
		{"xml", true},
	}
	for _, tt := range tests {
		_, err := ExporterFor(tt.format)
		if (err != nil) != tt.wantErr {
			t.Errorf("ExporterFor(%q) error = %v, wantErr %v", tt.format, err, tt.wantErr)
		}
	}
}

func TestJSONExporter_Export(t *testing.T) {
	data, err := (&JSONExporter{}).Export(nil)
	if err != nil {
		t.Fatalf("Export(nil) error: %v", err)
	}
	if strings.TrimSpace(string(data)) != "[]" {
		t.Errorf("Export(nil) = %s, want []", data)
	}

	events := []Event{{ID: "e1", Type: EventTypeTenantMismatch, TenantID: "clinic-1", TargetTenantID: "clinic-2"}}
	data, err = (&JSONExporter{}).Export(events)
	if err != nil {
		t.Fatalf("Export() error: %v", err)
	}
	var decoded []Event
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("exported JSON invalid: %v", err)
	}
	if len(decoded) != 1 || decoded[0].TargetTenantID != "clinic-2" {
		t.Errorf("decoded = %+v", decoded)
	}
}

func TestCEFExporter_Export(t *testing.T) {
	events := []Event{
		{
			ID:             "e1",
			Timestamp:      time.UnixMilli(1700000000000),
			Type:           EventTypeTenantMismatch,
			Severity:       SeverityError,
			Outcome:        OutcomeDenied,
			PrincipalID:    "u-1",
			Role:           "nurse",
			TenantID:       "clinic-1",
			TargetTenantID: "clinic-2",
			Reason:         "TenantMismatch",
			Operation:      "patients.read",
			Description:    "Tenant | mismatch",
			Source:         Source{IPAddress: "10.0.0.7"},
			RequestID:      "req=1",
		},
		{ID: "e2", Type: EventTypeAuthzGranted, Severity: SeverityInfo, Outcome: OutcomeAllowed, Reason: "Allowed"},
	}

	data, err := NewCEFExporter().Export(events)
	if err != nil {
		t.Fatalf("Export() error: %v", err)
	}
	lines := strings.Split(string(data), "\n")
	if len(lines) != 2 {
		t.Fatalf("lines = %d, want 2", len(lines))
	}

	first := lines[0]
	for _, want := range []string{
		"CEF:0|Clinicguard|AuthorizationCore|1.0|authz.tenant_mismatch|Tenant \\| mismatch|7|",
		"rt=1700000000000",
		"suid=u-1",
		"spriv=nurse",
		"cs1=clinic-1",
		"cs2=clinic-2",
		"src=10.0.0.7",
		"act=patients.read",
		"outcome=denied",
		"reason=TenantMismatch",
		"externalId=req\\=1",
	} {
		if !strings.Contains(first, want) {
			t.Errorf("CEF line missing %q:\n%s", want, first)
		}
	}
	if !strings.Contains(lines[1], "|3|") {
		t.Errorf("info severity should map to 3: %s", lines[1])
	}
}
