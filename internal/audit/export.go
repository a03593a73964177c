// Clinicguard - Clinic Platform Request Authorization Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/clinicguard

package audit

import (
	"fmt"
	"strings"

	"github.com/goccy/go-json"
)

// Exporter serializes events for external consumers.
type Exporter interface {
	Export(events []Event) ([]byte, error)
}

// Export formats.
const (
	FormatJSON = "json"
	FormatCEF  = "cef"
)

// ExporterFor returns the exporter for format.
func ExporterFor(format string) (Exporter, error) {
	switch strings.ToLower(format) {
	case FormatJSON, "":
		return &JSONExporter{}, nil
	case FormatCEF:
		return NewCEFExporter(), nil
	default:
		return nil, fmt.Errorf("unsupported export format %q", format)
	}
}

// JSONExporter exports events in JSON format.
type JSONExporter struct{}

// Export exports events to JSON format. A nil slice encodes as [].
func (e *JSONExporter) Export(events []Event) ([]byte, error) {
	if events == nil {
		events = []Event{}
	}
	return json.MarshalIndent(events, "", "  ")
}

// CEFExporter exports events in Common Event Format (for SIEM integration).
type CEFExporter struct {
	DeviceVendor  string
	DeviceProduct string
	DeviceVersion string
}

// NewCEFExporter creates a new CEF exporter with defaults.
func NewCEFExporter() *CEFExporter {
	return &CEFExporter{
		DeviceVendor:  "Clinicguard",
		DeviceProduct: "AuthorizationCore",
		DeviceVersion: "1.0",
	}
}

// Export exports events to CEF format, one event per line.
// CEF Format: CEF:Version|Device Vendor|Device Product|Device Version|Signature ID|Name|Severity|Extension
func (e *CEFExporter) Export(events []Event) ([]byte, error) {
	lines := make([]string, 0, len(events))

	for idx := range events {
		event := &events[idx]
		line := fmt.Sprintf("CEF:0|%s|%s|%s|%s|%s|%d|%s",
			e.escapeHeader(e.DeviceVendor),
			e.escapeHeader(e.DeviceProduct),
			e.escapeHeader(e.DeviceVersion),
			e.escapeHeader(string(event.Type)),
			e.escapeHeader(event.Description),
			e.cefSeverity(event.Severity),
			e.buildExtension(event),
		)
		lines = append(lines, line)
	}

	return []byte(strings.Join(lines, "\n")), nil
}

// cefSeverity maps our severity to CEF severity (0-10).
func (e *CEFExporter) cefSeverity(severity Severity) int {
	switch severity {
	case SeverityDebug:
		return 0
	case SeverityInfo:
		return 3
	case SeverityWarning:
		return 5
	case SeverityError:
		return 7
	case SeverityCritical:
		return 10
	default:
		return 0
	}
}

// buildExtension builds the CEF extension string.
func (e *CEFExporter) buildExtension(event *Event) string {
	parts := []string{fmt.Sprintf("rt=%d", event.Timestamp.UnixMilli())}

	if event.PrincipalID != "" {
		parts = append(parts, "suid="+e.escapeExtension(event.PrincipalID))
	}
	if event.Role != "" {
		parts = append(parts, "spriv="+e.escapeExtension(event.Role))
	}
	if event.TenantID != "" {
		parts = append(parts, "cs1Label=tenant", "cs1="+e.escapeExtension(event.TenantID))
	}
	if event.TargetTenantID != "" {
		parts = append(parts, "cs2Label=targetTenant", "cs2="+e.escapeExtension(event.TargetTenantID))
	}
	if event.Source.IPAddress != "" {
		parts = append(parts, "src="+e.escapeExtension(event.Source.IPAddress))
	}
	if event.Operation != "" {
		parts = append(parts, "act="+e.escapeExtension(event.Operation))
	}
	parts = append(parts,
		"outcome="+e.escapeExtension(string(event.Outcome)),
		"reason="+e.escapeExtension(event.Reason),
	)
	if event.RequestID != "" {
		parts = append(parts, "externalId="+e.escapeExtension(event.RequestID))
	}

	return strings.Join(parts, " ")
}

// escapeHeader escapes CEF header values.
func (e *CEFExporter) escapeHeader(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "|", "\\|")
	return e.flatten(s)
}

// escapeExtension escapes CEF extension values.
func (e *CEFExporter) escapeExtension(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "=", "\\=")
	return e.flatten(s)
}

func (e *CEFExporter) flatten(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.ReplaceAll(s, "\r", "")
}
