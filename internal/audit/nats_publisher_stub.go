// Clinicguard - Clinic Platform Request Authorization Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/clinicguard

//go:build !nats

package audit

import (
	"errors"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/tomtom215/clinicguard/internal/config"
)

// ErrNATSNotCompiled means the audit backend is "nats" but the binary was
// built without -tags nats.
var ErrNATSNotCompiled = errors.New("audit: nats backend not compiled in (build with -tags nats)")

func NewNATSPublisher(_ *config.NATSConfig) (message.Publisher, error) {
	return nil, ErrNATSNotCompiled
}
