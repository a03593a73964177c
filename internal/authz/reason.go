// Clinicguard - Clinic Platform Request Authorization Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/clinicguard

package authz

import (
	"context"
	"errors"
	"fmt"

	"github.com/tomtom215/clinicguard/internal/auth"
)

// Reason explains a Decision.
type Reason string

const (
	ReasonAllowed Reason = "Allowed"

	// Authentication failures.
	ReasonMissingToken     Reason = "MissingToken"
	ReasonMalformedToken   Reason = "MalformedToken"
	ReasonInvalidSignature Reason = "InvalidSignature"
	ReasonExpired          Reason = "Expired"
	ReasonNotYetValid      Reason = "NotYetValid"

	// Authorization failures.
	ReasonPrincipalInactive Reason = "PrincipalInactive"
	ReasonInsufficientScope Reason = "InsufficientScope"
	ReasonTenantMismatch    Reason = "TenantMismatch"

	// Dependency failures. All fail closed.
	ReasonIdentityLookupTimeout Reason = "IdentityLookupTimeout"
	ReasonIdentityUnavailable   Reason = "IdentityUnavailable"
	ReasonInternalError         Reason = "InternalError"

	// ReasonRequestCanceled marks a caller-aborted evaluation. Never audited.
	ReasonRequestCanceled Reason = "RequestCanceled"
)

// Class groups reasons by the response a caller should produce.
type Class int

const (
	ClassNone           Class = iota // allowed
	ClassAuthentication              // 401-equivalent
	ClassAuthorization               // 403-equivalent
	ClassUnavailable                 // 503-equivalent
	ClassCanceled                    // client went away
)

func (c Class) String() string {
	switch c {
	case ClassNone:
		return "none"
	case ClassAuthentication:
		return "authentication"
	case ClassAuthorization:
		return "authorization"
	case ClassUnavailable:
		return "unavailable"
	case ClassCanceled:
		return "canceled"
	default:
		return "unknown"
	}
}

// Class returns the response class of r. Unknown reasons are
// authorization failures.
func (r Reason) Class() Class {
	switch r {
	case ReasonAllowed:
		return ClassNone
	case ReasonMissingToken, ReasonMalformedToken, ReasonInvalidSignature, ReasonExpired, ReasonNotYetValid:
		return ClassAuthentication
	case ReasonIdentityLookupTimeout, ReasonIdentityUnavailable, ReasonInternalError:
		return ClassUnavailable
	case ReasonRequestCanceled:
		return ClassCanceled
	default:
		return ClassAuthorization
	}
}

// Public response texts. Inactive principals, missing scopes and foreign
// tenants all share the authorization text.
const (
	MessageAuthenticationRequired = "authentication required"
	MessageAccessDenied           = "access denied"
	MessageUnavailable            = "authorization temporarily unavailable"
	MessageCanceled               = "request canceled"
)

// PublicMessage returns the generic text safe to show a caller.
func (r Reason) PublicMessage() string {
	switch r.Class() {
	case ClassNone:
		return ""
	case ClassAuthentication:
		return MessageAuthenticationRequired
	case ClassUnavailable:
		return MessageUnavailable
	case ClassCanceled:
		return MessageCanceled
	default:
		return MessageAccessDenied
	}
}

func (r Reason) String() string { return string(r) }

// Error is a component failure carrying its decision reason.
type Error struct {
	Reason Reason
	Err    error
}

func newError(reason Reason, format string, args ...any) *Error {
	return &Error{Reason: reason, Err: fmt.Errorf(format, args...)}
}

func (e *Error) Error() string {
	if e.Err == nil {
		return string(e.Reason)
	}
	return string(e.Reason) + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches another *Error with the same reason.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return t.Reason == e.Reason
	}
	return false
}

// ReasonOf maps an error from any pipeline stage onto a Reason.
// Unrecognized errors are internal errors.
func ReasonOf(err error) Reason {
	if err == nil {
		return ReasonAllowed
	}

	var ae *Error
	if errors.As(err, &ae) {
		return ae.Reason
	}

	switch {
	case errors.Is(err, auth.ErrMissingToken):
		return ReasonMissingToken
	case errors.Is(err, auth.ErrMalformedToken):
		return ReasonMalformedToken
	case errors.Is(err, auth.ErrInvalidSignature),
		errors.Is(err, auth.ErrUnknownKeyID),
		errors.Is(err, auth.ErrNoKeys):
		return ReasonInvalidSignature
	case errors.Is(err, auth.ErrExpired):
		return ReasonExpired
	case errors.Is(err, auth.ErrNotYetValid):
		return ReasonNotYetValid
	case errors.Is(err, context.Canceled):
		return ReasonRequestCanceled
	case errors.Is(err, context.DeadlineExceeded):
		return ReasonIdentityLookupTimeout
	default:
		return ReasonInternalError
	}
}
