// Clinicguard - Clinic Platform Request Authorization Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/clinicguard

package logging

import "strings"

// RedactToken masks a bearer token for logging, keeping the first and last
// four characters. Short tokens are fully masked.
func RedactToken(token string) string {
	if len(token) <= 12 {
		return "***"
	}
	return token[:4] + "..." + token[len(token)-4:]
}

// RedactEmail masks the local part of an e-mail address: "jdoe@clinic.org"
// becomes "j***@clinic.org". Values without '@' are fully masked.
func RedactEmail(email string) string {
	at := strings.LastIndexByte(email, '@')
	if at <= 0 {
		return "***"
	}
	return email[:1] + "***" + email[at:]
}
