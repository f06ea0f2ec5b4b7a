// Package handlers defines HTTP-layer error codes used across all API
// endpoints. These symbolic constants give clients a stable,
// machine-readable error taxonomy that supplements human-readable messages.
//
// Conventions:
//   - Codes are lowercase, snake_case.
//   - Generic codes mirror common HTTP status semantics.
//   - Domain-specific codes cover business failures a status alone cannot
//     convey (consent_required, email_failed).
package handlers

const (
	ErrCodeBadRequest       = "bad_request"
	ErrCodeNotFound         = "not_found"
	ErrCodeConflict         = "conflict"
	ErrCodeInternal         = "internal_error"
	ErrCodeMethodNotAllowed = "method_not_allowed"

	// Domain-specific:
	ErrCodeConsentRequired = "consent_required"
	ErrCodeEmailFailed     = "email_failed"
	ErrCodeListFailed      = "list_failed"
	ErrCodeExportFailed    = "export_failed"
)
