// Package services defines the business logic for pre-join intake and
// querying. This file centralizes common service-level error values so that
// they can be consistently returned by service methods and checked by
// callers.
//
// These errors are intended for internal use by the service layer;
// translation into user-facing messages or HTTP status codes should be
// performed at the handler layer.
package services

import "errors"

var (
	// ErrConsentRequired is returned when a submission arrives with
	// consent=false. The check happens before any persistence attempt.
	ErrConsentRequired = errors.New("consent required")

	// ErrDuplicateEmail is returned when the normalized email already has a
	// submission. Handlers map it to a conflict response.
	ErrDuplicateEmail = errors.New("email already registered")
)
