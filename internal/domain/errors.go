package domain

import "errors"

// Sentinel errors for domain-level error discrimination.
// Services wrap these so handlers can map to HTTP status codes without leaking infrastructure details.
var (
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrBadRequest   = errors.New("bad request")
	ErrUnavailable  = errors.New("unavailable")

	// ErrCatalogMissing marks an absent class or student document, not an unknown student.
	ErrCatalogMissing = errors.New("catalogue document missing")

	// Login flow. ErrCodeMismatch covers a missing or expired code as well as a wrong one.
	ErrForbiddenDomain = errors.New("email domain not allowed")
	ErrDeliveryFailed  = errors.New("failed to deliver login code")
	ErrCodeMismatch    = errors.New("invalid or expired code")
)
