package domain

import "errors"

var (
	// ErrUserNotFound is returned when a user row does not exist;
	// callers must create users explicitly via EnsureUser
	ErrUserNotFound = errors.New("user not found")

	// ErrPaymentNotFound is returned when no payment matches the reference
	ErrPaymentNotFound = errors.New("payment not found")

	// ErrQuotaExceeded means the daily allowance was already spent when the
	// flow was entered; terminal for the current attempt, never retried
	ErrQuotaExceeded = errors.New("daily generation limit reached")

	// ErrQuotaRaced means the flow passed its entry pre-check but the
	// allowance was consumed by concurrent activity before the final step
	ErrQuotaRaced = errors.New("daily generation limit reached while the request was in progress")

	// ErrStorageTransient means write contention persisted past the retry
	// budget; surfaced as a generic internal error to the user
	ErrStorageTransient = errors.New("storage temporarily unavailable")

	// ErrProviderUnavailable means an external provider failed or timed out;
	// the operation is treated as never started
	ErrProviderUnavailable = errors.New("provider unavailable, try again shortly")

	// ErrProviderDisabled means an optional provider has no credentials
	// configured and its feature is switched off
	ErrProviderDisabled = errors.New("provider not configured")

	// ErrPayloadInvalid means an inbound payment payload is malformed or
	// unverifiable; it is acknowledged but never applied
	ErrPayloadInvalid = errors.New("invalid payment payload")

	// ErrEmptyResult means the generation provider returned no content;
	// no quota is consumed
	ErrEmptyResult = errors.New("generation returned no result")
)
