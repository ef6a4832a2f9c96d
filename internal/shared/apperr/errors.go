package apperr

import (
	"errors"
	"net/http"
)

// Sentinel errors shared across the engine. Services wrap these with
// fmt.Errorf("...: %w", err) so controllers can map them to HTTP codes
// without string matching.
var (
	// ErrConflict - slot already booked, or locked by another holder
	ErrConflict = errors.New("conflict")

	// ErrNotFound - lock/booking/payment id unknown
	ErrNotFound = errors.New("not found")

	// ErrInvalidStateTransition - state machine violation
	ErrInvalidStateTransition = errors.New("invalid state transition")

	// ErrSignatureMismatch - callback verification failure, never retried
	ErrSignatureMismatch = errors.New("signature mismatch")

	// ErrProviderUnavailable - network/timeout talking to a payment provider,
	// safe to retry from the caller
	ErrProviderUnavailable = errors.New("provider unavailable")

	// ErrValidation - malformed amounts, missing required identifiers
	ErrValidation = errors.New("validation error")
)

// HTTPStatus maps an engine error to an HTTP status code.
func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidStateTransition):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrSignatureMismatch):
		return http.StatusBadRequest
	case errors.Is(err, ErrProviderUnavailable):
		return http.StatusBadGateway
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
