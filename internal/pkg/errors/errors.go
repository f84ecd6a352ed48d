// Package errors provides standardized API error types.
package errors

import (
	"errors"
	"fmt"
	"net/http"

	pob "github.com/angelmc32/pob-v1"
)

// APIError represents a standardized API error response.
type APIError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
	Details    any    `json:"details,omitempty"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return e.Message
}

// WithMessage returns a copy of the error with a custom message.
func (e *APIError) WithMessage(message string) *APIError {
	return &APIError{
		Code:       e.Code,
		Message:    message,
		StatusCode: e.StatusCode,
		Details:    e.Details,
	}
}

// Standard error definitions
var (
	// ErrUnauthorized is returned when authentication is required.
	ErrUnauthorized = &APIError{
		Code:       "unauthorized",
		Message:    "Authentication required",
		StatusCode: http.StatusUnauthorized,
	}

	// ErrBadRequest is returned when the request is malformed.
	ErrBadRequest = &APIError{
		Code:       "bad_request",
		Message:    "Invalid request",
		StatusCode: http.StatusBadRequest,
	}

	// ErrRateLimited is returned when rate limits are exceeded.
	ErrRateLimited = &APIError{
		Code:       "rate_limited",
		Message:    "Too many requests. Please try again later.",
		StatusCode: http.StatusTooManyRequests,
	}

	// ErrInternal is returned for unexpected server errors.
	ErrInternal = &APIError{
		Code:       "internal_error",
		Message:    "An internal error occurred",
		StatusCode: http.StatusInternalServerError,
	}

	// ErrServiceUnavailable is returned when a dependent service is unavailable.
	ErrServiceUnavailable = &APIError{
		Code:       "service_unavailable",
		Message:    "Service temporarily unavailable",
		StatusCode: http.StatusServiceUnavailable,
	}
)

// Campaign error definitions
var (
	// ErrNotInSet is returned when an address is not part of a campaign.
	ErrNotInSet = &APIError{
		Code:       "not_in_set",
		Message:    "Address is not part of this campaign",
		StatusCode: http.StatusNotFound,
	}

	// ErrAlreadyClaimed is returned when a redemption key has been used.
	ErrAlreadyClaimed = &APIError{
		Code:       "already_claimed",
		Message:    "This POB has already been claimed",
		StatusCode: http.StatusConflict,
	}

	// ErrIndexMismatch is returned when a key does not control the address at its index.
	ErrIndexMismatch = &APIError{
		Code:       "index_mismatch",
		Message:    "Key does not match the address at this index",
		StatusCode: http.StatusBadRequest,
	}

	// ErrInvalidQuantity is returned for negative, non-integer or oversize quantities.
	ErrInvalidQuantity = &APIError{
		Code:       "invalid_quantity",
		Message:    "Quantity must be a non-negative integer within the campaign limit",
		StatusCode: http.StatusBadRequest,
	}

	// ErrInvalidPrivateKey is returned when a redemption key cannot be decoded.
	ErrInvalidPrivateKey = &APIError{
		Code:       "invalid_private_key",
		Message:    "Redemption key is not a valid secp256k1 private key",
		StatusCode: http.StatusBadRequest,
	}
)

// NewValidationError creates a validation error for a specific field.
func NewValidationError(field, message string) *APIError {
	return &APIError{
		Code:       "validation_error",
		Message:    fmt.Sprintf("Validation failed: %s", message),
		StatusCode: http.StatusBadRequest,
		Details: map[string]string{
			"field": field,
			"error": message,
		},
	}
}

// NewValidationErrors creates a validation error with multiple field errors.
func NewValidationErrors(errors map[string]string) *APIError {
	return &APIError{
		Code:       "validation_error",
		Message:    "One or more fields failed validation",
		StatusCode: http.StatusBadRequest,
		Details:    errors,
	}
}

// NewNotFoundError creates a not found error for a specific resource type.
func NewNotFoundError(resource string) *APIError {
	return &APIError{
		Code:       "not_found",
		Message:    fmt.Sprintf("%s not found", resource),
		StatusCode: http.StatusNotFound,
	}
}

// AsAPIError converts an error to an APIError if possible.
// Library sentinels are mapped to their API equivalents; anything else
// becomes ErrInternal.
func AsAPIError(err error) *APIError {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}
	switch {
	case errors.Is(err, pob.ErrNotInSet):
		return ErrNotInSet
	case errors.Is(err, pob.ErrAlreadyClaimed):
		return ErrAlreadyClaimed
	case errors.Is(err, pob.ErrIndexMismatch):
		return ErrIndexMismatch
	case errors.Is(err, pob.ErrInvalidQuantity):
		return ErrInvalidQuantity
	case errors.Is(err, pob.ErrInvalidPrivateKey):
		return ErrInvalidPrivateKey
	case errors.Is(err, pob.ErrCampaignNotFound):
		return NewNotFoundError("Campaign")
	case errors.Is(err, pob.ErrInvalidContract):
		return NewValidationError("contract_address", "is required")
	case errors.Is(err, pob.ErrSourceUnavailable):
		return ErrServiceUnavailable
	}
	return ErrInternal
}
