package pob

import (
	"errors"
	"fmt"
)

// Sentinel errors - Key generation
var (
	ErrSourceUnavailable = errors.New("pob: entropy source unavailable")
	ErrInvalidQuantity   = errors.New("pob: invalid quantity")
	ErrInvalidPrivateKey = errors.New("pob: invalid private key")
)

// Sentinel errors - Commitment
var (
	ErrNotInSet = errors.New("pob: address not in set")
)

// Sentinel errors - Redemption URLs
var (
	ErrInvalidBaseURL       = errors.New("pob: base URL must be an absolute URL")
	ErrInvalidContract      = errors.New("pob: contract address is required")
	ErrInvalidRedemptionURL = errors.New("pob: invalid redemption URL")
)

// Sentinel errors - Campaigns and claims
var (
	ErrCampaignNotFound = errors.New("pob: campaign not found")
	ErrAlreadyClaimed   = errors.New("pob: already claimed")
	ErrIndexMismatch    = errors.New("pob: key does not match address at index")
	ErrServer           = errors.New("pob: server unavailable")
)

// Sentinel errors - Store
var (
	ErrMissingStorePath = errors.New("pob: StorePath is required")
	ErrStorePersist     = errors.New("pob: failed to persist")
	ErrStoreCorrupted   = errors.New("pob: store corrupted")
)

// APIError represents an error response from the campaign API.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("pob API error (HTTP %d)", e.StatusCode)
	}
	return fmt.Sprintf("pob API error (HTTP %d): %s", e.StatusCode, e.Message)
}

// Is maps API error codes onto the package sentinels.
func (e *APIError) Is(target error) bool {
	switch e.Code {
	case "not_in_set":
		return target == ErrNotInSet
	case "already_claimed":
		return target == ErrAlreadyClaimed
	case "index_mismatch":
		return target == ErrIndexMismatch
	case "invalid_quantity":
		return target == ErrInvalidQuantity
	case "invalid_private_key":
		return target == ErrInvalidPrivateKey
	}
	switch e.StatusCode {
	case 404:
		return target == ErrCampaignNotFound
	case 502, 503, 504:
		return target == ErrServer
	default:
		return false
	}
}

// BatchError records the position in a batch that failed.
type BatchError struct {
	Index int
	Op    string
	Err   error
}

// Error implements the error interface.
func (e *BatchError) Error() string {
	return fmt.Sprintf("%s at index %d: %v", e.Op, e.Index, e.Err)
}

// Unwrap implements the errors.Unwrap interface for error chaining.
func (e *BatchError) Unwrap() error {
	return e.Err
}

// WrapBatchError wraps an error with its batch position.
// Returns nil if the provided error is nil.
func WrapBatchError(op string, index int, err error) error {
	if err == nil {
		return nil
	}
	return &BatchError{
		Index: index,
		Op:    op,
		Err:   err,
	}
}

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// NewValidationError creates a new ValidationError with the given field and message.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}
