package pob

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAPIError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *APIError
		expected string
	}{
		{
			name:     "with message",
			err:      &APIError{StatusCode: 409, Code: "already_claimed", Message: "Index 2 already claimed"},
			expected: "pob API error (HTTP 409): Index 2 already claimed",
		},
		{
			name:     "without message",
			err:      &APIError{StatusCode: 500},
			expected: "pob API error (HTTP 500)",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.Error())
		})
	}
}

func TestAPIError_Is(t *testing.T) {
	tests := []struct {
		name        string
		apiErr      *APIError
		target      error
		shouldMatch bool
	}{
		{
			name:        "not_in_set code",
			apiErr:      &APIError{StatusCode: 404, Code: "not_in_set"},
			target:      ErrNotInSet,
			shouldMatch: true,
		},
		{
			name:        "not_in_set is not campaign not found",
			apiErr:      &APIError{StatusCode: 404, Code: "not_in_set"},
			target:      ErrCampaignNotFound,
			shouldMatch: false,
		},
		{
			name:        "plain 404 is campaign not found",
			apiErr:      &APIError{StatusCode: 404, Code: "not_found"},
			target:      ErrCampaignNotFound,
			shouldMatch: true,
		},
		{
			name:        "already_claimed code",
			apiErr:      &APIError{StatusCode: 409, Code: "already_claimed"},
			target:      ErrAlreadyClaimed,
			shouldMatch: true,
		},
		{
			name:        "index_mismatch code",
			apiErr:      &APIError{StatusCode: 400, Code: "index_mismatch"},
			target:      ErrIndexMismatch,
			shouldMatch: true,
		},
		{
			name:        "503 is server unavailable",
			apiErr:      &APIError{StatusCode: 503, Code: "service_unavailable"},
			target:      ErrServer,
			shouldMatch: true,
		},
		{
			name:        "500 matches nothing",
			apiErr:      &APIError{StatusCode: 500, Code: "internal_error"},
			target:      ErrServer,
			shouldMatch: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.shouldMatch, errors.Is(tt.apiErr, tt.target))
		})
	}
}

func TestBatchError(t *testing.T) {
	t.Run("message includes index", func(t *testing.T) {
		err := &BatchError{Op: "generate", Index: 7, Err: ErrSourceUnavailable}
		assert.Equal(t, "generate at index 7: pob: entropy source unavailable", err.Error())
	})

	t.Run("errors.Is works through unwrap", func(t *testing.T) {
		err := WrapBatchError("generate", 3, fmt.Errorf("%w: short read", ErrSourceUnavailable))
		assert.True(t, errors.Is(err, ErrSourceUnavailable))

		var batchErr *BatchError
		require.True(t, errors.As(err, &batchErr))
		assert.Equal(t, 3, batchErr.Index)
	})

	t.Run("nil error stays nil", func(t *testing.T) {
		assert.NoError(t, WrapBatchError("generate", 0, nil))
	})
}

func TestValidationError(t *testing.T) {
	err := NewValidationError("BaseURL", "is required")
	assert.Equal(t, "validation error: BaseURL - is required", err.Error())
}

func TestSentinelErrors_Distinct(t *testing.T) {
	sentinels := []error{
		ErrSourceUnavailable, ErrInvalidQuantity, ErrInvalidPrivateKey,
		ErrNotInSet, ErrInvalidBaseURL, ErrInvalidContract, ErrInvalidRedemptionURL,
		ErrCampaignNotFound, ErrAlreadyClaimed, ErrIndexMismatch, ErrServer,
		ErrMissingStorePath, ErrStorePersist, ErrStoreCorrupted,
	}
	for i, a := range sentinels {
		for j, b := range sentinels {
			if i != j {
				assert.False(t, errors.Is(a, b), "%v should not match %v", a, b)
			}
		}
	}
}
