package errors

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorWrappingAndCodes(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(cause, ErrScheduleCreate)

	assert.True(t, IsCode(err, "SCHEDULE_CREATE_FAILED"))
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "SCHEDULE_CREATE_FAILED")
}

func TestRetryableClassification(t *testing.T) {
	tests := []struct {
		name      string
		err       *Error
		retryable bool
	}{
		{name: "validation is fatal", err: ErrValidation, retryable: false},
		{name: "unknown operator is fatal", err: ErrUnknownOperator, retryable: false},
		{name: "invalid event is fatal", err: ErrInvalidEvent, retryable: false},
		{name: "schedule create is retryable", err: ErrScheduleCreate, retryable: true},
		{name: "external service is retryable", err: ErrExternalService, retryable: true},
		{name: "forced fatal", err: ErrExternalService.AsFatal(), retryable: false},
		{name: "forced retryable", err: ErrValidation.AsRetryable(), retryable: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.retryable, tt.err.IsRetryable())
			assert.Equal(t, !tt.retryable, tt.err.IsFatal())
		})
	}
}

func TestWithDetailDoesNotMutateSentinel(t *testing.T) {
	detailed := ErrUnknownOperator.WithDetail("operator", "fuzzy_match")

	assert.Contains(t, detailed.Details, "operator")
	assert.NotContains(t, ErrUnknownOperator.Details, "operator")
}

func TestWithDetailCopiesAreIndependent(t *testing.T) {
	first := ErrUnknownOperator.WithDetail("operator", "fuzzy_match")
	second := ErrUnknownOperator.WithDetail("operator", "sounds_like")

	// Two derivations of the same sentinel must not share a details map.
	assert.Equal(t, "fuzzy_match", first.Details["operator"])
	assert.Equal(t, "sounds_like", second.Details["operator"])

	chained := first.WithDetail("condition", "status")
	assert.NotContains(t, first.Details, "condition")
	assert.Equal(t, "fuzzy_match", chained.Details["operator"])
}

func TestIsUnknownOperator(t *testing.T) {
	assert.True(t, IsUnknownOperator(ErrUnknownOperator.WithDetail("operator", "x")))
	assert.False(t, IsUnknownOperator(ErrUnknownAction))
	assert.False(t, IsUnknownOperator(errors.New("plain")))
}

func TestToHTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, ToHTTPStatus(ErrNotFound))
	assert.Equal(t, http.StatusBadGateway, ToHTTPStatus(Wrap(errors.New("x"), ErrScheduleDelete)))
	assert.Equal(t, http.StatusInternalServerError, ToHTTPStatus(errors.New("plain")))
}

func TestToErrorResponse(t *testing.T) {
	resp := ToErrorResponse(ErrUnknownOperator.WithDetail("operator", "fuzzy_match"))

	assert.Equal(t, "UNKNOWN_OPERATOR", resp["error_code"])
	require.Contains(t, resp, "details")
}
