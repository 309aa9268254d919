package domain

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestFailedMatchesNotFound(t *testing.T) {
	err := fmt.Errorf("get course: %w", &RequestFailedError{StatusCode: http.StatusNotFound})
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NotErrorIs(t, err, ErrForbidden)

	other := &RequestFailedError{StatusCode: http.StatusBadGateway}
	assert.NotErrorIs(t, other, ErrNotFound)
	assert.Contains(t, other.Error(), "Bad Gateway")
}

func TestRequestFailedValidation(t *testing.T) {
	err := &RequestFailedError{StatusCode: 400, Response: ErrorResponse{
		Error:   TagValidation,
		Code:    400,
		Message: "Validation failed",
		Details: map[string]string{"code": "This value should not be blank."},
	}}
	vErr, ok := err.Validation()
	require.True(t, ok)
	assert.Equal(t, "This value should not be blank.", vErr.Details["code"])

	_, ok = (&RequestFailedError{StatusCode: 400}).Validation()
	assert.False(t, ok)
}

func TestTypedErrorsMatchSentinels(t *testing.T) {
	assert.True(t, errors.Is(&UnauthenticatedError{Code: 401, Message: "expired"}, ErrUnauthenticated))
	assert.True(t, errors.Is(&InsufficientFundsError{Message: "no"}, ErrInsufficientFunds))
	assert.True(t, errors.Is(Unavailable(errors.New("dial tcp: refused")), ErrServiceUnavailable))
}
