package domain

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// Error tags used by the billing service in ErrorResponse.Error.
const (
	TagValidation        = "ERR_VALIDATION"
	TagUserExists        = "ERR_USER_EXISTS"
	TagCourseOwned       = "ERR_COURSE_OWNED"
	TagInsufficientFunds = "ERR_INSUFFICIENT_FUNDS"
	TagNotFound          = "ERR_NOT_FOUND"
	TagForbidden         = "ERR_FORBIDDEN"
)

var (
	ErrServiceUnavailable = errors.New("billing_unavailable")
	ErrUnauthenticated    = errors.New("unauthenticated")
	ErrInvalidCredentials = errors.New("invalid_credentials")
	ErrInsufficientFunds  = errors.New("insufficient_funds")
	ErrAlreadyOwned       = errors.New("course_already_owned")
	ErrNotFound           = errors.New("not_found")
	ErrForbidden          = errors.New("forbidden")
)

// ErrorResponse is the billing service's error body.
type ErrorResponse struct {
	Error   string            `json:"error,omitempty"`
	Code    int               `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

// UnauthenticatedError is a 401 from the billing service.
type UnauthenticatedError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *UnauthenticatedError) Error() string {
	return fmt.Sprintf("billing unauthenticated: %s", e.Message)
}

func (e *UnauthenticatedError) Is(target error) bool {
	return target == ErrUnauthenticated
}

// RequestFailedError is any other non-success response.
type RequestFailedError struct {
	StatusCode int
	Response   ErrorResponse
}

func (e *RequestFailedError) Error() string {
	msg := strings.TrimSpace(e.Response.Message)
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	if e.Response.Error != "" {
		return fmt.Sprintf("billing request failed (%d %s): %s", e.StatusCode, e.Response.Error, msg)
	}
	return fmt.Sprintf("billing request failed (%d): %s", e.StatusCode, msg)
}

func (e *RequestFailedError) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	case ErrForbidden:
		return e.StatusCode == http.StatusForbidden
	default:
		return false
	}
}

// Validation converts a tagged validation failure into a ValidationError.
func (e *RequestFailedError) Validation() (*ValidationError, bool) {
	if e.Response.Error != TagValidation {
		return nil, false
	}
	details := make(map[string]string, len(e.Response.Details))
	for k, v := range e.Response.Details {
		details[k] = v
	}
	return &ValidationError{Message: e.Response.Message, Details: details}, true
}

// ValidationError carries per-field messages.
type ValidationError struct {
	Message string
	Details map[string]string
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Details: map[string]string{field: message}}
}

func (e *ValidationError) Error() string {
	fields := make([]string, 0, len(e.Details))
	for k := range e.Details {
		fields = append(fields, k)
	}
	sort.Strings(fields)
	return "validation failed: " + strings.Join(fields, ", ")
}

// InsufficientFundsError is a 406 on purchase.
type InsufficientFundsError struct {
	Message string
}

func (e *InsufficientFundsError) Error() string {
	return "insufficient funds: " + e.Message
}

func (e *InsufficientFundsError) Is(target error) bool {
	return target == ErrInsufficientFunds
}

// Unavailable wraps a transport failure.
func Unavailable(cause error) error {
	return fmt.Errorf("%w: %v", ErrServiceUnavailable, cause)
}
