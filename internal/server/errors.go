package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	billingdomain "github.com/smallbiznis/coursehub/internal/billing/domain"
	catalogdomain "github.com/smallbiznis/coursehub/internal/catalog/domain"
	contentdomain "github.com/smallbiznis/coursehub/internal/content/domain"
	identitydomain "github.com/smallbiznis/coursehub/internal/identity/domain"
	obsmiddleware "github.com/smallbiznis/coursehub/internal/observability/logger"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type errorPayload struct {
	Type    string            `json:"type"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
	General []string          `json:"general,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrForbidden       = errors.New("forbidden")
	ErrNotFound        = errors.New("not_found")
	ErrInvalidRequest  = errors.New("invalid_request")
	ErrTooManyRequests = errors.New("too_many_requests")
)

const (
	msgUnavailable        = "Service is temporarily unavailable. Try again later."
	msgInvalidCredentials = "Invalid credentials."
	msgUnauthorized       = "Authentication required."
)

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		if payload.Fields != nil {
			payload.Fields, payload.General = splitFormErrors(payload.Fields, formFrom(c))
		}
		if status == http.StatusBadGateway || status == http.StatusInternalServerError {
			obsmiddleware.FromContext(c.Request.Context()).Error("request failed",
				zap.String("error_type", payload.Type),
				zap.Error(lastErr.Err),
			)
		}
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func invalidRequestError() error {
	return billingdomain.NewValidationError("request", "Invalid request body.")
}

func mapError(err error) (int, errorPayload) {
	if err == nil {
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}

	if fields := validationFields(err); fields != nil {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Fields:  fields,
		}
	}

	var failed *billingdomain.RequestFailedError
	switch {
	case errors.Is(err, billingdomain.ErrServiceUnavailable):
		return http.StatusServiceUnavailable, errorPayload{
			Type:    "service_unavailable",
			Message: msgUnavailable,
		}
	case errors.Is(err, billingdomain.ErrInvalidCredentials):
		return http.StatusUnauthorized, errorPayload{
			Type:    "invalid_credentials",
			Message: msgInvalidCredentials,
		}
	case errors.Is(err, billingdomain.ErrUnauthenticated),
		errors.Is(err, identitydomain.ErrSessionNotFound):
		return http.StatusUnauthorized, errorPayload{
			Type:    "unauthorized",
			Message: msgUnauthorized,
		}
	case isNotFoundError(err):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "not found",
		}
	case errors.Is(err, ErrForbidden),
		errors.Is(err, billingdomain.ErrForbidden):
		return http.StatusForbidden, errorPayload{
			Type:    "forbidden",
			Message: "forbidden",
		}
	case errors.Is(err, ErrTooManyRequests):
		return http.StatusTooManyRequests, errorPayload{
			Type:    "too_many_requests",
			Message: "Too many attempts. Try again later.",
		}
	case errors.Is(err, billingdomain.ErrAlreadyOwned):
		return http.StatusConflict, errorPayload{
			Type:    "already_owned",
			Message: "course is already owned",
		}
	case errors.Is(err, billingdomain.ErrInsufficientFunds):
		return http.StatusPaymentRequired, errorPayload{
			Type:    "insufficient_funds",
			Message: "insufficient funds",
		}
	case errors.As(err, &failed),
		errors.Is(err, catalogdomain.ErrNotAccepted):
		return http.StatusBadGateway, errorPayload{
			Type:    "billing_error",
			Message: "billing service rejected the request",
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}

// validationFields returns the per-field messages of any form rejection, or
// nil when err is not one.
func validationFields(err error) map[string]string {
	var billingErr *billingdomain.ValidationError
	if errors.As(err, &billingErr) {
		return copyFields(billingErr.Details, billingErr.Message)
	}
	var contentErr *contentdomain.ValidationError
	if errors.As(err, &contentErr) {
		return copyFields(contentErr.Fields, "")
	}
	var failed *billingdomain.RequestFailedError
	if errors.As(err, &failed) {
		if v, ok := failed.Validation(); ok {
			return copyFields(v.Details, v.Message)
		}
	}
	if errors.Is(err, contentdomain.ErrCodeTaken) {
		return map[string]string{"code": "Course with this code already exists."}
	}
	if errors.Is(err, ErrInvalidRequest) {
		return map[string]string{"request": "Invalid request body."}
	}
	return nil
}

func copyFields(details map[string]string, message string) map[string]string {
	out := make(map[string]string, len(details)+1)
	for k, v := range details {
		out[k] = v
	}
	if len(out) == 0 {
		if message == "" {
			message = "invalid value"
		}
		out[""] = message
	}
	return out
}

func isNotFoundError(err error) bool {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, contentdomain.ErrNotFound),
		errors.Is(err, billingdomain.ErrNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return true
	default:
		return false
	}
}

// classifyErrorForLog feeds the request logger's error_type/error_code pair.
func classifyErrorForLog(err error) (string, string) {
	if err == nil {
		return "", ""
	}
	status, payload := mapError(err)
	code := payload.Type
	var failed *billingdomain.RequestFailedError
	if errors.As(err, &failed) && failed.Response.Error != "" {
		return "billing", failed.Response.Error
	}
	if status >= http.StatusInternalServerError {
		return "server", code
	}
	return "client", code
}
