package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/arxiv/zero/internal/api/shared"
	"github.com/arxiv/zero/internal/domain"
	"github.com/arxiv/zero/internal/platform/baz"
	"github.com/arxiv/zero/internal/service"
	"github.com/arxiv/zero/internal/service/auth"
	"github.com/arxiv/zero/internal/task"
	"github.com/go-playground/validator/v10"
)

// MapErrorToStatusCode maps internal errors to HTTP status codes without
// leaking internal error types to clients.
func MapErrorToStatusCode(err error) int {
	switch {
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken),
		errors.Is(err, auth.ErrTokenNotYetValid),
		errors.Is(err, auth.ErrMissingToken),
		errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized

	case errors.Is(err, auth.ErrInsufficientScope):
		return http.StatusForbidden

	case errors.Is(err, service.ErrThingNotFound),
		errors.Is(err, service.ErrTaskNotFound),
		errors.Is(err, baz.ErrNoBaz):
		return http.StatusNotFound

	case errors.Is(err, service.ErrIntegrityViolation):
		return http.StatusConflict

	case errors.Is(err, service.ErrInvalidTaskID),
		errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrInvalidID):
		return http.StatusBadRequest

	case errors.Is(err, task.ErrQueueFull),
		errors.Is(err, task.ErrQueueClosed):
		return http.StatusServiceUnavailable

	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a client-facing reason for err.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	var validationErr *domain.ValidationError
	switch {
	case errors.Is(err, auth.ErrExpiredToken):
		return "Token expired"
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrTokenNotYetValid),
		errors.Is(err, auth.ErrMissingToken):
		return "Invalid token"
	case errors.Is(err, domain.ErrUnauthorized):
		return "Authentication required for this resource"
	case errors.Is(err, auth.ErrInsufficientScope):
		return "Insufficient privileges to access resource"

	case errors.Is(err, service.ErrThingNotFound):
		return "No such thing"
	case errors.Is(err, service.ErrTaskNotFound):
		return "No such task"
	case errors.Is(err, baz.ErrNoBaz):
		return "No such baz"

	case errors.Is(err, service.ErrIntegrityViolation):
		return "Thing does not exist"

	case errors.Is(err, service.ErrInvalidTaskID):
		return "Invalid task id"
	case errors.As(err, &validationErr):
		return fmt.Sprintf("Invalid %s: %s", validationErr.Field, validationErr.Message)
	case errors.Is(err, domain.ErrInvalidID):
		return "Invalid id"
	case errors.Is(err, domain.ErrValidation):
		return "Validation error"

	case errors.Is(err, task.ErrQueueFull),
		errors.Is(err, task.ErrQueueClosed):
		return "Mutation queue unavailable, try again later"

	default:
		return "An unexpected error occurred"
	}
}

// HandleAPIError writes the error response for err. fallback replaces the
// generic message for 500 responses when set.
func HandleAPIError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	status := MapErrorToStatusCode(err)
	reason := GetSafeErrorMessage(err)
	if status == http.StatusInternalServerError && fallback != "" {
		reason = fallback
	}
	shared.RespondWithErrorAndLog(w, r, status, reason, err)
}

// SanitizeValidationError turns validator output into a short message naming
// the first failing field.
func SanitizeValidationError(err error) string {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return "Validation error"
	}
	fe := fieldErrs[0]
	return fmt.Sprintf("Invalid %s: %s", fe.Field(), getValidationTagMessage(fe.Tag()))
}

func getValidationTagMessage(tag string) string {
	switch tag {
	case "required":
		return "required field"
	case "min":
		return "too short"
	case "max":
		return "too long"
	case "oneof":
		return "invalid value"
	default:
		return "validation failed"
	}
}
