package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/eddy80524/dental-quiz-app/internal/api/shared"
	"github.com/eddy80524/dental-quiz-app/internal/domain"
	"github.com/eddy80524/dental-quiz-app/internal/normalize"
	"github.com/eddy80524/dental-quiz-app/internal/service/aggregation"
	"github.com/eddy80524/dental-quiz-app/internal/service/ranking"
	"github.com/eddy80524/dental-quiz-app/internal/service/review"
	"github.com/eddy80524/dental-quiz-app/internal/store"
	"github.com/go-playground/validator/v10"
)

// MapErrorToStatusCode maps internal errors to HTTP status codes without
// leaking internal error types to clients.
func MapErrorToStatusCode(err error) int {
	var validationErrs validator.ValidationErrors

	switch {
	// Bad request errors
	case errors.As(err, &validationErrs),
		errors.Is(err, normalize.ErrUnrecognizedTimestampFormat),
		errors.Is(err, domain.ErrInvalidQuality),
		errors.Is(err, domain.ErrInvalidID),
		errors.Is(err, domain.ErrInvalidDate),
		errors.Is(err, domain.ErrInvalidVariant),
		errors.Is(err, domain.ErrValidation),
		errors.Is(err, review.ErrInvalidInput),
		errors.Is(err, aggregation.ErrInvalidWindow),
		errors.Is(err, store.ErrInvalidEntity):
		return http.StatusBadRequest

	// Conflict errors
	case errors.Is(err, store.ErrConflict),
		errors.Is(err, store.ErrDuplicate):
		return http.StatusConflict

	// Not found errors
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound

	// Backend unavailable
	case errors.Is(err, store.ErrUnavailable),
		errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable

	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a user-facing message for err.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	var validationErrs validator.ValidationErrors

	switch {
	case errors.As(err, &validationErrs):
		return SanitizeValidationError(validationErrs)

	case errors.Is(err, normalize.ErrUnrecognizedTimestampFormat):
		return "Unrecognized timestamp format"

	case errors.Is(err, domain.ErrInvalidQuality):
		return "Quality must be an integer between 0 and 5"

	case errors.Is(err, domain.ErrInvalidID),
		errors.Is(err, review.ErrInvalidInput):
		return "User and question IDs are required"

	case errors.Is(err, domain.ErrInvalidVariant):
		return "Unknown ranking variant"

	case errors.Is(err, domain.ErrInvalidDate),
		errors.Is(err, aggregation.ErrInvalidWindow):
		return "Invalid time window"

	case errors.Is(err, ranking.ErrInvalidDisplayName):
		return fmt.Sprintf("Display name must be 1 to %d characters", ranking.MaxDisplayNameLength)

	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, store.ErrInvalidEntity):
		return "Invalid request"

	case errors.Is(err, store.ErrConflict):
		return "The card was updated concurrently, please retry"

	case errors.Is(err, ranking.ErrRankNotFound):
		return "User is not on this leaderboard"

	case errors.Is(err, store.ErrSnapshotNotFound):
		return "No ranking has been published yet"

	case errors.Is(err, store.ErrProfileNotFound):
		return "Profile not found"

	case errors.Is(err, store.ErrNotFound):
		return "Not found"

	case errors.Is(err, store.ErrUnavailable),
		errors.Is(err, context.DeadlineExceeded):
		return "Service temporarily unavailable"

	default:
		return "An unexpected error occurred"
	}
}

// SanitizeValidationError turns validator output into a short message naming
// the first failing field.
func SanitizeValidationError(errs validator.ValidationErrors) string {
	if len(errs) == 0 {
		return "Validation error"
	}
	fe := errs[0]
	return fmt.Sprintf("Invalid %s: %s", fe.Field(), getValidationTagMessage(fe.Tag()))
}

func getValidationTagMessage(tag string) string {
	switch tag {
	case "required", "required_with":
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

// isRetryable reports whether a client may resend the same request.
func isRetryable(err error) bool {
	var svcErr *review.ServiceError
	if errors.As(err, &svcErr) {
		return svcErr.Retryable()
	}
	return store.IsRetryable(err)
}

// HandleAPIError writes the error response for err. fallback replaces the
// generic message for unexpected errors when non-empty.
func HandleAPIError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	status := MapErrorToStatusCode(err)
	message := GetSafeErrorMessage(err)
	if status == http.StatusInternalServerError && fallback != "" {
		message = fallback
	}

	var opts []shared.ResponseOption
	if isRetryable(err) {
		opts = append(opts, shared.WithRetryable())
	}
	shared.RespondWithErrorAndLog(w, r, status, message, err, opts...)
}
