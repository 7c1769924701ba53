package rest

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/dmitrijs2005/recipebook/internal/common"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// Error codes as constants
const (
	ErrCodeInvalidRequest = "INVALID_REQUEST"
	ErrCodeConflict       = "CONFLICT"
	ErrCodeUnauthorized   = "UNAUTHORIZED"
	ErrCodeNotFound       = "NOT_FOUND"
	ErrCodeInternalError  = "INTERNAL_ERROR"
)

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Code      string         `json:"code"`
	Message   string         `json:"message"`
	Details   map[string]any `json:"details,omitempty"`
	RequestID string         `json:"request_id"`
	Timestamp time.Time      `json:"timestamp"`
	Retryable bool           `json:"retryable"`
}

func writeError(c *gin.Context, status int, code, message string, retryable bool, details map[string]any) {
	c.AbortWithStatusJSON(status, ErrorResponse{
		Code:      code,
		Message:   message,
		Details:   details,
		RequestID: requestID(c),
		Timestamp: time.Now().UTC(),
		Retryable: retryable,
	})
}

// fail maps a service error onto the error envelope.
func (h *Handler) fail(c *gin.Context, err error) {
	var (
		ve *common.ValidationError
		ce *common.ConflictError
	)
	switch {
	case errors.As(err, &ve):
		writeError(c, http.StatusBadRequest, ErrCodeInvalidRequest, "Invalid request", false, fieldDetails(ve))
	case errors.As(err, &ce):
		writeError(c, http.StatusBadRequest, ErrCodeConflict, "Resource already exists", false,
			map[string]any{ce.Field: []string{ce.Message}})
	case errors.Is(err, common.ErrorAlreadyExists):
		writeError(c, http.StatusBadRequest, ErrCodeConflict, "Resource already exists", false, nil)
	case errors.Is(err, common.ErrorUnauthorized),
		errors.Is(err, common.ErrInvalidToken),
		errors.Is(err, common.ErrTokenExpired),
		errors.Is(err, common.ErrRefreshTokenExpired):
		writeError(c, http.StatusUnauthorized, ErrCodeUnauthorized, authMessage(err), false, nil)
	case errors.Is(err, common.ErrorNotFound):
		writeError(c, http.StatusNotFound, ErrCodeNotFound, "Not found", false, nil)
	default:
		h.logger.Error(c.Request.Context(), "request failed",
			"request_id", requestID(c),
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"err", err,
		)
		writeError(c, http.StatusInternalServerError, ErrCodeInternalError, "Internal server error", true, nil)
	}
}

func authMessage(err error) string {
	switch {
	case errors.Is(err, common.ErrTokenExpired):
		return "Token expired"
	case errors.Is(err, common.ErrRefreshTokenExpired):
		return "Refresh token expired"
	case errors.Is(err, common.ErrInvalidToken):
		return "Invalid token"
	}
	return "Authentication credentials were not provided or are invalid"
}

func fieldDetails(ve *common.ValidationError) map[string]any {
	out := make(map[string]any, len(ve.Fields))
	for k, v := range ve.Fields {
		out[k] = v
	}
	return out
}

// bindError converts a gin binding failure into a ValidationError.
func bindError(err error) *common.ValidationError {
	var (
		ve   *common.ValidationError
		verr validator.ValidationErrors
		ute  *json.UnmarshalTypeError
		se   *json.SyntaxError
	)
	switch {
	case errors.As(err, &ve):
		return ve
	case errors.As(err, &verr):
		out := &common.ValidationError{}
		for _, fe := range verr {
			out.Add(fe.Field(), fieldMessage(fe))
		}
		return out
	case errors.As(err, &ute):
		field := ute.Field
		if field == "" {
			field = common.NonFieldErrors
		}
		return common.NewValidationError(field, fmt.Sprintf("Expected a value of type %s.", ute.Type))
	case errors.As(err, &se), errors.Is(err, io.ErrUnexpectedEOF):
		return common.NewValidationError(common.NonFieldErrors, "Malformed JSON.")
	case errors.Is(err, io.EOF):
		return common.NewValidationError(common.NonFieldErrors, "No data provided.")
	}
	return common.NewValidationError(common.NonFieldErrors, err.Error())
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "email":
		return "Enter a valid email address."
	case "min":
		return fmt.Sprintf("Ensure this field has at least %s characters.", fe.Param())
	case "max":
		return fmt.Sprintf("Ensure this field has no more than %s characters.", fe.Param())
	case "gte":
		return fmt.Sprintf("Ensure this value is greater than or equal to %s.", fe.Param())
	}
	return "Invalid value."
}
