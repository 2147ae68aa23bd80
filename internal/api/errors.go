// errors.go - Structured error handling for API responses
package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"
	"github.com/labstack/echo/v4"
	"github.com/shopapp/backend/internal/storage"
)

// Messages returned for rejected uploads.
const (
	msgFileTooLarge   = "File is too large! Maximum size is %s"
	msgFileNotAnImage = "File must be an image"
)

// APIError represents a structured API error response
type APIError struct {
	Status  int      `json:"-"`
	Code    string   `json:"code"`
	Message string   `json:"message"`
	Details string   `json:"details,omitempty"`
	Errors  []string `json:"errors,omitempty"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewBadRequestError creates a 400 Bad Request error
func NewBadRequestError(message string, cause error) *APIError {
	err := &APIError{
		Status:  http.StatusBadRequest,
		Code:    "BAD_REQUEST",
		Message: message,
	}
	if cause != nil {
		err.Details = cause.Error()
	}
	return err
}

// NewValidationError creates a 400 validation error for a specific field
func NewValidationError(field string) *APIError {
	return &APIError{
		Status:  http.StatusBadRequest,
		Code:    "VALIDATION_ERROR",
		Message: fmt.Sprintf("validation failed for field: %s", field),
	}
}

// NewFieldErrors creates a 400 validation error carrying one message per failed field
func NewFieldErrors(messages []string) *APIError {
	return &APIError{
		Status:  http.StatusBadRequest,
		Code:    "VALIDATION_ERROR",
		Message: "validation failed",
		Errors:  messages,
	}
}

// NewNotFoundError creates a 404 Not Found error
func NewNotFoundError(resource string, id string) *APIError {
	return &APIError{
		Status:  http.StatusNotFound,
		Code:    "NOT_FOUND",
		Message: fmt.Sprintf("%s not found: %s", resource, id),
	}
}

// NewForbiddenError creates a 403 Forbidden error
func NewForbiddenError(message string) *APIError {
	return &APIError{
		Status:  http.StatusForbidden,
		Code:    "FORBIDDEN",
		Message: message,
	}
}

// NewPayloadTooLargeError creates a 413 error
func NewPayloadTooLargeError(message string) *APIError {
	return &APIError{
		Status:  http.StatusRequestEntityTooLarge,
		Code:    "PAYLOAD_TOO_LARGE",
		Message: message,
	}
}

// NewUnsupportedMediaTypeError creates a 415 error
func NewUnsupportedMediaTypeError(message string) *APIError {
	return &APIError{
		Status:  http.StatusUnsupportedMediaType,
		Code:    "UNSUPPORTED_MEDIA_TYPE",
		Message: message,
	}
}

// NewInternalError creates a 500 Internal Server Error
func NewInternalError(message string, cause error) *APIError {
	err := &APIError{
		Status:  http.StatusInternalServerError,
		Code:    "INTERNAL_ERROR",
		Message: message,
	}
	if cause != nil {
		err.Details = cause.Error()
	}
	return err
}

// NewUploadError maps an upload store failure to its HTTP status by error kind.
func NewUploadError(err error, maxSize int64) *APIError {
	switch storage.KindOf(err) {
	case storage.KindPayloadTooLarge:
		return NewPayloadTooLargeError(fmt.Sprintf(msgFileTooLarge, humanize.IBytes(uint64(maxSize))))
	case storage.KindUnsupportedMediaType:
		return NewUnsupportedMediaTypeError(msgFileNotAnImage)
	default:
		return NewInternalError("failed to store file", err)
	}
}

// newStoredFileError maps lookup failures on a stored name.
func newStoredFileError(err error, name string) *APIError {
	switch {
	case errors.Is(err, storage.ErrInvalidName):
		return NewBadRequestError("invalid file name", err)
	case errors.Is(err, storage.ErrNotFound):
		return NewNotFoundError("file", name)
	default:
		return NewInternalError("failed to access file", err)
	}
}

// NewErrorHandler returns an echo HTTPErrorHandler that renders every error as an APIError.
// Details of unexpected errors are only exposed when debug is set.
func NewErrorHandler(logger *log.Logger, debug bool) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		var apiErr *APIError
		var httpErr *echo.HTTPError

		switch {
		case errors.As(err, &apiErr):
		case errors.As(err, &httpErr):
			apiErr = &APIError{
				Status:  httpErr.Code,
				Code:    "HTTP_ERROR",
				Message: fmt.Sprintf("%v", httpErr.Message),
			}
		default:
			apiErr = &APIError{
				Status:  http.StatusInternalServerError,
				Code:    "UNKNOWN_ERROR",
				Message: "An unexpected error occurred",
			}
			if debug {
				apiErr.Details = err.Error()
			}
		}

		if apiErr.Status >= http.StatusInternalServerError && logger != nil {
			logger.Error("request failed", "method", c.Request().Method, "uri", c.Request().RequestURI, "err", err)
		}

		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(apiErr.Status)
			return
		}
		_ = c.JSON(apiErr.Status, apiErr)
	}
}
