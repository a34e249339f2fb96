package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"bibliography/internal/citation"
	"bibliography/internal/logging"
	"bibliography/internal/plugin"
	"bibliography/internal/store"
	"bibliography/internal/suggest"
	"bibliography/internal/vocabulary"
)

// APIError carries the HTTP status of a failed request.
type APIError struct {
	Code    int
	Message string
	Err     error
}

func (e *APIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *APIError) Unwrap() error { return e.Err }

func newAPIError(code int, message string, err error) *APIError {
	return &APIError{Code: code, Message: message, Err: err}
}

// mapError picks a status for err.
func mapError(err error) *APIError {
	var apiErr *APIError
	switch {
	case errors.As(err, &apiErr):
		return apiErr
	case errors.Is(err, store.ErrNotFound):
		return newAPIError(http.StatusNotFound, "Not found", err)
	case errors.Is(err, plugin.ErrUnknownForm):
		return newAPIError(http.StatusNotFound, "Unknown form", err)
	case errors.Is(err, suggest.ErrUnknownDataType):
		return newAPIError(http.StatusNotFound, "Unknown data type", err)
	case errors.Is(err, vocabulary.ErrInvalidDefinition), errors.Is(err, vocabulary.ErrDuplicateDefinition):
		return newAPIError(http.StatusBadRequest, "Invalid vocabulary", err)
	case errors.Is(err, citation.ErrUnsupportedTag):
		return newAPIError(http.StatusBadRequest, "Invalid tag", err)
	case errors.Is(err, citation.ErrNoProcessor):
		return newAPIError(http.StatusServiceUnavailable, "Citation processor unavailable", err)
	default:
		return newAPIError(http.StatusInternalServerError, "Internal error", err)
	}
}

func handleError(c *gin.Context, err error) {
	apiErr := mapError(err)
	if apiErr.Code >= http.StatusInternalServerError {
		logging.Get(logging.CategoryServer).Error("%s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	}
	body := gin.H{"error": apiErr.Message}
	if apiErr.Err != nil && apiErr.Code < http.StatusInternalServerError {
		body["detail"] = apiErr.Err.Error()
	}
	c.AbortWithStatusJSON(apiErr.Code, body)
}
