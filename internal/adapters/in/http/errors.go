package http

import (
	"errors"
	"net/http"

	"courierdesk/internal/core/domain/model/task"
	"courierdesk/internal/pkg/errs"

	"github.com/labstack/echo/v4"
)

// Error is the body of every non-2xx response.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// StatusFor maps an application error to its HTTP status.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, errs.ErrObjectNotFound):
		return http.StatusNotFound
	case errors.Is(err, errs.ErrUnauthorized):
		return http.StatusForbidden
	case errors.Is(err, errs.ErrInvalidTransition),
		errors.Is(err, task.ErrAlreadyRated),
		errors.Is(err, errs.ErrStaleObject):
		return http.StatusConflict
	case errs.IsInvalidInput(err):
		return http.StatusUnprocessableEntity
	case errors.Is(err, errs.ErrStoreUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// problem writes err with the status StatusFor derives. Internal failures
// are logged and their message is not exposed.
func (s *Server) problem(c echo.Context, err error) error {
	code := StatusFor(err)
	if code >= http.StatusInternalServerError {
		s.logger.ErrorContext(c.Request().Context(), "request failed",
			"method", c.Request().Method, "path", c.Path(), "error", err)
		if code == http.StatusInternalServerError {
			return writeError(c, code, http.StatusText(code))
		}
	}
	return writeError(c, code, err.Error())
}

func writeError(c echo.Context, code int, message string) error {
	return c.JSON(code, Error{Code: code, Message: message})
}
