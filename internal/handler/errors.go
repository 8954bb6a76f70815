package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"order-reconciliation/internal/dto"
	"order-reconciliation/internal/logger"
	"order-reconciliation/internal/service"
)

const internalErrorMessage = "Server error"

// statusOf maps an error returned by a service to the HTTP status it is reported with.
func statusOf(err error) int {
	var schemaErr *dto.SchemaError
	switch {
	case errors.As(err, &schemaErr), errors.Is(err, service.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrConflict), errors.Is(err, service.ErrInvalidState):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// messageOf hides internal failures from the client.
func messageOf(err error, status int) string {
	if status == http.StatusInternalServerError {
		return internalErrorMessage
	}
	return service.Message(err)
}

// HTTPErrorHandler renders every error returned by a handler as {"message": ...}.
func HTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var (
		status  int
		message string
		httpErr *echo.HTTPError
	)
	if errors.As(err, &httpErr) {
		status = httpErr.Code
		message = http.StatusText(status)
		if m, ok := httpErr.Message.(string); ok {
			message = m
		}
	} else {
		status = statusOf(err)
		message = messageOf(err, status)
	}

	if status >= http.StatusInternalServerError {
		logger.FromContext(c.Request().Context()).Error("request failed",
			zap.String("method", c.Request().Method),
			zap.String("path", c.Path()),
			zap.Error(err),
		)
	}

	var writeErr error
	if c.Request().Method == http.MethodHead {
		writeErr = c.NoContent(status)
	} else {
		writeErr = c.JSON(status, dto.MessageResponse{Message: message})
	}
	if writeErr != nil {
		logger.FromContext(c.Request().Context()).Warn("write error response", zap.Error(writeErr))
	}
}
