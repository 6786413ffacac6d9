package server

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/journify/core/internal/application/editor"
	"github.com/journify/core/internal/application/services"
	"github.com/journify/core/internal/domain/entities"
	"github.com/journify/core/internal/infrastructure/metrics"
)

// metricsMiddleware records request counts and durations per route.
func metricsMiddleware(m *metrics.Metrics) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)

			status := c.Response().Status
			if err != nil {
				status, _ = statusFor(err)
			}

			m.HTTPRequests.WithLabelValues(
				c.Request().Method,
				c.Path(),
				fmt.Sprintf("%d", status),
			).Inc()

			m.HTTPDuration.WithLabelValues(
				c.Request().Method,
				c.Path(),
			).Observe(time.Since(start).Seconds())

			return err
		}
	}
}

// statusFor maps an error returned by a handler to a status code and body.
func statusFor(err error) (int, interface{}) {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		if msg, ok := he.Message.(string); ok {
			return he.Code, errorBody(he.Code, msg)
		}
		return he.Code, he.Message
	}

	var verrs validator.ValidationErrors
	switch {
	case errors.As(err, &verrs):
		return http.StatusBadRequest, errorBody(http.StatusBadRequest, verrs.Error())
	case errors.Is(err, entities.ErrValidation):
		return http.StatusBadRequest, errorBody(http.StatusBadRequest, err.Error())
	case errors.Is(err, entities.ErrNotFound):
		return http.StatusNotFound, errorBody(http.StatusNotFound, err.Error())
	case errors.Is(err, entities.ErrDuplicateID):
		return http.StatusConflict, errorBody(http.StatusConflict, err.Error())
	case errors.Is(err, editor.ErrNotEditing):
		return http.StatusConflict, errorBody(http.StatusConflict, err.Error())
	case errors.Is(err, services.ErrStorageDisabled):
		return http.StatusNotImplemented, errorBody(http.StatusNotImplemented, err.Error())
	}
	return http.StatusInternalServerError, errorBody(http.StatusInternalServerError, "")
}
