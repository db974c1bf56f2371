package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/kashmau/track-fitness/internal/repository"
	"github.com/kashmau/track-fitness/internal/service"
)

// ErrorHandler renders every error that reaches echo as JSON.  Domain
// sentinels map to their status codes; anything else is a 500 whose cause
// is logged but never sent to the client.
func ErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		status, body := errorResponse(err)
		if status >= http.StatusInternalServerError {
			l := zerolog.Ctx(c.Request().Context())
			if l.GetLevel() == zerolog.Disabled {
				l = &log
			}
			l.Error().Err(err).Str("path", c.Request().URL.Path).Msg("unhandled error")
		}
		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(status)
			return
		}
		_ = c.JSON(status, body)
	}
}

func errorResponse(err error) (int, map[string]string) {
	switch {
	case errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, service.ErrInvalidToken),
		errors.Is(err, service.ErrMissingToken):
		return http.StatusUnauthorized, map[string]string{"error": "Unauthorized"}
	case errors.Is(err, service.ErrAlreadyExists), errors.Is(err, repository.ErrEmailExists):
		return http.StatusConflict, map[string]string{"error": "email already exists"}
	case errors.Is(err, repository.ErrConflict):
		return http.StatusConflict, map[string]string{"error": "already exists"}
	case errors.Is(err, service.ErrInvalidInput):
		return http.StatusBadRequest, map[string]string{"error": err.Error()}
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound, map[string]string{"error": "not found"}
	}

	var he *echo.HTTPError
	if errors.As(err, &he) {
		if he.Code == http.StatusUnauthorized {
			return he.Code, map[string]string{"error": "Unauthorized"}
		}
		if he.Code >= http.StatusInternalServerError {
			return he.Code, map[string]string{"error": http.StatusText(he.Code)}
		}
		msg, ok := he.Message.(string)
		if !ok {
			msg = http.StatusText(he.Code)
		}
		return he.Code, map[string]string{"error": msg}
	}
	return http.StatusInternalServerError, map[string]string{"error": "internal server error"}
}

func badRequest(msg string) error {
	return echo.NewHTTPError(http.StatusBadRequest, msg)
}
