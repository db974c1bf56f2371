package handler

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"

	"github.com/kashmau/track-fitness/internal/repository"
	"github.com/kashmau/track-fitness/internal/service"
)

func TestErrorResponse(t *testing.T) {
	cases := []struct {
		err    error
		status int
		msg    string
	}{
		{service.ErrInvalidCredentials, http.StatusUnauthorized, "Unauthorized"},
		{fmt.Errorf("wrapped: %w", service.ErrInvalidToken), http.StatusUnauthorized, "Unauthorized"},
		{service.ErrMissingToken, http.StatusUnauthorized, "Unauthorized"},
		{echo.ErrUnauthorized, http.StatusUnauthorized, "Unauthorized"},
		{service.ErrAlreadyExists, http.StatusConflict, "email already exists"},
		{repository.ErrConflict, http.StatusConflict, "already exists"},
		{repository.ErrNotFound, http.StatusNotFound, "not found"},
		{badRequest("invalid body"), http.StatusBadRequest, "invalid body"},
		{errors.New("dial tcp: connection refused"), http.StatusInternalServerError, "internal server error"},
	}
	for _, tc := range cases {
		status, body := errorResponse(tc.err)
		assert.Equal(t, tc.status, status, tc.err.Error())
		assert.Equal(t, tc.msg, body["error"], tc.err.Error())
	}
}

func TestErrorResponseInvalidInputKeepsDetail(t *testing.T) {
	status, body := errorResponse(fmt.Errorf("%w: score must be between 0 and 100", service.ErrInvalidInput))
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, body["error"], "score must be between 0 and 100")
}

func TestInternalErrorsDoNotLeak(t *testing.T) {
	e := newTestEcho()
	e.GET("/boom", func(echo.Context) error { return errors.New("secret dsn user:pass@db") })

	rec := send(e, http.MethodGet, "/boom", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "secret")
}
