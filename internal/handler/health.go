package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// Health reports that the process is up.  It never touches a dependency.
func Health(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

// Ready pings every dependency and answers 503 naming the first that fails.
func Ready(checks map[string]func(context.Context) error) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
		defer cancel()
		for name, check := range checks {
			if err := check(ctx); err != nil {
				return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "dependency": name})
			}
		}
		return c.JSON(http.StatusOK, map[string]string{"status": "ready"})
	}
}
