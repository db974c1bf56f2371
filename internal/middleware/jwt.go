package middleware // middleware provides the request pipeline shared by both services

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/kashmau/track-fitness/internal/model"
	"github.com/kashmau/track-fitness/internal/service"
)

// Authenticator turns a raw bearer token into an identity.  It returns
// service.ErrInvalidToken for any token that should simply be ignored.
type Authenticator interface {
	Authenticate(ctx context.Context, raw string) (model.Identity, error)
}

// unauthorized is the only body authentication failures ever produce.
var unauthorized = map[string]string{"error": "Unauthorized"}

// Gate establishes the caller's identity from the Authorization header.
//
// Public paths pass straight through.  Requests without a bearer token, or
// with one the authenticator rejects, continue unauthenticated; RequireAuth
// on the route decides whether that is acceptable.  An identity already on
// the context is never replaced, so mounting Gate twice is harmless.
func Gate(auth Authenticator, public []string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if IsPublic(c.Request().URL.Path, public) {
				return next(c)
			}
			if _, ok := IdentityFrom(c); ok {
				return next(c)
			}
			raw, ok := bearerToken(c.Request())
			if !ok {
				return next(c)
			}
			id, err := auth.Authenticate(c.Request().Context(), raw)
			switch {
			case err == nil:
				SetIdentity(c, id)
			case errors.Is(err, service.ErrInvalidToken):
				zerolog.Ctx(c.Request().Context()).Debug().Msg("gate: ignoring invalid bearer token")
			default:
				return err
			}
			return next(c)
		}
	}
}

// RequireAuth rejects requests that reached a protected route without an
// identity.  It answers 401 with a JSON body, never a redirect.
func RequireAuth() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if _, ok := IdentityFrom(c); !ok {
				return c.JSON(http.StatusUnauthorized, unauthorized)
			}
			return next(c)
		}
	}
}

// IsPublic reports whether path is on the allow-list.  Entries ending in "/"
// match as prefixes, all others must match exactly.
func IsPublic(path string, public []string) bool {
	for _, p := range public {
		if strings.HasSuffix(p, "/") {
			if strings.HasPrefix(path, p) {
				return true
			}
			continue
		}
		if path == p {
			return true
		}
	}
	return false
}

func bearerToken(r *http.Request) (string, bool) {
	auth := r.Header.Get(echo.HeaderAuthorization)
	if len(auth) < 7 || !strings.EqualFold(auth[:7], "Bearer ") {
		return "", false
	}
	raw := strings.TrimSpace(auth[7:])
	return raw, raw != ""
}
