package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/kashmau/track-fitness/internal/model"
	"github.com/kashmau/track-fitness/internal/utils"
)

// HeaderUserID carries the caller's id from an upstream gateway.
const HeaderUserID = "X-User-Id"

// Identity modes of the profile service.
const (
	IdentityModeToken  = "token"
	IdentityModeHeader = "header"
)

// ProfileIdentity establishes who is calling the profile service.
//
// In token mode the bearer token is verified with the shared signing key
// and an X-User-Id header, when sent, must name the same user.  In header
// mode X-User-Id is trusted as is; only use it behind a gateway that sets
// the header itself.
func ProfileIdentity(mode string, issuer *utils.TokenIssuer) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := strings.TrimSpace(c.Request().Header.Get(HeaderUserID))

			if mode == IdentityModeHeader {
				if header == "" {
					return c.JSON(http.StatusUnauthorized, unauthorized)
				}
				SetIdentity(c, model.Identity{UserID: header})
				return next(c)
			}

			raw, ok := bearerToken(c.Request())
			if !ok {
				return c.JSON(http.StatusUnauthorized, unauthorized)
			}
			claims, err := issuer.Verify(raw)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, unauthorized)
			}
			if header != "" && header != claims.Subject {
				return c.JSON(http.StatusUnauthorized, unauthorized)
			}
			SetIdentity(c, model.Identity{UserID: claims.Subject, Email: claims.Email, Role: claims.Role})
			return next(c)
		}
	}
}
