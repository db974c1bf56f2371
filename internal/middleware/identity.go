package middleware

// identity.go holds the context keys shared by the gate, the profile
// identity middleware, the rate limiter and the response cache.

import (
	"github.com/labstack/echo/v4"

	"github.com/kashmau/track-fitness/internal/model"
)

const (
	ctxIdentity = "identity"
	ctxUserID   = "user_id"
	ctxRole     = "role"
)

// SetIdentity stores the authenticated caller on the echo context.
func SetIdentity(c echo.Context, id model.Identity) {
	c.Set(ctxIdentity, id)
	c.Set(ctxUserID, id.UserID)
	c.Set(ctxRole, id.Role)
}

// IdentityFrom returns the caller established earlier in the chain.
func IdentityFrom(c echo.Context) (model.Identity, bool) {
	id, ok := c.Get(ctxIdentity).(model.Identity)
	return id, ok && id.UserID != ""
}

// userID returns the caller's id, or "anon" when nobody is authenticated.
func userID(c echo.Context) string {
	if s, ok := c.Get(ctxUserID).(string); ok && s != "" {
		return s
	}
	return "anon"
}
