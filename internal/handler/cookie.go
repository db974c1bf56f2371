package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// RefreshCookieName is the cookie holding the raw refresh token.
const RefreshCookieName = "refreshToken"

// CookieSettings controls the refresh cookie.
type CookieSettings struct {
	Secure bool
	MaxAge time.Duration
}

func (s CookieSettings) set(c echo.Context, raw string) {
	c.SetCookie(&http.Cookie{
		Name:     RefreshCookieName,
		Value:    raw,
		Path:     "/",
		MaxAge:   int(s.MaxAge / time.Second),
		HttpOnly: true,
		Secure:   s.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// clear expires the cookie immediately (Max-Age=0).
func (s CookieSettings) clear(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     RefreshCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func refreshCookie(c echo.Context) string {
	ck, err := c.Cookie(RefreshCookieName)
	if err != nil {
		return ""
	}
	return ck.Value
}
