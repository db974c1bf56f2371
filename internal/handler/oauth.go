package handler

import (
	"net/http"
	"net/url"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/kashmau/track-fitness/internal/oauth"
	"github.com/kashmau/track-fitness/internal/service"
)

// OAuthHandler runs the authorization code flow and bridges the provider's
// identity into a local session.
type OAuthHandler struct {
	Svc         *service.AuthService
	Providers   map[string]oauth.Provider
	States      oauth.StateStore
	StateTTL    time.Duration
	FrontendURL string
	Cookie      CookieSettings
}

// Start: GET /oauth2/authorization/:provider redirects to the consent page.
func (h *OAuthHandler) Start(c echo.Context) error {
	p, ok := h.Providers[c.Param("provider")]
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "unknown provider")
	}
	state, err := oauth.NewState()
	if err != nil {
		return err
	}
	if err := h.States.Save(c.Request().Context(), state, h.StateTTL); err != nil {
		return err
	}
	return c.Redirect(http.StatusFound, p.AuthCodeURL(state))
}

// Callback: GET /login/oauth2/code/:provider.  On success the refresh token
// is set as a cookie and the browser is sent to the frontend with the access
// token in the token query parameter, which is where the frontend reads it.
func (h *OAuthHandler) Callback(c echo.Context) error {
	p, ok := h.Providers[c.Param("provider")]
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "unknown provider")
	}
	ctx := c.Request().Context()
	log := zerolog.Ctx(ctx).With().Str("provider", p.Name()).Logger()

	if e := c.QueryParam("error"); e != "" {
		log.Info().Str("oauth_error", e).Msg("provider denied authorization")
		return echo.ErrUnauthorized
	}
	valid, err := h.States.Consume(ctx, c.QueryParam("state"))
	if err != nil {
		return err
	}
	if !valid {
		log.Warn().Msg("oauth callback with unknown state")
		return echo.ErrUnauthorized
	}

	tok, err := p.Exchange(ctx, c.QueryParam("code"))
	if err != nil {
		log.Warn().Err(err).Msg("oauth code exchange failed")
		return echo.ErrUnauthorized
	}
	info, err := p.FetchUserInfo(ctx, tok)
	if err != nil {
		log.Warn().Err(err).Msg("oauth user info failed")
		return echo.ErrUnauthorized
	}

	sess, created, err := h.Svc.OAuthLogin(ctx, service.OAuthIdentity{
		Provider:      p.Name(),
		Email:         info.Email,
		EmailVerified: info.EmailVerified,
		Name:          info.Name,
	})
	if err != nil {
		return err
	}
	log.Info().Str("user_id", sess.Credential.ID).Bool("provisioned", created).Msg("oauth login")

	target, err := url.Parse(h.FrontendURL)
	if err != nil {
		return err
	}
	q := target.Query()
	q.Set("token", sess.Access.Token)
	target.RawQuery = q.Encode()

	h.Cookie.set(c, sess.Refresh.Raw)
	return c.Redirect(http.StatusFound, target.String())
}
