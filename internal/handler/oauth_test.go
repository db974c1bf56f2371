package handler

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/kashmau/track-fitness/internal/model"
	"github.com/kashmau/track-fitness/internal/oauth"
	"github.com/kashmau/track-fitness/internal/service"
)

type stubProvider struct {
	email      string
	unverified bool
}

func (p *stubProvider) Name() string { return model.ProviderGoogle }

func (p *stubProvider) AuthCodeURL(state string) string {
	return "https://idp.example.com/auth?state=" + url.QueryEscape(state)
}

func (p *stubProvider) Exchange(_ context.Context, code string) (*oauth2.Token, error) {
	if code != "good-code" {
		return nil, errors.New("bad code")
	}
	return &oauth2.Token{AccessToken: "idp-token"}, nil
}

func (p *stubProvider) FetchUserInfo(context.Context, *oauth2.Token) (oauth.UserInfo, error) {
	if p.email == "" {
		return oauth.UserInfo{}, oauth.ErrNoEmail
	}
	return oauth.UserInfo{Email: p.email, EmailVerified: !p.unverified, Name: "New User"}, nil
}

func newOAuthEcho(t *testing.T, email string) (*echo.Echo, *memCredentials) {
	t.Helper()
	svc, creds := newTestAuthService()
	return mountOAuth(t, svc, creds, &stubProvider{email: email})
}

func mountOAuth(t *testing.T, svc *service.AuthService, creds *memCredentials, p oauth.Provider) (*echo.Echo, *memCredentials) {
	t.Helper()
	states := oauth.NewMemoryStateStore(time.Minute)
	t.Cleanup(states.Stop)
	h := &OAuthHandler{
		Svc:         svc,
		Providers:   map[string]oauth.Provider{"google": p},
		States:      states,
		StateTTL:    time.Minute,
		FrontendURL: "http://localhost:5173/login/success",
		Cookie:      CookieSettings{MaxAge: 7 * 24 * time.Hour},
	}
	e := newTestEcho()
	e.GET("/oauth2/authorization/:provider", h.Start)
	e.GET("/login/oauth2/code/:provider", h.Callback)
	return e, creds
}

func startFlow(t *testing.T, e *echo.Echo) string {
	t.Helper()
	rec := send(e, http.MethodGet, "/oauth2/authorization/google", "")
	require.Equal(t, http.StatusFound, rec.Code)
	loc, err := url.Parse(rec.Header().Get(echo.HeaderLocation))
	require.NoError(t, err)
	state := loc.Query().Get("state")
	require.NotEmpty(t, state)
	return state
}

func TestOAuthCallbackProvisionsAndRedirects(t *testing.T) {
	e, creds := newOAuthEcho(t, "new@x.com")
	state := startFlow(t, e)

	rec := send(e, http.MethodGet, "/login/oauth2/code/google?code=good-code&state="+url.QueryEscape(state), "")
	require.Equal(t, http.StatusFound, rec.Code)

	loc, err := url.Parse(rec.Header().Get(echo.HeaderLocation))
	require.NoError(t, err)
	assert.Equal(t, "localhost:5173", loc.Host)
	assert.Equal(t, "/login/success", loc.Path)
	assert.NotEmpty(t, loc.Query().Get("token"))

	ck := findCookie(t, rec, RefreshCookieName)
	require.NotNil(t, ck)
	assert.True(t, ck.HttpOnly)

	c, err := creds.GetByEmail(context.Background(), "new@x.com")
	require.NoError(t, err)
	assert.Equal(t, model.RoleUser, c.Role)
	assert.Equal(t, model.ProviderGoogle, c.Provider)
	assert.False(t, c.HasPassword())
	assert.Len(t, creds.rows, 1)
}

func TestOAuthCallbackRejectsReplayedState(t *testing.T) {
	e, _ := newOAuthEcho(t, "new@x.com")
	state := startFlow(t, e)
	path := "/login/oauth2/code/google?code=good-code&state=" + url.QueryEscape(state)

	require.Equal(t, http.StatusFound, send(e, http.MethodGet, path, "").Code)
	replay := send(e, http.MethodGet, path, "")
	assert.Equal(t, http.StatusUnauthorized, replay.Code)
	assert.JSONEq(t, `{"error":"Unauthorized"}`, replay.Body.String())
}

func TestOAuthCallbackFailures(t *testing.T) {
	e, creds := newOAuthEcho(t, "new@x.com")

	assert.Equal(t, http.StatusUnauthorized, send(e, http.MethodGet, "/login/oauth2/code/google?code=good-code&state=forged", "").Code)

	state := startFlow(t, e)
	assert.Equal(t, http.StatusUnauthorized, send(e, http.MethodGet, "/login/oauth2/code/google?code=bad&state="+state, "").Code)

	denied := startFlow(t, e)
	assert.Equal(t, http.StatusUnauthorized, send(e, http.MethodGet, "/login/oauth2/code/google?error=access_denied&state="+denied, "").Code)

	assert.Equal(t, http.StatusNotFound, send(e, http.MethodGet, "/oauth2/authorization/myspace", "").Code)
	assert.Empty(t, creds.rows)
}

func TestOAuthCallbackWithoutEmail(t *testing.T) {
	e, creds := newOAuthEcho(t, "")
	state := startFlow(t, e)

	rec := send(e, http.MethodGet, "/login/oauth2/code/google?code=good-code&state="+state, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, creds.rows)
}

func TestOAuthCallbackRejectsUnverifiedEmailOfExistingAccount(t *testing.T) {
	svc, creds := newTestAuthService()
	admin, err := svc.Register(context.Background(), service.RegisterInput{Email: "victim@x.com", Password: "pw", Role: model.RoleAdmin})
	require.NoError(t, err)
	e, _ := mountOAuth(t, svc, creds, &stubProvider{email: "victim@x.com", unverified: true})
	state := startFlow(t, e)

	rec := send(e, http.MethodGet, "/login/oauth2/code/google?code=good-code&state="+url.QueryEscape(state), "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"error":"Unauthorized"}`, rec.Body.String())
	assert.Empty(t, rec.Header().Get(echo.HeaderLocation))
	assert.Nil(t, findCookie(t, rec, RefreshCookieName))

	got, err := creds.GetByEmail(context.Background(), "victim@x.com")
	require.NoError(t, err)
	assert.Equal(t, admin.ID, got.ID)
	assert.Len(t, creds.rows, 1)
}
