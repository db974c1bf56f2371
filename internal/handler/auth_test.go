package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kashmau/track-fitness/internal/middleware"
	"github.com/kashmau/track-fitness/internal/model"
)

func newAuthEcho(t *testing.T) (*echo.Echo, *memCredentials) {
	t.Helper()
	svc, creds := newTestAuthService()
	h := NewAuthHandler(svc, CookieSettings{MaxAge: 7 * 24 * time.Hour})
	e := newTestEcho()
	e.Use(middleware.Gate(svc, []string{"/register", "/loginUser", "/refresh", "/logout"}))
	e.POST("/register", h.Register)
	e.POST("/loginUser", h.Login)
	e.POST("/refresh", h.Refresh)
	e.POST("/logout", h.Logout)
	e.GET("/me", h.Me, middleware.RequireAuth())
	e.GET("/admin/users", h.LookupUser, middleware.RequireAuth(), middleware.RequireRole(model.RoleAdmin))
	e.DELETE("/admin/users/:id/sessions", h.RevokeSessions, middleware.RequireAuth(), middleware.RequireRole(model.RoleAdmin))
	return e, creds
}

func login(t *testing.T, e *echo.Echo, email, password string) (accessResp, *http.Cookie) {
	t.Helper()
	rec := send(e, http.MethodPost, "/loginUser", `{"email":"`+email+`","password":"`+password+`"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var body accessResp
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body, findCookie(t, rec, RefreshCookieName)
}

func TestRegisterEndpoint(t *testing.T) {
	e, _ := newAuthEcho(t)

	rec := send(e, http.MethodPost, "/register", `{"name":"Ada","email":"a@x.com","password":"pw"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "a@x.com", body["email"])
	assert.Equal(t, "USER", body["role"])
	assert.NotContains(t, rec.Body.String(), "password")

	dup := send(e, http.MethodPost, "/register", `{"email":"a@x.com","password":"pw"}`)
	assert.Equal(t, http.StatusConflict, dup.Code)

	bad := send(e, http.MethodPost, "/register", `{"email":"a@x.com"}`)
	assert.Equal(t, http.StatusBadRequest, bad.Code)
}

func TestLoginSetsRefreshCookie(t *testing.T) {
	e, _ := newAuthEcho(t)
	send(e, http.MethodPost, "/register", `{"email":"a@x.com","password":"pw"}`)

	body, ck := login(t, e, "a@x.com", "pw")
	assert.NotEmpty(t, body.AccessToken)
	require.NotNil(t, ck)
	assert.True(t, ck.HttpOnly)
	assert.Equal(t, "/", ck.Path)
	assert.Equal(t, 7*24*60*60, ck.MaxAge)
	assert.Len(t, ck.Value, 96)
}

func TestLoginWrongPasswordIsUnauthorized(t *testing.T) {
	e, _ := newAuthEcho(t)
	send(e, http.MethodPost, "/register", `{"email":"a@x.com","password":"pw"}`)

	rec := send(e, http.MethodPost, "/loginUser", `{"email":"a@x.com","password":"nope"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"error":"Unauthorized"}`, rec.Body.String())
	assert.Nil(t, findCookie(t, rec, RefreshCookieName))
}

func TestRefreshAndLogout(t *testing.T) {
	e, _ := newAuthEcho(t)
	send(e, http.MethodPost, "/register", `{"email":"a@x.com","password":"pw"}`)
	first, ck := login(t, e, "a@x.com", "pw")

	rec := send(e, http.MethodPost, "/refresh", "", withCookie(ck))
	require.Equal(t, http.StatusOK, rec.Code)
	var refreshed accessResp
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &refreshed))
	assert.NotEqual(t, first.AccessToken, refreshed.AccessToken)

	missing := send(e, http.MethodPost, "/refresh", "")
	assert.Equal(t, http.StatusUnauthorized, missing.Code)
	assert.JSONEq(t, `{"error":"Unauthorized"}`, missing.Body.String())

	out := send(e, http.MethodPost, "/logout", "", withCookie(ck))
	assert.Equal(t, http.StatusOK, out.Code)
	cleared := findCookie(t, out, RefreshCookieName)
	require.NotNil(t, cleared)
	assert.Empty(t, cleared.Value)
	assert.Less(t, cleared.MaxAge, 0) // serialized as Max-Age=0
	assert.Empty(t, out.Header().Get(echo.HeaderLocation))

	after := send(e, http.MethodPost, "/refresh", "", withCookie(ck))
	assert.Equal(t, http.StatusUnauthorized, after.Code)
}

func TestLogoutWithoutCookie(t *testing.T) {
	e, _ := newAuthEcho(t)

	assert.Equal(t, http.StatusOK, send(e, http.MethodPost, "/logout", "").Code)
}

func TestMeAndAdminLookup(t *testing.T) {
	e, creds := newAuthEcho(t)
	send(e, http.MethodPost, "/register", `{"email":"a@x.com","password":"pw"}`)
	send(e, http.MethodPost, "/register", `{"email":"root@x.com","password":"pw","role":"ADMIN"}`)
	user, _ := login(t, e, "a@x.com", "pw")
	admin, _ := login(t, e, "root@x.com", "pw")

	assert.Equal(t, http.StatusUnauthorized, send(e, http.MethodGet, "/me", "").Code)

	rec := send(e, http.MethodGet, "/me", "", withBearer(user.AccessToken))
	require.Equal(t, http.StatusOK, rec.Code)
	stored, err := creds.GetByEmail(context.Background(), "a@x.com")
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"`+stored.ID+`","email":"a@x.com","role":"USER"}`, rec.Body.String())

	assert.Equal(t, http.StatusForbidden, send(e, http.MethodGet, "/admin/users?email=a@x.com", "", withBearer(user.AccessToken)).Code)
	found := send(e, http.MethodGet, "/admin/users?email=a@x.com", "", withBearer(admin.AccessToken))
	assert.Equal(t, http.StatusOK, found.Code)
	assert.Contains(t, found.Body.String(), stored.ID)
	assert.Equal(t, http.StatusNotFound, send(e, http.MethodGet, "/admin/users?email=z@x.com", "", withBearer(admin.AccessToken)).Code)
}

func TestAdminRevokesSessions(t *testing.T) {
	e, creds := newAuthEcho(t)
	send(e, http.MethodPost, "/register", `{"email":"a@x.com","password":"pw"}`)
	send(e, http.MethodPost, "/register", `{"email":"root@x.com","password":"pw","role":"ADMIN"}`)
	user, ck := login(t, e, "a@x.com", "pw")
	admin, _ := login(t, e, "root@x.com", "pw")
	victim, err := creds.GetByEmail(context.Background(), "a@x.com")
	require.NoError(t, err)
	path := "/admin/users/" + victim.ID + "/sessions"

	assert.Equal(t, http.StatusForbidden, send(e, http.MethodDelete, path, "", withBearer(user.AccessToken)).Code)
	require.Equal(t, http.StatusOK, send(e, http.MethodPost, "/refresh", "", withCookie(ck)).Code)

	assert.Equal(t, http.StatusNoContent, send(e, http.MethodDelete, path, "", withBearer(admin.AccessToken)).Code)
	assert.Equal(t, http.StatusUnauthorized, send(e, http.MethodPost, "/refresh", "", withCookie(ck)).Code)

	assert.Equal(t, http.StatusNotFound, send(e, http.MethodDelete, "/admin/users/missing/sessions", "", withBearer(admin.AccessToken)).Code)
}
