package oauth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func stubUserInfo(t *testing.T, status int, body string) {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer dummy-access-token", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)

	orig := GoogleUserInfoEndpoint
	GoogleUserInfoEndpoint = srv.URL + "/oauth2/v3/userinfo"
	t.Cleanup(func() { GoogleUserInfoEndpoint = orig })
}

func TestGoogleFetchUserInfo(t *testing.T) {
	stubUserInfo(t, http.StatusOK, `{"sub":"123","name":"Test User","email":"test.user@example.com","email_verified":true}`)
	p := NewGoogleProvider("cid", "secret", "http://localhost/cb")

	info, err := p.FetchUserInfo(context.Background(), &oauth2.Token{AccessToken: "dummy-access-token"})
	require.NoError(t, err)
	assert.Equal(t, "123", info.Subject)
	assert.Equal(t, "test.user@example.com", info.Email)
	assert.True(t, info.EmailVerified)
	assert.Equal(t, "Test User", info.Name)
}

func TestGoogleFetchUserInfoWithoutEmail(t *testing.T) {
	stubUserInfo(t, http.StatusOK, `{"sub":"123"}`)
	p := NewGoogleProvider("cid", "secret", "http://localhost/cb")

	_, err := p.FetchUserInfo(context.Background(), &oauth2.Token{AccessToken: "dummy-access-token"})
	assert.ErrorIs(t, err, ErrNoEmail)
}

func TestGoogleFetchUserInfoError(t *testing.T) {
	stubUserInfo(t, http.StatusInternalServerError, `{"error":"boom"}`)
	p := NewGoogleProvider("cid", "secret", "http://localhost/cb")

	_, err := p.FetchUserInfo(context.Background(), &oauth2.Token{AccessToken: "dummy-access-token"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 500")
}

func TestGoogleAuthCodeURL(t *testing.T) {
	p := NewGoogleProvider("cid", "secret", "http://localhost/cb")

	u, err := url.Parse(p.AuthCodeURL("st4te"))
	require.NoError(t, err)
	assert.Equal(t, "accounts.google.com", u.Host)
	assert.Equal(t, "st4te", u.Query().Get("state"))
	assert.Equal(t, "cid", u.Query().Get("client_id"))
	assert.Equal(t, "http://localhost/cb", u.Query().Get("redirect_uri"))
	assert.Contains(t, u.Query().Get("scope"), "email")
}
