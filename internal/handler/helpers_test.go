package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/kashmau/track-fitness/internal/model"
	"github.com/kashmau/track-fitness/internal/repository"
	"github.com/kashmau/track-fitness/internal/service"
	"github.com/kashmau/track-fitness/internal/utils"
)

type memCredentials struct {
	mu   sync.Mutex
	rows map[string]model.Credential // by email
}

func (m *memCredentials) Create(_ context.Context, c model.Credential) (model.Credential, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c.Email = repository.NormalizeEmail(c.Email)
	if _, ok := m.rows[c.Email]; ok {
		return model.Credential{}, repository.ErrEmailExists
	}
	c.ID = uuid.NewString()
	c.CreatedAt = time.Now().UTC()
	m.rows[c.Email] = c
	return c, nil
}

func (m *memCredentials) GetByEmail(_ context.Context, email string) (model.Credential, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.rows[repository.NormalizeEmail(email)]; ok {
		return c, nil
	}
	return model.Credential{}, repository.ErrNotFound
}

func (m *memCredentials) GetByID(_ context.Context, id string) (model.Credential, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.rows {
		if c.ID == id {
			return c, nil
		}
	}
	return model.Credential{}, repository.ErrNotFound
}

type memTokens struct {
	mu     sync.Mutex
	byUser map[string]model.RefreshToken
}

func (m *memTokens) Rotate(_ context.Context, userID, hash string, exp time.Time) (model.RefreshToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rt := model.RefreshToken{UserID: userID, TokenHash: hash, ExpiresAt: exp}
	m.byUser[userID] = rt
	return rt, nil
}

func (m *memTokens) FindByHash(_ context.Context, hash string) (model.RefreshToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, rt := range m.byUser {
		if rt.TokenHash == hash {
			return rt, nil
		}
	}
	return model.RefreshToken{}, repository.ErrNotFound
}

func (m *memTokens) DeleteByHash(_ context.Context, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for u, rt := range m.byUser {
		if rt.TokenHash == hash {
			delete(m.byUser, u)
		}
	}
	return nil
}

func (m *memTokens) DeleteForUser(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.byUser, userID)
	return nil
}

func newTestAuthService() (*service.AuthService, *memCredentials) {
	creds := &memCredentials{rows: map[string]model.Credential{}}
	tokens := &memTokens{byUser: map[string]model.RefreshToken{}}
	issuer := utils.NewTokenIssuer("handler-secret", 15*time.Minute)
	return service.NewAuthService(creds, tokens, issuer, bcrypt.MinCost, 7*24*time.Hour), creds
}

func newTestEcho() *echo.Echo {
	e := echo.New()
	e.HTTPErrorHandler = ErrorHandler(zerolog.Nop())
	return e
}

func send(e *echo.Echo, method, path, body string, mods ...func(*http.Request)) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	for _, m := range mods {
		m(req)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func withCookie(ck *http.Cookie) func(*http.Request) {
	return func(r *http.Request) { r.AddCookie(ck) }
}

func withBearer(tok string) func(*http.Request) {
	return func(r *http.Request) { r.Header.Set(echo.HeaderAuthorization, "Bearer "+tok) }
}

func withHeader(k, v string) func(*http.Request) {
	return func(r *http.Request) { r.Header.Set(k, v) }
}

func findCookie(t *testing.T, rec *httptest.ResponseRecorder, name string) *http.Cookie {
	t.Helper()
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == name {
			return ck
		}
	}
	return nil
}
