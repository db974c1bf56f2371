package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/kashmau/track-fitness/internal/middleware"
	"github.com/kashmau/track-fitness/internal/model"
	"github.com/kashmau/track-fitness/internal/service"
)

// AuthHandler serves registration, login, refresh and logout.
type AuthHandler struct {
	Svc    *service.AuthService
	Cookie CookieSettings
}

func NewAuthHandler(svc *service.AuthService, cookie CookieSettings) *AuthHandler {
	return &AuthHandler{Svc: svc, Cookie: cookie}
}

// ----- DTOs -----

type registerReq struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// credentialResp never includes the password hash.
type credentialResp struct {
	ID        string    `json:"id"`
	Name      string    `json:"name,omitempty"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	Provider  string    `json:"provider"`
	CreatedAt time.Time `json:"createdAt"`
}

func toCredentialResp(c model.Credential) credentialResp {
	return credentialResp{ID: c.ID, Name: c.Name, Email: c.Email, Role: c.Role, Provider: c.Provider, CreatedAt: c.CreatedAt}
}

type accessResp struct {
	AccessToken string    `json:"accessToken"`
	ExpiresAt   time.Time `json:"expiresAt"`
}

func requestCtx(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), 5*time.Second)
}

// Register: POST /register -> 201 with the stored credential.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return badRequest("invalid body")
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	cred, err := h.Svc.Register(ctx, service.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, toCredentialResp(cred))
}

// Login: POST /loginUser -> access token in the body, refresh token in an
// HttpOnly cookie.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return badRequest("invalid body")
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		return badRequest("email/password required")
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	sess, err := h.Svc.Login(ctx, req.Email, req.Password)
	if err != nil {
		return err
	}
	h.Cookie.set(c, sess.Refresh.Raw)
	return c.JSON(http.StatusOK, accessResp{AccessToken: sess.Access.Token, ExpiresAt: sess.Access.Exp})
}

// Refresh: POST /refresh -> a new access token for the refresh cookie.  The
// cookie itself is left as is.
func (h *AuthHandler) Refresh(c echo.Context) error {
	ctx, cancel := requestCtx(c)
	defer cancel()

	access, err := h.Svc.Refresh(ctx, refreshCookie(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, accessResp{AccessToken: access.Token, ExpiresAt: access.Exp})
}

// Logout: POST /logout forgets the refresh token and clears the cookie.  It
// always succeeds and never redirects.
func (h *AuthHandler) Logout(c echo.Context) error {
	ctx, cancel := requestCtx(c)
	defer cancel()

	if err := h.Svc.Logout(ctx, refreshCookie(c)); err != nil {
		return err
	}
	h.Cookie.clear(c)
	return c.JSON(http.StatusOK, map[string]string{"message": "logged out"})
}

// Me: GET /me returns the identity the gate established.
func (h *AuthHandler) Me(c echo.Context) error {
	id, ok := middleware.IdentityFrom(c)
	if !ok {
		return echo.ErrUnauthorized
	}
	return c.JSON(http.StatusOK, map[string]string{"id": id.UserID, "email": id.Email, "role": id.Role})
}

// LookupUser: GET /admin/users?email= (ADMIN only).
func (h *AuthHandler) LookupUser(c echo.Context) error {
	email := c.QueryParam("email")
	if email == "" {
		return badRequest("email required")
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	cred, err := h.Svc.LookupByEmail(ctx, email)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toCredentialResp(cred))
}

// RevokeSessions: DELETE /admin/users/:id/sessions (ADMIN only).
func (h *AuthHandler) RevokeSessions(c echo.Context) error {
	ctx, cancel := requestCtx(c)
	defer cancel()

	if err := h.Svc.RevokeSessions(ctx, c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
