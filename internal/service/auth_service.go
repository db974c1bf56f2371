// Package service holds the business logic of both services: the session
// lifecycle of the auth service and the profile operations of the profile
// service.  Handlers stay thin and translate the sentinel errors below.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/kashmau/track-fitness/internal/model"
	q "github.com/kashmau/track-fitness/internal/queue"
	"github.com/kashmau/track-fitness/internal/repository"
	"github.com/kashmau/track-fitness/internal/utils"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrMissingToken       = errors.New("missing token")
	ErrAlreadyExists      = errors.New("email already registered")
	ErrInvalidInput       = errors.New("invalid input")
)

// CredentialStore is implemented by repository.CredentialRepo.
type CredentialStore interface {
	Create(ctx context.Context, c model.Credential) (model.Credential, error)
	GetByEmail(ctx context.Context, email string) (model.Credential, error)
	GetByID(ctx context.Context, id string) (model.Credential, error)
}

// RefreshTokenStore is implemented by repository.TokenRepo.  Rotate must
// leave exactly one row for the user even under concurrent calls.
type RefreshTokenStore interface {
	Rotate(ctx context.Context, userID, tokenHash string, exp time.Time) (model.RefreshToken, error)
	FindByHash(ctx context.Context, tokenHash string) (model.RefreshToken, error)
	DeleteByHash(ctx context.Context, tokenHash string) error
	DeleteForUser(ctx context.Context, userID string) error
}

// Session is the result of a successful login: the credential plus a fresh
// access token and the raw refresh token destined for the cookie.
type Session struct {
	Credential model.Credential
	Access     utils.AccessToken
	Refresh    utils.RefreshToken
}

// RegisterInput carries the registration request.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Role     string
}

// OAuthIdentity is what a provider asserted about the user.
type OAuthIdentity struct {
	Provider      string
	Email         string
	EmailVerified bool
	Name          string
}

// AuthService implements registration, password and OAuth login, refresh,
// logout and access token authentication.
type AuthService struct {
	Creds      CredentialStore
	Tokens     RefreshTokenStore
	Issuer     *utils.TokenIssuer
	Events     EventPublisher
	Log        zerolog.Logger
	BcryptCost int
	RefreshTTL time.Duration
	Now        func() time.Time
}

func NewAuthService(creds CredentialStore, tokens RefreshTokenStore, issuer *utils.TokenIssuer, bcryptCost int, refreshTTL time.Duration) *AuthService {
	return &AuthService{
		Creds:      creds,
		Tokens:     tokens,
		Issuer:     issuer,
		Events:     NoopPublisher{},
		Log:        zerolog.Nop(),
		BcryptCost: bcryptCost,
		RefreshTTL: refreshTTL,
		Now:        time.Now,
	}
}

// Register creates a local credential.  Role defaults to USER; only USER and
// ADMIN are accepted.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (model.Credential, error) {
	email := repository.NormalizeEmail(in.Email)
	if email == "" || !strings.Contains(email, "@") || in.Password == "" {
		return model.Credential{}, fmt.Errorf("%w: email and password are required", ErrInvalidInput)
	}
	role := strings.ToUpper(strings.TrimSpace(in.Role))
	switch role {
	case "":
		role = model.RoleUser
	case model.RoleUser, model.RoleAdmin:
	default:
		return model.Credential{}, fmt.Errorf("%w: unknown role %q", ErrInvalidInput, in.Role)
	}

	hash, err := utils.HashPassword(in.Password, s.BcryptCost)
	if err != nil {
		return model.Credential{}, fmt.Errorf("hash password: %w", err)
	}
	c, err := s.Creds.Create(ctx, model.Credential{
		Name:         strings.TrimSpace(in.Name),
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		Provider:     model.ProviderLocal,
	})
	if err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return model.Credential{}, ErrAlreadyExists
		}
		return model.Credential{}, err
	}
	s.publish(q.EventUserRegistered, c)
	return c, nil
}

// Login verifies the password and starts a session.  Unknown emails, wrong
// passwords and accounts without a password all yield ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, email, password string) (Session, error) {
	c, err := s.Creds.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return Session{}, ErrInvalidCredentials
		}
		return Session{}, err
	}
	if !c.HasPassword() || !utils.VerifyPassword(c.PasswordHash, password) {
		return Session{}, ErrInvalidCredentials
	}
	sess, err := s.startSession(ctx, c)
	if err != nil {
		return Session{}, err
	}
	s.publish(q.EventUserLoggedIn, c)
	return sess, nil
}

// OAuthLogin finds or provisions the credential for a provider-asserted
// email and starts a session.  created reports whether a credential was
// provisioned.  Provisioned accounts have no password hash.  Emails the
// provider has not verified are refused.
func (s *AuthService) OAuthLogin(ctx context.Context, id OAuthIdentity) (sess Session, created bool, err error) {
	email := repository.NormalizeEmail(id.Email)
	if email == "" {
		return Session{}, false, fmt.Errorf("%w: provider returned no email", ErrInvalidCredentials)
	}
	if !id.EmailVerified {
		return Session{}, false, fmt.Errorf("%w: provider email not verified", ErrInvalidCredentials)
	}

	c, err := s.Creds.GetByEmail(ctx, email)
	switch {
	case err == nil:
	case errors.Is(err, repository.ErrNotFound):
		c, err = s.Creds.Create(ctx, model.Credential{
			Name:     id.Name,
			Email:    email,
			Role:     model.RoleUser,
			Provider: id.Provider,
		})
		if errors.Is(err, repository.ErrEmailExists) {
			// a concurrent callback for the same email won the insert
			c, err = s.Creds.GetByEmail(ctx, email)
		} else if err == nil {
			created = true
		}
		if err != nil {
			return Session{}, false, err
		}
	default:
		return Session{}, false, err
	}

	sess, err = s.startSession(ctx, c)
	if err != nil {
		return Session{}, false, err
	}
	if created {
		s.publish(q.EventUserOAuthProvisioned, c)
	} else {
		s.publish(q.EventUserLoggedIn, c)
	}
	return sess, created, nil
}

// Refresh exchanges a raw refresh token for a new access token.  The refresh
// token itself is not rotated.
func (s *AuthService) Refresh(ctx context.Context, raw string) (utils.AccessToken, error) {
	if raw == "" {
		return utils.AccessToken{}, ErrMissingToken
	}
	rt, err := s.ValidateRefresh(ctx, raw)
	if err != nil {
		return utils.AccessToken{}, err
	}
	c, err := s.Creds.GetByID(ctx, rt.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return utils.AccessToken{}, ErrInvalidToken
		}
		return utils.AccessToken{}, err
	}
	return s.Issuer.Issue(c)
}

// ValidateRefresh returns the stored row for raw.  It fails with
// ErrInvalidToken when the token is unknown, superseded or expired.
func (s *AuthService) ValidateRefresh(ctx context.Context, raw string) (model.RefreshToken, error) {
	rt, err := s.Tokens.FindByHash(ctx, utils.HashRefreshRaw(raw))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.RefreshToken{}, ErrInvalidToken
		}
		return model.RefreshToken{}, err
	}
	if rt.ExpiredAt(s.Now()) {
		return model.RefreshToken{}, ErrInvalidToken
	}
	return rt, nil
}

// Logout forgets the refresh token, if any.  It is idempotent.
func (s *AuthService) Logout(ctx context.Context, raw string) error {
	if raw == "" {
		return nil
	}
	return s.Tokens.DeleteByHash(ctx, utils.HashRefreshRaw(raw))
}

// Authenticate verifies an access token and loads its credential.  A token
// whose email no longer matches the stored credential is rejected; the
// returned role is the stored one, not the one in the token.
func (s *AuthService) Authenticate(ctx context.Context, raw string) (model.Identity, error) {
	claims, err := s.Issuer.Verify(raw)
	if err != nil {
		return model.Identity{}, ErrInvalidToken
	}
	c, err := s.Creds.GetByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.Identity{}, ErrInvalidToken
		}
		return model.Identity{}, err
	}
	if repository.NormalizeEmail(claims.Email) != c.Email {
		return model.Identity{}, ErrInvalidToken
	}
	return model.Identity{UserID: c.ID, Email: c.Email, Role: c.Role}, nil
}

func (s *AuthService) startSession(ctx context.Context, c model.Credential) (Session, error) {
	access, err := s.Issuer.Issue(c)
	if err != nil {
		return Session{}, fmt.Errorf("issue access token: %w", err)
	}
	refresh, err := utils.NewRefreshToken(s.Now(), s.RefreshTTL)
	if err != nil {
		return Session{}, fmt.Errorf("generate refresh token: %w", err)
	}
	if _, err := s.Tokens.Rotate(ctx, c.ID, utils.HashRefreshRaw(refresh.Raw), refresh.Exp); err != nil {
		return Session{}, fmt.Errorf("store refresh token: %w", err)
	}
	return Session{Credential: c, Access: access, Refresh: refresh}, nil
}

// publish sends the event in the background; a broker outage only costs a
// warning.
func (s *AuthService) publish(typ string, c model.Credential) {
	ev := q.NewAuthEvent(typ, c.ID, c.Email, c.Name, c.Role, c.Provider, s.Now())
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.Events.Publish(ctx, ev); err != nil {
			s.Log.Warn().Err(err).Str("event", ev.Type).Str("user_id", ev.UserID).Msg("publish auth event failed")
		}
	}()
}

// LookupByEmail returns the credential for an email, for administrators.
func (s *AuthService) LookupByEmail(ctx context.Context, email string) (model.Credential, error) {
	return s.Creds.GetByEmail(ctx, email)
}

// RevokeSessions deletes the user's refresh token so no new access token can
// be minted for them.  Access tokens already issued stay valid until they
// expire.
func (s *AuthService) RevokeSessions(ctx context.Context, userID string) error {
	if _, err := s.Creds.GetByID(ctx, userID); err != nil {
		return err
	}
	if err := s.Tokens.DeleteForUser(ctx, userID); err != nil {
		return err
	}
	s.Log.Info().Str("user_id", userID).Msg("sessions revoked")
	return nil
}
