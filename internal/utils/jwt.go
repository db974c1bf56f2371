package utils // package utils provides helpers for token creation, verification and hashing

import (
	"crypto/rand"   // secure random number generation
	"crypto/sha256" // SHA-256 hashing for refresh tokens
	"encoding/hex"  // hex encoding of random bytes and digests
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5" // JWT library for signing and parsing tokens
	"github.com/google/uuid"

	"github.com/kashmau/track-fitness/internal/model"
)

var (
	// ErrInvalidToken covers bad signatures, malformed tokens and
	// unexpected signing algorithms.
	ErrInvalidToken = errors.New("invalid token")
	// ErrTokenExpired is returned for a well-signed token past its expiry.
	ErrTokenExpired = errors.New("token expired")
)

// AccessToken represents a signed JWT access token along with its expiry.
type AccessToken struct {
	Token string    // the serialized JWT string
	Exp   time.Time // the UTC expiration time
}

// RefreshToken represents an opaque long-lived token.  Raw is handed to the
// client in a cookie; only HashRefreshRaw(Raw) is persisted.
type RefreshToken struct {
	Raw string    // raw token string returned to the client
	Exp time.Time // UTC expiration time
}

// Claims is the payload of an access token.  The subject is the credential
// id; email and role ride alongside so handlers need no lookup.  Every token
// gets a fresh ID (jti) so two tokens minted in the same second differ.
type Claims struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and verifies HS256 access tokens with one shared secret.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenIssuer returns an issuer signing with secret and minting tokens
// that live for ttl.
func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// WithClock replaces the issuer's time source.  Both minting and expiry
// checks use it.
func (i *TokenIssuer) WithClock(now func() time.Time) *TokenIssuer {
	i.now = now
	return i
}

// Issue mints an access token for the credential.  The subject is the
// credential id; the email and role claims are copied from the credential.
func (i *TokenIssuer) Issue(c model.Credential) (AccessToken, error) {
	now := i.now().UTC()
	exp := now.Add(i.ttl)
	claims := Claims{
		UserID: c.ID,
		Email:  c.Email,
		Role:   c.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   c.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return AccessToken{}, err
	}
	// exp is carried at second precision inside the token
	return AccessToken{Token: signed, Exp: exp.Truncate(time.Second)}, nil
}

// Verify parses raw and checks its signature and expiry.  A token is expired
// from its expiry instant onwards.
func (i *TokenIssuer) Verify(raw string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims,
		func(*jwt.Token) (any, error) { return i.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	switch {
	case err == nil:
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, ErrTokenExpired
	default:
		return nil, ErrInvalidToken
	}
	if claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// ExtractSubject verifies raw and returns its subject (the credential id).
func (i *TokenIssuer) ExtractSubject(raw string) (string, error) {
	c, err := i.Verify(raw)
	if err != nil {
		return "", err
	}
	return c.Subject, nil
}

// ExtractEmail verifies raw and returns its email claim.
func (i *TokenIssuer) ExtractEmail(raw string) (string, error) {
	c, err := i.Verify(raw)
	if err != nil {
		return "", err
	}
	return c.Email, nil
}

// ExtractRole verifies raw and returns its role claim.
func (i *TokenIssuer) ExtractRole(raw string) (string, error) {
	c, err := i.Verify(raw)
	if err != nil {
		return "", err
	}
	return c.Role, nil
}

// NewRefreshToken returns a cryptographically random token that expires ttl
// after now.
func NewRefreshToken(now time.Time, ttl time.Duration) (RefreshToken, error) {
	raw, err := randomHex(48) // 48 bytes -> 96 hex chars
	if err != nil {
		return RefreshToken{}, err
	}
	return RefreshToken{Raw: raw, Exp: now.UTC().Add(ttl)}, nil
}

// HashRefreshRaw returns the hex SHA-256 of a raw refresh token.  Only this
// hash is stored, so a leaked table cannot be replayed.
func HashRefreshRaw(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

func randomHex(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
