package model

import "time"

// Role names stored on credentials and carried in access tokens.
const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

// Auth providers recorded on credentials.
const (
	ProviderLocal  = "local"
	ProviderGoogle = "google"
)

// Credential represents an account row in the `users` table of the auth
// service.  The json tags are omitted because handlers render their own
// response types; the password hash must never leave the service.
//
// Fields:
//
//	ID           - UUID primary key, also the subject of access tokens.
//	Name         - display name supplied at registration (optional).
//	Email        - unique, lower-cased email address.
//	PasswordHash - bcrypt hash; empty for accounts provisioned through OAuth.
//	Role         - USER unless registration asked for another role.
//	Provider     - "local" or the OAuth provider that created the account.
//	CreatedAt    - timestamp of creation.
//	UpdatedAt    - timestamp of last update.
type Credential struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         string
	Provider     string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// HasPassword reports whether password login is possible for the account.
func (c Credential) HasPassword() bool { return c.PasswordHash != "" }

// RefreshToken models the single live row in `refresh_tokens` for a user.
// Only the SHA-256 hash of the opaque token is stored.
type RefreshToken struct {
	ID        string
	UserID    string
	TokenHash string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// ExpiredAt reports whether the token is no longer usable at now.  The
// expiry instant itself counts as expired.
func (t RefreshToken) ExpiredAt(now time.Time) bool { return !now.Before(t.ExpiresAt) }
