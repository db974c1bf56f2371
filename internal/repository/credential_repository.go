package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kashmau/track-fitness/internal/model"
)

// CredentialRepo reads and writes the `users` table.
type CredentialRepo struct{ DB *sql.DB }

func NewCredentialRepo(db *sql.DB) *CredentialRepo { return &CredentialRepo{DB: db} }

const credentialColumns = "id,name,email,password_hash,role,provider,created_at,updated_at"

// Create inserts a credential and returns the stored row.  The email is
// normalized; an empty passwordHash is stored as NULL.
func (r *CredentialRepo) Create(ctx context.Context, c model.Credential) (model.Credential, error) {
	now := time.Now().UTC().Truncate(time.Second)
	c.ID = uuid.NewString()
	c.Email = NormalizeEmail(c.Email)
	if c.Role == "" {
		c.Role = model.RoleUser
	}
	if c.Provider == "" {
		c.Provider = model.ProviderLocal
	}
	c.CreatedAt, c.UpdatedAt = now, now

	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (id, name, email, password_hash, role, provider, created_at, updated_at) VALUES (?,?,?,?,?,?,?,?)",
		c.ID, nullString(c.Name), c.Email, nullString(c.PasswordHash), c.Role, c.Provider, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		if isDuplicateKey(err) {
			return model.Credential{}, ErrEmailExists
		}
		return model.Credential{}, err
	}
	return c, nil
}

// GetByEmail fetches a credential by normalized email.
func (r *CredentialRepo) GetByEmail(ctx context.Context, email string) (model.Credential, error) {
	row := r.DB.QueryRowContext(ctx,
		"SELECT "+credentialColumns+" FROM users WHERE email=? LIMIT 1", NormalizeEmail(email))
	return scanCredential(row)
}

// GetByID fetches a credential by id.
func (r *CredentialRepo) GetByID(ctx context.Context, id string) (model.Credential, error) {
	row := r.DB.QueryRowContext(ctx,
		"SELECT "+credentialColumns+" FROM users WHERE id=? LIMIT 1", id)
	return scanCredential(row)
}

func scanCredential(row *sql.Row) (model.Credential, error) {
	var (
		c          model.Credential
		name, hash sql.NullString
	)
	err := row.Scan(&c.ID, &name, &c.Email, &hash, &c.Role, &c.Provider, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Credential{}, ErrNotFound
		}
		return model.Credential{}, err
	}
	c.Name = name.String
	c.PasswordHash = hash.String
	return c, nil
}

// NormalizeEmail lower-cases and trims an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
