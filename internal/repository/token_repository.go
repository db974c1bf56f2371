package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/kashmau/track-fitness/internal/model"
)

// TokenRepo persists refresh tokens (hash only, one row per user).
type TokenRepo struct{ DB *sql.DB }

func NewTokenRepo(db *sql.DB) *TokenRepo { return &TokenRepo{DB: db} }

// Rotate replaces whatever refresh token the user holds with tokenHash.  The
// delete and insert run in one transaction; the upsert clause covers a
// concurrent rotation that inserted between our delete and insert, so the
// last committed rotation wins and exactly one row remains.
func (r *TokenRepo) Rotate(ctx context.Context, userID, tokenHash string, exp time.Time) (model.RefreshToken, error) {
	rt := model.RefreshToken{
		ID:        uuid.NewString(),
		UserID:    userID,
		TokenHash: tokenHash,
		ExpiresAt: exp.UTC(),
		CreatedAt: time.Now().UTC().Truncate(time.Second),
	}

	tx, err := r.DB.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return model.RefreshToken{}, err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DELETE FROM refresh_tokens WHERE user_id=?", userID); err != nil {
		return model.RefreshToken{}, err
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO refresh_tokens (id, user_id, token_hash, expires_at, created_at) VALUES (?,?,?,?,?)
		 ON DUPLICATE KEY UPDATE id=VALUES(id), token_hash=VALUES(token_hash), expires_at=VALUES(expires_at), created_at=VALUES(created_at)`,
		rt.ID, rt.UserID, rt.TokenHash, rt.ExpiresAt, rt.CreatedAt)
	if err != nil {
		return model.RefreshToken{}, err
	}
	if err := tx.Commit(); err != nil {
		return model.RefreshToken{}, err
	}
	return rt, nil
}

// FindByHash returns the row with the given token hash.  Expiry is not
// checked here; callers decide with RefreshToken.ExpiredAt.
func (r *TokenRepo) FindByHash(ctx context.Context, tokenHash string) (model.RefreshToken, error) {
	var rt model.RefreshToken
	err := r.DB.QueryRowContext(ctx,
		"SELECT id, user_id, token_hash, expires_at, created_at FROM refresh_tokens WHERE token_hash=? LIMIT 1",
		tokenHash).Scan(&rt.ID, &rt.UserID, &rt.TokenHash, &rt.ExpiresAt, &rt.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.RefreshToken{}, ErrNotFound
		}
		return model.RefreshToken{}, err
	}
	return rt, nil
}

// DeleteByHash removes a single token.  Deleting an unknown hash is not an error.
func (r *TokenRepo) DeleteByHash(ctx context.Context, tokenHash string) error {
	_, err := r.DB.ExecContext(ctx, "DELETE FROM refresh_tokens WHERE token_hash=?", tokenHash)
	return err
}

// DeleteForUser removes the user's token, ending every session.
func (r *TokenRepo) DeleteForUser(ctx context.Context, userID string) error {
	_, err := r.DB.ExecContext(ctx, "DELETE FROM refresh_tokens WHERE user_id=?", userID)
	return err
}
