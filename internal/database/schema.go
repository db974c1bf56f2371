package database

import (
	"context"
	"database/sql"
	"fmt"
)

// authSchema creates the credential and refresh token tables.  The
// UNIQUE(user_id) key on refresh_tokens is what guarantees a single live
// refresh token per account; the repository's delete+upsert relies on it.
var authSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id            CHAR(36)     NOT NULL PRIMARY KEY,
		name          VARCHAR(100) NULL,
		email         VARCHAR(255) NOT NULL,
		password_hash VARCHAR(255) NULL,
		role          VARCHAR(32)  NOT NULL DEFAULT 'USER',
		provider      VARCHAR(32)  NOT NULL DEFAULT 'local',
		created_at    DATETIME     NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at    DATETIME     NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		UNIQUE KEY uq_users_email (email)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS refresh_tokens (
		id          CHAR(36) NOT NULL PRIMARY KEY,
		user_id     CHAR(36) NOT NULL,
		token_hash  CHAR(64) NOT NULL,
		expires_at  DATETIME NOT NULL,
		created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		UNIQUE KEY uq_refresh_tokens_user (user_id),
		UNIQUE KEY uq_refresh_tokens_hash (token_hash),
		CONSTRAINT fk_refresh_tokens_user FOREIGN KEY (user_id) REFERENCES users (id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

// MigrateAuth applies the auth schema.  Statements are idempotent.
func MigrateAuth(ctx context.Context, db *sql.DB) error {
	for i, stmt := range authSchema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("auth schema statement %d: %w", i, err)
		}
	}
	return nil
}
