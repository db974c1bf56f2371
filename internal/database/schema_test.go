package database

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrateAuthRunsEveryStatement(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS users").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS refresh_tokens").WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, MigrateAuth(context.Background(), db))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrateAuthStopsOnError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS users").WillReturnError(errors.New("denied"))

	err = MigrateAuth(context.Background(), db)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "auth schema statement 0")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAuthSchemaEnforcesSingleRefreshTokenPerUser(t *testing.T) {
	assert.Contains(t, authSchema[1], "UNIQUE KEY uq_refresh_tokens_user (user_id)")
}
