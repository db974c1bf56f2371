// Package repository holds the data access layer of both services: the
// MySQL-backed credential and refresh token repositories of the auth service
// and the gorm-backed profile repository of the user-profile service.
//
// The sentinel errors below let handlers and services distinguish failure
// kinds without inspecting driver errors.
package repository

import (
	"errors"

	"github.com/go-sql-driver/mysql"
)

// ErrNotFound is returned when a lookup by key matches no row.  Handlers
// translate it into 404, or into 401 when the key came from a credential.
var ErrNotFound = errors.New("not found")

// ErrEmailExists is returned when registering an email that is already taken.
var ErrEmailExists = errors.New("email already exists")

// ErrConflict is returned when a create collides with an existing record,
// such as creating a profile twice.  Handlers translate it into 409.
var ErrConflict = errors.New("conflict")

// mysqlDuplicateEntry is ER_DUP_ENTRY.
const mysqlDuplicateEntry = 1062

func isDuplicateKey(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == mysqlDuplicateEntry
}
