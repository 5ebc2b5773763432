// Package repository holds the MySQL data access layer and the error
// values shared by every store implementation.  These sentinel values let
// services and handlers distinguish failure causes with errors.Is without
// depending on the storage backend.
package repository

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
)

// ErrNotFound is returned when the addressed row does not exist.
// Handlers translate it into HTTP 404.
var ErrNotFound = errors.New("not found")

// ErrEmailExists is returned by user creation when the address is taken.
var ErrEmailExists = errors.New("email already exists")

// ErrForbidden is returned when the caller's role does not allow the
// operation.  Handlers translate it into HTTP 403.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when an operation cannot proceed because of
// conflicting state.  Handlers translate it into HTTP 409.
var ErrConflict = errors.New("conflict")

// ErrInsufficientPoints is returned when a ledger entry would take a
// balance below zero.  Nothing is written in that case.
var ErrInsufficientPoints = errors.New("insufficient points")

// ErrCooldownActive is the sentinel wrapped by CooldownError.
var ErrCooldownActive = errors.New("booking cooldown active")

// CooldownError reports a booking attempt during an active cooldown.  It
// unwraps to ErrCooldownActive.
type CooldownError struct {
	Remaining time.Duration
	Until     time.Time
}

func (e *CooldownError) Error() string {
	return fmt.Sprintf("booking cooldown active for another %s", e.Remaining.Round(time.Second))
}

func (e *CooldownError) Unwrap() error { return ErrCooldownActive }

// isDuplicateKey reports whether err is MySQL error 1062 (duplicate entry).
func isDuplicateKey(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == 1062
}
