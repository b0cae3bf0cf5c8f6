package db

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrAlreadyLoggedToday = errors.New("already logged today")
	ErrSessionActive      = errors.New("pulse session already active")
	ErrAlreadySubmitted   = errors.New("pulse entry already submitted for this period")
	ErrEmailTaken         = errors.New("email already registered")
	ErrThreadClosed       = errors.New("mailbox thread is closed")
)

const uniqueViolation = "23505"

// IsUniqueViolation reports whether err is a postgres unique-constraint
// violation. The constraint error is the source of truth for all
// "at most one X per (actor, period)" invariants.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
