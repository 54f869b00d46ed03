package pg

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrParseConfig      = errors.New("failed to parse postgres config")
	ErrConnectionFailed = errors.New("failed to connect to postgres")
	ErrMigrationFailed  = errors.New("failed to apply migrations")
)

// IsNotFound reports whether err is pgx's "no rows" result.
func IsNotFound(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

// IsDuplicateKey reports a unique constraint violation (SQLSTATE 23505),
// used to make pre-save recording idempotent per user and release.
func IsDuplicateKey(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
