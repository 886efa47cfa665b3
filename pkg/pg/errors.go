package pg

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrInvalidConnectionString reports an unparseable PG_CONN_URL.
	ErrInvalidConnectionString = errors.New("pg: invalid connection string")
	// ErrNotReady reports that the database never answered a ping within
	// the retry budget.
	ErrNotReady = errors.New("pg: database not ready")
	// ErrHealthcheckFailed reports a failed readiness ping.
	ErrHealthcheckFailed = errors.New("pg: healthcheck failed")
)

// IsNotFoundError reports whether err is pgx.ErrNoRows, so query sites can
// treat "no such row" uniformly.
func IsNotFoundError(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

// IsDuplicateKeyError reports a unique constraint violation (SQLSTATE 23505).
func IsDuplicateKeyError(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
