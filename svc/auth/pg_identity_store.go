package auth

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"

	"github.com/servercraft/authkit/pkg/pg"
)

// PostgresIdentityStore is a reference IdentityStore over an identities
// table with bcrypt password hashes:
//
//	CREATE TABLE identities (
//	    id            TEXT PRIMARY KEY,
//	    email         TEXT NOT NULL UNIQUE,
//	    password_hash TEXT NOT NULL
//	);
//
// Applications with their own account system implement IdentityStore
// directly instead.
type PostgresIdentityStore struct {
	pool *pgxpool.Pool
}

// NewPostgresIdentityStore wraps an existing pool, typically built via
// pg.Connect.
func NewPostgresIdentityStore(pool *pgxpool.Pool) *PostgresIdentityStore {
	return &PostgresIdentityStore{pool: pool}
}

func (s *PostgresIdentityStore) LookupByEmail(ctx context.Context, email string) (*Identity, error) {
	var identity Identity
	row := s.pool.QueryRow(ctx, `SELECT id, email FROM identities WHERE email = $1`, email)
	if err := row.Scan(&identity.ID, &identity.Email); err != nil {
		if pg.IsNotFoundError(err) {
			return nil, nil
		}
		return nil, err
	}
	return &identity, nil
}

func (s *PostgresIdentityStore) VerifyPassword(ctx context.Context, identityID, password string) (bool, error) {
	var hash string
	row := s.pool.QueryRow(ctx, `SELECT password_hash FROM identities WHERE id = $1`, identityID)
	if err := row.Scan(&hash); err != nil {
		if pg.IsNotFoundError(err) {
			return false, nil
		}
		return false, err
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil, nil
}
