package audit

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStorage persists audit events durably:
//
//	CREATE TABLE audit_events (
//	    id          TEXT PRIMARY KEY,
//	    identity_id TEXT NOT NULL DEFAULT '',
//	    action      TEXT NOT NULL,
//	    result      TEXT NOT NULL,
//	    error       TEXT NOT NULL DEFAULT '',
//	    ip          TEXT NOT NULL DEFAULT '',
//	    metadata    JSONB,
//	    created_at  TIMESTAMPTZ NOT NULL
//	);
type PostgresStorage struct {
	pool *pgxpool.Pool
}

// NewPostgresStorage wraps an existing connection pool.
func NewPostgresStorage(pool *pgxpool.Pool) *PostgresStorage {
	return &PostgresStorage{pool: pool}
}

func (s *PostgresStorage) Store(ctx context.Context, event Event) error {
	var metadata []byte
	if len(event.Metadata) > 0 {
		var err error
		if metadata, err = json.Marshal(event.Metadata); err != nil {
			return errors.Join(ErrStorageFailed, err)
		}
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO audit_events (id, identity_id, action, result, error, ip, metadata, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		event.ID, event.IdentityID, event.Action, event.Result, event.Error, event.IP, metadata, event.CreatedAt)
	if err != nil {
		return errors.Join(ErrStorageFailed, err)
	}
	return nil
}
