package twofactor

import (
	"context"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/servercraft/authkit/pkg/pg"
)

// PostgresStore implements Storage on a pgx connection pool.
//
// Schema:
//
//	CREATE TABLE two_factor_records (
//	    identity_id      TEXT PRIMARY KEY,
//	    state            TEXT NOT NULL,
//	    secret_encrypted TEXT NOT NULL DEFAULT '',
//	    last_used_step   BIGINT NOT NULL DEFAULT 0,
//	    version          BIGINT NOT NULL DEFAULT 0
//	);
//
//	CREATE TABLE two_factor_backup_codes (
//	    identity_id TEXT NOT NULL,
//	    code_hash   TEXT NOT NULL,
//	    PRIMARY KEY (identity_id, code_hash)
//	);
//
//	CREATE TABLE two_factor_trusted_devices (
//	    identity_id TEXT NOT NULL,
//	    token_hash  TEXT NOT NULL,
//	    created_at  TIMESTAMPTZ NOT NULL,
//	    expires_at  TIMESTAMPTZ NOT NULL,
//	    PRIMARY KEY (identity_id, token_hash)
//	);
//
// Pending enrollments are deliberately NOT backed by a table: an unconfirmed
// secret must never reach durable storage, so they live in process memory
// with the same semantics as MemoryStore.
type PostgresStore struct {
	pool *pgxpool.Pool

	mu       sync.Mutex
	pendings map[string]PendingEnrollment
}

// NewPostgresStore wraps an existing pool, typically built via pg.Connect.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{
		pool:     pool,
		pendings: make(map[string]PendingEnrollment),
	}
}

func (ps *PostgresStore) GetRecord(ctx context.Context, identityID string) (*Record, error) {
	rec := &Record{IdentityID: identityID, State: StateDisabled}

	row := ps.pool.QueryRow(ctx,
		`SELECT state, secret_encrypted, last_used_step, version
		 FROM two_factor_records WHERE identity_id = $1`, identityID)
	if err := row.Scan(&rec.State, &rec.EncryptedSecret, &rec.LastUsedStep, &rec.Version); err != nil {
		if pg.IsNotFoundError(err) {
			// First touch: a fresh disabled record at version zero.
			return rec, nil
		}
		return nil, err
	}

	rows, err := ps.pool.Query(ctx,
		`SELECT code_hash FROM two_factor_backup_codes WHERE identity_id = $1`, identityID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var hash string
		if err := rows.Scan(&hash); err != nil {
			return nil, err
		}
		rec.BackupCodeHashes = append(rec.BackupCodeHashes, hash)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	devices, err := ps.ListTrustedDevices(ctx, identityID)
	if err != nil {
		return nil, err
	}
	rec.TrustedDevices = devices

	return rec, nil
}

func (ps *PostgresStore) SaveRecord(ctx context.Context, rec *Record) error {
	tx, err := ps.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if rec.Version == 0 {
		_, err = tx.Exec(ctx,
			`INSERT INTO two_factor_records (identity_id, state, secret_encrypted, last_used_step, version)
			 VALUES ($1, $2, $3, $4, 1)`,
			rec.IdentityID, rec.State, rec.EncryptedSecret, rec.LastUsedStep)
		if err != nil {
			if pg.IsDuplicateKeyError(err) {
				return ErrVersionConflict
			}
			return err
		}
	} else {
		tag, err := tx.Exec(ctx,
			`UPDATE two_factor_records
			 SET state = $2, secret_encrypted = $3, last_used_step = $4, version = version + 1
			 WHERE identity_id = $1 AND version = $5`,
			rec.IdentityID, rec.State, rec.EncryptedSecret, rec.LastUsedStep, rec.Version)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return ErrVersionConflict
		}
	}

	// The record owns its backup code set; replace it wholesale.
	if _, err := tx.Exec(ctx,
		`DELETE FROM two_factor_backup_codes WHERE identity_id = $1`, rec.IdentityID); err != nil {
		return err
	}
	for _, hash := range rec.BackupCodeHashes {
		if _, err := tx.Exec(ctx,
			`INSERT INTO two_factor_backup_codes (identity_id, code_hash) VALUES ($1, $2)`,
			rec.IdentityID, hash); err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}
	rec.Version++
	return nil
}

func (ps *PostgresStore) RemoveBackupCodeHash(ctx context.Context, identityID, hash string) error {
	tag, err := ps.pool.Exec(ctx,
		`DELETE FROM two_factor_backup_codes WHERE identity_id = $1 AND code_hash = $2`,
		identityID, hash)
	if err != nil {
		return err
	}
	// Zero rows means another caller consumed the code first.
	if tag.RowsAffected() == 0 {
		return ErrCodeNotFound
	}
	return nil
}

func (ps *PostgresStore) SetLastUsedStep(ctx context.Context, identityID string, step int64) error {
	tag, err := ps.pool.Exec(ctx,
		`UPDATE two_factor_records SET last_used_step = $2
		 WHERE identity_id = $1 AND last_used_step < $2`,
		identityID, step)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrStepAlreadyUsed
	}
	return nil
}

func (ps *PostgresStore) AddTrustedDevice(ctx context.Context, identityID string, device TrustedDevice) error {
	_, err := ps.pool.Exec(ctx,
		`INSERT INTO two_factor_trusted_devices (identity_id, token_hash, created_at, expires_at)
		 VALUES ($1, $2, $3, $4)`,
		identityID, device.TokenHash, device.CreatedAt, device.ExpiresAt)
	return err
}

func (ps *PostgresStore) ListTrustedDevices(ctx context.Context, identityID string) ([]TrustedDevice, error) {
	rows, err := ps.pool.Query(ctx,
		`SELECT token_hash, created_at, expires_at
		 FROM two_factor_trusted_devices WHERE identity_id = $1`, identityID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var devices []TrustedDevice
	for rows.Next() {
		var d TrustedDevice
		if err := rows.Scan(&d.TokenHash, &d.CreatedAt, &d.ExpiresAt); err != nil {
			return nil, err
		}
		devices = append(devices, d)
	}
	return devices, rows.Err()
}

func (ps *PostgresStore) RevokeTrustedDevices(ctx context.Context, identityID string) (int, error) {
	tag, err := ps.pool.Exec(ctx,
		`DELETE FROM two_factor_trusted_devices WHERE identity_id = $1`, identityID)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

func (ps *PostgresStore) PruneExpiredDevices(ctx context.Context, identityID string, now time.Time) error {
	_, err := ps.pool.Exec(ctx,
		`DELETE FROM two_factor_trusted_devices WHERE identity_id = $1 AND expires_at <= $2`,
		identityID, now)
	return err
}

func (ps *PostgresStore) SetPendingEnrollment(ctx context.Context, identityID string, pending PendingEnrollment) error {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	ps.pendings[identityID] = pending
	return nil
}

func (ps *PostgresStore) GetPendingEnrollment(ctx context.Context, identityID string) (PendingEnrollment, error) {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	pending, ok := ps.pendings[identityID]
	if !ok {
		return PendingEnrollment{}, ErrNoPendingEnrollment
	}
	return pending, nil
}

func (ps *PostgresStore) DeletePendingEnrollment(ctx context.Context, identityID string) error {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	delete(ps.pendings, identityID)
	return nil
}
