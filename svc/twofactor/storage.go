package twofactor

import (
	"context"
	"time"
)

// Storage is the Identity Store contract for two-factor state. The schema
// is owned here; implementations provide durable CRUD plus the atomic
// primitives the concurrency model depends on.
type Storage interface {
	// GetRecord returns the identity's two-factor record. Identities with
	// no stored state get a fresh disabled record at version zero.
	GetRecord(ctx context.Context, identityID string) (*Record, error)

	// SaveRecord persists the record if and only if the stored version
	// still matches rec.Version, then increments rec.Version. A mismatch
	// returns ErrVersionConflict. This serializes configuration mutation
	// per identity: two concurrent enables cannot both win.
	SaveRecord(ctx context.Context, rec *Record) error

	// RemoveBackupCodeHash atomically deletes one backup code hash.
	// Exactly one of several concurrent callers presenting the same hash
	// succeeds; the rest get ErrCodeNotFound.
	RemoveBackupCodeHash(ctx context.Context, identityID, hash string) error

	// SetLastUsedStep records the TOTP step just consumed, but only if it
	// is greater than the stored one; otherwise ErrStepAlreadyUsed. This
	// blocks replay of a code within its validity window.
	SetLastUsedStep(ctx context.Context, identityID string, step int64) error

	// AddTrustedDevice appends a device grant to the identity.
	AddTrustedDevice(ctx context.Context, identityID string, device TrustedDevice) error

	// ListTrustedDevices returns all stored device grants, expired ones included.
	ListTrustedDevices(ctx context.Context, identityID string) ([]TrustedDevice, error)

	// RevokeTrustedDevices deletes every device grant for the identity and
	// returns how many were removed.
	RevokeTrustedDevices(ctx context.Context, identityID string) (int, error)

	// PruneExpiredDevices removes device grants whose expiry is not after
	// the given time. Opportunistic housekeeping; losing the race with a
	// concurrent revoke is harmless.
	PruneExpiredDevices(ctx context.Context, identityID string, now time.Time) error

	// Pending enrollment is ephemeral by contract: a generated secret must
	// not reach durable storage until it is confirmed via enable, so an
	// abandoned setup leaves no durable partial state.
	SetPendingEnrollment(ctx context.Context, identityID string, pending PendingEnrollment) error
	GetPendingEnrollment(ctx context.Context, identityID string) (PendingEnrollment, error)
	DeletePendingEnrollment(ctx context.Context, identityID string) error
}
