package twofactor

import (
	"context"
	"slices"
	"sync"
	"time"
)

// MemoryStore implements Storage in process memory. It honors the full
// concurrency contract (version CAS, atomic backup-code removal, monotonic
// step tracking) and serves tests and single-instance embedding.
type MemoryStore struct {
	mu       sync.Mutex
	records  map[string]*Record
	pendings map[string]PendingEnrollment
}

// NewMemoryStore creates an empty in-memory identity store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records:  make(map[string]*Record),
		pendings: make(map[string]PendingEnrollment),
	}
}

// get returns the live record for the identity, creating a disabled one on
// first touch. Caller must hold ms.mu.
func (ms *MemoryStore) get(identityID string) *Record {
	rec, ok := ms.records[identityID]
	if !ok {
		rec = &Record{IdentityID: identityID, State: StateDisabled}
		ms.records[identityID] = rec
	}
	return rec
}

func cloneRecord(rec *Record) *Record {
	out := *rec
	out.BackupCodeHashes = slices.Clone(rec.BackupCodeHashes)
	out.TrustedDevices = slices.Clone(rec.TrustedDevices)
	return &out
}

func (ms *MemoryStore) GetRecord(ctx context.Context, identityID string) (*Record, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	return cloneRecord(ms.get(identityID)), nil
}

func (ms *MemoryStore) SaveRecord(ctx context.Context, rec *Record) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	stored := ms.get(rec.IdentityID)
	if stored.Version != rec.Version {
		return ErrVersionConflict
	}

	saved := cloneRecord(rec)
	saved.Version++
	ms.records[rec.IdentityID] = saved
	rec.Version = saved.Version
	return nil
}

func (ms *MemoryStore) RemoveBackupCodeHash(ctx context.Context, identityID, hash string) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	rec := ms.get(identityID)
	idx := slices.Index(rec.BackupCodeHashes, hash)
	if idx < 0 {
		return ErrCodeNotFound
	}
	rec.BackupCodeHashes = slices.Delete(rec.BackupCodeHashes, idx, idx+1)
	return nil
}

func (ms *MemoryStore) SetLastUsedStep(ctx context.Context, identityID string, step int64) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	rec := ms.get(identityID)
	if step <= rec.LastUsedStep {
		return ErrStepAlreadyUsed
	}
	rec.LastUsedStep = step
	return nil
}

func (ms *MemoryStore) AddTrustedDevice(ctx context.Context, identityID string, device TrustedDevice) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	rec := ms.get(identityID)
	rec.TrustedDevices = append(rec.TrustedDevices, device)
	return nil
}

func (ms *MemoryStore) ListTrustedDevices(ctx context.Context, identityID string) ([]TrustedDevice, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	return slices.Clone(ms.get(identityID).TrustedDevices), nil
}

func (ms *MemoryStore) RevokeTrustedDevices(ctx context.Context, identityID string) (int, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	rec := ms.get(identityID)
	count := len(rec.TrustedDevices)
	rec.TrustedDevices = nil
	return count, nil
}

func (ms *MemoryStore) PruneExpiredDevices(ctx context.Context, identityID string, now time.Time) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	rec := ms.get(identityID)
	rec.TrustedDevices = slices.DeleteFunc(rec.TrustedDevices, func(d TrustedDevice) bool {
		return !now.Before(d.ExpiresAt)
	})
	return nil
}

func (ms *MemoryStore) SetPendingEnrollment(ctx context.Context, identityID string, pending PendingEnrollment) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	ms.pendings[identityID] = pending
	return nil
}

func (ms *MemoryStore) GetPendingEnrollment(ctx context.Context, identityID string) (PendingEnrollment, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	pending, ok := ms.pendings[identityID]
	if !ok {
		return PendingEnrollment{}, ErrNoPendingEnrollment
	}
	return pending, nil
}

func (ms *MemoryStore) DeletePendingEnrollment(ctx context.Context, identityID string) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	delete(ms.pendings, identityID)
	return nil
}
