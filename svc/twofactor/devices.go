package twofactor

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"time"
)

// deviceTokenBytes is the entropy of an issued device token (32 bytes,
// matching the strength of a session identifier).
const deviceTokenBytes = 32

// DeviceManager issues and validates trusted-device tokens that let a
// browser skip the second-factor challenge for a bounded period. Tokens are
// opaque and stored only as SHA-256 hashes.
type DeviceManager struct {
	storage  Storage
	tokenTTL time.Duration
	now      func() time.Time
}

// DeviceOption configures the DeviceManager.
type DeviceOption func(*DeviceManager)

// WithDeviceClock injects a time source for issuance and validation.
func WithDeviceClock(now func() time.Time) DeviceOption {
	return func(dm *DeviceManager) {
		dm.now = now
	}
}

// WithDeviceTokenTTL overrides the default 30-day token lifetime.
func WithDeviceTokenTTL(ttl time.Duration) DeviceOption {
	return func(dm *DeviceManager) {
		if ttl > 0 {
			dm.tokenTTL = ttl
		}
	}
}

// NewDeviceManager creates a trusted-device manager over the given storage.
func NewDeviceManager(storage Storage, opts ...DeviceOption) *DeviceManager {
	dm := &DeviceManager{
		storage:  storage,
		tokenTTL: 30 * 24 * time.Hour,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(dm)
	}
	return dm
}

func hashDeviceToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// Issue mints a new trusted-device token for the identity and stores its
// hash. The plaintext token is returned exactly once; it cannot be
// recovered from storage afterwards. Expiry is absolute from issuance and
// never extended by later use.
func (dm *DeviceManager) Issue(ctx context.Context, identityID string) (string, error) {
	raw := make([]byte, deviceTokenBytes)
	if _, err := rand.Read(raw); err != nil {
		return "", errors.Join(ErrFailedToIssueDeviceToken, err)
	}
	token := base64.RawURLEncoding.EncodeToString(raw)

	issuedAt := dm.now()
	device := TrustedDevice{
		TokenHash: hashDeviceToken(token),
		CreatedAt: issuedAt,
		ExpiresAt: issuedAt.Add(dm.tokenTTL),
	}
	if err := dm.storage.AddTrustedDevice(ctx, identityID, device); err != nil {
		return "", err
	}
	return token, nil
}

// Validate reports whether the presented token matches an unexpired grant
// for the identity. Unknown, expired and revoked tokens are all just false;
// the caller cannot tell them apart. Expired grants found along the way are
// pruned opportunistically.
func (dm *DeviceManager) Validate(ctx context.Context, identityID, token string) (bool, error) {
	if token == "" {
		return false, nil
	}

	devices, err := dm.storage.ListTrustedDevices(ctx, identityID)
	if err != nil {
		return false, err
	}

	now := dm.now()
	hash := []byte(hashDeviceToken(token))

	valid := false
	sawExpired := false
	for _, device := range devices {
		if !now.Before(device.ExpiresAt) {
			sawExpired = true
			continue
		}
		if subtle.ConstantTimeCompare(hash, []byte(device.TokenHash)) == 1 {
			valid = true
		}
	}

	if sawExpired {
		_ = dm.storage.PruneExpiredDevices(ctx, identityID, now)
	}
	return valid, nil
}

// RevokeAll drops every trusted-device grant for the identity, expired or
// not, and returns how many were removed.
func (dm *DeviceManager) RevokeAll(ctx context.Context, identityID string) (int, error) {
	return dm.storage.RevokeTrustedDevices(ctx, identityID)
}

// CountActive returns the number of grants still valid at the current time.
func (dm *DeviceManager) CountActive(ctx context.Context, identityID string) (int, error) {
	devices, err := dm.storage.ListTrustedDevices(ctx, identityID)
	if err != nil {
		return 0, err
	}

	now := dm.now()
	count := 0
	for _, device := range devices {
		if now.Before(device.ExpiresAt) {
			count++
		}
	}
	return count, nil
}
