package twofactor

import "time"

// State describes an identity's two-factor lifecycle phase.
type State string

const (
	StateDisabled          State = "disabled"
	StatePendingEnrollment State = "pending_enrollment"
	StateEnabled           State = "enabled"
)

// Method identifies which kind of second factor satisfied a verification.
type Method string

const (
	MethodTOTP       Method = "totp"
	MethodBackupCode Method = "backup_code"
)

// TrustedDevice is one device-bypass grant. Only the token hash is stored;
// the opaque token itself is returned to the caller once at issuance.
// Expiry is absolute (creation + TTL), never extended on use.
type TrustedDevice struct {
	TokenHash string    `json:"token_hash"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Record is the per-identity persisted two-factor state. The identity
// record exclusively owns its secret, backup codes and trusted devices.
type Record struct {
	IdentityID       string          `json:"identity_id"`
	State            State           `json:"state"`
	EncryptedSecret  string          `json:"totp_secret,omitempty"`
	BackupCodeHashes []string        `json:"backup_code_hashes"`
	TrustedDevices   []TrustedDevice `json:"trusted_devices"`

	// LastUsedStep is the TOTP step counter of the most recently accepted
	// code. A code whose step is not greater than this is a replay.
	LastUsedStep int64 `json:"last_used_step"`

	// Version supports optimistic concurrency control on mutation.
	Version int64 `json:"version"`
}

// Enabled reports whether the identity currently enforces a second factor.
func (r *Record) Enabled() bool {
	return r.State == StateEnabled
}

// PendingEnrollment is a generated-but-unconfirmed TOTP secret. It is held
// ephemerally and must never reach durable storage; enabling persists the
// secret, abandoning setup leaves nothing behind.
type PendingEnrollment struct {
	Secret    string
	CreatedAt time.Time
}

// SetupResult carries everything the caller needs to finish enrollment.
// The secret and backup codes are not retrievable again after this.
type SetupResult struct {
	Secret        string   `json:"secret"`
	EnrollmentURI string   `json:"enrollment_uri"`
	QRCode        string   `json:"qr_code,omitempty"`
	BackupCodes   []string `json:"backup_codes"`
}

// Status is the read-only view of an identity's two-factor configuration.
type Status struct {
	Enabled            bool `json:"enabled"`
	TrustedDeviceCount int  `json:"trusted_device_count"`
}
