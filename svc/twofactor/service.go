package twofactor

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/servercraft/authkit/pkg/audit"
	"github.com/servercraft/authkit/pkg/backupcode"
	"github.com/servercraft/authkit/pkg/qrcode"
	"github.com/servercraft/authkit/pkg/ratelimiter"
	"github.com/servercraft/authkit/pkg/totp"
)

// Rate limit action buckets. Each (identity, action) pair gets its own
// counter; exhausting one never affects the others.
const (
	ActionSetup      = "setup"
	ActionRegenerate = "backup_code_regenerate"
	ActionVerify     = "second_factor_verify"
)

var totpCodePattern = regexp.MustCompile(`^\d{6}$`)

// PasswordVerifier re-checks the caller's password against the external
// identity store. Configuration-changing operations require it as a defense
// against hijacked sessions.
type PasswordVerifier interface {
	VerifyPassword(ctx context.Context, identityID, password string) (bool, error)
}

// Service owns the two-factor enrollment lifecycle: setup, enable, disable,
// status, backup code regeneration and second-factor verification.
type Service struct {
	cfg      Config
	storage  Storage
	password PasswordVerifier
	devices  *DeviceManager
	auditLog audit.Logger
	limiters map[string]*ratelimiter.Bucket
	encKey   []byte
	now      func() time.Time
}

// Option configures the Service.
type Option func(*Service)

// WithClock injects a time source; tests use it to pin TOTP steps and
// pending-enrollment expiry without sleeping.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// WithAuditLogger sets the audit collaborator.
func WithAuditLogger(logger audit.Logger) Option {
	return func(s *Service) {
		s.auditLog = logger
	}
}

// WithEncryptionKey sets the AES-256 key protecting the active secret at
// rest. Without this option the key is loaded from TOTP_ENCRYPTION_KEY.
func WithEncryptionKey(key []byte) Option {
	return func(s *Service) {
		s.encKey = key
	}
}

// WithRateLimitStore swaps the backing store for the per-action limiters,
// e.g. a RedisStore when the limit must hold across instances.
func WithRateLimitStore(store ratelimiter.Store) Option {
	return func(s *Service) {
		s.limiters = buildLimiters(s.cfg, store)
	}
}

func buildLimiters(cfg Config, store ratelimiter.Store) map[string]*ratelimiter.Bucket {
	mk := func(limit int, window time.Duration) *ratelimiter.Bucket {
		b, err := ratelimiter.NewBucket(store, ratelimiter.Config{
			Capacity:       limit,
			RefillRate:     limit,
			RefillInterval: window,
		})
		if err != nil {
			panic(fmt.Sprintf("twofactor: invalid rate limit config: %v", err))
		}
		return b
	}
	return map[string]*ratelimiter.Bucket{
		ActionSetup:      mk(cfg.SetupLimit, cfg.SetupWindow),
		ActionRegenerate: mk(cfg.RegenerateLimit, cfg.RegenerateWindow),
		ActionVerify:     mk(cfg.VerifyLimit, cfg.VerifyWindow),
	}
}

// New creates a two-factor service over the given identity storage.
func New(cfg Config, storage Storage, password PasswordVerifier, opts ...Option) (*Service, error) {
	if storage == nil {
		return nil, errors.New("twofactor: storage is required")
	}
	if password == nil {
		return nil, errors.New("twofactor: password verifier is required")
	}

	s := &Service{
		cfg:      cfg,
		storage:  storage,
		password: password,
		limiters: buildLimiters(cfg, ratelimiter.NewMemoryStore()),
		now:      time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.auditLog == nil {
		s.auditLog = audit.NewLogger(audit.NewMemoryStorage())
	}
	if s.encKey == nil {
		tcfg, err := totp.LoadConfig()
		if err != nil {
			return nil, err
		}
		key, err := totp.GetEncryptionKey(tcfg)
		if err != nil {
			return nil, err
		}
		s.encKey = key
	}

	s.devices = NewDeviceManager(storage,
		WithDeviceClock(func() time.Time { return s.now() }),
		WithDeviceTokenTTL(cfg.DeviceTokenTTL),
	)

	return s, nil
}

// Devices exposes the trusted-device manager bound to the same storage.
func (s *Service) Devices() *DeviceManager {
	return s.devices
}

// allow consumes one token from the identity's bucket for the given action.
// Limit internals are not leaked: exceeding any bucket yields the same
// ErrRateLimited.
func (s *Service) allow(ctx context.Context, action, identityID string) error {
	result, err := s.limiters[action].Allow(ctx, identityID+":"+action)
	if err != nil {
		return err
	}
	if !result.Allowed() {
		_ = s.auditLog.LogFailure(ctx, "2fa."+action, ErrRateLimited, audit.WithIdentity(identityID))
		return ErrRateLimited
	}
	return nil
}

// Setup begins enrollment: it generates a fresh pending secret and a new
// backup code set. The secret stays ephemeral until Enable confirms it; the
// backup code hashes are stored immediately. The returned plaintext values
// are never retrievable again.
func (s *Service) Setup(ctx context.Context, identityID, accountName string) (*SetupResult, error) {
	if err := s.allow(ctx, ActionSetup, identityID); err != nil {
		return nil, err
	}

	rec, err := s.storage.GetRecord(ctx, identityID)
	if err != nil {
		return nil, err
	}
	if rec.Enabled() {
		return nil, ErrAlreadyEnabled
	}

	secret, err := totp.GenerateSecretKey()
	if err != nil {
		return nil, err
	}

	uri, err := totp.EnrollmentURI(totp.Params{
		Secret:      secret,
		AccountName: accountName,
		Issuer:      s.cfg.Issuer,
	})
	if err != nil {
		return nil, err
	}

	var qr string
	if s.cfg.QRCodeSize > 0 {
		if qr, err = qrcode.GenerateBase64Image(uri, s.cfg.QRCodeSize); err != nil {
			return nil, err
		}
	}

	codes, err := backupcode.Generate(s.cfg.BackupCodeCount)
	if err != nil {
		return nil, err
	}
	hashes := make([]string, len(codes))
	for i, code := range codes {
		if hashes[i], err = backupcode.Hash(code); err != nil {
			return nil, err
		}
	}

	rec.State = StatePendingEnrollment
	rec.BackupCodeHashes = hashes
	if err := s.storage.SaveRecord(ctx, rec); err != nil {
		return nil, err
	}

	if err := s.storage.SetPendingEnrollment(ctx, identityID, PendingEnrollment{
		Secret:    secret,
		CreatedAt: s.now(),
	}); err != nil {
		return nil, err
	}

	_ = s.auditLog.Log(ctx, "2fa.setup", audit.WithIdentity(identityID))

	return &SetupResult{
		Secret:        secret,
		EnrollmentURI: uri,
		QRCode:        qr,
		BackupCodes:   codes,
	}, nil
}

// Enable confirms enrollment: the password is re-verified and the candidate
// code checked against the pending secret. On success the secret is
// persisted encrypted and the state flips to enabled in one conditional
// write. On failure nothing is persisted and the pending secret survives,
// so the caller may retry without re-running Setup.
func (s *Service) Enable(ctx context.Context, identityID, code, password string) error {
	if err := s.verifyPassword(ctx, identityID, password); err != nil {
		return err
	}

	pending, err := s.storage.GetPendingEnrollment(ctx, identityID)
	if err != nil {
		if errors.Is(err, ErrNoPendingEnrollment) {
			return ErrNotPending
		}
		return err
	}
	if s.now().Sub(pending.CreatedAt) > s.cfg.PendingEnrollmentTTL {
		_ = s.storage.DeletePendingEnrollment(ctx, identityID)
		return ErrNotPending
	}

	ok, step, err := totp.VerifyAt(pending.Secret, code, s.now())
	if err != nil || !ok {
		_ = s.auditLog.LogFailure(ctx, "2fa.enable", ErrInvalidSecondFactor, audit.WithIdentity(identityID))
		return ErrInvalidSecondFactor
	}

	encrypted, err := totp.EncryptSecret(pending.Secret, s.encKey)
	if err != nil {
		return err
	}

	rec, err := s.storage.GetRecord(ctx, identityID)
	if err != nil {
		return err
	}
	rec.State = StateEnabled
	rec.EncryptedSecret = encrypted
	rec.LastUsedStep = step
	if err := s.storage.SaveRecord(ctx, rec); err != nil {
		return err
	}

	_ = s.storage.DeletePendingEnrollment(ctx, identityID)
	_ = s.auditLog.Log(ctx, "2fa.enable", audit.WithIdentity(identityID))
	return nil
}

// Disable turns two-factor authentication off. It demands the password and
// a valid second factor (TOTP or an unconsumed backup code), then deletes
// the secret and all backup codes, revokes every trusted device and resets
// the state. Stale bypass tokens must never outlive the configuration that
// justified them.
func (s *Service) Disable(ctx context.Context, identityID, codeOrBackup, password string) error {
	if err := s.verifyPassword(ctx, identityID, password); err != nil {
		return err
	}

	rec, err := s.storage.GetRecord(ctx, identityID)
	if err != nil {
		return err
	}
	if !rec.Enabled() {
		return ErrNotEnrolled
	}

	if _, err := s.checkFactor(ctx, rec, codeOrBackup); err != nil {
		if errors.Is(err, ErrInvalidSecondFactor) {
			_ = s.auditLog.LogFailure(ctx, "2fa.disable", ErrInvalidSecondFactor, audit.WithIdentity(identityID))
		}
		return err
	}

	rec.State = StateDisabled
	rec.EncryptedSecret = ""
	rec.BackupCodeHashes = nil
	rec.LastUsedStep = 0
	if err := s.storage.SaveRecord(ctx, rec); err != nil {
		return err
	}

	if _, err := s.storage.RevokeTrustedDevices(ctx, identityID); err != nil {
		return err
	}
	_ = s.storage.DeletePendingEnrollment(ctx, identityID)

	_ = s.auditLog.Log(ctx, "2fa.disable", audit.WithIdentity(identityID))
	return nil
}

// Status reports whether two-factor is enforced and how many trusted
// devices are currently valid.
func (s *Service) Status(ctx context.Context, identityID string) (*Status, error) {
	rec, err := s.storage.GetRecord(ctx, identityID)
	if err != nil {
		return nil, err
	}

	count, err := s.devices.CountActive(ctx, identityID)
	if err != nil {
		return nil, err
	}

	return &Status{
		Enabled:            rec.Enabled(),
		TrustedDeviceCount: count,
	}, nil
}

// RegenerateBackupCodes discards the entire existing set, used and unused
// codes alike, and returns a fresh plaintext set exactly once.
func (s *Service) RegenerateBackupCodes(ctx context.Context, identityID string) ([]string, error) {
	if err := s.allow(ctx, ActionRegenerate, identityID); err != nil {
		return nil, err
	}

	rec, err := s.storage.GetRecord(ctx, identityID)
	if err != nil {
		return nil, err
	}
	if !rec.Enabled() {
		return nil, ErrNotEnrolled
	}

	codes, err := backupcode.Generate(s.cfg.BackupCodeCount)
	if err != nil {
		return nil, err
	}
	hashes := make([]string, len(codes))
	for i, code := range codes {
		if hashes[i], err = backupcode.Hash(code); err != nil {
			return nil, err
		}
	}

	rec.BackupCodeHashes = hashes
	if err := s.storage.SaveRecord(ctx, rec); err != nil {
		return nil, err
	}

	_ = s.auditLog.Log(ctx, "2fa.backup_codes.regenerate", audit.WithIdentity(identityID))
	return codes, nil
}

// VerifyCode checks a TOTP code or backup code for an enabled identity.
// Backup codes are consumed on success; a consumed code never authenticates
// again. Failures are uniform: the caller cannot distinguish a used code
// from one that never existed.
func (s *Service) VerifyCode(ctx context.Context, identityID, input string) (Method, error) {
	if err := s.allow(ctx, ActionVerify, identityID); err != nil {
		return "", err
	}

	rec, err := s.storage.GetRecord(ctx, identityID)
	if err != nil {
		return "", err
	}
	if !rec.Enabled() {
		return "", ErrNotEnrolled
	}

	method, err := s.checkFactor(ctx, rec, input)
	if err != nil {
		if errors.Is(err, ErrInvalidSecondFactor) {
			_ = s.auditLog.LogFailure(ctx, "2fa.verify", ErrInvalidSecondFactor, audit.WithIdentity(identityID))
		}
		return "", err
	}

	_ = s.auditLog.Log(ctx, "2fa.verify",
		audit.WithIdentity(identityID),
		audit.WithMetadata("method", string(method)))
	return method, nil
}

func (s *Service) verifyPassword(ctx context.Context, identityID, password string) error {
	ok, err := s.password.VerifyPassword(ctx, identityID, password)
	if err != nil {
		return err
	}
	if !ok {
		_ = s.auditLog.LogFailure(ctx, "2fa.password_check", ErrInvalidCredentials, audit.WithIdentity(identityID))
		return ErrInvalidCredentials
	}
	return nil
}

// checkFactor validates the input against the active secret or the backup
// code set. Six digits means TOTP; anything else is tried as a backup code.
func (s *Service) checkFactor(ctx context.Context, rec *Record, input string) (Method, error) {
	input = strings.TrimSpace(input)

	if totpCodePattern.MatchString(input) {
		secret, err := totp.DecryptSecret(rec.EncryptedSecret, s.encKey)
		if err != nil {
			return "", err
		}
		ok, step, err := totp.VerifyAt(secret, input, s.now())
		if err != nil || !ok {
			return "", ErrInvalidSecondFactor
		}
		// Reject reuse of a code within its own time step.
		if err := s.storage.SetLastUsedStep(ctx, rec.IdentityID, step); err != nil {
			if errors.Is(err, ErrStepAlreadyUsed) {
				return "", ErrInvalidSecondFactor
			}
			return "", err
		}
		return MethodTOTP, nil
	}

	for _, hash := range rec.BackupCodeHashes {
		if backupcode.Verify(input, hash) {
			// Conditional delete: exactly one concurrent consumer of the
			// same code wins, the loser sees it already gone.
			if err := s.storage.RemoveBackupCodeHash(ctx, rec.IdentityID, hash); err != nil {
				if errors.Is(err, ErrCodeNotFound) {
					return "", ErrInvalidSecondFactor
				}
				return "", err
			}
			return MethodBackupCode, nil
		}
	}

	return "", ErrInvalidSecondFactor
}
