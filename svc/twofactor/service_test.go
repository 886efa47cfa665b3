package twofactor_test

import (
	"context"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/servercraft/authkit/pkg/totp"
	"github.com/servercraft/authkit/svc/twofactor"
)

type stubPasswordVerifier struct {
	password string
}

func (v *stubPasswordVerifier) VerifyPassword(_ context.Context, _, password string) (bool, error) {
	return password == v.password, nil
}

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Unix(1700000000, 0)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestService(t *testing.T, cfg twofactor.Config, clock *testClock) (*twofactor.Service, *twofactor.MemoryStore) {
	t.Helper()

	store := twofactor.NewMemoryStore()
	key := make([]byte, 32)
	copy(key, "0123456789abcdef0123456789abcdef")

	svc, err := twofactor.New(cfg, store, &stubPasswordVerifier{password: "correct horse"},
		twofactor.WithEncryptionKey(key),
		twofactor.WithClock(clock.Now),
	)
	require.NoError(t, err)
	return svc, store
}

func quietConfig() twofactor.Config {
	cfg := twofactor.DefaultConfig()
	cfg.QRCodeSize = 0
	return cfg
}

// enroll walks an identity through setup and enable, returning the secret.
func enroll(t *testing.T, svc *twofactor.Service, clock *testClock, identityID string) string {
	t.Helper()

	ctx := context.Background()
	setup, err := svc.Setup(ctx, identityID, identityID+"@example.com")
	require.NoError(t, err)

	code, err := totp.CodeAt(setup.Secret, clock.Now())
	require.NoError(t, err)
	require.NoError(t, svc.Enable(ctx, identityID, code, "correct horse"))
	return setup.Secret
}

func TestServiceSetup(t *testing.T) {
	t.Parallel()

	t.Run("returns secret, uri and backup codes", func(t *testing.T) {
		t.Parallel()

		clock := newTestClock()
		svc, _ := newTestService(t, quietConfig(), clock)

		setup, err := svc.Setup(context.Background(), "user-1", "user-1@example.com")
		require.NoError(t, err)

		assert.NotEmpty(t, setup.Secret)
		assert.Contains(t, setup.EnrollmentURI, "otpauth://totp/")
		assert.Contains(t, setup.EnrollmentURI, "secret="+setup.Secret)
		assert.Len(t, setup.BackupCodes, 10)

		format := regexp.MustCompile(`^[0-9A-F]{4}-[0-9A-F]{4}-[0-9A-F]{4}$`)
		for _, code := range setup.BackupCodes {
			assert.Regexp(t, format, code)
		}
	})

	t.Run("renders qr code when enabled", func(t *testing.T) {
		t.Parallel()

		clock := newTestClock()
		cfg := twofactor.DefaultConfig()
		cfg.QRCodeSize = 128
		svc, _ := newTestService(t, cfg, clock)

		setup, err := svc.Setup(context.Background(), "user-qr", "qr@example.com")
		require.NoError(t, err)
		assert.Contains(t, setup.QRCode, "data:image/png;base64,")
	})

	t.Run("repeated setup replaces pending secret", func(t *testing.T) {
		t.Parallel()

		clock := newTestClock()
		svc, _ := newTestService(t, quietConfig(), clock)
		ctx := context.Background()

		first, err := svc.Setup(ctx, "user-2", "user-2@example.com")
		require.NoError(t, err)
		second, err := svc.Setup(ctx, "user-2", "user-2@example.com")
		require.NoError(t, err)
		require.NotEqual(t, first.Secret, second.Secret)

		// The first secret is dead; only the latest pending one enables.
		staleCode, err := totp.CodeAt(first.Secret, clock.Now())
		require.NoError(t, err)
		err = svc.Enable(ctx, "user-2", staleCode, "correct horse")
		assert.ErrorIs(t, err, twofactor.ErrInvalidSecondFactor)

		code, err := totp.CodeAt(second.Secret, clock.Now())
		require.NoError(t, err)
		assert.NoError(t, svc.Enable(ctx, "user-2", code, "correct horse"))
	})

	t.Run("rejected when already enabled", func(t *testing.T) {
		t.Parallel()

		clock := newTestClock()
		svc, _ := newTestService(t, quietConfig(), clock)
		enroll(t, svc, clock, "user-3")

		_, err := svc.Setup(context.Background(), "user-3", "user-3@example.com")
		assert.ErrorIs(t, err, twofactor.ErrAlreadyEnabled)
	})

	t.Run("rate limited after repeated calls", func(t *testing.T) {
		t.Parallel()

		clock := newTestClock()
		cfg := quietConfig()
		cfg.SetupLimit = 2
		svc, _ := newTestService(t, cfg, clock)
		ctx := context.Background()

		_, err := svc.Setup(ctx, "user-4", "user-4@example.com")
		require.NoError(t, err)
		_, err = svc.Setup(ctx, "user-4", "user-4@example.com")
		require.NoError(t, err)
		_, err = svc.Setup(ctx, "user-4", "user-4@example.com")
		assert.ErrorIs(t, err, twofactor.ErrRateLimited)

		// Another identity is unaffected.
		_, err = svc.Setup(ctx, "user-5", "user-5@example.com")
		assert.NoError(t, err)
	})
}

func TestServiceEnable(t *testing.T) {
	t.Parallel()

	t.Run("persists encrypted secret on valid code", func(t *testing.T) {
		t.Parallel()

		clock := newTestClock()
		svc, store := newTestService(t, quietConfig(), clock)
		secret := enroll(t, svc, clock, "user-1")

		rec, err := store.GetRecord(context.Background(), "user-1")
		require.NoError(t, err)
		assert.True(t, rec.Enabled())
		assert.NotEmpty(t, rec.EncryptedSecret)
		assert.NotContains(t, rec.EncryptedSecret, secret)

		// Pending state is gone once enabled.
		_, err = store.GetPendingEnrollment(context.Background(), "user-1")
		assert.ErrorIs(t, err, twofactor.ErrNoPendingEnrollment)
	})

	t.Run("wrong password", func(t *testing.T) {
		t.Parallel()

		clock := newTestClock()
		svc, _ := newTestService(t, quietConfig(), clock)
		ctx := context.Background()

		setup, err := svc.Setup(ctx, "user-2", "user-2@example.com")
		require.NoError(t, err)
		code, err := totp.CodeAt(setup.Secret, clock.Now())
		require.NoError(t, err)

		err = svc.Enable(ctx, "user-2", code, "wrong")
		assert.ErrorIs(t, err, twofactor.ErrInvalidCredentials)
	})

	t.Run("wrong code keeps pending secret for retry", func(t *testing.T) {
		t.Parallel()

		clock := newTestClock()
		svc, _ := newTestService(t, quietConfig(), clock)
		ctx := context.Background()

		setup, err := svc.Setup(ctx, "user-3", "user-3@example.com")
		require.NoError(t, err)

		err = svc.Enable(ctx, "user-3", "000000", "correct horse")
		require.ErrorIs(t, err, twofactor.ErrInvalidSecondFactor)

		code, err := totp.CodeAt(setup.Secret, clock.Now())
		require.NoError(t, err)
		assert.NoError(t, svc.Enable(ctx, "user-3", code, "correct horse"))
	})

	t.Run("without pending enrollment", func(t *testing.T) {
		t.Parallel()

		clock := newTestClock()
		svc, _ := newTestService(t, quietConfig(), clock)

		err := svc.Enable(context.Background(), "user-4", "123456", "correct horse")
		assert.ErrorIs(t, err, twofactor.ErrNotPending)
	})

	t.Run("pending enrollment expires", func(t *testing.T) {
		t.Parallel()

		clock := newTestClock()
		svc, _ := newTestService(t, quietConfig(), clock)
		ctx := context.Background()

		setup, err := svc.Setup(ctx, "user-5", "user-5@example.com")
		require.NoError(t, err)

		clock.Advance(16 * time.Minute)
		code, err := totp.CodeAt(setup.Secret, clock.Now())
		require.NoError(t, err)
		err = svc.Enable(ctx, "user-5", code, "correct horse")
		assert.ErrorIs(t, err, twofactor.ErrNotPending)
	})
}

func TestServiceVerifyCode(t *testing.T) {
	t.Parallel()

	t.Run("accepts current totp code", func(t *testing.T) {
		t.Parallel()

		clock := newTestClock()
		svc, _ := newTestService(t, quietConfig(), clock)
		secret := enroll(t, svc, clock, "user-1")

		clock.Advance(time.Minute)
		code, err := totp.CodeAt(secret, clock.Now())
		require.NoError(t, err)

		method, err := svc.VerifyCode(context.Background(), "user-1", code)
		require.NoError(t, err)
		assert.Equal(t, twofactor.MethodTOTP, method)
	})

	t.Run("rejects replay of the same code", func(t *testing.T) {
		t.Parallel()

		clock := newTestClock()
		svc, _ := newTestService(t, quietConfig(), clock)
		secret := enroll(t, svc, clock, "user-2")
		ctx := context.Background()

		clock.Advance(time.Minute)
		code, err := totp.CodeAt(secret, clock.Now())
		require.NoError(t, err)

		_, err = svc.VerifyCode(ctx, "user-2", code)
		require.NoError(t, err)

		_, err = svc.VerifyCode(ctx, "user-2", code)
		assert.ErrorIs(t, err, twofactor.ErrInvalidSecondFactor)
	})

	t.Run("accepts adjacent step within skew", func(t *testing.T) {
		t.Parallel()

		clock := newTestClock()
		svc, _ := newTestService(t, quietConfig(), clock)
		secret := enroll(t, svc, clock, "user-3")

		clock.Advance(time.Minute)
		// Code from the previous 30-second step is still within skew.
		code, err := totp.CodeAt(secret, clock.Now().Add(-30*time.Second))
		require.NoError(t, err)

		_, err = svc.VerifyCode(context.Background(), "user-3", code)
		assert.NoError(t, err)
	})

	t.Run("backup code consumed on use", func(t *testing.T) {
		t.Parallel()

		clock := newTestClock()
		svc, _ := newTestService(t, quietConfig(), clock)
		ctx := context.Background()

		setup, err := svc.Setup(ctx, "user-4", "user-4@example.com")
		require.NoError(t, err)
		code, err := totp.CodeAt(setup.Secret, clock.Now())
		require.NoError(t, err)
		require.NoError(t, svc.Enable(ctx, "user-4", code, "correct horse"))

		backup := setup.BackupCodes[0]
		method, err := svc.VerifyCode(ctx, "user-4", backup)
		require.NoError(t, err)
		assert.Equal(t, twofactor.MethodBackupCode, method)

		// Second use of the same code looks like any other bad factor.
		_, err = svc.VerifyCode(ctx, "user-4", backup)
		assert.ErrorIs(t, err, twofactor.ErrInvalidSecondFactor)
	})

	t.Run("backup code accepted without hyphens and lowercased", func(t *testing.T) {
		t.Parallel()

		clock := newTestClock()
		svc, _ := newTestService(t, quietConfig(), clock)
		ctx := context.Background()

		setup, err := svc.Setup(ctx, "user-5", "user-5@example.com")
		require.NoError(t, err)
		code, err := totp.CodeAt(setup.Secret, clock.Now())
		require.NoError(t, err)
		require.NoError(t, svc.Enable(ctx, "user-5", code, "correct horse"))

		loose := "  " + strings.ToLower(strings.ReplaceAll(setup.BackupCodes[1], "-", "")) + " "

		_, err = svc.VerifyCode(ctx, "user-5", loose)
		assert.NoError(t, err)
	})

	t.Run("not enrolled", func(t *testing.T) {
		t.Parallel()

		clock := newTestClock()
		svc, _ := newTestService(t, quietConfig(), clock)

		_, err := svc.VerifyCode(context.Background(), "nobody", "123456")
		assert.ErrorIs(t, err, twofactor.ErrNotEnrolled)
	})

	t.Run("rate limited", func(t *testing.T) {
		t.Parallel()

		clock := newTestClock()
		cfg := quietConfig()
		cfg.VerifyLimit = 3
		svc, _ := newTestService(t, cfg, clock)
		enroll(t, svc, clock, "user-6")
		ctx := context.Background()

		for n := 0; n < 3; n++ {
			_, err := svc.VerifyCode(ctx, "user-6", "000000")
			require.ErrorIs(t, err, twofactor.ErrInvalidSecondFactor)
		}
		_, err := svc.VerifyCode(ctx, "user-6", "000000")
		assert.ErrorIs(t, err, twofactor.ErrRateLimited)
	})
}

func TestServiceDisable(t *testing.T) {
	t.Parallel()

	t.Run("clears state and revokes devices", func(t *testing.T) {
		t.Parallel()

		clock := newTestClock()
		svc, store := newTestService(t, quietConfig(), clock)
		secret := enroll(t, svc, clock, "user-1")
		ctx := context.Background()

		_, err := svc.Devices().Issue(ctx, "user-1")
		require.NoError(t, err)

		clock.Advance(time.Minute)
		code, err := totp.CodeAt(secret, clock.Now())
		require.NoError(t, err)
		require.NoError(t, svc.Disable(ctx, "user-1", code, "correct horse"))

		rec, err := store.GetRecord(ctx, "user-1")
		require.NoError(t, err)
		assert.False(t, rec.Enabled())
		assert.Empty(t, rec.EncryptedSecret)
		assert.Empty(t, rec.BackupCodeHashes)

		devices, err := store.ListTrustedDevices(ctx, "user-1")
		require.NoError(t, err)
		assert.Empty(t, devices)
	})

	t.Run("accepts backup code as second factor", func(t *testing.T) {
		t.Parallel()

		clock := newTestClock()
		svc, _ := newTestService(t, quietConfig(), clock)
		ctx := context.Background()

		setup, err := svc.Setup(ctx, "user-2", "user-2@example.com")
		require.NoError(t, err)
		code, err := totp.CodeAt(setup.Secret, clock.Now())
		require.NoError(t, err)
		require.NoError(t, svc.Enable(ctx, "user-2", code, "correct horse"))

		assert.NoError(t, svc.Disable(ctx, "user-2", setup.BackupCodes[0], "correct horse"))
	})

	t.Run("wrong password", func(t *testing.T) {
		t.Parallel()

		clock := newTestClock()
		svc, _ := newTestService(t, quietConfig(), clock)
		secret := enroll(t, svc, clock, "user-3")

		code, err := totp.CodeAt(secret, clock.Now())
		require.NoError(t, err)
		err = svc.Disable(context.Background(), "user-3", code, "wrong")
		assert.ErrorIs(t, err, twofactor.ErrInvalidCredentials)
	})

	t.Run("not enrolled", func(t *testing.T) {
		t.Parallel()

		clock := newTestClock()
		svc, _ := newTestService(t, quietConfig(), clock)

		err := svc.Disable(context.Background(), "user-4", "123456", "correct horse")
		assert.ErrorIs(t, err, twofactor.ErrNotEnrolled)
	})
}

func TestServiceRegenerateBackupCodes(t *testing.T) {
	t.Parallel()

	t.Run("invalidates the old set", func(t *testing.T) {
		t.Parallel()

		clock := newTestClock()
		svc, _ := newTestService(t, quietConfig(), clock)
		ctx := context.Background()

		setup, err := svc.Setup(ctx, "user-1", "user-1@example.com")
		require.NoError(t, err)
		code, err := totp.CodeAt(setup.Secret, clock.Now())
		require.NoError(t, err)
		require.NoError(t, svc.Enable(ctx, "user-1", code, "correct horse"))

		fresh, err := svc.RegenerateBackupCodes(ctx, "user-1")
		require.NoError(t, err)
		require.Len(t, fresh, 10)

		_, err = svc.VerifyCode(ctx, "user-1", setup.BackupCodes[0])
		assert.ErrorIs(t, err, twofactor.ErrInvalidSecondFactor)

		method, err := svc.VerifyCode(ctx, "user-1", fresh[0])
		require.NoError(t, err)
		assert.Equal(t, twofactor.MethodBackupCode, method)
	})

	t.Run("requires enabled state", func(t *testing.T) {
		t.Parallel()

		clock := newTestClock()
		svc, _ := newTestService(t, quietConfig(), clock)

		_, err := svc.RegenerateBackupCodes(context.Background(), "user-2")
		assert.ErrorIs(t, err, twofactor.ErrNotEnrolled)
	})
}

func TestServiceStatus(t *testing.T) {
	t.Parallel()

	clock := newTestClock()
	svc, _ := newTestService(t, quietConfig(), clock)
	ctx := context.Background()

	status, err := svc.Status(ctx, "user-1")
	require.NoError(t, err)
	assert.False(t, status.Enabled)
	assert.Zero(t, status.TrustedDeviceCount)

	enroll(t, svc, clock, "user-1")
	_, err = svc.Devices().Issue(ctx, "user-1")
	require.NoError(t, err)

	status, err = svc.Status(ctx, "user-1")
	require.NoError(t, err)
	assert.True(t, status.Enabled)
	assert.Equal(t, 1, status.TrustedDeviceCount)
}
