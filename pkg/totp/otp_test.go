package totp_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/servercraft/authkit/pkg/totp"
)

func TestGenerateSecretKey(t *testing.T) {
	t.Parallel()
	secret, err := totp.GenerateSecretKey()
	require.NoError(t, err)
	assert.NotEmpty(t, secret)
	assert.Regexp(t, totp.ValidateSecretKeyRegex, secret)

	// 20 random bytes encode to 32 base32 characters without padding.
	assert.Len(t, secret, 32)

	other, err := totp.GenerateSecretKey()
	require.NoError(t, err)
	assert.NotEqual(t, secret, other)
}

func TestEnrollmentURI(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		params  totp.Params
		want    string
		wantErr error
	}{
		{
			name: "basic URI",
			params: totp.Params{
				Secret:      "JBSWY3DPEHPK3PXP",
				AccountName: "admin@servercraft.local",
				Issuer:      "ServerCraft",
			},
			want: "otpauth://totp/ServerCraft:admin@servercraft.local?algorithm=SHA1&digits=6&issuer=ServerCraft&period=30&secret=JBSWY3DPEHPK3PXP",
		},
		{
			name: "special characters escaped",
			params: totp.Params{
				Secret:      "JBSWY3DPEHPK3PXP",
				AccountName: "test+user@example.com",
				Issuer:      "Server & Craft",
			},
			want: "otpauth://totp/Server%20&%20Craft:test+user@example.com?algorithm=SHA1&digits=6&issuer=Server+%26+Craft&period=30&secret=JBSWY3DPEHPK3PXP",
		},
		{
			name:    "missing secret",
			params:  totp.Params{AccountName: "a@b.c", Issuer: "X"},
			wantErr: totp.ErrMissingSecret,
		},
		{
			name:    "invalid secret",
			params:  totp.Params{Secret: "not-base32!", AccountName: "a@b.c", Issuer: "X"},
			wantErr: totp.ErrInvalidSecret,
		},
		{
			name:    "missing account name",
			params:  totp.Params{Secret: "JBSWY3DPEHPK3PXP", Issuer: "X"},
			wantErr: totp.ErrMissingAccountName,
		},
		{
			name:    "missing issuer",
			params:  totp.Params{Secret: "JBSWY3DPEHPK3PXP", AccountName: "a@b.c"},
			wantErr: totp.ErrMissingIssuer,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := totp.EnrollmentURI(tt.params)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestVerifyAt_SkewWindow(t *testing.T) {
	t.Parallel()
	const secret = "JBSWY3DPEHPK3PXP"
	now := time.Unix(1700000000, 0)

	tests := []struct {
		name   string
		offset time.Duration
		want   bool
	}{
		{"current step", 0, true},
		{"previous step", -30 * time.Second, true},
		{"next step", 30 * time.Second, true},
		{"two steps behind", -60 * time.Second, false},
		{"two steps ahead", 60 * time.Second, false},
		{"five steps ahead", 150 * time.Second, false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			code, err := totp.CodeAt(secret, now.Add(tt.offset))
			require.NoError(t, err)

			ok, step, err := totp.VerifyAt(secret, code, now)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ok)
			if tt.want {
				assert.Equal(t, now.Add(tt.offset).Unix()/30, step)
			}
		})
	}
}

func TestVerifyAt_InvalidInput(t *testing.T) {
	t.Parallel()
	now := time.Unix(1700000000, 0)

	tests := []struct {
		name    string
		secret  string
		otp     string
		wantErr error
	}{
		{"invalid base32 secret", "invalid-base32!@#$", "123456", totp.ErrInvalidSecret},
		{"empty secret", "", "123456", totp.ErrInvalidSecret},
		{"short code", "JBSWY3DPEHPK3PXP", "12345", totp.ErrInvalidOTP},
		{"long code", "JBSWY3DPEHPK3PXP", "1234567", totp.ErrInvalidOTP},
		{"non-digit code", "JBSWY3DPEHPK3PXP", "12345a", totp.ErrInvalidOTP},
		{"empty code", "JBSWY3DPEHPK3PXP", "", totp.ErrInvalidOTP},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			ok, _, err := totp.VerifyAt(tt.secret, tt.otp, now)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.False(t, ok)
		})
	}
}

func TestVerifyAt_WrongCode(t *testing.T) {
	t.Parallel()
	secret, err := totp.GenerateSecretKey()
	require.NoError(t, err)

	now := time.Unix(1700000000, 0)
	code, err := totp.CodeAt(secret, now)
	require.NoError(t, err)

	// Deterministically different 6-digit code.
	wrong := "000000"
	if wrong == code {
		wrong = "000001"
	}

	ok, _, err := totp.VerifyAt(secret, wrong, now)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestVerify_CurrentTime(t *testing.T) {
	t.Parallel()
	secret, err := totp.GenerateSecretKey()
	require.NoError(t, err)

	code, err := totp.Code(secret)
	require.NoError(t, err)

	ok, err := totp.Verify(secret, code)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestGenerateHOTP_RFC4226Vectors(t *testing.T) {
	t.Parallel()
	// Appendix D of RFC 4226, secret "12345678901234567890".
	key := []byte("12345678901234567890")
	expected := []int{755224, 287082, 359152, 969429, 338314, 254676, 287922, 162583, 399871, 520489}

	for counter, want := range expected {
		assert.Equal(t, want, totp.GenerateHOTP(key, int64(counter), 6), "counter %d", counter)
	}
}
