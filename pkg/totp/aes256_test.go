package totp_test

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/servercraft/authkit/pkg/totp"
)

func TestEncryptDecryptSecret(t *testing.T) {
	t.Parallel()

	key, err := totp.GenerateEncryptionKey()
	require.NoError(t, err)
	require.Len(t, key, totp.AESKeySize)

	encrypted, err := totp.EncryptSecret("JBSWY3DPEHPK3PXP", key)
	require.NoError(t, err)
	assert.NotContains(t, encrypted, "JBSWY3DPEHPK3PXP")

	decrypted, err := totp.DecryptSecret(encrypted, key)
	require.NoError(t, err)
	assert.Equal(t, "JBSWY3DPEHPK3PXP", decrypted)
}

func TestEncryptSecret_InvalidKeyLength(t *testing.T) {
	t.Parallel()
	_, err := totp.EncryptSecret("whatever", make([]byte, 16))
	assert.ErrorIs(t, err, totp.ErrInvalidEncryptionKeyLength)
}

func TestDecryptSecret_Errors(t *testing.T) {
	t.Parallel()
	key := make([]byte, totp.AESKeySize)

	t.Run("not base64", func(t *testing.T) {
		t.Parallel()
		_, err := totp.DecryptSecret("%%%not-base64%%%", key)
		assert.ErrorIs(t, err, totp.ErrFailedToDecryptSecret)
	})

	t.Run("cipher too short", func(t *testing.T) {
		t.Parallel()
		short := base64.StdEncoding.EncodeToString([]byte{0x01, 0x02})
		_, err := totp.DecryptSecret(short, key)
		assert.ErrorIs(t, err, totp.ErrInvalidCipherTooShort)
	})

	t.Run("wrong key", func(t *testing.T) {
		t.Parallel()
		rightKey, err := totp.GenerateEncryptionKey()
		require.NoError(t, err)
		wrongKey, err := totp.GenerateEncryptionKey()
		require.NoError(t, err)

		encrypted, err := totp.EncryptSecret("SECRET", rightKey)
		require.NoError(t, err)

		_, err = totp.DecryptSecret(encrypted, wrongKey)
		assert.ErrorIs(t, err, totp.ErrFailedToDecryptSecret)
	})
}

func TestGetEncryptionKey(t *testing.T) {
	t.Parallel()

	t.Run("valid", func(t *testing.T) {
		t.Parallel()
		encoded, err := totp.GenerateEncodedEncryptionKey()
		require.NoError(t, err)

		key, err := totp.GetEncryptionKey(totp.Config{EncryptionKey: encoded})
		require.NoError(t, err)
		assert.Len(t, key, totp.AESKeySize)
	})

	t.Run("empty", func(t *testing.T) {
		t.Parallel()
		_, err := totp.GetEncryptionKey(totp.Config{})
		assert.ErrorIs(t, err, totp.ErrEncryptionKeyNotSet)
	})

	t.Run("wrong length", func(t *testing.T) {
		t.Parallel()
		encoded := base64.StdEncoding.EncodeToString(make([]byte, 16))
		_, err := totp.GetEncryptionKey(totp.Config{EncryptionKey: encoded})
		assert.ErrorIs(t, err, totp.ErrInvalidEncryptionKeyLength)
	})
}
