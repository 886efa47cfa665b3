package qrcode_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/servercraft/authkit/pkg/qrcode"
)

var pngMagic = []byte{0x89, 'P', 'N', 'G'}

func TestGenerate(t *testing.T) {
	t.Parallel()

	png, err := qrcode.Generate("otpauth://totp/ServerCraft:admin?secret=JBSWY3DPEHPK3PXP", 128)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(png, pngMagic))
}

func TestGenerate_DefaultSize(t *testing.T) {
	t.Parallel()

	png, err := qrcode.Generate("hello", 0)
	require.NoError(t, err)
	assert.NotEmpty(t, png)
}

func TestGenerate_EmptyContent(t *testing.T) {
	t.Parallel()

	_, err := qrcode.Generate("   ", 128)
	assert.ErrorIs(t, err, qrcode.ErrEmptyContent)
}

func TestGenerateBase64Image(t *testing.T) {
	t.Parallel()

	uri, err := qrcode.GenerateBase64Image("otpauth://totp/X:a?secret=JBSWY3DPEHPK3PXP", 128)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(uri, "data:image/png;base64,"))
}
