package token

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"
)

// sigLen is the truncated HMAC-SHA256 signature length in bytes. 64 bits
// is enough for short-lived single-purpose tokens while keeping them compact.
const sigLen = 8

// Generate creates a token by JSON encoding the payload and appending a
// truncated HMAC-SHA256 signature: base64url(payload) + "." + base64url(sig).
func Generate[T any](payload T, secret string) (string, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	payloadEnc := base64.RawURLEncoding.EncodeToString(data)
	h := hmac.New(sha256.New, []byte(secret))
	h.Write(data)
	sigEnc := base64.RawURLEncoding.EncodeToString(h.Sum(nil)[:sigLen])

	return payloadEnc + "." + sigEnc, nil
}

// Parse verifies the token's signature in constant time and decodes the
// JSON payload into the generic type. A token with a bad signature never
// has its payload interpreted.
func Parse[T any](tok string, secret string) (T, error) {
	var payload T
	parts := strings.Split(tok, ".")
	if len(parts) != 2 {
		return payload, ErrInvalidToken
	}

	data, err := base64.RawURLEncoding.DecodeString(parts[0])
	if err != nil {
		return payload, errors.Join(ErrInvalidToken, err)
	}

	sig, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return payload, errors.Join(ErrInvalidToken, err)
	}

	h := hmac.New(sha256.New, []byte(secret))
	h.Write(data)
	expectedSig := h.Sum(nil)[:sigLen]

	if subtle.ConstantTimeCompare(sig, expectedSig) != 1 {
		return payload, ErrSignatureInvalid
	}

	if err := json.Unmarshal(data, &payload); err != nil {
		return payload, errors.Join(ErrInvalidToken, err)
	}

	return payload, nil
}
