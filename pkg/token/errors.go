package token

import "errors"

var (
	// ErrInvalidToken reports a structurally broken token: wrong part
	// count, bad base64, or an undecodable payload.
	ErrInvalidToken = errors.New("token: malformed token")
	// ErrSignatureInvalid reports a well-formed token whose signature does
	// not match the secret.
	ErrSignatureInvalid = errors.New("token: signature mismatch")
)
