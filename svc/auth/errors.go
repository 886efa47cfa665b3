package auth

import "errors"

// Login flow error taxonomy. Uniform by design: an unknown email and a
// wrong password produce the same error, and an expired temp token is
// indistinguishable from a replayed one.
var (
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrInvalidSecondFactor = errors.New("invalid second factor")
	ErrExpiredTempToken    = errors.New("expired or invalid challenge token")
	ErrRateLimited         = errors.New("rate limit exceeded")
)
