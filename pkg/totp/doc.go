// Package totp implements Time-based One-Time Passwords per RFC 6238 on top
// of the RFC 4226 HOTP algorithm.
//
// The package covers the full enrollment and verification lifecycle for a
// software second factor: 160-bit Base32 secret generation
// (GenerateSecretKey), otpauth:// Key-URI construction for authenticator
// apps (EnrollmentURI), code generation for arbitrary time steps
// (Code/CodeAt) and drift-tolerant verification (Verify/VerifyAt).
//
// VerifyAt accepts codes from the current 30-second step and the
// immediately adjacent steps (±DefaultSkew) and compares derived codes in
// constant time. It also reports the matched step counter so callers can
// persist it and reject replay of a code within the same step.
//
// aes256.go provides AES-256-GCM helpers for encrypting the secret before
// it is persisted; the key is loaded from the TOTP_ENCRYPTION_KEY
// environment variable (Base64, 32 bytes) via LoadConfig.
//
// All failures are reported through package-level sentinel errors suitable
// for errors.Is checks, e.g. ErrInvalidSecret and ErrInvalidOTP.
package totp
