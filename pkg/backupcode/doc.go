// Package backupcode generates and verifies single-use recovery codes that
// substitute for a TOTP code when the authenticator device is unavailable.
//
// Codes carry 48 bits of entropy and are rendered as XXXX-XXXX-XXXX for
// easy transcription. Only salted bcrypt hashes are ever stored; the
// plaintext is returned to the caller exactly once at generation time.
// Normalize gives the canonical form so user input with or without hyphens
// verifies against the same hash.
package backupcode
