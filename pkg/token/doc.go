// Package token implements compact HMAC-signed payload tokens.
//
// A token is base64url(JSON payload) + "." + base64url(truncated
// HMAC-SHA256 signature). It is stateless and tamper-evident but not
// encrypted: the payload is readable by anyone holding the token, so it
// must carry identifiers and timestamps only, never secret material.
//
// The auth service uses it for the short-lived second-factor-pending token
// that binds a password-verified login attempt to its pending challenge.
package token
