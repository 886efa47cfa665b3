// Package twofactor implements time-based one-time password enrollment and
// verification for identities, together with single-use backup codes and
// trusted-device bypass tokens.
//
// The lifecycle is setup, enable, verify, disable. Setup generates a secret
// that stays pending until the owner proves possession of their
// authenticator via Enable; abandoning setup leaves no durable state.
// Enabled identities verify either a TOTP code or a backup code, with
// per-step replay protection and uniform failure errors so attackers learn
// nothing from the shape of a rejection.
//
// All state lives behind the Storage interface. MemoryStore serves tests
// and single-instance deployments; PostgresStore provides durable storage
// with the same atomicity guarantees.
package twofactor
