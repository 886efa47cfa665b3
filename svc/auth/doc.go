// Package auth implements the two-step login flow over the twofactor
// service: password verification, an optional trusted-device bypass, the
// second-factor challenge and access-token issuance.
//
// The intermediate state between a verified password and a verified second
// factor is carried in an HMAC-signed temp token with a five-minute TTL.
// The token authorizes only VerifySecondFactor, survives failed attempts
// so the user can retry, and is consumed on success.
package auth
