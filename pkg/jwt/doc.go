// Package jwt is a dependency-free HS256 JSON Web Token implementation.
//
// It backs the default access-token issuer: once the login flow reaches its
// authenticated state, Service.Generate mints the caller's API credential
// with StandardClaims (subject, issuer, expiry). Parse verifies the
// signature in constant time, rejects non-HS256 headers, and runs temporal
// validation on claim types that implement Valid() error.
package jwt
