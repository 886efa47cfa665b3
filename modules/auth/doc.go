// Package auth exposes the login and two-factor services over HTTP. All
// request bodies are validated before any business logic runs, and service
// errors map onto a fixed status table: credential and second-factor
// failures are 401, rate limits 429, lifecycle conflicts 409 and malformed
// requests 422.
package auth
