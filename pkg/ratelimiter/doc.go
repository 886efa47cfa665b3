// Package ratelimiter provides a token bucket rate limiter behind a
// pluggable Store interface.
//
// Bucket performs the bookkeeping (capacity, refill rate, refill interval)
// while the store supplies atomic consume semantics: MemoryStore for
// single-process deployments and RedisStore (a Lua script executed
// server-side) when the limit must hold across instances. A negative
// Remaining in the returned Result means the request must be denied;
// callers decide how to surface that to their users.
//
// The consume step is atomic in every store, so a burst of concurrent
// requests can never jointly exceed the configured capacity.
package ratelimiter
