// Package redis connects to a Redis server from environment configuration
// with bounded retries. The Redis-backed rate-limit store uses the client
// it returns; Healthcheck plugs into standard readiness probes.
package redis
