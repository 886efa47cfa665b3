// Package pg bootstraps a pgx/v5 connection pool from environment
// configuration, retrying with backoff until the database is reachable.
// The Postgres identity store builds on the pool it returns.
package pg
