package redis

import "errors"

var (
	// ErrInvalidConnectionURL reports an unparseable REDIS_URL.
	ErrInvalidConnectionURL = errors.New("redis: invalid connection URL")
	// ErrNotReady reports that the server never answered a ping within the
	// retry budget.
	ErrNotReady = errors.New("redis: server not ready")
	// ErrHealthcheckFailed reports a failed readiness ping.
	ErrHealthcheckFailed = errors.New("redis: healthcheck failed")
)
