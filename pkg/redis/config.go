package redis

import "time"

// Config is parsed from the environment by the composition root.
type Config struct {
	// ConnectionURL is a redis:// URL, e.g. "redis://:password@localhost:6379/0".
	ConnectionURL string `env:"REDIS_URL,required" envDefault:"redis://localhost:6379/0"`
	// RetryAttempts and RetryInterval bound how often Connect re-pings an
	// unreachable server before giving up.
	RetryAttempts int           `env:"REDIS_RETRY_ATTEMPTS" envDefault:"3"`
	RetryInterval time.Duration `env:"REDIS_RETRY_INTERVAL" envDefault:"5s"`
	// ConnectTimeout caps the whole Connect call, retries included.
	ConnectTimeout time.Duration `env:"REDIS_CONNECT_TIMEOUT" envDefault:"30s"`
}
