package totp

import (
	"sync"

	"github.com/caarlos0/env/v11"
	_ "github.com/joho/godotenv/autoload" // Load .env file automatically
)

var (
	cfg  Config
	once sync.Once
)

type Config struct {
	EncryptionKey string `env:"TOTP_ENCRYPTION_KEY,required"` // Base64-encoded 32-byte AES-256 key for secrets at rest
}

// LoadConfig loads the package configuration from the environment exactly once.
func LoadConfig() (Config, error) {
	var err error
	once.Do(func() {
		var c Config
		if err = env.Parse(&c); err != nil {
			return
		}
		if c.EncryptionKey == "" {
			err = ErrEncryptionKeyNotSet
			return
		}
		cfg = c
	})
	if err != nil {
		return Config{}, err
	}
	return cfg, nil
}
