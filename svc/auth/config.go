package auth

import (
	"sync"
	"time"

	"github.com/caarlos0/env/v11"
	_ "github.com/joho/godotenv/autoload" // Load .env file automatically
)

var (
	cfg     Config
	cfgOnce sync.Once
)

type Config struct {
	TempTokenSecret string        `env:"AUTH_TEMP_TOKEN_SECRET,required"`          // HMAC key for second-factor challenge tokens
	JWTSigningKey   string        `env:"AUTH_JWT_SIGNING_KEY,required"`            // HMAC key for issued access tokens
	TempTokenTTL    time.Duration `env:"AUTH_TEMP_TOKEN_TTL" envDefault:"5m"`      // Challenge window between password and second factor
	AccessTokenTTL  time.Duration `env:"AUTH_ACCESS_TOKEN_TTL" envDefault:"1h"`    // Lifetime of issued access tokens
	TokenIssuer     string        `env:"AUTH_TOKEN_ISSUER" envDefault:"authkit"`   // iss claim on issued access tokens
	LoginLimit      int           `env:"AUTH_LOGIN_LIMIT" envDefault:"10"`         // Password attempts per window per email
	LoginWindow     time.Duration `env:"AUTH_LOGIN_WINDOW" envDefault:"1m"`        //
}

// DefaultConfig returns the configuration used when nothing is set in the
// environment. The temp token secret has no safe default and must be
// provided by the caller.
func DefaultConfig(tempTokenSecret string) Config {
	return Config{
		TempTokenSecret: tempTokenSecret,
		TempTokenTTL:    5 * time.Minute,
		AccessTokenTTL:  time.Hour,
		TokenIssuer:     "authkit",
		LoginLimit:      10,
		LoginWindow:     time.Minute,
	}
}

// LoadConfig loads the package configuration from the environment exactly once.
func LoadConfig() (Config, error) {
	var err error
	cfgOnce.Do(func() {
		var c Config
		if err = env.Parse(&c); err != nil {
			return
		}
		cfg = c
	})
	if err != nil {
		return Config{}, err
	}
	return cfg, nil
}
