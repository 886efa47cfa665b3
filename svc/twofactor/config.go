package twofactor

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
	Issuer               string        `env:"TWOFA_ISSUER" envDefault:"ServerCraft"`     // Issuer shown in authenticator apps
	BackupCodeCount      int           `env:"TWOFA_BACKUP_CODE_COUNT" envDefault:"10"`   // Codes per generated set
	PendingEnrollmentTTL time.Duration `env:"TWOFA_PENDING_TTL" envDefault:"15m"`        // How long an unconfirmed secret stays valid
	QRCodeSize           int           `env:"TWOFA_QR_SIZE" envDefault:"256"`            // Enrollment QR code size in pixels, 0 disables rendering
	DeviceTokenTTL       time.Duration `env:"TWOFA_DEVICE_TOKEN_TTL" envDefault:"720h"`  // Trusted device lifetime (30 days)
	SetupLimit           int           `env:"TWOFA_SETUP_LIMIT" envDefault:"5"`          // Setup attempts per window per identity
	SetupWindow          time.Duration `env:"TWOFA_SETUP_WINDOW" envDefault:"1h"`        //
	RegenerateLimit      int           `env:"TWOFA_REGENERATE_LIMIT" envDefault:"3"`     // Backup code regenerations per window
	RegenerateWindow     time.Duration `env:"TWOFA_REGENERATE_WINDOW" envDefault:"1h"`   //
	VerifyLimit          int           `env:"TWOFA_VERIFY_LIMIT" envDefault:"10"`        // Second-factor verifications per window
	VerifyWindow         time.Duration `env:"TWOFA_VERIFY_WINDOW" envDefault:"1m"`       //
}

// DefaultConfig returns the configuration used when nothing is set in the
// environment. Handy for tests and embedding.
func DefaultConfig() Config {
	return Config{
		Issuer:               "ServerCraft",
		BackupCodeCount:      10,
		PendingEnrollmentTTL: 15 * time.Minute,
		QRCodeSize:           256,
		DeviceTokenTTL:       30 * 24 * time.Hour,
		SetupLimit:           5,
		SetupWindow:          time.Hour,
		RegenerateLimit:      3,
		RegenerateWindow:     time.Hour,
		VerifyLimit:          10,
		VerifyWindow:         time.Minute,
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
