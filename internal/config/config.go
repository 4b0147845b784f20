package config

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds application configuration loaded from environment variables.
type Config struct {
	Port                    int           `envconfig:"PORT" default:"8080"`
	LogLevel                string        `envconfig:"LOG_LEVEL" default:"info"`
	DatabaseURL             string        `envconfig:"DATABASE_URL" default:""`
	Version                 string        `envconfig:"VERSION" default:"dev"`
	BcryptCost              int           `envconfig:"BCRYPT_COST" default:"12"`
	SessionSecret           string        `envconfig:"SESSION_SECRET" required:"true"`
	SessionTTL              time.Duration `envconfig:"SESSION_TTL" default:"12h"`
	SessionCookieSecure     bool          `envconfig:"SESSION_COOKIE_SECURE" default:"true"`
	AllowAnonymousVaultRead bool          `envconfig:"ALLOW_ANONYMOUS_VAULT_READ" default:"false"`
	TeamCodeMaxAttempts     int           `envconfig:"TEAM_CODE_MAX_ATTEMPTS" default:"50"`
	MigrateOnStart          bool          `envconfig:"MIGRATE_ON_START" default:"true"`
}

// InMemory reports whether the server should run without Postgres.
func (c *Config) InMemory() bool {
	return c.DatabaseURL == ""
}

// Load reads configuration from environment variables into a Config struct.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
