package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

const (
	configEnvVar   = "TEAMVAULT_CONFIG"
	configFileName = ".teamvaultrc"

	keyAPIToken   = "API_TOKEN"
	keyDefaultURL = "DEFAULT_URL"

	// DefaultServerURL is used when neither a flag nor the config file names a server.
	DefaultServerURL = "http://localhost:8080"
)

// Config is the persisted CLI configuration.
type Config struct {
	APIToken   string
	DefaultURL string
}

// ConfigPath returns $TEAMVAULT_CONFIG, or ~/.teamvaultrc.
func ConfigPath() (string, error) {
	if p := os.Getenv(configEnvVar); p != "" {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("locating home directory: %w", err)
	}
	return filepath.Join(home, configFileName), nil
}

// LoadConfig reads the dotenv file at path. A missing file yields an empty Config.
func LoadConfig(path string) (*Config, error) {
	values, err := godotenv.Read(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return &Config{
		APIToken:   values[keyAPIToken],
		DefaultURL: values[keyDefaultURL],
	}, nil
}

// SaveConfig writes cfg to path, readable by the owner only.
func SaveConfig(path string, cfg *Config) error {
	values := map[string]string{}
	if cfg.APIToken != "" {
		values[keyAPIToken] = cfg.APIToken
	}
	if cfg.DefaultURL != "" {
		values[keyDefaultURL] = cfg.DefaultURL
	}

	if err := godotenv.Write(values, path); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := os.Chmod(path, 0o600); err != nil {
		return fmt.Errorf("restricting %s: %w", path, err)
	}
	return nil
}
