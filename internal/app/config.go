package app

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Environment overrides, applied on top of the config file.
const (
	EnvHome     = "LIFELINE_HOME"
	EnvRelayURL = "LIFELINE_RELAY_URL"
	EnvHub      = "LIFELINE_HUB"
)

// Config holds runtime wiring options for building the app.
type Config struct {
	Home     string `yaml:"home"`      // config directory, e.g. $HOME/.lifeline
	RelayURL string `yaml:"relay_url"` // relay endpoint, e.g. wss://relay.example.org
	Hub      string `yaml:"hub"`       // hub identifier this client serves

	Vault struct {
		IdleTimeout     time.Duration `yaml:"idle_timeout"`
		BackgroundGrace time.Duration `yaml:"background_grace"`
		// WipeAfterFailures destroys the identity after this many
		// consecutive failed unlocks. Zero disables the guard.
		WipeAfterFailures int `yaml:"wipe_after_failures"`
	} `yaml:"vault"`

	Relay struct {
		FreshnessWindow time.Duration `yaml:"freshness_window"`
		ConnectTimeout  time.Duration `yaml:"connect_timeout"`
		AuthGrace       time.Duration `yaml:"auth_grace"`
		MaxAttempts     int           `yaml:"max_attempts"`
	} `yaml:"relay"`
}

// Default returns the built-in configuration.
func Default() Config {
	var cfg Config
	if home, err := os.UserHomeDir(); err == nil {
		cfg.Home = filepath.Join(home, ".lifeline")
	} else {
		cfg.Home = ".lifeline"
	}
	cfg.RelayURL = "ws://127.0.0.1:8080"
	cfg.Hub = "default"
	cfg.Vault.WipeAfterFailures = 10
	return cfg
}

// Load reads the YAML file at path over the defaults, then applies
// environment overrides. A missing file is not an error; a malformed one is.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
			// fall through to env overrides
		case err != nil:
			return Config{}, fmt.Errorf("read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}

	if v := os.Getenv(EnvHome); v != "" {
		cfg.Home = v
	}
	if v := os.Getenv(EnvRelayURL); v != "" {
		cfg.RelayURL = v
	}
	if v := os.Getenv(EnvHub); v != "" {
		cfg.Hub = v
	}
	return cfg, nil
}
