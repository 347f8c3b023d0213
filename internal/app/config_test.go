package app_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"lifeline/internal/app"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv(app.EnvHome, "")
	t.Setenv(app.EnvRelayURL, "")
	t.Setenv(app.EnvHub, "")

	cfg, err := app.Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Home == "" || cfg.RelayURL == "" || cfg.Hub == "" {
		t.Fatalf("defaults incomplete: %+v", cfg)
	}
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	t.Setenv(app.EnvHome, "")
	t.Setenv(app.EnvRelayURL, "")
	t.Setenv(app.EnvHub, "")

	path := filepath.Join(t.TempDir(), "config.yaml")
	body := `
relay_url: wss://relay.example.org
hub: hub-west
relay:
  freshness_window: 2m
vault:
  idle_timeout: 10m
`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := app.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.RelayURL != "wss://relay.example.org" {
		t.Fatalf("relay url = %q", cfg.RelayURL)
	}
	if cfg.Hub != "hub-west" {
		t.Fatalf("hub = %q", cfg.Hub)
	}
	if cfg.Relay.FreshnessWindow != 2*time.Minute {
		t.Fatalf("freshness window = %v", cfg.Relay.FreshnessWindow)
	}
	if cfg.Vault.IdleTimeout != 10*time.Minute {
		t.Fatalf("idle timeout = %v", cfg.Vault.IdleTimeout)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("hub: from-file\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv(app.EnvHub, "from-env")

	cfg, err := app.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Hub != "from-env" {
		t.Fatalf("hub = %q, want env value to win", cfg.Hub)
	}
}

func TestLoad_MissingFileIsFine(t *testing.T) {
	if _, err := app.Load(filepath.Join(t.TempDir(), "absent.yaml")); err != nil {
		t.Fatalf("Load: %v", err)
	}
}

func TestLoad_MalformedFileFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("{{nope"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := app.Load(path); err == nil {
		t.Fatal("expected error for malformed YAML")
	}
}

func TestNewWire_BuildsGraph(t *testing.T) {
	cfg := app.Default()
	cfg.Home = filepath.Join(t.TempDir(), "home")
	cfg.Hub = "hub-a"

	w, err := app.NewWire(cfg)
	if err != nil {
		t.Fatalf("NewWire: %v", err)
	}
	if w.Vault == nil || w.HubKeys == nil || w.Relay == nil {
		t.Fatalf("wire incomplete: %+v", w)
	}
	if w.HubKeys.Hub().String() != "hub-a" {
		t.Fatalf("hub = %q", w.HubKeys.Hub())
	}
	if _, err := os.Stat(cfg.Home); err != nil {
		t.Fatalf("home dir not created: %v", err)
	}
}
