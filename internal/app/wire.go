package app

import (
	"fmt"
	"os"

	"lifeline/internal/domain"
	"lifeline/internal/hubkey"
	"lifeline/internal/relay"
	"lifeline/internal/store"
	"lifeline/internal/vault"
)

// Wire bundles all stores, the vault, and the relay client for the CLI.
type Wire struct {
	Vault   *vault.Vault
	HubKeys *hubkey.Manager
	Relay   *relay.Client
}

// NewWire constructs the dependency graph from cfg. The home directory is
// created if missing; nothing inside it is readable by other users.
func NewWire(cfg Config) (*Wire, error) {
	if err := os.MkdirAll(cfg.Home, 0o700); err != nil {
		return nil, fmt.Errorf("create home %s: %w", cfg.Home, err)
	}

	// File-based stores
	recordStore := store.NewVaultRecordStore(cfg.Home)
	hubKeyStore := store.NewHubKeyFileStore(cfg.Home)

	var vaultOpts []vault.Option
	if cfg.Vault.IdleTimeout > 0 {
		vaultOpts = append(vaultOpts, vault.WithIdleTimeout(cfg.Vault.IdleTimeout))
	}
	if cfg.Vault.BackgroundGrace > 0 {
		vaultOpts = append(vaultOpts, vault.WithBackgroundGrace(cfg.Vault.BackgroundGrace))
	}
	v := vault.New(recordStore, vaultOpts...)

	hub := domain.HubID(cfg.Hub)
	hk := hubkey.NewManager(hub, hubKeyStore)

	// The vault locking drops the hub key too: a locked client must hold no
	// decryption capability at all.
	v.OnLock(hk.Clear)

	rc := relay.New(relay.Config{
		URL:             cfg.RelayURL,
		Hub:             hub,
		FreshnessWindow: cfg.Relay.FreshnessWindow,
		ConnectTimeout:  cfg.Relay.ConnectTimeout,
		AuthGrace:       cfg.Relay.AuthGrace,
		MaxAttempts:     cfg.Relay.MaxAttempts,
	}, v, hk)

	return &Wire{
		Vault:   v,
		HubKeys: hk,
		Relay:   rc,
	}, nil
}
