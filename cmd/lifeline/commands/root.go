package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"lifeline/internal/app"
	"lifeline/internal/domain"
	"lifeline/internal/vault"
)

var (
	configPath string
	home       string
	relayURL   string
	hubID      string
	pin        string

	appCfg app.Config
	appCtx *app.Wire
)

func Execute() error {
	root := &cobra.Command{
		Use:   "lifeline",
		Short: "Secure sync client for hotline volunteers",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.Load(configPath)
			if err != nil {
				return err
			}
			if home != "" {
				cfg.Home = home
			}
			if relayURL != "" {
				cfg.RelayURL = relayURL
			}
			if hubID != "" {
				cfg.Hub = hubID
			}
			appCfg = cfg
			appCtx, err = app.NewWire(cfg)
			return err
		},
	}

	root.PersistentFlags().StringVar(&configPath, "config", "", "config file (YAML)")
	root.PersistentFlags().StringVar(&home, "home", "", "config dir (default ~/.lifeline)")
	root.PersistentFlags().StringVar(&relayURL, "relay", "", "relay websocket URL")
	root.PersistentFlags().StringVar(&hubID, "hub", "", "hub identifier")
	root.PersistentFlags().StringVarP(&pin, "pin", "p", "", "vault PIN")

	root.AddCommand(importCmd(), fingerprintCmd(), unlockCheckCmd(), tokenCmd(),
		listenCmd(), hubCmd(), exportCmd(), wipeCmd())
	return root.Execute()
}

// unlock opens the vault with the --pin flag. Consecutive failures are
// counted on disk; crossing the configured threshold destroys the identity.
func unlock() (domain.PublicKey, error) {
	if pin == "" {
		return domain.PublicKey{}, fmt.Errorf("PIN required (-p)")
	}
	pub, err := appCtx.Vault.Unlock(pin)
	if err != nil {
		if errors.Is(err, vault.ErrUnlockFailed) {
			if wiped, werr := recordFailedUnlock(); werr == nil && wiped {
				return domain.PublicKey{}, fmt.Errorf("identity wiped after %d failed unlock attempts",
					appCfg.Vault.WipeAfterFailures)
			}
		}
		return domain.PublicKey{}, err
	}
	clearFailedUnlocks()
	return pub, nil
}
