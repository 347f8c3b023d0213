package commands

import (
	"encoding/hex"
	"fmt"

	"github.com/spf13/cobra"

	"lifeline/internal/crypto"
	"lifeline/internal/domain"
)

func importCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <secret-key-hex>",
		Short: "Import a secret key into the PIN-protected vault",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if pin == "" {
				return fmt.Errorf("PIN required (-p)")
			}
			raw, err := hex.DecodeString(args[0])
			if err != nil || len(raw) != len(domain.SecretKey{}) {
				return fmt.Errorf("secret key must be %d hex-encoded bytes", len(domain.SecretKey{}))
			}
			var secret domain.SecretKey
			copy(secret[:], raw)
			defer crypto.Wipe(secret[:])
			crypto.Wipe(raw)

			pub, err := appCtx.Vault.ImportKey(secret, pin)
			if err != nil {
				return err
			}
			fmt.Printf("Identity imported.\nFingerprint: %s\n", crypto.Fingerprint(pub.Slice()))
			return nil
		},
	}
}
