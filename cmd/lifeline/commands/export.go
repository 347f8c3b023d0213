package commands

import (
	"encoding/hex"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"lifeline/internal/crypto"
)

func exportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export",
		Short: "Print the raw secret key for backup",
		RunE: func(cmd *cobra.Command, args []string) error {
			if pin == "" {
				return fmt.Errorf("PIN required (-p)")
			}
			secret, err := appCtx.Vault.ExportSecret(pin)
			if err != nil {
				return err
			}
			defer crypto.Wipe(secret[:])
			fmt.Fprintln(os.Stderr, "warning: anyone holding this key owns your identity")
			fmt.Println(hex.EncodeToString(secret.Slice()))
			return nil
		},
	}
}
