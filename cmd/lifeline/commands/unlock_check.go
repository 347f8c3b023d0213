package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"lifeline/internal/crypto"
)

// unlock-check: verify the PIN opens the vault without doing anything else.
func unlockCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "unlock-check",
		Short: "Verify the PIN opens the vault",
		RunE: func(cmd *cobra.Command, args []string) error {
			pub, err := unlock()
			if err != nil {
				return err
			}
			fmt.Printf("Unlocked %s\n", crypto.Fingerprint(pub.Slice()))
			return nil
		},
	}
}
