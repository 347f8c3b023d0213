package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"lifeline/internal/crypto"
)

func fingerprintCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fingerprint",
		Short: "Print identity fingerprint",
		RunE: func(cmd *cobra.Command, args []string) error {
			pub, err := unlock()
			if err != nil {
				return err
			}
			fmt.Printf("Fingerprint: %s\n", crypto.Fingerprint(pub.Slice()))
			return nil
		},
	}
}
