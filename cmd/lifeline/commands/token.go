package commands

import (
	"encoding/json"
	"os"
	"time"

	"github.com/spf13/cobra"
)

// token: mint a signed auth token for a single API request.
func tokenCmd() *cobra.Command {
	var method, path string
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a signed auth token for an API request",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := unlock(); err != nil {
				return err
			}
			tok, err := appCtx.Vault.CreateAuthToken(time.Now(), method, path)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(tok)
		},
	}
	cmd.Flags().StringVar(&method, "method", "GET", "HTTP method the token covers")
	cmd.Flags().StringVar(&path, "path", "", "request path the token covers")
	_ = cmd.MarkFlagRequired("path")
	return cmd
}
