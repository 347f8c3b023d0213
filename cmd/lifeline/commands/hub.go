package commands

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"lifeline/internal/crypto"
	"lifeline/internal/domain"
)

func hubCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hub",
		Short: "Manage the shared hub key",
	}
	cmd.AddCommand(hubRotateCmd(), hubAdoptCmd())
	return cmd
}

// hub rotate: mint a fresh hub key and print one envelope per member.
func hubRotateCmd() *cobra.Command {
	var memberHex []string
	cmd := &cobra.Command{
		Use:   "rotate",
		Short: "Generate a fresh hub key and print member envelopes",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := unlock(); err != nil {
				return err
			}
			if len(memberHex) == 0 {
				return fmt.Errorf("at least one --member required")
			}
			members := make([]domain.PublicKey, 0, len(memberHex))
			for _, h := range memberHex {
				raw, err := hex.DecodeString(h)
				if err != nil {
					return fmt.Errorf("member %q: %w", h, err)
				}
				pub, err := crypto.ParsePublicKey(raw)
				if err != nil {
					return fmt.Errorf("member %q: %w", h, err)
				}
				members = append(members, pub)
			}

			envs, err := appCtx.HubKeys.Rotate(members)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(envs)
		},
	}
	cmd.Flags().StringArrayVar(&memberHex, "member", nil, "member public key (33-byte compressed, hex)")
	return cmd
}

// hub adopt: install a hub key from an envelope addressed to this identity.
func hubAdoptCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "adopt",
		Short: "Adopt a hub-key envelope addressed to this identity",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := unlock(); err != nil {
				return err
			}

			var data []byte
			var err error
			if file == "" || file == "-" {
				data, err = io.ReadAll(os.Stdin)
			} else {
				data, err = os.ReadFile(file)
			}
			if err != nil {
				return err
			}
			var env domain.RecipientEnvelope
			if err := json.Unmarshal(data, &env); err != nil {
				return fmt.Errorf("parse envelope: %w", err)
			}

			if err := appCtx.Vault.UseSecret(func(sk domain.SecretKey) error {
				return appCtx.HubKeys.Adopt(env, sk)
			}); err != nil {
				return err
			}
			fmt.Println("Hub key adopted.")
			return nil
		},
	}
	cmd.Flags().StringVar(&file, "file", "-", "envelope JSON file (- for stdin)")
	return cmd
}
