package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"lifeline/internal/domain"
	"lifeline/internal/relay"
)

// listen: connect, subscribe, and print decrypted events until interrupted.
func listenCmd() *cobra.Command {
	var topic string
	var kinds []int
	cmd := &cobra.Command{
		Use:   "listen",
		Short: "Connect to the relay and print decrypted events",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := unlock(); err != nil {
				return err
			}

			// Load the cached hub key so content decrypts.
			restored := false
			err := appCtx.Vault.UseSecret(func(sk domain.SecretKey) error {
				var err error
				restored, err = appCtx.HubKeys.Restore(sk)
				return err
			})
			if err != nil {
				return err
			}
			if !restored {
				fmt.Fprintln(os.Stderr, "warning: no hub key cached; events will be dropped until one is adopted")
			}

			appCtx.Relay.OnStateChange(func(st relay.State) {
				fmt.Fprintf(os.Stderr, "relay: %s\n", st)
			})

			_, err = appCtx.Relay.Subscribe(domain.TopicID(topic), kinds, printEvent)
			if err != nil {
				return err
			}
			if err := appCtx.Relay.Connect(cmd.Context()); err != nil {
				return err
			}
			defer appCtx.Relay.Close()

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			<-ctx.Done()
			return nil
		},
	}
	cmd.Flags().StringVar(&topic, "topic", "", "topic to follow (empty for all)")
	cmd.Flags().IntSliceVar(&kinds, "kind", nil, "event kinds to follow (empty for all)")
	return cmd
}

func printEvent(ev domain.AppEvent) {
	data, err := domain.EncodeAppEvent(ev)
	if err != nil {
		fmt.Fprintf(os.Stderr, "encode event: %v\n", err)
		return
	}
	fmt.Printf("%s\n", data)
}
