package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"fieldsync/internal/ipc"
)

func newTestNotifyCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "test-notify",
		Short: "Send a test notification",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.TestNotification()
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if resp.Sent {
					fmt.Fprintln(out, "Notification delivered; check your ntfy subscription")
					return nil
				}
				if resp.Message != "" {
					fmt.Fprintf(out, "Notification not sent: %s\n", resp.Message)
					return nil
				}
				fmt.Fprintln(out, "Notification not sent")
				return nil
			})
		},
	}
}
