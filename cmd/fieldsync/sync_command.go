package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"fieldsync/internal/ipc"
)

func newSyncCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Upload queued captures now",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.SyncNow()
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if resp.Attempted == 0 {
					fmt.Fprintln(out, "Nothing to sync")
					return nil
				}
				duration := time.Duration(resp.DurationMillis) * time.Millisecond
				fmt.Fprintf(out, "Sync complete: %d uploaded, %d failed, %d skipped in %s\n",
					resp.Completed, resp.Failed, resp.Skipped, duration.Round(time.Millisecond))
				return nil
			})
		},
	}
}
