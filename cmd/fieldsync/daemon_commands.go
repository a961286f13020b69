package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"fieldsync/internal/ipc"
)

func newDaemonCommand(ctx *commandContext) *cobra.Command {
	daemonCmd := &cobra.Command{
		Use:   "daemon",
		Short: "Inspect the fieldsync daemon",
	}

	daemonCmd.AddCommand(newDaemonStatusCommand(ctx))
	daemonCmd.AddCommand(newDaemonPingCommand(ctx))

	return daemonCmd
}

func newDaemonStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show daemon process details",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Status()
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				color := colorEnabled(out)
				fmt.Fprintln(out, statusLine("Daemon", runSeverity(resp.Running), fmt.Sprintf("pid %d", resp.PID), color))
				fmt.Fprintln(out, statusLine("Socket", sevInfo, ctx.socketPath(), color))
				fmt.Fprintln(out, statusLine("Queue DB", sevInfo, resp.QueueDBPath, color))
				fmt.Fprintln(out, statusLine("Lock file", sevInfo, resp.LockPath, color))
				return nil
			})
		},
	}
}

func newDaemonPingCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Check daemon liveness",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Ping()
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Daemon responding (pid %d)\n", resp.PID)
				return nil
			})
		},
	}
}
