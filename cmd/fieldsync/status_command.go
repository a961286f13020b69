package main

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"fieldsync/internal/ipc"
)

const watchInterval = 2 * time.Second

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var watch bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show daemon and queue status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				out := cmd.OutOrStdout()
				color := colorEnabled(out)

				resp, err := client.Status()
				if err != nil {
					return err
				}
				renderStatus(out, resp, color)

				if !watch {
					return nil
				}

				ticker := time.NewTicker(watchInterval)
				defer ticker.Stop()
				for {
					select {
					case <-cmd.Context().Done():
						return cmd.Context().Err()
					case <-ticker.C:
						resp, err := client.Status()
						if err != nil {
							return err
						}
						if color {
							fmt.Fprint(out, "\x1b[2J\x1b[H")
						} else {
							fmt.Fprintln(out)
						}
						renderStatus(out, resp, color)
					}
				}
			})
		},
	}

	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "Refresh the status display until interrupted")
	return cmd
}

func renderStatus(out io.Writer, resp *ipc.StatusResponse, color bool) {
	fmt.Fprintln(out, sectionHeader("FieldSync", color))
	fmt.Fprintln(out, statusLine("Daemon", runSeverity(resp.Running), fmt.Sprintf("pid %d", resp.PID), color))
	fmt.Fprintln(out, statusLine("Network", netSeverity(resp.Online), onlineLabel(resp.Online), color))
	fmt.Fprintln(out, statusLine("Mode", modeSeverity(resp.Mode), formatStatusLabel(resp.Mode), color))
	if resp.Syncing {
		fmt.Fprintln(out, statusLine("Sync", sevInfo, "in progress", color))
	}
	fmt.Fprintln(out, statusLine("Pending", pendingSeverity(resp.PendingCount), fmt.Sprintf("%d captures", resp.PendingCount), color))
	fmt.Fprintln(out)

	if len(resp.QueueStats) == 0 {
		fmt.Fprintln(out, "Queue is empty")
		return
	}
	fmt.Fprintln(out, renderCountsTable(resp.QueueStats))
}

func runSeverity(running bool) severity {
	if running {
		return sevOK
	}
	return sevError
}

func netSeverity(online bool) severity {
	if online {
		return sevOK
	}
	return sevWarn
}

func onlineLabel(online bool) string {
	if online {
		return "online"
	}
	return "offline"
}

func pendingSeverity(count int) severity {
	if count == 0 {
		return sevOK
	}
	return sevWarn
}
