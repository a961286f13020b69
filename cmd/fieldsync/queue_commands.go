package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"fieldsync/internal/ipc"
	"fieldsync/internal/queue"
)

func newQueueCommand(ctx *commandContext) *cobra.Command {
	queueCmd := &cobra.Command{
		Use:   "queue",
		Short: "Inspect and manage the capture queue",
	}

	queueCmd.AddCommand(newQueueListCommand(ctx))
	queueCmd.AddCommand(newQueueDescribeCommand(ctx))
	queueCmd.AddCommand(newQueueRemoveCommand(ctx))
	queueCmd.AddCommand(newQueueClearCompletedCommand(ctx))

	return queueCmd
}

func newQueueListCommand(ctx *commandContext) *cobra.Command {
	var listStatuses []string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List queued captures",
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, statusStr := range listStatuses {
				if _, ok := queue.ParseStatus(statusStr); !ok {
					return fmt.Errorf("unknown queue status %q", statusStr)
				}
			}
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.QueueList(listStatuses)
				if err != nil {
					return err
				}
				if len(resp.Items) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "Queue is empty")
					return nil
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderItemsTable(resp.Items))
				return nil
			})
		},
	}

	cmd.Flags().StringSliceVarP(&listStatuses, "status", "s", nil, "Filter by queue status (repeatable)")
	return cmd
}

func newQueueDescribeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "describe <itemID>",
		Short: "Show full details for a queued capture",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := strings.TrimSpace(args[0])
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.QueueDescribe(id)
				if err != nil {
					return err
				}
				item := resp.Item
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "ID:         %s\n", item.ID)
				fmt.Fprintf(out, "Type:       %s\n", formatCaptureLabel(item.Type))
				fmt.Fprintf(out, "Status:     %s\n", formatStatusLabel(item.Status))
				fmt.Fprintf(out, "Created:    %s\n", formatDisplayTime(item.CreatedAt))
				fmt.Fprintf(out, "Updated:    %s\n", formatDisplayTime(item.UpdatedAt))
				fmt.Fprintf(out, "Retries:    %d\n", item.RetryCount)
				if strings.TrimSpace(item.LastError) != "" {
					fmt.Fprintf(out, "Last error: %s\n", item.LastError)
				}
				if len(item.Payload) > 0 {
					fmt.Fprintf(out, "Payload:    %s\n", string(item.Payload))
				}
				return nil
			})
		},
	}
}

func newQueueRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <itemID>",
		Short: "Remove a capture from the queue",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := strings.TrimSpace(args[0])
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.QueueRemove(id)
				if err != nil {
					return err
				}
				if resp.Removed {
					fmt.Fprintf(cmd.OutOrStdout(), "Removed item %s\n", id)
				} else {
					fmt.Fprintf(cmd.OutOrStdout(), "Item %s not found\n", id)
				}
				return nil
			})
		},
	}
}

func newQueueClearCompletedCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear-completed",
		Short: "Remove synced captures from the queue",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.QueueClearCompleted()
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Cleared %d completed items\n", resp.Removed)
				return nil
			})
		},
	}
}
