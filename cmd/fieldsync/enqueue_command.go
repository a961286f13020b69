package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"fieldsync/internal/ipc"
	"fieldsync/internal/queue"
)

func newEnqueueCommand(ctx *commandContext) *cobra.Command {
	var payloadFlag string
	var payloadFile string

	cmd := &cobra.Command{
		Use:   "enqueue <type>",
		Short: "Record a capture in the local queue",
		Long: `Record a capture in the local queue.

The capture type is one of "photo", "voice_transcript", or
"configurator_submission". The payload is read from --payload,
--payload-file, or stdin, and must be a JSON document.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			captureType := strings.TrimSpace(args[0])
			if _, ok := queue.ParseCaptureType(captureType); !ok {
				return fmt.Errorf("unknown capture type %q (expected photo, voice_transcript, or configurator_submission)", captureType)
			}

			payload, err := readPayload(cmd, payloadFlag, payloadFile)
			if err != nil {
				return err
			}
			if !json.Valid(payload) {
				return fmt.Errorf("payload is not valid JSON")
			}

			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Enqueue(captureType, payload)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Enqueued %s capture %s\n",
					formatCaptureLabel(resp.Item.Type), resp.Item.ID)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&payloadFlag, "payload", "d", "", "Inline JSON payload")
	cmd.Flags().StringVarP(&payloadFile, "payload-file", "f", "", "Path to a JSON payload file (- for stdin)")
	return cmd
}

func readPayload(cmd *cobra.Command, inline, file string) ([]byte, error) {
	inline = strings.TrimSpace(inline)
	file = strings.TrimSpace(file)
	if inline != "" && file != "" {
		return nil, fmt.Errorf("specify only one of --payload or --payload-file")
	}
	if inline != "" {
		return []byte(inline), nil
	}
	if file != "" && file != "-" {
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read payload file: %w", err)
		}
		return data, nil
	}

	data, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return nil, fmt.Errorf("read payload from stdin: %w", err)
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, fmt.Errorf("payload is empty; pass --payload, --payload-file, or pipe JSON on stdin")
	}
	return data, nil
}
