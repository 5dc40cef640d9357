package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/coder/websocket"
	"github.com/spf13/cobra"
)

func newAttachCmd() *cobra.Command {
	var serverURL string

	cmd := &cobra.Command{
		Use:   "attach <session-id>",
		Short: "Attach to a session exposed by a running \"loom serve\"",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sessionID := args[0]
			wsURL := strings.TrimSuffix(serverURL, "/") + "/api/sessions/" + sessionID + "/ws"
			wsURL = strings.Replace(wsURL, "http://", "ws://", 1)
			wsURL = strings.Replace(wsURL, "https://", "wss://", 1)

			ctx := cmd.Context()
			conn, _, err := websocket.Dial(ctx, wsURL, nil)
			if err != nil {
				return fmt.Errorf("attach: dial %s: %w", wsURL, err)
			}
			defer conn.CloseNow()

			out := cmd.OutOrStdout()
			for {
				_, data, err := conn.Read(ctx)
				if err != nil {
					return nil
				}
				fmt.Fprintln(out, formatAttachLine(data))
			}
		},
	}

	cmd.Flags().StringVar(&serverURL, "server", "http://127.0.0.1:4173", "base URL of the running loom serve instance")
	return cmd
}

func formatAttachLine(data []byte) string {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return string(data)
	}
	kind, _ := raw["kind"].(string)
	if text, ok := raw["text"].(string); ok && text != "" {
		return kind + ": " + text
	}
	if summary, ok := raw["summary"].(string); ok && summary != "" {
		return kind + ": " + summary
	}
	return kind
}
