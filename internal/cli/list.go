package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/loomrun/loom/internal/registry"
)

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every registered agent and its availability",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			color := isColorEnabled()
			for _, d := range registry.Describe() {
				status := "not found"
				statusColor := colorRed
				if d.Available {
					status = "available"
					statusColor = "\033[32m"
				}
				if color {
					fmt.Fprintf(out, "%s%-10s%s  %-24s  %s%s%s\n", colorBold, d.Name, colorReset, d.DisplayName, statusColor, status, colorReset)
				} else {
					fmt.Fprintf(out, "%-10s  %-24s  %s\n", d.Name, d.DisplayName, status)
				}
				fmt.Fprintf(out, "%s  %s%s\n", colorDim, d.Description, colorReset)
			}
			return nil
		},
	}
}
