package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/loomrun/loom/internal/dialect"
	"github.com/loomrun/loom/internal/entry"
	"github.com/loomrun/loom/internal/registry"
	"github.com/loomrun/loom/internal/tui"
)

func newRunCmd() *cobra.Command {
	var (
		agentName   string
		task        string
		workDir     string
		model       string
		autoApprove bool
		useTUI      bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Spawn one agent session and print its entry stream",
		RunE: func(cmd *cobra.Command, args []string) error {
			if agentName == "" || task == "" {
				return fmt.Errorf("--agent and --task are required")
			}

			exec, err := registry.Create(agentName, dialect.Config{
				WorkDir:     workDir,
				Model:       model,
				AutoApprove: autoApprove,
			})
			if err != nil {
				return err
			}

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()
			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			go func() {
				<-sigCh
				cancel()
			}()

			if err := exec.ExecuteTask(ctx, task); err != nil {
				return err
			}

			if useTUI && isColorEnabled() {
				return tui.NewModel(agentName, exec).Run()
			}

			out := cmd.OutOrStdout()
			for e, err := range exec.Entries() {
				if err != nil {
					continue
				}
				fmt.Fprintln(out, formatEntryLine(e))
			}
			res, waitErr := exec.Wait(ctx)
			if waitErr != nil {
				return waitErr
			}
			fmt.Fprintf(out, "exit_code=%d duration_ms=%d\n", res.ExitCode, res.DurationMS)
			return nil
		},
	}

	cmd.Flags().StringVar(&agentName, "agent", "", "registered agent name (see loom list)")
	cmd.Flags().StringVar(&task, "task", "", "initial task prompt")
	cmd.Flags().StringVar(&workDir, "workdir", "", "working directory for the child process")
	cmd.Flags().StringVar(&model, "model", "", "vendor model override")
	cmd.Flags().BoolVar(&autoApprove, "auto-approve", false, "auto-approve tool use requests")
	cmd.Flags().BoolVar(&useTUI, "tui", false, "attach a live terminal viewer instead of printing lines")
	return cmd
}

func formatEntryLine(e entry.Entry) string {
	switch e.Kind {
	case entry.KindSystem:
		return fmt.Sprintf("[system] model=%s", e.Model)
	case entry.KindAssistant:
		return "assistant: " + e.Text
	case entry.KindThinking:
		return "thinking: " + e.Text
	case entry.KindToolUse:
		return fmt.Sprintf("tool_use[%s]: %s", e.ToolName, e.CallID)
	case entry.KindToolResult:
		return fmt.Sprintf("tool_result[%s]: ok=%v", e.CallID, e.OK)
	case entry.KindResult:
		return fmt.Sprintf("result: ok=%v exit=%d", e.OK, e.ExitCode)
	default:
		return string(e.Kind)
	}
}
