// Package cli is the reference command-line surface over the engine: a
// thin spf13/cobra wrapper exposing list/run/attach/serve, matching the
// surrounding program's own CLI conventions. It is presentation only — all
// engine behavior lives in internal/registry, internal/executor, and
// internal/webserver.
package cli

import (
	"fmt"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/loomrun/loom/internal/buildinfo"
	"github.com/loomrun/loom/internal/obslog"
)

const (
	colorReset    = "\033[0m"
	colorBold     = "\033[1m"
	colorDim      = "\033[2m"
	colorRed      = "\033[31m"
	styleBoldCyan = "\033[1;36m"
)

var debugFlag bool

var rootCmd = &cobra.Command{
	Use:   "loom",
	Short: "Streaming supervisor for coding-agent CLIs",
	Long: colorBold + "loom" + colorReset + ` ` + styleBoldCyan + `— a streaming process supervisor for Claude Code, Codex,
Cursor-agent, and GitHub Copilot CLI` + colorReset + `, plus a library-mode ACP
adapter. loom spawns one agent per session, normalizes its vendor-specific
NDJSON into a single canonical entry stream, and tears the child down
cleanly on completion, interrupt, or transport failure.

Commands:
  loom list             show every registered agent and its availability
  loom run              spawn one agent session and print its entry stream
  loom attach           attach to a session served by "loom serve"
  loom serve            expose a local HTTP/WebSocket attach surface
`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.CompletionOptions.HiddenDefaultCmd = true
	rootCmd.PersistentFlags().BoolVar(&debugFlag, "debug", false, "write structured debug logs to --debug-log")
	rootCmd.PersistentFlags().String("debug-log", "", "path for --debug logs (required when --debug is set)")

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if !debugFlag {
			return nil
		}
		path, _ := cmd.Flags().GetString("debug-log")
		if path == "" {
			return fmt.Errorf("--debug requires --debug-log")
		}
		if _, err := obslog.Init(path); err != nil {
			return err
		}
		bi := buildinfo.Current()
		obslog.LogKV("cli", "loom starting", "version", bi.Version, "commit", bi.CommitHash, "pid", os.Getpid())
		return nil
	}

	rootCmd.AddCommand(newListCmd())
	rootCmd.AddCommand(newRunCmd())
	rootCmd.AddCommand(newAttachCmd())
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newVersionCmd())
}

// isColorEnabled reports whether stdout is a terminal, matching the
// surrounding program's own color-detection idiom.
func isColorEnabled() bool {
	return isatty.IsTerminal(os.Stdout.Fd())
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			bi := buildinfo.Current()
			fmt.Fprintf(cmd.OutOrStdout(), "loom %s (%s, built %s)\n", bi.Version, bi.CommitHash, bi.BuildDate)
			return nil
		},
	}
}

// Execute runs the root command and exits non-zero on error.
func Execute() {
	defer obslog.Close()
	if err := rootCmd.Execute(); err != nil {
		obslog.Logf("cli", "exit with error: %v", err)
		fmt.Fprintf(os.Stderr, "%sError: %s%s\n", colorRed, err, colorReset)
		os.Exit(1)
	}
}
