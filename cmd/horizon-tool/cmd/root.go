// Package cmd implements the horizon-tool command line: headless replay of
// editor sessions against the tool engine and inspection of stored documents.
package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	// Global flags
	verbose bool
	noColor bool
)

var rootCmd = &cobra.Command{
	Use:   "horizon-tool",
	Short: "horizon-tool - headless driver for the horizon tool engine",
	Long: `horizon-tool runs scripted editor sessions against the tool engine and
inspects documents kept in the configured repository.

Documents are kept in the repository chosen by HORIZON_STORAGE_DRIVER and
tool settings in the blob store chosen by HORIZON_BLOB_DRIVER.

Examples:
  horizon-tool tools --kind board              # List tools of the board editor
  horizon-tool run 'sessions/**/*.hz'          # Replay every session script
  horizon-tool run --doc main --save edit.hz   # Edit and save document "main"
  horizon-tool show main                       # Summarise document "main"`,
	Version:       "0.3.0",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if noColor {
			color.NoColor = true
		}
	},
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("error:"), err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log debug output to stderr")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable coloured output")
}

// newLogger writes JSON records to w. Only warnings and errors are logged
// unless --verbose is set.
func newLogger(w io.Writer) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
}
