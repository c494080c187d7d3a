package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command for the meetingmate application
var rootCmd = &cobra.Command{
	Use:   "meetingmate",
	Short: "Turns Google Meet artifacts into tracked tasks",
	Long: `meetingmate watches Google Drive and Gmail for meeting transcripts and
Gemini notes, extracts action items with the Gemini API, and keeps them in
sync with Google Tasks and Calendar.

It can run as:
  - A long-running server with webhook ingestion and a dashboard API (serve)
  - A one-shot CLI for scanning sources or syncing tasks (scan, sync)`,
	SilenceUsage: true,
}

// version will be set by main
var version = "dev"

// SetVersion sets the version for the root command
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

// Execute is the main entry point for the CLI application
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "meetingmate version %s\n" .Version}}`)

	// If no subcommand is provided, run the serve command by default
	if len(os.Args) == 1 {
		os.Args = append(os.Args, "serve")
	}

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newScanCmd())
	rootCmd.AddCommand(newSyncCmd())
	rootCmd.AddCommand(newAuthCmd())
	rootCmd.AddCommand(newVersionCmd())
}
