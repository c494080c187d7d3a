package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/teemow/meetingmate/internal/extract"
	"github.com/teemow/meetingmate/internal/ingest"
	"github.com/teemow/meetingmate/internal/meeting"
	"github.com/teemow/meetingmate/internal/notify"
)

func newScanCmd() *cobra.Command {
	var (
		debugMode    bool
		account      string
		source       string
		dbPath       string
		gmailDays    int
		geminiAPIKey string
		geminiModel  string
	)

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Scan sources once and extract tasks from new artifacts",
		Long: `Scan Google Drive and Gmail once for new meeting artifacts, extract
action items from each new transcript, and store the resulting summaries.

Already-processed artifacts are skipped, so scans are safe to repeat.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := newCLILogger(debugMode)
			applyGoogleCredentials("", "")

			st, err := openStore(dbPath)
			if err != nil {
				return fmt.Errorf("failed to open store: %w", err)
			}
			defer st.Close()

			engine, err := newExtractionEngine(ctx, geminiAPIKey, geminiModel)
			if err != nil {
				return err
			}

			emitter := notify.NewEmitter(st, logger)
			coordinator := ingest.NewCoordinator(st, ingest.NewGoogleSourceFactory(), engine, emitter, logger)

			total := meeting.ScanResult{}
			scanDrive := source == "drive" || source == "all"
			scanGmail := source == "gmail" || source == "all"
			if !scanDrive && !scanGmail {
				return fmt.Errorf("invalid source %q (expected drive, gmail, or all)", source)
			}

			if scanDrive {
				result, err := coordinator.ScanDrive(ctx, account)
				if err != nil {
					return fmt.Errorf("drive scan failed: %w", err)
				}
				total.Merge(*result)
			}
			if scanGmail {
				result, err := coordinator.ScanGmail(ctx, account, gmailDays)
				if err != nil {
					return fmt.Errorf("gmail scan failed: %w", err)
				}
				total.Merge(*result)
			}

			if total.AuthRequired {
				fmt.Fprintf(os.Stderr, "Authorization expired for account %q. Run 'meetingmate auth --account %s' to reconnect.\n", account, account)
			}

			out, err := json.MarshalIndent(total, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(out))
			return nil
		},
	}

	cmd.Flags().BoolVar(&debugMode, "debug", false, "Enable debug logging")
	cmd.Flags().StringVar(&account, "account", "default", "Google account name to scan")
	cmd.Flags().StringVar(&source, "source", "all", "Source to scan: drive, gmail, or all")
	cmd.Flags().StringVar(&dbPath, "db", "", "Path to the SQLite database. Can also use MEETINGMATE_DB env var.")
	cmd.Flags().IntVar(&gmailDays, "gmail-days", 0, "How many days of Gmail history to scan (default: since the last scan)")
	cmd.Flags().StringVar(&geminiAPIKey, "gemini-api-key", "", "Gemini API key for task extraction. Can also use GEMINI_API_KEY env var.")
	cmd.Flags().StringVar(&geminiModel, "gemini-model", extract.DefaultModel, "Gemini model for task extraction")

	return cmd
}
