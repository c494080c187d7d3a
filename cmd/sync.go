package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/teemow/meetingmate/internal/meeting"
	"github.com/teemow/meetingmate/internal/notify"
	"github.com/teemow/meetingmate/internal/tasksync"
)

func newSyncCmd() *cobra.Command {
	var (
		debugMode bool
		account   string
		dbPath    string
		summaryID string
		limit     int
	)

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Push extracted tasks to Google Tasks and Calendar",
		Long: `Push stored meeting tasks to Google Tasks and mirror due dates to
Google Calendar. Tasks that were already pushed are skipped; tasks found
remotely by their sync marker are relinked instead of duplicated.

Without --summary, every summary of the account is synced.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := newCLILogger(debugMode)
			applyGoogleCredentials("", "")

			st, err := openStore(dbPath)
			if err != nil {
				return fmt.Errorf("failed to open store: %w", err)
			}
			defer st.Close()

			emitter := notify.NewEmitter(st, logger)
			syncer := tasksync.NewSyncer(st, tasksync.NewGoogleClientFactory(), nil, emitter, logger)

			var result *meeting.SyncResult
			if summaryID != "" {
				result, err = syncer.SyncSummary(ctx, account, summaryID)
			} else {
				result, err = syncer.SyncAll(ctx, account, limit)
			}
			if err != nil {
				if errors.Is(err, meeting.ErrAuthRequired) {
					fmt.Fprintf(os.Stderr, "Authorization expired for account %q. Run 'meetingmate auth --account %s' to reconnect.\n", account, account)
				}
				return fmt.Errorf("sync failed: %w", err)
			}

			out, err := json.MarshalIndent(result, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(out))
			return nil
		},
	}

	cmd.Flags().BoolVar(&debugMode, "debug", false, "Enable debug logging")
	cmd.Flags().StringVar(&account, "account", "default", "Google account name to sync")
	cmd.Flags().StringVar(&dbPath, "db", "", "Path to the SQLite database. Can also use MEETINGMATE_DB env var.")
	cmd.Flags().StringVar(&summaryID, "summary", "", "Sync a single summary by id (default: all summaries)")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of summaries to sync (0 = no limit)")

	return cmd
}
