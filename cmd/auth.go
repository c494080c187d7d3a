package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/teemow/meetingmate/internal/google"
)

func newAuthCmd() *cobra.Command {
	var (
		account string
		code    string
		check   bool
	)

	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Authorize a Google account",
		Long: `Obtain and store an OAuth token for a Google account.

Run without --code to print the authorization URL. Open it in a browser,
grant access, and run the command again with the authorization code:

  meetingmate auth --account work
  meetingmate auth --account work --code 4/0Af...

Use --check to verify that an existing token carries all required scopes.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if check {
				result, err := google.CheckPermissions(account)
				if err != nil {
					return fmt.Errorf("failed to check permissions for account %q: %w", account, err)
				}
				if !result.OK {
					return fmt.Errorf("account %q is missing scopes: %s (re-run 'meetingmate auth --account %s')",
						account, strings.Join(result.MissingScopes, ", "), account)
				}
				fmt.Printf("Account %q is authorized with all required scopes.\n", account)
				return nil
			}

			if code == "" {
				fmt.Printf("Open the following URL in a browser and authorize access:\n\n%s\n\n", google.GetAuthURLForAccount(account))
				fmt.Printf("Then run: meetingmate auth --account %s --code <authorization-code>\n", account)
				return nil
			}

			if err := google.SaveTokenForAccount(cmd.Context(), account, code); err != nil {
				return fmt.Errorf("failed to save token for account %q: %w", account, err)
			}
			fmt.Printf("Token saved for account %q.\n", account)
			return nil
		},
	}

	cmd.Flags().StringVar(&account, "account", "default", "Google account name to authorize")
	cmd.Flags().StringVar(&code, "code", "", "Authorization code from the consent page")
	cmd.Flags().BoolVar(&check, "check", false, "Check whether the stored token has all required scopes")

	return cmd
}
