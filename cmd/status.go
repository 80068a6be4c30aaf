package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ghnav/cli/internal/config"
	"github.com/ghnav/cli/internal/profile"
	"github.com/ghnav/cli/internal/store"
	"github.com/ghnav/cli/internal/ui"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show session, token, and rate-limit details",
	Example: `  ghnav status               # Show session status
  ghnav status --debug       # Include config paths and log details`,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx := GetContext()

	d, err := buildDeps()
	if err != nil {
		return err
	}
	defer d.close()

	state, err := d.store.Get(ctx)
	if err != nil {
		return cliError(err, "Failed to read stored credentials")
	}

	fmt.Println(ui.Bold.Render("Session"))
	if state == nil || !state.IsAuthenticated {
		fmt.Println("  Status: " + ui.Failure.Render("not authenticated"))
	} else {
		fmt.Println("  Status: " + ui.Success.Render("authenticated"))
		fmt.Printf("  User:   %s (id %d)\n", state.User.Login, state.User.ID)

		if state.LastValidated != nil {
			fmt.Printf("  Last validated: %s (%s ago)\n",
				state.LastValidated.Format(time.RFC3339),
				time.Since(*state.LastValidated).Round(time.Minute))
		} else {
			fmt.Println("  Last validated: never")
		}

		if state.Token != nil {
			fmt.Printf("  Token scope: %s\n", state.Token.Scope)
			if state.Token.ExpiresAt != nil {
				fmt.Printf("  Token expires: %s\n", state.Token.ExpiresAt.Format(time.RFC3339))
			} else {
				fmt.Println("  Token expires: never")
			}
		}
	}

	fmt.Println("\n" + ui.Bold.Render("GitHub API"))
	fmt.Printf("  Endpoint: %s\n", d.cfg.APIEndpoint)
	if limit, remaining, reset, ok := d.api.Limits().Snapshot(time.Now()); ok {
		fmt.Printf("  Rate limit: %d/%d remaining, resets %s\n",
			remaining, limit, reset.Format(time.RFC3339))
	} else {
		fmt.Println("  Rate limit: no recent data")
	}

	if debugMode {
		fmt.Println("\n" + ui.Bold.Render("OAuth app"))
		fmt.Printf("  Redirect URI: %s\n", d.cfg.RedirectURI())
		if d.cfg.ClientID != "" {
			fmt.Printf("  Client ID: %s\n", maskSecret(d.cfg.ClientID))
		} else {
			fmt.Println("  Client ID: not set (GHNAV_CLIENT_ID)")
		}
		if token, err := store.AccessToken(ctx, d.store); err == nil && token != "" {
			fmt.Printf("  Token fingerprint: %s\n", profile.HashToken(token))
		}

		fmt.Println("\n" + ui.Bold.Render("Paths"))
		fmt.Printf("  Config: %s\n", config.GetConfigFile())
		fmt.Printf("  Profile cache: %s\n", config.GetProfileCacheDir())
		fmt.Printf("  Logs: %s\n", config.GetLogsDir())
	}

	return nil
}
