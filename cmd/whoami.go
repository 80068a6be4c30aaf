package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ghnav/cli/internal/logger"
	"github.com/ghnav/cli/internal/ui"
)

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the currently authenticated user",
	Example: `  ghnav whoami               # Show current user info
  ghnav whoami --refresh     # Bypass the profile cache
  ghnav whoami --debug       # Show with debug information`,
	RunE: runWhoami,
}

var whoamiRefresh bool

func init() {
	whoamiCmd.Flags().BoolVar(&whoamiRefresh, "refresh", false, "Fetch the profile from GitHub even if a cached copy exists")
	rootCmd.AddCommand(whoamiCmd)
}

func runWhoami(cmd *cobra.Command, args []string) error {
	ctx := GetContext()

	d, err := buildDeps()
	if err != nil {
		return err
	}
	defer d.close()

	state, err := d.store.Get(ctx)
	if err != nil {
		logger.Error("Failed to read stored credentials", err)
		return cliError(err, "Failed to read stored credentials")
	}
	if state == nil || !state.IsAuthenticated {
		fmt.Println(ui.Failure.Render("✗ Not authenticated"))
		fmt.Println("\nRun 'ghnav login' to authenticate with GitHub")
		return nil
	}
	if state.Token != nil && state.Token.Expired(time.Now()) {
		fmt.Println(ui.Failure.Render("✗ Token expired"))
		fmt.Println("\nRun 'ghnav login' to reauthenticate")
		return nil
	}

	// Full profile, cache-first. Falls back to the stored summary when
	// GitHub is unreachable.
	p, err := d.profiles.GetProfile(ctx, whoamiRefresh)
	if err != nil {
		logger.Warn("Could not fetch profile, using stored summary: %v", err)
		fmt.Printf("%s %s\n", ui.Success.Render("✓ Authenticated as:"), ui.Bold.Render(state.User.Login))
		if state.User.Email != nil && *state.User.Email != "" {
			fmt.Printf("  Email: %s\n", maskEmail(*state.User.Email))
		}
		fmt.Printf("  User ID: %d\n", state.User.ID)
		return nil
	}

	fmt.Printf("%s %s\n", ui.Success.Render("✓ Authenticated as:"), ui.Bold.Render(p.Login))
	if p.Name != nil && *p.Name != "" {
		fmt.Printf("  Name: %s\n", *p.Name)
	}
	if p.Email != nil && *p.Email != "" {
		fmt.Printf("  Email: %s\n", maskEmail(*p.Email))
	}
	fmt.Printf("  User ID: %d\n", p.ID)
	if p.Company != nil && *p.Company != "" {
		fmt.Printf("  Company: %s\n", *p.Company)
	}
	if p.Location != nil && *p.Location != "" {
		fmt.Printf("  Location: %s\n", *p.Location)
	}
	fmt.Printf("  Public repos: %d\n", p.PublicRepos)
	fmt.Printf("  Followers: %d\n", p.Followers)

	// Token expiration
	if state.Token != nil && state.Token.ExpiresAt != nil {
		expiresIn := time.Until(*state.Token.ExpiresAt)
		if expiresIn > 0 {
			days := int(expiresIn.Hours() / 24)
			hours := int(expiresIn.Hours()) % 24

			if days > 0 {
				fmt.Printf("  Token expires in: %d days, %d hours\n", days, hours)
			} else {
				fmt.Printf("  Token expires in: %d hours\n", hours)
			}
		} else {
			fmt.Println("  Token: Expired")
		}

		if state.Token.ExpiresWithin(time.Now(), 30*24*time.Hour) {
			fmt.Println("\n" + ui.Warning.Render("⚠ Your token will expire soon. Run 'ghnav login' to refresh."))
		}
	}

	return nil
}
