package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ghnav/cli/internal/logger"
	"github.com/ghnav/cli/internal/ui"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Authenticate with GitHub in your browser",
	Example: `  ghnav login                # Start the browser sign-in flow
  ghnav login --debug        # Start with debug logging enabled`,
	RunE: runLogin,
}

func init() {
	rootCmd.AddCommand(loginCmd)
}

func runLogin(cmd *cobra.Command, args []string) error {
	ctx := GetContext()

	d, err := buildDeps()
	if err != nil {
		return err
	}
	defer d.close()

	// Check if already signed in with a working token
	if state, err := d.store.Get(ctx); err == nil && state != nil && state.IsAuthenticated {
		if d.validator.IsTokenValid(ctx) {
			fmt.Printf("%s Already authenticated as %s. Use 'ghnav logout' to sign out.\n",
				ui.Success.Render("✓"), ui.Bold.Render(state.User.Login))
			return nil
		}
		fmt.Println("Stored session is no longer valid, starting a new sign-in...")
	}

	if !quietMode {
		fmt.Println("\n" + ui.Bold.Render("🔑 GitHub Browser Authentication"))
		fmt.Println(ui.Faint.Render("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━"))
		fmt.Println("\nYour browser will open to authorize ghnav with GitHub.")
		fmt.Println("⏳ Waiting for authorization...")
	}

	if err := d.controller.SignIn(ctx); err != nil {
		logger.Error("Sign-in failed", err)
		return cliError(err, "Authentication failed")
	}

	state := d.controller.Snapshot()
	fmt.Println("\n" + ui.Success.Render("✓ Successfully authenticated!"))
	if state.User != nil {
		fmt.Printf("  Logged in as: %s\n", ui.Bold.Render(state.User.Login))
	}

	return nil
}
