package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ghnav/cli/internal/logger"
	"github.com/ghnav/cli/internal/ui"
)

var (
	forceLogout bool
)

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out and delete stored credentials",
	Example: `  ghnav logout               # Sign out with confirmation prompt
  ghnav logout --force       # Sign out without confirmation`,
	RunE: runLogout,
}

func init() {
	logoutCmd.Flags().BoolVar(&forceLogout, "force", false, "Skip confirmation prompt")
	rootCmd.AddCommand(logoutCmd)
}

func runLogout(cmd *cobra.Command, args []string) error {
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
		fmt.Println("Not currently authenticated")
		return nil
	}

	// Confirm logout unless --force is used
	if !forceLogout {
		confirmed, err := ui.Confirm("Are you sure you want to sign out?")
		if err != nil {
			return fmt.Errorf("failed to read input: %w", err)
		}
		if !confirmed {
			fmt.Println("Logout cancelled")
			return nil
		}
	}

	if err := d.controller.SignOut(ctx); err != nil {
		logger.Error("Failed to clear credentials", err)
		return cliError(err, "Failed to clear credentials")
	}

	// Cached profiles are keyed by the deleted token; drop them too.
	if state.User != nil {
		if err := d.cache.InvalidateUser(state.User.ID); err != nil {
			logger.Warn("Failed to invalidate cached profiles: %v", err)
		}
	}

	fmt.Println(ui.Success.Render("✓ Successfully signed out"))
	return nil
}
