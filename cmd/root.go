package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ghnav/cli/internal/errors"
	"github.com/ghnav/cli/internal/logger"
)

var (
	// Global flags
	debugMode bool
	quietMode bool
	// Global context for graceful shutdown
	globalCtx context.Context
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "ghnav",
	Short: "GitHub session manager",
	Example: `  ghnav login               # Sign in to GitHub via the browser
  ghnav whoami              # Show the authenticated user
  ghnav status              # Show session and rate-limit details`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Initialize logger before any command runs
		return logger.Init(debugMode)
	},
	// Enable command suggestions for typos
	SuggestionsMinimumDistance: 2,
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().BoolVarP(&quietMode, "quiet", "q", false, "Suppress non-error output")

	// Initialize custom help formatting
	InitHelp()
}

// Execute adds all child commands to the root command and sets flags
// appropriately. CLIErrors carry their own exit code; anything else exits 1.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		var cliErr *errors.CLIError
		if errors.As(err, &cliErr) {
			fmt.Fprintln(os.Stderr, errors.FormatError(cliErr, debugMode))
			os.Exit(int(cliErr.ExitCode))
		}
		os.Exit(int(errors.ExitError))
	}
}

// GetDebugMode returns the current debug mode setting
func GetDebugMode() bool {
	return debugMode
}

// GetQuietMode returns the current quiet mode setting
func GetQuietMode() bool {
	return quietMode
}

// SetContext sets the global context for graceful shutdown support
func SetContext(ctx context.Context) {
	globalCtx = ctx
}

// GetContext returns the global context, or background context if not set
func GetContext() context.Context {
	if globalCtx != nil {
		return globalCtx
	}
	return context.Background()
}
