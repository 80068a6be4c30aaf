package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// completionCmd represents the completion command
var completionCmd = &cobra.Command{
	Use:   "completion [bash|zsh|fish|powershell]",
	Short: "Generate shell completion script",
	Long:  "Generate the autocompletion script for ghnav for the specified shell.",
	Example: `  # Bash (Linux)
  ghnav completion bash > /etc/bash_completion.d/ghnav

  # Bash (macOS with Homebrew)
  ghnav completion bash > $(brew --prefix)/etc/bash_completion.d/ghnav

  # Zsh (macOS with Homebrew)
  ghnav completion zsh > $(brew --prefix)/share/zsh/site-functions/_ghnav

  # Fish
  ghnav completion fish > ~/.config/fish/completions/ghnav.fish

  # PowerShell
  ghnav completion powershell >> $PROFILE`,
	DisableFlagsInUseLine: true,
}

var completionBashCmd = &cobra.Command{
	Use:   "bash",
	Short: "Generate the autocompletion script for bash",
	Example: `  # Load in current session
  source <(ghnav completion bash)

  # Linux - load permanently
  sudo ghnav completion bash > /etc/bash_completion.d/ghnav

  # macOS (Homebrew) - load permanently
  ghnav completion bash > $(brew --prefix)/etc/bash_completion.d/ghnav`,
	DisableFlagsInUseLine: true,
	Args:                  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return rootCmd.GenBashCompletionV2(os.Stdout, true)
	},
}

var completionZshCmd = &cobra.Command{
	Use:   "zsh",
	Short: "Generate the autocompletion script for zsh",
	Example: `  # Load in current session
  source <(ghnav completion zsh)

  # Linux - load permanently
  ghnav completion zsh > "${fpath[1]}/_ghnav"

  # macOS (Homebrew) - load permanently
  ghnav completion zsh > $(brew --prefix)/share/zsh/site-functions/_ghnav`,
	DisableFlagsInUseLine: true,
	Args:                  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return rootCmd.GenZshCompletion(os.Stdout)
	},
}

var completionFishCmd = &cobra.Command{
	Use:   "fish",
	Short: "Generate the autocompletion script for fish",
	Example: `  # Load in current session
  ghnav completion fish | source

  # Load permanently
  ghnav completion fish > ~/.config/fish/completions/ghnav.fish`,
	DisableFlagsInUseLine: true,
	Args:                  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return rootCmd.GenFishCompletion(os.Stdout, true)
	},
}

var completionPowershellCmd = &cobra.Command{
	Use:   "powershell",
	Short: "Generate the autocompletion script for powershell",
	Example: `  # Load in current session
  ghnav completion powershell | Out-String | Invoke-Expression

  # Load permanently (add to your PowerShell profile)
  ghnav completion powershell >> $PROFILE`,
	DisableFlagsInUseLine: true,
	Args:                  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return rootCmd.GenPowerShellCompletionWithDesc(os.Stdout)
	},
}

func init() {
	completionCmd.AddCommand(completionBashCmd)
	completionCmd.AddCommand(completionZshCmd)
	completionCmd.AddCommand(completionFishCmd)
	completionCmd.AddCommand(completionPowershellCmd)
	rootCmd.AddCommand(completionCmd)
}
