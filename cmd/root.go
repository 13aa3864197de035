package cmd

import (
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/ag0os/orchestra/internal/config"
)

// appConfig holds the loaded configuration (global + project merged)
var appConfig *config.Config

var (
	backendFlag string
	verboseFlag bool
)

var rootCmd = &cobra.Command{
	Use:   "orchestra",
	Short: "Orchestra - loop and chain AI coding agents",
	Long: `Orchestra orchestrates repeated or sequenced runs of AI coding agent CLIs.

A single agent invocation often cannot finish a task in one pass. Orchestra
supplies the looping discipline: it re-invokes the agent until it prints the
completion marker, and it sequences multi-step chains where each step's
changes feed the next.`,
	Example: `  # Run an agent until it prints the completion marker (up to 10 times)
  orchestra run -f prompts/refactor.md -n 10

  # Run a single pass with an inline prompt
  orchestra run -p "fix the failing tests"

  # Execute a named chain from .orchestra/chains.json
  orchestra chain release --var VERSION=1.4.0

  # See which agent backends are usable on this machine
  orchestra doctor`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if verboseFlag {
			log.SetLevel(log.DebugLevel)
		}

		var err error
		appConfig, err = config.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		return nil
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&backendFlag, "backend", "", "Agent backend to use (overrides config and ORCHESTRA_BACKEND)")
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(chainCmd)
	rootCmd.AddCommand(chainsCmd)
	rootCmd.AddCommand(agentsCmd)
	rootCmd.AddCommand(doctorCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}
