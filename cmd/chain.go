package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ag0os/orchestra/internal/chain"
	"github.com/ag0os/orchestra/internal/config"
)

var (
	chainVars            []string
	chainArgs            []string
	chainDir             string
	chainPrompt          string
	chainPromptFile      string
	chainSkipPermissions bool
)

var chainCmd = &cobra.Command{
	Use:   "chain NAME",
	Short: "Execute a named chain of agent steps",
	Long: `Execute a chain from the chain document (.orchestra/chains.json).

Steps run strictly in sequence; each step's changes are visible to the
next. The chain stops at the first step that does not complete. ${NAME}
placeholders in step arguments and prompts are filled from --var.`,
	Example: `  # Run the "release" chain
  orchestra chain release

  # Supply substitution variables and extra agent args
  orchestra chain fix-bug --var TICKET=ENG-142 --arg --no-color

  # Run against another checkout
  orchestra chain nightly -C ../other-repo`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if chainPrompt != "" && chainPromptFile != "" {
			return fmt.Errorf("only one of --prompt or --prompt-file can be specified")
		}

		workDir := chainDir
		if workDir == "" {
			var err error
			if workDir, err = os.Getwd(); err != nil {
				return err
			}
		}

		chainCfg, err := config.LoadChainConfig(workDir)
		if err != nil {
			return err
		}
		if chainCfg == nil {
			return fmt.Errorf("no chain configuration found: create %s or install %s on PATH",
				config.ChainDocPath, config.ResolverCommand)
		}

		vars, err := parseVars(chainVars)
		if err != nil {
			return err
		}

		executor := &chain.Executor{
			Config:          chainCfg,
			AppConfig:       appConfig,
			BackendFlag:     backendFlag,
			WorkDir:         workDir,
			Vars:            vars,
			ExtraArgs:       chainArgs,
			Prompt:          chainPrompt,
			PromptFile:      chainPromptFile,
			Output:          os.Stdout,
			SkipPermissions: chainSkipPermissions,
			Verbose:         verboseFlag,
		}

		result, err := executor.Run(context.Background(), args[0])
		if err != nil {
			return err
		}

		if !result.Success {
			if result.FailedAt >= 0 {
				failed := result.Steps[result.FailedAt]
				return fmt.Errorf("chain %q stopped at step %d (agent %q, reason: %s)",
					args[0], result.FailedAt, failed.Agent, failed.Result.Reason)
			}
			return fmt.Errorf("chain %q was cancelled", args[0])
		}

		fmt.Printf("Chain %q completed: %d step(s)\n", args[0], len(result.Steps))
		return nil
	},
}

// parseVars turns repeated KEY=VALUE flags into a substitution map.
func parseVars(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	vars := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid --var %q: expected KEY=VALUE", pair)
		}
		vars[key] = value
	}
	return vars, nil
}

func init() {
	chainCmd.Flags().StringArrayVar(&chainVars, "var", nil, "Substitution variable as KEY=VALUE (repeatable)")
	chainCmd.Flags().StringArrayVar(&chainArgs, "arg", nil, "Extra argument passed to every step's agent (repeatable)")
	chainCmd.Flags().StringVarP(&chainDir, "dir", "C", "", "Working directory for the chain (default: current)")
	chainCmd.Flags().StringVarP(&chainPrompt, "prompt", "p", "", "Prompt overriding every step's own prompt")
	chainCmd.Flags().StringVarP(&chainPromptFile, "prompt-file", "f", "", "Prompt file overriding every step's own prompt")
	chainCmd.Flags().BoolVar(&chainSkipPermissions, "skip-permissions", false, "Disable the backend's permission prompts")
}
