package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ag0os/orchestra/internal/backend"
	"github.com/ag0os/orchestra/internal/config"
	"github.com/ag0os/orchestra/internal/prompt"
	"github.com/ag0os/orchestra/internal/runner"
)

var (
	runPrompt           string
	runPromptFile       string
	runSystemPrompt     string
	runSystemPromptFile string
	runModel            string
	runIterations       int
	runLoop             bool
	runMaxTurns         int
	runAllowTools       []string
	runDenyTools        []string
	runSettings         string
	runMCPConfig        string
	runDir              string
	runArgs             []string
	runInteractive      bool
	runSkipPermissions  bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a single agent, once or in a loop",
	Long: `Run an agent through the selected backend.

By default the agent is spawned exactly once and completion means a zero
exit code. With -n (or --loop, which uses the iteration ceiling from the
config) the agent is re-invoked until it prints the completion marker or
the ceiling is reached. The prompt may come from -p, from a file with -f,
or from piped stdin.`,
	Example: `  # Single pass, inline prompt
  orchestra run -p "add unit tests for the parser"

  # Loop until the marker appears, at most 15 iterations
  orchestra run -f prompts/migrate.md -n 15

  # Loop with the iteration ceiling from the config
  orchestra run -f prompts/migrate.md --loop

  # Pipe the prompt in
  git diff | orchestra run -p "review this diff" --backend codex

  # Interactive session with a system prompt
  orchestra run --interactive --system-prompt-file prompts/persona.md`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if runPrompt != "" && runPromptFile != "" {
			return fmt.Errorf("only one of --prompt or --prompt-file can be specified")
		}
		if runSystemPrompt != "" && runSystemPromptFile != "" {
			return fmt.Errorf("only one of --system-prompt or --system-prompt-file can be specified")
		}

		workDir := runDir
		if workDir == "" {
			var err error
			if workDir, err = os.Getwd(); err != nil {
				return err
			}
		}

		promptText, ok, err := prompt.Resolve(workDir, prompt.Source{Inline: runPrompt, File: runPromptFile})
		if err != nil {
			return err
		}
		if !ok && prompt.IsStdinPiped() && !runInteractive {
			if promptText, err = prompt.LoadFromStdin(); err != nil {
				return err
			}
			ok = true
		}

		systemPrompt, sysOK, err := prompt.Resolve(workDir, prompt.Source{Inline: runSystemPrompt, File: runSystemPromptFile})
		if err != nil {
			return err
		}
		if !ok && !sysOK && !runInteractive {
			return fmt.Errorf("no prompt given: use --prompt, --prompt-file, --system-prompt, or pipe stdin")
		}

		backendName := appConfig.ResolveBackend("", backendFlag)
		b, err := backend.Lookup(backendName)
		if err != nil {
			return err
		}
		if !b.IsAvailable() {
			return fmt.Errorf("backend %q CLI is not available: install it or point ORCHESTRA_%s_BIN at the binary",
				backendName, strings.ToUpper(backendName))
		}

		model := runModel
		if model == "" {
			model = appConfig.Model
		}

		loop, iterations, err := effectiveIterations(runLoop, cmd.Flags().Changed("iterations"), runIterations, appConfig.Iterations)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		result := runner.Run(ctx, runner.Options{
			Agent:           backendName,
			Backend:         b,
			Direct:          true,
			Prompt:          promptText,
			SystemPrompt:    systemPrompt,
			Model:           model,
			MaxTurns:        runMaxTurns,
			AllowedTools:    runAllowTools,
			DisallowedTools: runDenyTools,
			SettingsPath:    runSettings,
			MCPConfigPath:   runMCPConfig,
			WorkDir:         workDir,
			ExtraArgs:       runArgs,
			Interactive:     runInteractive,
			SkipPermissions: runSkipPermissions,
			Verbose:         verboseFlag,
			Loop:            loop,
			Iterations:      iterations,
			Output:          os.Stdout,
		})

		if !result.Complete {
			return fmt.Errorf("run did not complete (reason: %s, iterations: %d, exit code: %d)",
				result.Reason, result.Iterations, result.ExitCode)
		}
		return nil
	},
}

// effectiveIterations decides loop mode and the iteration ceiling. An
// explicit -n wins; --loop falls back to the configured default.
func effectiveIterations(loopFlag, iterationsSet bool, flagValue, configDefault int) (loop bool, iterations int, err error) {
	if iterationsSet {
		if flagValue < 1 {
			return false, 0, fmt.Errorf("--iterations must be a positive integer, got %d", flagValue)
		}
		return true, flagValue, nil
	}
	if loopFlag {
		if configDefault < 1 {
			configDefault = config.DefaultIterations
		}
		return true, configDefault, nil
	}
	return false, 0, nil
}

func init() {
	runCmd.Flags().StringVarP(&runPrompt, "prompt", "p", "", "Inline prompt text")
	runCmd.Flags().StringVarP(&runPromptFile, "prompt-file", "f", "", "Path to a prompt file")
	runCmd.Flags().StringVar(&runSystemPrompt, "system-prompt", "", "Inline system prompt text")
	runCmd.Flags().StringVar(&runSystemPromptFile, "system-prompt-file", "", "Path to a system prompt file")
	runCmd.Flags().StringVarP(&runModel, "model", "m", "", "Model to use (overrides config)")
	runCmd.Flags().IntVarP(&runIterations, "iterations", "n", 0, "Loop up to N iterations until the completion marker appears")
	runCmd.Flags().BoolVar(&runLoop, "loop", false, "Loop until the completion marker appears, up to the configured iteration ceiling")
	runCmd.Flags().IntVar(&runMaxTurns, "max-turns", 0, "Cap the agent's turn count (backends that support it)")
	runCmd.Flags().StringSliceVar(&runAllowTools, "allow-tool", nil, "Tool to allow (repeatable)")
	runCmd.Flags().StringSliceVar(&runDenyTools, "deny-tool", nil, "Tool to deny (repeatable)")
	runCmd.Flags().StringVar(&runSettings, "settings", "", "Path to a backend settings file")
	runCmd.Flags().StringVar(&runMCPConfig, "mcp-config", "", "Path to an MCP configuration file")
	runCmd.Flags().StringVarP(&runDir, "dir", "C", "", "Working directory for the agent (default: current)")
	runCmd.Flags().StringArrayVar(&runArgs, "arg", nil, "Extra argument passed through to the agent CLI (repeatable)")
	runCmd.Flags().BoolVar(&runInteractive, "interactive", false, "Hand the terminal to the agent instead of capturing output")
	runCmd.Flags().BoolVar(&runSkipPermissions, "skip-permissions", false, "Disable the backend's permission prompts")
}
