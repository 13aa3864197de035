// Package chain executes an ordered list of steps strictly sequentially,
// stopping at the first non-completing step or on cancellation.
package chain

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/charmbracelet/log"

	"github.com/ag0os/orchestra/internal/backend"
	"github.com/ag0os/orchestra/internal/config"
	"github.com/ag0os/orchestra/internal/output"
	"github.com/ag0os/orchestra/internal/prompt"
	"github.com/ag0os/orchestra/internal/runner"
)

// StepResult pairs an agent name with its run result.
type StepResult struct {
	Agent  string
	Result *runner.Result
}

// Result aggregates a chain run. FailedAt is the index of the first
// failing step, or -1 when every attempted step completed.
type Result struct {
	Success  bool
	Steps    []StepResult
	FailedAt int
}

// Executor runs chains from a chain document. One executor serves one
// invocation; cancellation handling is scoped to each Run call.
type Executor struct {
	// Config is the chain document. Required.
	Config *config.ChainConfig

	// AppConfig supplies backend/model/iteration defaults.
	AppConfig *config.Config

	// BackendFlag is the --backend CLI value, if any.
	BackendFlag string

	// WorkDir is the directory steps run in and prompt files resolve
	// against.
	WorkDir string

	// Vars maps ${NAME} placeholders to values.
	Vars map[string]string

	// ExtraArgs are global passthrough args, merged ahead of step args.
	ExtraArgs []string

	// Prompt and PromptFile are the invocation-level prompt source, the
	// highest resolution priority.
	Prompt     string
	PromptFile string

	Output          io.Writer
	SkipPermissions bool
	Verbose         bool

	// LookupBackend resolves a backend name; defaults to the registry.
	LookupBackend func(name string) (backend.Backend, error)
}

// Run executes the named chain. Configuration and backend errors fail
// fast; per-step runtime failures are recorded in the result instead.
// Interrupt handling is installed for the duration of this call only and
// torn down on every exit path.
func (e *Executor) Run(ctx context.Context, name string) (*Result, error) {
	chain, ok := e.Config.Chains[name]
	if !ok {
		return nil, fmt.Errorf("unknown chain %q (available: %s)",
			name, strings.Join(e.Config.ChainNames(), ", "))
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	result := &Result{FailedAt: -1}
	for i, step := range chain.Steps {
		if ctx.Err() != nil {
			log.Warn("chain cancelled", "chain", name, "before_step", i)
			return result, nil
		}

		stepRes, err := e.runStep(ctx, name, chain, i, step)
		if err != nil {
			return nil, err
		}

		result.Steps = append(result.Steps, StepResult{Agent: step.Agent, Result: stepRes})
		if !stepRes.Complete {
			// Subsequent steps are never attempted: their correctness
			// depends on this step's side effects.
			result.FailedAt = i
			log.Warn("chain stopped at failing step",
				"chain", name, "step", i, "agent", step.Agent, "reason", stepRes.Reason)
			return result, nil
		}
	}

	result.Success = true
	log.Info("chain completed", "chain", name, "steps", len(result.Steps))
	return result, nil
}

// runStep prepares and runs one step through the loop controller.
func (e *Executor) runStep(ctx context.Context, chainName string, chain config.Chain, index int, step config.ChainStep) (*runner.Result, error) {
	errCtx := fmt.Sprintf("chain %s, agent %s", chainName, step.Agent)

	stepArgs, err := config.SubstituteAll(step.Args, e.Vars, errCtx)
	if err != nil {
		return nil, err
	}
	// Step args override global ones by positional precedence: they are
	// appended last.
	args := append([]string{}, e.ExtraArgs...)
	args = append(args, stepArgs...)

	agentCfg := e.Config.Agent(step.Agent)

	promptText, err := e.resolvePrompt(chain, step, agentCfg, errCtx)
	if err != nil {
		return nil, err
	}

	systemPrompt, _, err := prompt.Resolve(e.WorkDir, agentCfg.SystemPromptSource())
	if err != nil {
		return nil, err
	}

	var stepOut io.Writer
	if e.Output != nil {
		sw := output.NewStepWriter(e.Output, index, step.Agent)
		defer sw.Flush()
		stepOut = sw
	}

	opts := runner.Options{
		Agent:           step.Agent,
		Direct:          agentCfg.DirectSpawn(),
		Prompt:          promptText,
		SystemPrompt:    systemPrompt,
		WorkDir:         e.WorkDir,
		ExtraArgs:       args,
		SkipPermissions: e.SkipPermissions,
		Verbose:         e.Verbose,
		Loop:            step.Loop,
		Iterations:      step.Iterations,
		Output:          stepOut,
	}

	if opts.Direct {
		backendName := e.resolveBackendName(agentCfg)
		b, err := e.lookup(backendName)
		if err != nil {
			return nil, err
		}
		if !b.IsAvailable() {
			return nil, fmt.Errorf("backend %q CLI is not available for %s: install it or point ORCHESTRA_%s_BIN at the binary",
				backendName, errCtx, strings.ToUpper(backendName))
		}
		opts.Backend = b
		opts.Model = agentCfg.Model
		opts.MaxTurns = agentCfg.MaxTurns
		opts.AllowedTools = agentCfg.AllowedTools
		opts.DisallowedTools = agentCfg.DisallowedTools
		opts.SettingsPath = agentCfg.Settings
		opts.MCPConfigPath = agentCfg.MCPConfig
		if opts.Model == "" && e.AppConfig != nil {
			opts.Model = e.AppConfig.Model
		}
	}

	log.Info("step start", "chain", chainName, "step", index, "agent", step.Agent,
		"loop", step.Loop, "iterations", step.Iterations)
	return runner.Run(ctx, opts), nil
}

// resolvePrompt applies the four-level priority order: invocation, step,
// chain, agent default. Prompt text and file paths get variable
// substitution before resolution.
func (e *Executor) resolvePrompt(chain config.Chain, step config.ChainStep, agentCfg *config.AgentConfig, errCtx string) (string, error) {
	sources := []prompt.Source{
		{Inline: e.Prompt, File: e.PromptFile},
		{Inline: step.Prompt, File: step.PromptFile},
		{Inline: chain.Prompt, File: chain.PromptFile},
		agentCfg.PromptSource(),
	}
	for i, src := range sources {
		var err error
		if src.Inline, err = config.Substitute(src.Inline, e.Vars, errCtx); err != nil {
			return "", err
		}
		if src.File, err = config.Substitute(src.File, e.Vars, errCtx); err != nil {
			return "", err
		}
		sources[i] = src
	}

	text, ok, err := prompt.Resolve(e.WorkDir, sources...)
	if err != nil {
		return "", err
	}
	if !ok {
		// No prompt at any level: the agent runs off its system prompt.
		return "", nil
	}
	return text, nil
}

func (e *Executor) resolveBackendName(agentCfg *config.AgentConfig) string {
	explicit := ""
	if agentCfg != nil {
		explicit = agentCfg.Backend
	}
	appCfg := e.AppConfig
	if appCfg == nil {
		appCfg = config.Default()
	}
	return appCfg.ResolveBackend(explicit, e.BackendFlag)
}

func (e *Executor) lookup(name string) (backend.Backend, error) {
	if e.LookupBackend != nil {
		return e.LookupBackend(name)
	}
	return backend.Lookup(name)
}
