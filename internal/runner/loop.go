// Package runner is the iteration loop controller: it invokes an agent
// once or repeatedly until the completion marker appears, an iteration
// ceiling is hit, or the run is cancelled.
package runner

import (
	"context"
	"io"

	"github.com/charmbracelet/log"

	"github.com/ag0os/orchestra/internal/backend"
	"github.com/ag0os/orchestra/internal/stream"
)

// Reason explains why a run stopped.
type Reason string

const (
	// ReasonSingleRun: single-run mode, spawned exactly once.
	ReasonSingleRun Reason = "single_run"

	// ReasonMarker: the completion marker was detected in stdout.
	ReasonMarker Reason = "marker"

	// ReasonMaxIterations: the iteration ceiling was exhausted without a
	// marker.
	ReasonMaxIterations Reason = "max_iterations"

	// ReasonError: a spawn failure or cancellation. Never propagated as
	// an error to the chain layer.
	ReasonError Reason = "error"
)

// printPreamble tells a direct-spawn agent it is running non-interactively
// and states the completion contract.
const printPreamble = "You are running non-interactively; there is no human to answer questions, so work autonomously. " +
	"When the current unit of work is fully complete, print the line " + stream.CompletionMarker + " on its own line in your output."

// legacyFlags are always passed to delegated agent executables so they run
// without prompting for input or permissions.
var legacyFlags = []string{"--print", "--dangerously-skip-permissions"}

// Options configures one run of the loop controller. Immutable once passed
// to Run.
type Options struct {
	// Agent is the agent name. On the legacy path it doubles as the name
	// of the separately compiled executable to spawn.
	Agent string

	// Backend executes direct-spawn runs. Required when Direct is true.
	Backend backend.Backend

	// Direct routes the run through the backend adapter; otherwise the
	// legacy executable path is used.
	Direct bool

	// Prompt is the resolved prompt; may be empty.
	Prompt string

	// SystemPrompt is the raw system prompt for direct-spawn runs. The
	// controller prepends the print-mode preamble itself.
	SystemPrompt string

	Model           string
	MaxTurns        int
	AllowedTools    []string
	DisallowedTools []string
	SettingsPath    string
	MCPConfigPath   string

	WorkDir   string
	Env       map[string]string
	ExtraArgs []string

	Interactive     bool
	SkipPermissions bool
	Verbose         bool

	// Loop selects loop mode; Iterations is the ceiling. Exactly one of
	// loop or single-run applies: when Loop is false the agent is
	// spawned exactly once regardless of Iterations.
	Loop       bool
	Iterations int

	// Output receives the agent's streamed stdout/stderr in print mode.
	Output io.Writer
}

// Result is the structured outcome of a run. It is always produced;
// failures inside an iteration are absorbed rather than returned.
type Result struct {
	Complete    bool
	Iterations  int
	ExitCode    int
	Reason      Reason
	MarkerFound bool

	// Run is the last invocation's result, when one completed.
	Run *backend.RunResult
}

// Run executes the agent per the options. It never returns an error: any
// failure while building options or spawning becomes a Result with
// ReasonError so chain-level logic can make a uniform completion decision.
func Run(ctx context.Context, opts Options) *Result {
	if !opts.Loop {
		run, err := runOnce(ctx, opts)
		if err != nil {
			log.Error("agent run failed", "agent", opts.Agent, "err", err)
			return &Result{ExitCode: 1, Reason: ReasonError}
		}
		return &Result{
			Complete:    run.ExitCode == 0,
			Iterations:  1,
			ExitCode:    run.ExitCode,
			Reason:      ReasonSingleRun,
			MarkerFound: run.MarkerFound,
			Run:         run,
		}
	}

	maxIterations := opts.Iterations
	if maxIterations < 1 {
		maxIterations = 1
	}

	var last *backend.RunResult
	for i := 1; i <= maxIterations; i++ {
		if ctx.Err() != nil {
			log.Warn("run cancelled", "agent", opts.Agent, "iteration", i-1)
			return cancelled(i-1, last)
		}

		log.Info("iteration", "agent", opts.Agent, "n", i, "max", maxIterations)

		// Each iteration spawns fresh: no process state persists, the
		// agent re-reads whatever external state it needs.
		run, err := runOnce(ctx, opts)
		if err != nil {
			if ctx.Err() != nil {
				log.Warn("run cancelled", "agent", opts.Agent, "iteration", i-1)
				return cancelled(i-1, last)
			}
			log.Error("agent run failed", "agent", opts.Agent, "iteration", i, "err", err)
			return &Result{Iterations: i - 1, ExitCode: 1, Reason: ReasonError, Run: last}
		}
		last = run

		if run.MarkerFound {
			log.Info("completion marker detected", "agent", opts.Agent, "iteration", i)
			return &Result{
				Complete:    true,
				Iterations:  i,
				ExitCode:    run.ExitCode,
				Reason:      ReasonMarker,
				MarkerFound: true,
				Run:         run,
			}
		}

		// A cancellation that arrived mid-iteration is observed here,
		// after the iteration's output has been drained.
		if ctx.Err() != nil {
			log.Warn("run cancelled", "agent", opts.Agent, "iteration", i)
			return cancelled(i, last)
		}
	}

	exitCode := 1
	if last != nil {
		exitCode = last.ExitCode
	}
	log.Warn("iteration ceiling reached without marker", "agent", opts.Agent, "iterations", maxIterations)
	return &Result{Iterations: maxIterations, ExitCode: exitCode, Reason: ReasonMaxIterations, Run: last}
}

func cancelled(iterations int, last *backend.RunResult) *Result {
	return &Result{Iterations: iterations, ExitCode: 1, Reason: ReasonError, Run: last}
}

// runOnce dispatches a single invocation: direct spawn through the backend
// adapter, or the legacy separately-compiled-executable path.
func runOnce(ctx context.Context, opts Options) (*backend.RunResult, error) {
	if opts.Direct {
		return runDirect(ctx, opts)
	}
	return runLegacy(ctx, opts)
}

func runDirect(ctx context.Context, opts Options) (*backend.RunResult, error) {
	ropts := backend.RunOptions{
		Prompt:          opts.Prompt,
		SystemPrompt:    opts.SystemPrompt,
		WorkDir:         opts.WorkDir,
		Env:             opts.Env,
		Model:           opts.Model,
		MaxTurns:        opts.MaxTurns,
		AllowedTools:    opts.AllowedTools,
		DisallowedTools: opts.DisallowedTools,
		SettingsPath:    opts.SettingsPath,
		MCPConfigPath:   opts.MCPConfigPath,
		Mode:            backend.ModePrint,
		ExtraArgs:       opts.ExtraArgs,
		SkipPermissions: opts.SkipPermissions,
		Verbose:         opts.Verbose,
	}

	if opts.Interactive {
		ropts.Mode = backend.ModeInteractive
		return opts.Backend.RunInteractive(ctx, ropts)
	}

	// Print mode gets the mode-awareness preamble ahead of the raw
	// system prompt.
	if ropts.SystemPrompt != "" {
		ropts.SystemPrompt = printPreamble + "\n\n" + ropts.SystemPrompt
	} else {
		ropts.SystemPrompt = printPreamble
	}

	return opts.Backend.RunStreaming(ctx, ropts, outputCallbacks(opts.Output))
}

// runLegacy spawns the agent's own executable: fixed non-interactive
// flags, then merged extra args, then the prompt as the final positional
// argument.
func runLegacy(ctx context.Context, opts Options) (*backend.RunResult, error) {
	args := append([]string{}, legacyFlags...)
	args = append(args, opts.ExtraArgs...)
	if opts.Prompt != "" {
		args = append(args, opts.Prompt)
	}

	cmd := backend.NewCommand(ctx, opts.Agent, args, opts.WorkDir, opts.Env)
	res, err := stream.Run(cmd, stream.CompletionMarker, outputCallbacks(opts.Output))
	if err != nil {
		return nil, err
	}
	return &backend.RunResult{
		ExitCode:    res.ExitCode,
		Stdout:      res.Stdout,
		Stderr:      res.Stderr,
		MarkerFound: res.MarkerFound,
	}, nil
}

// outputCallbacks forwards streamed chunks to the configured writer.
func outputCallbacks(out io.Writer) stream.Callbacks {
	if out == nil {
		return stream.Callbacks{}
	}
	return stream.Callbacks{
		OnStdout: func(chunk string) { io.WriteString(out, chunk) },
		OnStderr: func(chunk string) { io.WriteString(out, chunk) },
	}
}
