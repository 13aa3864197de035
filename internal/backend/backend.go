// Package backend normalizes agent CLIs behind a single contract. Each
// adapter translates the uniform option set into one CLI's argument syntax
// and spawns it through the stream package.
package backend

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/ag0os/orchestra/internal/process"
	"github.com/ag0os/orchestra/internal/stream"
)

// Capabilities declares which options an agent backend supports. Callers
// query it to decide whether to warn about options a backend will ignore.
type Capabilities struct {
	SystemPrompt   bool
	ToolFilters    bool
	ModelSelection bool
	MaxTurns       bool
	Interactive    bool
	Streaming      bool
	MCPConfig      bool
}

// Backend is the uniform contract for an agent CLI family.
type Backend interface {
	// Name returns the registered backend name (e.g. "claude").
	Name() string

	// IsAvailable reports whether the backend's CLI can be invoked. It
	// never returns an error; any lookup failure reads as unavailable.
	IsAvailable() bool

	// Capabilities returns what this backend supports.
	Capabilities() Capabilities

	// Run executes the agent once, dispatching on opts.Mode. In print
	// mode output is aggregated into the result.
	Run(ctx context.Context, opts RunOptions) (*RunResult, error)

	// RunStreaming executes in print mode, forwarding output chunks to
	// the callbacks as they arrive.
	RunStreaming(ctx context.Context, opts RunOptions, cb stream.Callbacks) (*RunResult, error)

	// RunInteractive hands the terminal to the agent. Output is not
	// captured and the completion marker is never inspected.
	RunInteractive(ctx context.Context, opts RunOptions) (*RunResult, error)
}

// waitDelay is how long a child gets to shut down after a cancellation
// signal before it is forcibly killed.
const waitDelay = 10 * time.Second

// binaryFor resolves the executable for a backend: an environment override
// (ORCHESTRA_<NAME>_BIN) wins over the adapter's default binary name.
func binaryFor(name, defaultBin string) string {
	envVar := "ORCHESTRA_" + strings.ToUpper(strings.ReplaceAll(name, "-", "_")) + "_BIN"
	if override := os.Getenv(envVar); override != "" {
		return override
	}
	return defaultBin
}

// available reports whether the resolved binary can be found. Absolute
// override paths are checked directly; bare names go through PATH lookup.
func available(name, defaultBin string) bool {
	bin := binaryFor(name, defaultBin)
	if strings.ContainsRune(bin, os.PathSeparator) {
		info, err := os.Stat(bin)
		return err == nil && !info.IsDir()
	}
	_, err := exec.LookPath(bin)
	return err == nil
}

// NewCommand builds an exec.Cmd wired for graceful cancellation: on context
// cancellation the child receives a termination signal and gets waitDelay
// to exit before being killed.
func NewCommand(ctx context.Context, bin string, args []string, workDir string, env map[string]string) *exec.Cmd {
	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.Dir = workDir
	if len(env) > 0 {
		cmd.Env = Environ(env)
	}
	cmd.Cancel = func() error {
		if cmd.Process == nil {
			return nil
		}
		return process.Terminate(cmd.Process.Pid)
	}
	cmd.WaitDelay = waitDelay
	return cmd
}

// Environ returns the parent environment with the given overrides appended.
// Later entries win, so overrides take effect.
func Environ(overrides map[string]string) []string {
	env := os.Environ()
	for k, v := range overrides {
		env = append(env, fmt.Sprintf("%s=%s", k, v))
	}
	return env
}

// runStreaming spawns the resolved binary with the given args and collects
// output through the stream multiplexer. Shared by all adapters.
func runStreaming(ctx context.Context, name, defaultBin string, args []string, opts RunOptions, cb stream.Callbacks) (*RunResult, error) {
	cmd := NewCommand(ctx, binaryFor(name, defaultBin), args, opts.WorkDir, opts.Env)
	res, err := stream.Run(cmd, stream.CompletionMarker, cb)
	if err != nil {
		return nil, err
	}
	return &RunResult{
		ExitCode:    res.ExitCode,
		Stdout:      res.Stdout,
		Stderr:      res.Stderr,
		MarkerFound: res.MarkerFound,
	}, nil
}

// runInteractive spawns the resolved binary attached to the parent's
// terminal. Nothing is captured.
func runInteractive(ctx context.Context, name, defaultBin string, args []string, opts RunOptions) (*RunResult, error) {
	cmd := NewCommand(ctx, binaryFor(name, defaultBin), args, opts.WorkDir, opts.Env)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	err := cmd.Run()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return &RunResult{ExitCode: exitErr.ExitCode()}, nil
		}
		return nil, err
	}
	return &RunResult{ExitCode: 0}, nil
}
