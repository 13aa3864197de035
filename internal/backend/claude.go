package backend

import (
	"context"
	"strconv"

	"github.com/ag0os/orchestra/internal/stream"
)

// claudeBackend adapts the Claude Code CLI. It is the most capable backend:
// every uniform option has a native flag.
type claudeBackend struct{}

const claudeBin = "claude"

func init() {
	Register("claude", func() Backend { return &claudeBackend{} })
}

func (b *claudeBackend) Name() string { return "claude" }

func (b *claudeBackend) IsAvailable() bool {
	return available(b.Name(), claudeBin)
}

func (b *claudeBackend) Capabilities() Capabilities {
	return Capabilities{
		SystemPrompt:   true,
		ToolFilters:    true,
		ModelSelection: true,
		MaxTurns:       true,
		Interactive:    true,
		Streaming:      true,
		MCPConfig:      true,
	}
}

func (b *claudeBackend) Run(ctx context.Context, opts RunOptions) (*RunResult, error) {
	if opts.Mode == ModeInteractive {
		return b.RunInteractive(ctx, opts)
	}
	return b.RunStreaming(ctx, opts, stream.Callbacks{})
}

func (b *claudeBackend) RunStreaming(ctx context.Context, opts RunOptions, cb stream.Callbacks) (*RunResult, error) {
	opts.Mode = ModePrint
	return runStreaming(ctx, b.Name(), claudeBin, b.buildArgs(opts), opts, cb)
}

func (b *claudeBackend) RunInteractive(ctx context.Context, opts RunOptions) (*RunResult, error) {
	opts.Mode = ModeInteractive
	return runInteractive(ctx, b.Name(), claudeBin, b.buildArgs(opts), opts)
}

// buildArgs maps the uniform options onto Claude Code's flag syntax. The
// prompt is always the final positional argument.
func (b *claudeBackend) buildArgs(opts RunOptions) []string {
	var args []string
	if opts.Mode != ModeInteractive {
		args = append(args, "-p")
	}
	if opts.Model != "" {
		args = append(args, "--model", opts.Model)
	}
	if opts.SystemPrompt != "" {
		args = append(args, "--append-system-prompt", opts.SystemPrompt)
	}
	if opts.MaxTurns > 0 {
		args = append(args, "--max-turns", strconv.Itoa(opts.MaxTurns))
	}
	if len(opts.AllowedTools) > 0 {
		args = append(args, "--allowedTools", joinTools(opts.AllowedTools))
	}
	if len(opts.DisallowedTools) > 0 {
		args = append(args, "--disallowedTools", joinTools(opts.DisallowedTools))
	}
	if opts.SettingsPath != "" {
		args = append(args, "--settings", opts.SettingsPath)
	}
	if opts.MCPConfigPath != "" {
		args = append(args, "--mcp-config", opts.MCPConfigPath)
	}
	if opts.SkipPermissions {
		args = append(args, "--dangerously-skip-permissions")
	}
	if opts.Verbose {
		args = append(args, "--verbose")
	}
	args = append(args, opts.ExtraArgs...)
	if opts.Prompt != "" {
		args = append(args, opts.Prompt)
	}
	return args
}
