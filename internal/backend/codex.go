package backend

import (
	"context"

	"github.com/charmbracelet/log"

	"github.com/ag0os/orchestra/internal/stream"
)

// codexBackend adapts the Codex CLI. Codex has no system prompt flag, no
// tool filters and no turn cap, so those options degrade to warnings.
type codexBackend struct{}

const codexBin = "codex"

func init() {
	Register("codex", func() Backend { return &codexBackend{} })
}

func (b *codexBackend) Name() string { return "codex" }

func (b *codexBackend) IsAvailable() bool {
	return available(b.Name(), codexBin)
}

func (b *codexBackend) Capabilities() Capabilities {
	return Capabilities{
		ModelSelection: true,
		Interactive:    true,
		Streaming:      true,
	}
}

func (b *codexBackend) Run(ctx context.Context, opts RunOptions) (*RunResult, error) {
	if opts.Mode == ModeInteractive {
		return b.RunInteractive(ctx, opts)
	}
	return b.RunStreaming(ctx, opts, stream.Callbacks{})
}

func (b *codexBackend) RunStreaming(ctx context.Context, opts RunOptions, cb stream.Callbacks) (*RunResult, error) {
	opts.Mode = ModePrint
	opts = b.degrade(opts)
	return runStreaming(ctx, b.Name(), codexBin, b.buildArgs(opts), opts, cb)
}

func (b *codexBackend) RunInteractive(ctx context.Context, opts RunOptions) (*RunResult, error) {
	opts.Mode = ModeInteractive
	opts = b.degrade(opts)
	return runInteractive(ctx, b.Name(), codexBin, b.buildArgs(opts), opts)
}

// degrade folds unsupported options into supported ones where an
// approximation exists, warning for the rest.
func (b *codexBackend) degrade(opts RunOptions) RunOptions {
	warnUnsupported(b.Name(), b.Capabilities(), opts)
	if opts.SettingsPath != "" {
		log.Warn("backend does not support option; ignoring",
			"backend", b.Name(), "option", "settings")
	}
	return foldSystemPrompt(b.Name(), opts)
}

func (b *codexBackend) buildArgs(opts RunOptions) []string {
	var args []string
	if opts.Mode != ModeInteractive {
		args = append(args, "exec")
	}
	if opts.Model != "" {
		args = append(args, "--model", opts.Model)
	}
	if opts.SkipPermissions {
		args = append(args, "--dangerously-bypass-approvals-and-sandbox")
	}
	args = append(args, opts.ExtraArgs...)
	if opts.Prompt != "" {
		args = append(args, opts.Prompt)
	}
	return args
}
