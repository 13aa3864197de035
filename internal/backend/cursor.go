package backend

import (
	"context"

	"github.com/charmbracelet/log"

	"github.com/ag0os/orchestra/internal/stream"
)

// cursorBackend adapts Cursor's agent CLI.
type cursorBackend struct{}

const cursorBin = "agent"

func init() {
	Register("cursor", func() Backend { return &cursorBackend{} })
}

func (b *cursorBackend) Name() string { return "cursor" }

func (b *cursorBackend) IsAvailable() bool {
	return available(b.Name(), cursorBin)
}

func (b *cursorBackend) Capabilities() Capabilities {
	return Capabilities{
		ModelSelection: true,
		Interactive:    true,
		Streaming:      true,
	}
}

func (b *cursorBackend) Run(ctx context.Context, opts RunOptions) (*RunResult, error) {
	if opts.Mode == ModeInteractive {
		return b.RunInteractive(ctx, opts)
	}
	return b.RunStreaming(ctx, opts, stream.Callbacks{})
}

func (b *cursorBackend) RunStreaming(ctx context.Context, opts RunOptions, cb stream.Callbacks) (*RunResult, error) {
	opts.Mode = ModePrint
	opts = b.degrade(opts)
	return runStreaming(ctx, b.Name(), cursorBin, b.buildArgs(opts), opts, cb)
}

func (b *cursorBackend) RunInteractive(ctx context.Context, opts RunOptions) (*RunResult, error) {
	opts.Mode = ModeInteractive
	opts = b.degrade(opts)
	return runInteractive(ctx, b.Name(), cursorBin, b.buildArgs(opts), opts)
}

func (b *cursorBackend) degrade(opts RunOptions) RunOptions {
	warnUnsupported(b.Name(), b.Capabilities(), opts)
	if opts.SettingsPath != "" {
		log.Warn("backend does not support option; ignoring",
			"backend", b.Name(), "option", "settings")
	}
	return foldSystemPrompt(b.Name(), opts)
}

func (b *cursorBackend) buildArgs(opts RunOptions) []string {
	var args []string
	if opts.Model != "" {
		args = append(args, "--model", opts.Model)
	}
	if opts.Mode != ModeInteractive {
		args = append(args, "--output-format", "text", "--print")
	}
	if opts.SkipPermissions {
		args = append(args, "--force")
	}
	args = append(args, opts.ExtraArgs...)
	if opts.Prompt != "" {
		args = append(args, opts.Prompt)
	}
	return args
}
