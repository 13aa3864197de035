package backend

import (
	"strings"

	"github.com/charmbracelet/log"
)

// Mode selects how an agent run interacts with the terminal.
type Mode string

const (
	// ModePrint runs the agent non-interactively with captured output.
	ModePrint Mode = "print"

	// ModeInteractive hands the terminal to the agent.
	ModeInteractive Mode = "interactive"
)

// RunOptions is the uniform option set for one agent invocation. It is
// immutable once passed into a run call; adapters translate it into their
// CLI's argument vector.
type RunOptions struct {
	// Prompt is the user prompt. May be empty when the agent is driven
	// purely by its system prompt.
	Prompt string

	// SystemPrompt is injected via the backend's system prompt flag when
	// supported, otherwise prepended to the prompt with a separator.
	SystemPrompt string

	// WorkDir is the working directory for the spawned process.
	WorkDir string

	// Env holds environment overrides applied on top of the parent env.
	Env map[string]string

	// Model selects the model, in the backend's own naming scheme.
	Model string

	// MaxTurns caps the agent's turn count (0 = no cap).
	MaxTurns int

	AllowedTools    []string
	DisallowedTools []string

	// SettingsPath points at a backend settings file.
	SettingsPath string

	// MCPConfigPath points at a side-channel (MCP) configuration file.
	MCPConfigPath string

	// Mode selects print or interactive execution.
	Mode Mode

	// ExtraArgs are passed through to the CLI verbatim, after all
	// translated options.
	ExtraArgs []string

	// SkipPermissions disables the backend's permission prompts.
	SkipPermissions bool

	Verbose bool
}

// RunResult is produced once per invocation, at process exit.
type RunResult struct {
	ExitCode int

	// Stdout and Stderr are captured output. Stdout is only present in
	// print mode; interactive runs capture nothing.
	Stdout string
	Stderr string

	// MarkerFound reports whether the completion marker appeared in
	// stdout. Always false for interactive runs.
	MarkerFound bool
}

// systemPromptSeparator divides a folded-in system prompt from the user
// prompt on backends without system prompt support.
const systemPromptSeparator = "\n\n---\n\n"

// foldSystemPrompt is the degraded path for backends whose capability set
// lacks system prompt injection: warn, then prepend the system prompt to
// the user prompt.
func foldSystemPrompt(backendName string, opts RunOptions) RunOptions {
	if opts.SystemPrompt == "" {
		return opts
	}
	log.Warn("backend does not support system prompts; prepending to prompt",
		"backend", backendName)
	if opts.Prompt == "" {
		opts.Prompt = opts.SystemPrompt
	} else {
		opts.Prompt = opts.SystemPrompt + systemPromptSeparator + opts.Prompt
	}
	opts.SystemPrompt = ""
	return opts
}

// warnUnsupported logs one warning per option the backend will ignore.
// Capability mismatches are never errors; execution proceeds.
func warnUnsupported(backendName string, caps Capabilities, opts RunOptions) {
	warn := func(option string) {
		log.Warn("backend does not support option; ignoring",
			"backend", backendName, "option", option)
	}
	if opts.Model != "" && !caps.ModelSelection {
		warn("model")
	}
	if opts.MaxTurns > 0 && !caps.MaxTurns {
		warn("max-turns")
	}
	if (len(opts.AllowedTools) > 0 || len(opts.DisallowedTools) > 0) && !caps.ToolFilters {
		warn("tool filters")
	}
	if opts.MCPConfigPath != "" && !caps.MCPConfig {
		warn("mcp-config")
	}
}

// joinTools renders a tool list the way most agent CLIs expect it.
func joinTools(tools []string) string {
	return strings.Join(tools, ",")
}
