package chain

import (
	"context"
	"strings"
	"testing"

	"github.com/ag0os/orchestra/internal/backend"
	"github.com/ag0os/orchestra/internal/config"
	"github.com/ag0os/orchestra/internal/stream"
)

// scriptedBackend completes or fails every invocation and records the
// options it saw.
type scriptedBackend struct {
	name     string
	exitCode int
	marker   bool
	calls    int
	seen     []backend.RunOptions
}

func (s *scriptedBackend) Name() string      { return s.name }
func (s *scriptedBackend) IsAvailable() bool { return true }

func (s *scriptedBackend) Capabilities() backend.Capabilities {
	return backend.Capabilities{SystemPrompt: true, Streaming: true, Interactive: true}
}

func (s *scriptedBackend) Run(ctx context.Context, opts backend.RunOptions) (*backend.RunResult, error) {
	return s.RunStreaming(ctx, opts, stream.Callbacks{})
}

func (s *scriptedBackend) RunStreaming(ctx context.Context, opts backend.RunOptions, cb stream.Callbacks) (*backend.RunResult, error) {
	s.calls++
	s.seen = append(s.seen, opts)
	return &backend.RunResult{ExitCode: s.exitCode, MarkerFound: s.marker}, nil
}

func (s *scriptedBackend) RunInteractive(ctx context.Context, opts backend.RunOptions) (*backend.RunResult, error) {
	s.calls++
	s.seen = append(s.seen, opts)
	return &backend.RunResult{ExitCode: s.exitCode}, nil
}

// directAgent builds an AgentConfig that routes through the named fake
// backend. The system prompt makes it direct-spawn.
func directAgent(backendName string) config.AgentConfig {
	return config.AgentConfig{SystemPrompt: "work", Backend: backendName}
}

func newExecutor(t *testing.T, cfg *config.ChainConfig, backends map[string]*scriptedBackend) *Executor {
	t.Helper()
	return &Executor{
		Config:    cfg,
		AppConfig: config.Default(),
		WorkDir:   t.TempDir(),
		LookupBackend: func(name string) (backend.Backend, error) {
			b, ok := backends[name]
			if !ok {
				t.Fatalf("unexpected backend lookup: %q", name)
			}
			return b, nil
		},
	}
}

func TestChainStopsAtFirstFailingStep(t *testing.T) {
	backends := map[string]*scriptedBackend{
		"ok":  {name: "ok", marker: true},
		"bad": {name: "bad", exitCode: 1},
		"spy": {name: "spy", marker: true},
	}
	cfg := &config.ChainConfig{
		Chains: map[string]config.Chain{
			"pipeline": {Steps: []config.ChainStep{
				{Agent: "a", Iterations: 1, Loop: true},
				{Agent: "fail", Iterations: 1, Loop: true},
				{Agent: "c", Iterations: 1, Loop: true},
			}},
		},
		Agents: map[string]config.AgentConfig{
			"a":    directAgent("ok"),
			"fail": directAgent("bad"),
			"c":    directAgent("spy"),
		},
	}

	result, err := newExecutor(t, cfg, backends).Run(context.Background(), "pipeline")
	if err != nil {
		t.Fatal(err)
	}

	if result.Success {
		t.Error("chain with a failing step must not succeed")
	}
	if len(result.Steps) != 2 {
		t.Errorf("Steps length = %d, want 2 (prefix-stable)", len(result.Steps))
	}
	if result.FailedAt != 1 {
		t.Errorf("FailedAt = %d, want 1", result.FailedAt)
	}
	if backends["spy"].calls != 0 {
		t.Errorf("steps after the failure must never run, spy saw %d calls", backends["spy"].calls)
	}
	if result.Steps[0].Agent != "a" || result.Steps[1].Agent != "fail" {
		t.Errorf("step results out of order: %+v", result.Steps)
	}
}

func TestChainAllStepsComplete(t *testing.T) {
	ok := &scriptedBackend{name: "ok", marker: true}
	cfg := &config.ChainConfig{
		Chains: map[string]config.Chain{
			"two": {Steps: []config.ChainStep{
				{Agent: "a", Iterations: 2, Loop: true},
				{Agent: "b", Iterations: 1, Loop: true},
			}},
		},
		Agents: map[string]config.AgentConfig{
			"a": directAgent("ok"),
			"b": directAgent("ok"),
		},
	}

	result, err := newExecutor(t, cfg, map[string]*scriptedBackend{"ok": ok}).Run(context.Background(), "two")
	if err != nil {
		t.Fatal(err)
	}

	if !result.Success {
		t.Error("all steps completed, chain should succeed")
	}
	if result.FailedAt != -1 {
		t.Errorf("FailedAt = %d, want -1", result.FailedAt)
	}
	if len(result.Steps) != 2 {
		t.Errorf("Steps length = %d, want 2", len(result.Steps))
	}
}

func TestChainZeroStepsTriviallySucceeds(t *testing.T) {
	cfg := &config.ChainConfig{
		Chains: map[string]config.Chain{"empty": {}},
	}

	result, err := newExecutor(t, cfg, nil).Run(context.Background(), "empty")
	if err != nil {
		t.Fatal(err)
	}

	if !result.Success {
		t.Error("empty chain trivially succeeds")
	}
	if len(result.Steps) != 0 {
		t.Errorf("Steps length = %d, want 0", len(result.Steps))
	}
}

func TestChainUnknownNameListsAvailable(t *testing.T) {
	cfg := &config.ChainConfig{
		Chains: map[string]config.Chain{"alpha": {}, "beta": {}},
	}

	_, err := newExecutor(t, cfg, nil).Run(context.Background(), "gamma")
	if err == nil {
		t.Fatal("expected an error for an unknown chain")
	}
	for _, want := range []string{"gamma", "alpha", "beta"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error should mention %q: %v", want, err)
		}
	}
}

func TestChainArgMergeStepArgsLast(t *testing.T) {
	ok := &scriptedBackend{name: "ok", marker: true}
	cfg := &config.ChainConfig{
		Chains: map[string]config.Chain{
			"one": {Steps: []config.ChainStep{
				{Agent: "a", Iterations: 1, Loop: true, Args: []string{"--step-arg"}},
			}},
		},
		Agents: map[string]config.AgentConfig{"a": directAgent("ok")},
	}

	e := newExecutor(t, cfg, map[string]*scriptedBackend{"ok": ok})
	e.ExtraArgs = []string{"--global-arg"}

	if _, err := e.Run(context.Background(), "one"); err != nil {
		t.Fatal(err)
	}

	if len(ok.seen) != 1 {
		t.Fatalf("expected one invocation, got %d", len(ok.seen))
	}
	got := ok.seen[0].ExtraArgs
	if len(got) != 2 || got[0] != "--global-arg" || got[1] != "--step-arg" {
		t.Errorf("step args must be appended after global args, got %v", got)
	}
}

func TestChainVariableSubstitutionInArgsAndPrompt(t *testing.T) {
	ok := &scriptedBackend{name: "ok", marker: true}
	cfg := &config.ChainConfig{
		Chains: map[string]config.Chain{
			"one": {Steps: []config.ChainStep{
				{Agent: "a", Iterations: 1, Loop: true, Args: []string{"--ticket=${TICKET}"}, Prompt: "fix ${TICKET}"},
			}},
		},
		Agents: map[string]config.AgentConfig{"a": directAgent("ok")},
	}

	e := newExecutor(t, cfg, map[string]*scriptedBackend{"ok": ok})
	e.Vars = map[string]string{"TICKET": "ENG-7"}

	if _, err := e.Run(context.Background(), "one"); err != nil {
		t.Fatal(err)
	}

	opts := ok.seen[0]
	if opts.ExtraArgs[0] != "--ticket=ENG-7" {
		t.Errorf("args not substituted: %v", opts.ExtraArgs)
	}
	if opts.Prompt != "fix ENG-7" {
		t.Errorf("prompt not substituted: %q", opts.Prompt)
	}
}

func TestChainUnboundVariableFailsFast(t *testing.T) {
	ok := &scriptedBackend{name: "ok", marker: true}
	cfg := &config.ChainConfig{
		Chains: map[string]config.Chain{
			"one": {Steps: []config.ChainStep{
				{Agent: "a", Iterations: 1, Loop: true, Args: []string{"${UNDEFINED}"}},
			}},
		},
		Agents: map[string]config.AgentConfig{"a": directAgent("ok")},
	}

	_, err := newExecutor(t, cfg, map[string]*scriptedBackend{"ok": ok}).Run(context.Background(), "one")
	if err == nil {
		t.Fatal("expected an unbound variable error")
	}
	if !strings.Contains(err.Error(), "UNDEFINED") || !strings.Contains(err.Error(), "agent a") {
		t.Errorf("error should name the variable and the agent: %v", err)
	}
	if ok.calls != 0 {
		t.Error("nothing should run on a substitution error")
	}
}

func TestChainPromptPriority(t *testing.T) {
	ok := &scriptedBackend{name: "ok", marker: true}
	cfg := &config.ChainConfig{
		Chains: map[string]config.Chain{
			"one": {
				Prompt: "chain prompt",
				Steps: []config.ChainStep{
					{Agent: "a", Iterations: 1, Loop: true, Prompt: "step prompt"},
				},
			},
		},
		Agents: map[string]config.AgentConfig{"a": directAgent("ok")},
	}

	// Step prompt beats chain prompt.
	e := newExecutor(t, cfg, map[string]*scriptedBackend{"ok": ok})
	if _, err := e.Run(context.Background(), "one"); err != nil {
		t.Fatal(err)
	}
	if ok.seen[0].Prompt != "step prompt" {
		t.Errorf("Prompt = %q, want step prompt", ok.seen[0].Prompt)
	}

	// Invocation-level prompt beats everything.
	ok.seen = nil
	e.Prompt = "invocation prompt"
	if _, err := e.Run(context.Background(), "one"); err != nil {
		t.Fatal(err)
	}
	if ok.seen[0].Prompt != "invocation prompt" {
		t.Errorf("Prompt = %q, want invocation prompt", ok.seen[0].Prompt)
	}
}

func TestChainAgentDefaultPromptUsedLast(t *testing.T) {
	ok := &scriptedBackend{name: "ok", marker: true}
	agent := directAgent("ok")
	agent.Prompt = "agent default"
	cfg := &config.ChainConfig{
		Chains: map[string]config.Chain{
			"one": {Steps: []config.ChainStep{{Agent: "a", Iterations: 1, Loop: true}}},
		},
		Agents: map[string]config.AgentConfig{"a": agent},
	}

	if _, err := newExecutor(t, cfg, map[string]*scriptedBackend{"ok": ok}).Run(context.Background(), "one"); err != nil {
		t.Fatal(err)
	}
	if ok.seen[0].Prompt != "agent default" {
		t.Errorf("Prompt = %q, want agent default", ok.seen[0].Prompt)
	}
}
