package config

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"

	"github.com/ag0os/orchestra/internal/prompt"
)

// ChainDocPath is the project-local chain document, relative to the
// working directory.
const ChainDocPath = ".orchestra/chains.json"

// ResolverCommand is the external configuration-resolution command queried
// when no project-local chain document exists. Its stdout must be the same
// JSON schema as the document itself.
const ResolverCommand = "orchestra-config-resolve"

// ChainConfig is the parsed chain/agent document.
type ChainConfig struct {
	Chains map[string]Chain       `json:"chains"`
	Agents map[string]AgentConfig `json:"agents,omitempty"`
}

// Chain is an ordered sequence of steps plus an optional chain-level
// prompt source.
type Chain struct {
	Description string      `json:"description,omitempty"`
	Prompt      string      `json:"prompt,omitempty"`
	PromptFile  string      `json:"promptFile,omitempty"`
	Steps       []ChainStep `json:"steps"`
}

// ChainStep names an agent and its iteration policy. Loop is true iff an
// iteration count was explicitly supplied in the document.
type ChainStep struct {
	Agent      string   `json:"agent"`
	Iterations int      `json:"iterations,omitempty"`
	Loop       bool     `json:"-"`
	Args       []string `json:"args,omitempty"`
	Prompt     string   `json:"prompt,omitempty"`
	PromptFile string   `json:"promptFile,omitempty"`
}

// UnmarshalJSON derives Loop from the presence of the iterations field and
// defaults the count to 1 when absent.
func (s *ChainStep) UnmarshalJSON(data []byte) error {
	type plain ChainStep
	aux := struct {
		*plain
		Iterations *int `json:"iterations,omitempty"`
	}{plain: (*plain)(s)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if aux.Iterations != nil {
		s.Iterations = *aux.Iterations
		s.Loop = true
	} else {
		s.Iterations = 1
	}
	return nil
}

// AgentConfig carries per-agent defaults from the document. The presence
// of a system prompt source is the signal that the agent is direct-spawn
// rather than delegated to a separately compiled executable.
type AgentConfig struct {
	Prompt           string   `json:"prompt,omitempty"`
	PromptFile       string   `json:"promptFile,omitempty"`
	SystemPrompt     string   `json:"systemPrompt,omitempty"`
	SystemPromptFile string   `json:"systemPromptFile,omitempty"`
	Model            string   `json:"model,omitempty"`
	MaxTurns         int      `json:"maxTurns,omitempty"`
	AllowedTools     []string `json:"allowedTools,omitempty"`
	DisallowedTools  []string `json:"disallowedTools,omitempty"`
	Settings         string   `json:"settings,omitempty"`
	MCPConfig        string   `json:"mcpConfig,omitempty"`
	Backend          string   `json:"backend,omitempty"`
}

// DirectSpawn reports whether the agent carries a system prompt source and
// is therefore invoked directly through a backend adapter.
func (a *AgentConfig) DirectSpawn() bool {
	return a != nil && (a.SystemPrompt != "" || a.SystemPromptFile != "")
}

// SystemPromptSource returns the agent's system prompt as a prompt source;
// inline text wins over the file reference.
func (a *AgentConfig) SystemPromptSource() prompt.Source {
	if a == nil {
		return prompt.Source{}
	}
	return prompt.Source{Inline: a.SystemPrompt, File: a.SystemPromptFile}
}

// PromptSource returns the agent's default prompt source.
func (a *AgentConfig) PromptSource() prompt.Source {
	if a == nil {
		return prompt.Source{}
	}
	return prompt.Source{Inline: a.Prompt, File: a.PromptFile}
}

// ChainNames returns the defined chain names, sorted.
func (c *ChainConfig) ChainNames() []string {
	names := make([]string, 0, len(c.Chains))
	for name := range c.Chains {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// AgentNames returns the configured agent names, sorted.
func (c *ChainConfig) AgentNames() []string {
	names := make([]string, 0, len(c.Agents))
	for name := range c.Agents {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Agent returns the config for an agent name, or nil when the document
// does not configure it.
func (c *ChainConfig) Agent(name string) *AgentConfig {
	if c == nil {
		return nil
	}
	if a, ok := c.Agents[name]; ok {
		return &a
	}
	return nil
}

// ParseChainConfig parses and validates a chain document.
func ParseChainConfig(data []byte) (*ChainConfig, error) {
	var cfg ChainConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing chain config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *ChainConfig) validate() error {
	for name, chain := range c.Chains {
		for i, step := range chain.Steps {
			if step.Agent == "" {
				return fmt.Errorf("chains.%s.steps[%d].agent: required", name, i)
			}
			if step.Iterations < 1 {
				return fmt.Errorf("chains.%s.steps[%d].iterations: must be a positive integer, got %d", name, i, step.Iterations)
			}
		}
	}
	return nil
}

// LoadChainConfig locates and parses the chain document. A project-local
// file under workDir takes precedence; failing that, the external resolver
// command is queried and its stdout parsed. When neither source exists the
// result is (nil, nil): no configuration is not an error.
func LoadChainConfig(workDir string) (*ChainConfig, error) {
	path := filepath.Join(workDir, filepath.FromSlash(ChainDocPath))
	data, err := os.ReadFile(path)
	if err == nil {
		cfg, err := ParseChainConfig(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		return cfg, nil
	}
	if !os.IsNotExist(err) {
		return nil, err
	}

	out, err := runResolver(workDir)
	if err != nil {
		// Resolver unavailable or failed: no configuration.
		return nil, nil
	}
	cfg, err := ParseChainConfig(out)
	if err != nil {
		return nil, fmt.Errorf("%s output: %w", ResolverCommand, err)
	}
	return cfg, nil
}

func runResolver(workDir string) ([]byte, error) {
	if _, err := exec.LookPath(ResolverCommand); err != nil {
		return nil, err
	}
	cmd := exec.Command(ResolverCommand)
	cmd.Dir = workDir
	return cmd.Output()
}
