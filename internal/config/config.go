// Package config holds the two configuration surfaces: the app config
// (TOML, defaults for backend/model/iterations) and the chain document
// (JSON, chains and agents).
package config

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

const (
	// EnvBackend overrides the default backend when no flag is given.
	EnvBackend = "ORCHESTRA_BACKEND"

	// DefaultBackend is the compiled-in backend name.
	DefaultBackend = "claude"

	// DefaultIterations is the loop ceiling when neither config nor flag
	// supplies one.
	DefaultIterations = 10
)

// Config holds the application configuration.
type Config struct {
	// Backend names the default agent backend.
	Backend string `toml:"backend"`

	// Model is the default model identifier, in the backend's naming.
	Model string `toml:"model"`

	// Iterations is the default loop iteration ceiling.
	Iterations int `toml:"iterations"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Backend:    DefaultBackend,
		Iterations: DefaultIterations,
	}
}

// GlobalConfigPath returns the path to the global config file.
func GlobalConfigPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "orchestra", "config.toml"), nil
}

// ProjectConfigPath returns the path to the project config file.
func ProjectConfigPath() string {
	return ".orchestra.toml"
}

// Load reads and merges configuration.
// Priority (highest to lowest): project config > global config > defaults.
func Load() (*Config, error) {
	cfg := Default()

	globalPath, err := GlobalConfigPath()
	if err == nil {
		if _, err := os.Stat(globalPath); err == nil {
			if err := mergeFile(globalPath, cfg); err != nil {
				return nil, err
			}
		}
	}

	projectPath := ProjectConfigPath()
	if _, err := os.Stat(projectPath); err == nil {
		if err := mergeFile(projectPath, cfg); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// mergeFile overlays the non-zero fields of a TOML file onto cfg.
func mergeFile(path string, cfg *Config) error {
	var fileCfg Config
	if _, err := toml.DecodeFile(path, &fileCfg); err != nil {
		return err
	}
	if fileCfg.Backend != "" {
		cfg.Backend = fileCfg.Backend
	}
	if fileCfg.Model != "" {
		cfg.Model = fileCfg.Model
	}
	if fileCfg.Iterations != 0 {
		cfg.Iterations = fileCfg.Iterations
	}
	return nil
}

// ResolveBackend applies the backend selection priority:
// explicit override > CLI flag > environment variable > config default.
func (c *Config) ResolveBackend(override, flag string) string {
	if override != "" {
		return override
	}
	if flag != "" {
		return flag
	}
	if env := os.Getenv(EnvBackend); env != "" {
		return env
	}
	if c.Backend != "" {
		return c.Backend
	}
	return DefaultBackend
}
