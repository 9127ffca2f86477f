package config

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Load loads config from the default path (~/.carebot/config.json). A
// missing file is not an error: env-only provisioning (e.g. just
// PERPLEXITY_API_KEY) starts with defaults.
func Load() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get home directory: %w", err)
	}
	path := filepath.Join(home, ".carebot", "config.json")
	if _, err := os.Stat(path); os.IsNotExist(err) {
		cfg := DefaultConfig()
		applyEnvOverrides(cfg)
		expandWorkspacePath(cfg)
		return cfg, nil
	}
	return LoadFromFile(path)
}

// LoadFromFile loads config from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file %s: %w", path, err)
	}
	defer f.Close()
	return LoadFromReader(f)
}

// LoadFromReader loads config from an io.Reader, applying defaults and env overrides.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := DefaultConfig()

	if err := json.NewDecoder(r).Decode(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	applyEnvOverrides(cfg)
	expandWorkspacePath(cfg)

	return cfg, nil
}

// applyEnvOverrides applies CAREBOT_-prefixed environment variable overrides.
// The Perplexity key additionally honors the bare PERPLEXITY_API_KEY variable,
// since that is how the credential is usually provisioned.
func applyEnvOverrides(cfg *Config) {
	envMap := map[string]*string{
		"CAREBOT_PROVIDERS_OPENAI_APIKEY":     &cfg.Providers.OpenAI.APIKey,
		"CAREBOT_PROVIDERS_ANTHROPIC_APIKEY":  &cfg.Providers.Anthropic.APIKey,
		"CAREBOT_PROVIDERS_OPENROUTER_APIKEY": &cfg.Providers.OpenRouter.APIKey,
		"CAREBOT_PROVIDERS_PERPLEXITY_APIKEY": &cfg.Providers.Perplexity.APIKey,
		"CAREBOT_PROVIDERS_CUSTOM_APIKEY":     &cfg.Providers.Custom.APIKey,
		"PERPLEXITY_API_KEY":                  &cfg.Providers.Perplexity.APIKey,
		"CAREBOT_AGENT_MODEL":                 &cfg.Agent.Model,
		"CAREBOT_AGENT_WORKSPACE":             &cfg.Agent.Workspace,
	}

	for env, ptr := range envMap {
		if val := os.Getenv(env); val != "" {
			*ptr = val
		}
	}

	// CAREBOT_ wins when both forms of the Perplexity key are set.
	if val := os.Getenv("CAREBOT_PROVIDERS_PERPLEXITY_APIKEY"); val != "" {
		cfg.Providers.Perplexity.APIKey = val
	}
}

// expandWorkspacePath expands a leading ~ in the workspace path.
func expandWorkspacePath(cfg *Config) {
	ws := cfg.Agent.Workspace
	if len(ws) >= 2 && ws[0] == '~' && ws[1] == '/' {
		home, err := os.UserHomeDir()
		if err == nil {
			cfg.Agent.Workspace = filepath.Join(home, ws[2:])
		}
	}
}
