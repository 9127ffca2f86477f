package config

// Config is the top-level configuration
type Config struct {
	Providers ProvidersConfig `json:"providers"`
	Agent     AgentConfig     `json:"agent"`
	Tools     ToolsConfig     `json:"tools"`
	Channels  ChannelsConfig  `json:"channels"`
}

// ProvidersConfig holds API keys and settings for LLM providers.
// Perplexity is special: its key gates the search_care_jobs tool.
type ProvidersConfig struct {
	OpenAI     ProviderConfig `json:"openai"`
	Anthropic  ProviderConfig `json:"anthropic"`
	OpenRouter ProviderConfig `json:"openrouter"`
	Perplexity ProviderConfig `json:"perplexity"`
	Custom     ProviderConfig `json:"custom"`
}

type ProviderConfig struct {
	APIKey       string `json:"apiKey"`
	BaseURL      string `json:"baseUrl"`
	DefaultModel string `json:"defaultModel"`
}

// AgentConfig holds the assistant runtime settings.
type AgentConfig struct {
	Workspace         string  `json:"workspace"`
	Model             string  `json:"model"`
	MaxTokens         int     `json:"maxTokens"`
	Temperature       float64 `json:"temperature"`
	MaxToolIterations int     `json:"maxToolIterations"`
	SystemPromptFile  string  `json:"systemPromptFile"`
}

type ToolsConfig struct {
	Enabled  []string `json:"enabled"`
	Disabled []string `json:"disabled"`
}

type ChannelsConfig struct {
	Telegram TelegramConfig `json:"telegram"`
	Discord  DiscordConfig  `json:"discord"`
	Slack    SlackConfig    `json:"slack"`
}

type TelegramConfig struct {
	Token        string   `json:"token"`
	AllowedUsers []string `json:"allowedUsers"`
}

type DiscordConfig struct {
	Token        string   `json:"token"`
	AllowedUsers []string `json:"allowedUsers"`
}

type SlackConfig struct {
	BotToken     string   `json:"botToken"`
	AppToken     string   `json:"appToken"`
	AllowedUsers []string `json:"allowedUsers"`
}

// DefaultConfig returns a Config with sensible defaults applied.
func DefaultConfig() *Config {
	return &Config{
		Agent: AgentConfig{
			Workspace:         "~/.carebot/workspace",
			Model:             "gpt-4o",
			MaxTokens:         4096,
			Temperature:       0.7,
			MaxToolIterations: 20,
		},
	}
}
