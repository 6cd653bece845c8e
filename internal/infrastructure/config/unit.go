package config

import "github.com/spf13/viper"

// UnitConfig is the agentd-side configuration, injected entirely through
// environment variables when the lifecycle manager creates the unit.
type UnitConfig struct {
	AgentID      string  `mapstructure:"agent_id"`
	AgentType    string  `mapstructure:"agent_type"`
	ModelName    string  `mapstructure:"model_name"`
	Deployment   string  `mapstructure:"azure_deployment_name"`
	SystemPrompt string  `mapstructure:"custom_system_prompt"` // empty = built-in default for AgentType
	Port         int     `mapstructure:"agent_port"`
	MaxTokens    int     `mapstructure:"agent_max_tokens"`
	Temperature  float64 `mapstructure:"agent_temperature"`

	AzureEndpoint   string `mapstructure:"azure_openai_endpoint"`
	AzureAPIKey     string `mapstructure:"azure_openai_api_key"`
	AzureAPIVersion string `mapstructure:"azure_openai_api_version"`
	OpenAIAPIKey    string `mapstructure:"openai_api_key"`
	OpenAIModel     string `mapstructure:"openai_model"`

	LogLevel string `mapstructure:"log_level"`
}

// LoadUnit reads agentd configuration from the environment.
func LoadUnit() (*UnitConfig, error) {
	v := viper.New()

	v.SetDefault("agent_id", "unknown")
	v.SetDefault("agent_type", "general")
	v.SetDefault("model_name", "gpt-4o-mini")
	v.SetDefault("agent_port", 8080)
	v.SetDefault("agent_max_tokens", 800)
	v.SetDefault("agent_temperature", 0.7)
	v.SetDefault("azure_openai_api_version", "2024-02-15-preview")
	v.SetDefault("openai_model", "gpt-3.5-turbo")
	v.SetDefault("log_level", "info")

	// Bare env var names, no prefix: the keys above are the variables the
	// manager injects into the container verbatim (AGENT_ID, MODEL_NAME, ...).
	for _, key := range []string{
		"agent_id", "agent_type", "model_name", "azure_deployment_name",
		"custom_system_prompt", "agent_port", "agent_max_tokens",
		"agent_temperature", "azure_openai_endpoint", "azure_openai_api_key",
		"azure_openai_api_version", "openai_api_key", "openai_model",
		"log_level",
	} {
		_ = v.BindEnv(key)
	}

	var cfg UnitConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
