package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the manager-side application configuration.
type Config struct {
	Manager ManagerConfig `mapstructure:"manager"`
	Azure   AzureConfig   `mapstructure:"azure"`
	OpenAI  OpenAIConfig  `mapstructure:"openai"`
	Agent   AgentConfig   `mapstructure:"agent"`
	CORS    CORSConfig    `mapstructure:"cors"`
	Log     LogConfig     `mapstructure:"log"`
}

// ManagerConfig holds the management API server settings.
type ManagerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	Mode string `mapstructure:"mode"` // local, production

	// PublicHost is the externally reachable host used to build agent
	// endpoints. May be a bare hostname or a full URL; any scheme is
	// stripped before use.
	PublicHost string `mapstructure:"public_host"`
}

// AzureConfig holds the primary provider (Azure OpenAI) credentials.
type AzureConfig struct {
	Endpoint   string `mapstructure:"endpoint"`
	APIKey     string `mapstructure:"api_key"`
	APIVersion string `mapstructure:"api_version"`
	Deployment string `mapstructure:"deployment"` // default deployment for new agents
}

// Configured reports whether the primary provider credentials are present.
func (c AzureConfig) Configured() bool {
	return c.Endpoint != "" && c.APIKey != ""
}

// OpenAIConfig holds the optional secondary (fallback) provider settings.
type OpenAIConfig struct {
	APIKey string `mapstructure:"api_key"`
	Model  string `mapstructure:"model"`
}

// AgentConfig holds per-unit provisioning parameters.
type AgentConfig struct {
	Image             string        `mapstructure:"image"`              // agentd container image
	InternalPort      int           `mapstructure:"internal_port"`      // port agentd listens on inside the unit
	MemoryLimit       int64         `mapstructure:"memory_limit"`       // bytes
	ReadinessTimeout  time.Duration `mapstructure:"readiness_timeout"`  // total budget for port + health polling
	ReadinessInterval time.Duration `mapstructure:"readiness_interval"` // poll interval
	HealthTimeout     time.Duration `mapstructure:"health_timeout"`     // single health probe timeout
	ChatTimeout       time.Duration `mapstructure:"chat_timeout"`       // manager -> unit chat call timeout
	MaxTokens         int           `mapstructure:"max_tokens"`         // completion length cap
	Temperature       float64       `mapstructure:"temperature"`        // sampling temperature
}

// CORSConfig holds allowed origins for the management API.
type CORSConfig struct {
	Origins []string `mapstructure:"origins"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads manager configuration.
// Precedence (low to high): defaults -> config.yaml (./config, .) -> env.
// Env overrides use the AGENTPOD_ prefix; the conventional provider variable
// names (AZURE_OPENAI_ENDPOINT etc.) are bound directly so existing
// deployments keep working without renaming anything.
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	for _, dir := range []string{"./config", "."} {
		path := filepath.Join(dir, "config.yaml")
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("read config %s: %w", path, err)
			}
			break
		}
	}

	v.SetEnvPrefix("AGENTPOD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	bindProviderEnv(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	return &cfg, nil
}

// bindProviderEnv maps the conventional environment variable names onto
// config keys. Explicit AGENTPOD_* variables still take precedence through
// AutomaticEnv.
func bindProviderEnv(v *viper.Viper) {
	_ = v.BindEnv("azure.endpoint", "AGENTPOD_AZURE_ENDPOINT", "AZURE_OPENAI_ENDPOINT")
	_ = v.BindEnv("azure.api_key", "AGENTPOD_AZURE_API_KEY", "AZURE_OPENAI_API_KEY")
	_ = v.BindEnv("azure.api_version", "AGENTPOD_AZURE_API_VERSION", "AZURE_OPENAI_API_VERSION")
	_ = v.BindEnv("azure.deployment", "AGENTPOD_AZURE_DEPLOYMENT", "AZURE_DEPLOYMENT_NAME")
	_ = v.BindEnv("openai.api_key", "AGENTPOD_OPENAI_API_KEY", "OPENAI_API_KEY")
	_ = v.BindEnv("manager.public_host", "AGENTPOD_MANAGER_PUBLIC_HOST", "SERVER_HOST")
	_ = v.BindEnv("cors.origins", "AGENTPOD_CORS_ORIGINS", "CORS_ORIGINS")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("manager.host", "0.0.0.0")
	v.SetDefault("manager.port", 8080)
	v.SetDefault("manager.mode", "local")
	v.SetDefault("manager.public_host", "localhost")

	v.SetDefault("azure.api_version", "2024-02-15-preview")
	v.SetDefault("azure.deployment", "gpt-4o-mini")

	v.SetDefault("openai.model", "gpt-3.5-turbo")

	v.SetDefault("agent.image", "agentpod/agentd:latest")
	v.SetDefault("agent.internal_port", 8080)
	v.SetDefault("agent.memory_limit", 512*1024*1024)
	v.SetDefault("agent.readiness_timeout", "30s")
	v.SetDefault("agent.readiness_interval", "1s")
	v.SetDefault("agent.health_timeout", "5s")
	v.SetDefault("agent.chat_timeout", "30s")
	v.SetDefault("agent.max_tokens", 800)
	v.SetDefault("agent.temperature", 0.7)

	v.SetDefault("cors.origins", []string{
		"http://localhost:3000", "http://127.0.0.1:3000",
		"http://localhost:8000", "http://127.0.0.1:8000",
	})

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
}
