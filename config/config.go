package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the agent engine.
type Config struct {
	General   GeneralConfig   `mapstructure:"general"`
	LLM       LLMConfig       `mapstructure:"llm"`
	Engine    EngineConfig    `mapstructure:"engine"`
	Tools     ToolsConfig     `mapstructure:"tools"`
	Context   ContextConfig   `mapstructure:"context"`
	Memory    MemoryConfig    `mapstructure:"memory"`
	Bus       BusConfig       `mapstructure:"bus"`
	Stream    StreamConfig    `mapstructure:"stream"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// GeneralConfig contains general application settings
type GeneralConfig struct {
	Debug          bool          `mapstructure:"debug"`
	LogLevel       string        `mapstructure:"log_level"`
	DefaultTimeout time.Duration `mapstructure:"default_timeout"`
}

// LLMConfig contains completion provider configurations
type LLMConfig struct {
	Providers map[string]LLMProvider `mapstructure:"providers"`
	Routing   LLMRoutingConfig       `mapstructure:"routing"`
}

// LLMProvider represents a single completion provider configuration
type LLMProvider struct {
	Type       string              `mapstructure:"type"` // openai, compatible
	APIKey     string              `mapstructure:"api_key"`
	BaseURL    string              `mapstructure:"base_url"`
	Models     map[string]LLMModel `mapstructure:"models"`
	MaxRetries int                 `mapstructure:"max_retries"`
	Timeout    time.Duration       `mapstructure:"timeout"`
}

// LLMModel represents a specific model configuration
type LLMModel struct {
	Name        string  `mapstructure:"name"`
	APIName     string  `mapstructure:"api_name"`
	MaxTokens   int     `mapstructure:"max_tokens"`
	Temperature float64 `mapstructure:"temperature"`
}

// LLMRoutingConfig defines which model handles each engine stage
type LLMRoutingConfig struct {
	Thought    string `mapstructure:"thought"`
	Planning   string `mapstructure:"planning"`
	Reflection string `mapstructure:"reflection"`
	Chat       string `mapstructure:"chat"`
	Fallback   string `mapstructure:"fallback"`
}

// EngineConfig controls the orchestrator loop and scheduler.
type EngineConfig struct {
	MaxIterations      int           `mapstructure:"max_iterations"`
	MaxConcurrentSteps int           `mapstructure:"max_concurrent_steps"`
	StageTimeout       time.Duration `mapstructure:"stage_timeout"`
	HistoryWindow      int           `mapstructure:"history_window"`
}

func (e EngineConfig) Validate() error {
	if e.MaxIterations < 1 {
		return fmt.Errorf("engine.max_iterations must be >= 1")
	}
	if e.MaxConcurrentSteps < 1 {
		return fmt.Errorf("engine.max_concurrent_steps must be >= 1")
	}
	return nil
}

// ToolsConfig selects the tool registry backend.
type ToolsConfig struct {
	Backend string           `mapstructure:"backend"` // local, remote
	Remote  RemoteToolConfig `mapstructure:"remote"`
}

// RemoteToolConfig contains the RPC endpoint for the remote registry.
type RemoteToolConfig struct {
	Endpoint       string        `mapstructure:"endpoint"`
	Timeout        time.Duration `mapstructure:"timeout"`
	DiscoveryLimit int           `mapstructure:"discovery_limit"`
}

func (t ToolsConfig) Validate() error {
	switch t.Backend {
	case "", "local":
	case "remote":
		if strings.TrimSpace(t.Remote.Endpoint) == "" {
			return fmt.Errorf("tools.remote.endpoint required when tools.backend is remote")
		}
	default:
		return fmt.Errorf("unsupported tools.backend: %s", t.Backend)
	}
	return nil
}

// ContextConfig selects the durable context backend.
type ContextConfig struct {
	Backend  string         `mapstructure:"backend"`  // chromem, postgres
	Fallback string         `mapstructure:"fallback"` // backend used when the preferred one fails to construct
	Chromem  ChromemConfig  `mapstructure:"chromem"`
	Postgres PostgresConfig `mapstructure:"postgres"`
}

// ChromemConfig contains the embedded vector store settings.
type ChromemConfig struct {
	Path       string `mapstructure:"path"`
	Collection string `mapstructure:"collection"`
	Compress   bool   `mapstructure:"compress"`
}

// PostgresConfig contains Postgres connection settings
type PostgresConfig struct {
	URL      string `mapstructure:"url"`
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

// DSN assembles a connection string from the discrete fields unless URL is set.
func (p PostgresConfig) DSN() string {
	if p.URL != "" {
		return p.URL
	}
	ssl := p.SSLMode
	if ssl == "" {
		ssl = "disable"
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.DBName, ssl)
}

// MemoryConfig selects the short-term memory backend.
type MemoryConfig struct {
	Backend  string      `mapstructure:"backend"`  // redis, inmemory
	Fallback string      `mapstructure:"fallback"` // backend used when the preferred one fails to construct
	Window   int         `mapstructure:"window"`
	TTL      time.Duration `mapstructure:"ttl"`
	Redis    RedisConfig `mapstructure:"redis"`
}

// RedisConfig contains Redis connection settings
type RedisConfig struct {
	Host     string        `mapstructure:"host"`
	Port     string        `mapstructure:"port"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%s", r.Host, r.Port)
}

func (r RedisConfig) Validate() error {
	if strings.TrimSpace(r.Host) == "" {
		return fmt.Errorf("redis host required")
	}
	if strings.TrimSpace(r.Port) == "" {
		return fmt.Errorf("redis port required")
	}
	return nil
}

// BusConfig selects the notification bus backend.
type BusConfig struct {
	Backend string      `mapstructure:"backend"` // redis, inmemory, noop
	Redis   RedisConfig `mapstructure:"redis"`
}

// StreamConfig selects the live-update stream backend.
type StreamConfig struct {
	Backend string      `mapstructure:"backend"` // redis, channel
	Stream  string      `mapstructure:"stream"`
	MaxLen  int64       `mapstructure:"max_len"`
	Redis   RedisConfig `mapstructure:"redis"`
}

// TelemetryConfig contains telemetry and monitoring settings
type TelemetryConfig struct {
	Enabled     bool `mapstructure:"enabled"`
	MetricsPort int  `mapstructure:"metrics_port"`
}

func (t TelemetryConfig) Validate() error {
	if t.Enabled && t.MetricsPort <= 0 {
		return fmt.Errorf("telemetry.metrics_port must be > 0 when telemetry is enabled")
	}
	return nil
}

// LoadConfig reads configuration from file and environment, panicking on fatal errors.
func LoadConfig(path string) *Config {
	viper.SetConfigName("config")
	viper.SetConfigType("json")
	viper.SetDefault("general.default_timeout", "2m")
	viper.SetDefault("engine.max_iterations", 3)
	viper.SetDefault("engine.max_concurrent_steps", 4)
	viper.SetDefault("engine.history_window", 10)
	viper.SetDefault("tools.backend", "local")
	viper.SetDefault("tools.remote.discovery_limit", 50)
	viper.SetDefault("context.backend", "chromem")
	viper.SetDefault("context.fallback", "postgres")
	viper.SetDefault("context.chromem.collection", "axon-context")
	viper.SetDefault("memory.backend", "redis")
	viper.SetDefault("memory.fallback", "inmemory")
	viper.SetDefault("memory.window", 20)
	viper.SetDefault("bus.backend", "inmemory")
	viper.SetDefault("stream.backend", "channel")
	viper.SetDefault("stream.stream", "axon:updates")

	if path == "" {
		viper.AddConfigPath("./config")
		viper.AddConfigPath(".")
		exe, _ := os.Executable()
		exeDir := filepath.Dir(exe)
		viper.AddConfigPath(exeDir)
		viper.AddConfigPath(filepath.Join(exeDir, ".."))
	} else {
		viper.SetConfigFile(path)
	}

	viper.SetEnvPrefix("AXON")
	replacer := strings.NewReplacer(".", "_")
	viper.SetEnvKeyReplacer(replacer)
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		panic(fmt.Errorf("fatal error config file: %w", err))
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		panic(fmt.Errorf("fatal error config file: %w", err))
	}

	if err := config.Engine.Validate(); err != nil {
		panic(err)
	}
	if err := config.Tools.Validate(); err != nil {
		panic(err)
	}
	if err := config.Telemetry.Validate(); err != nil {
		panic(err)
	}

	return &config
}
