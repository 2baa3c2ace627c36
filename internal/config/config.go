// Package config loads the explorer configuration from an optional .env
// file, an optional YAML file and the environment.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Sternrassler/graphql-explorer/pkg/endpoint"
	"github.com/Sternrassler/graphql-explorer/pkg/logging"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable the explorer reads.
const EnvPrefix = "EXPLORER"

// endpointEnvVars hold the endpoint list, in lookup order. The unprefixed
// names are the ones existing deployments already set.
var endpointEnvVars = []string{
	"EXPLORER_GRAPHQL_ENDPOINTS",
	"GRAPHQL_ENDPOINTS",
	"NEXT_PUBLIC_GRAPHQL_ENDPOINTS",
}

// AppConfig holds the application configuration.
type AppConfig struct {
	Server   ServerConfig   `mapstructure:"server"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Explorer ExplorerConfig `mapstructure:"explorer"`
	Upstream UpstreamConfig `mapstructure:"upstream"`
	Log      LogConfig      `mapstructure:"log"`

	// Endpoints is the validated endpoint registry.
	Endpoints *endpoint.Registry `mapstructure:"-"`
}

// ServerConfig holds HTTP listener configuration.
type ServerConfig struct {
	Port int    `mapstructure:"port"`
	Host string `mapstructure:"host"`
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// RedisConfig holds the Redis connection. An empty URL disables response
// caching and the error budget.
type RedisConfig struct {
	URL string `mapstructure:"url"`
}

// ExplorerConfig holds page behavior.
type ExplorerConfig struct {
	PageLimit            int           `mapstructure:"page_limit"`
	PollInterval         time.Duration `mapstructure:"poll_interval"`
	FetchTimeout         time.Duration `mapstructure:"fetch_timeout"`
	RepeatedEndpointMode string        `mapstructure:"repeated_endpoint_mode"`
}

// UpstreamConfig holds GraphQL client settings.
type UpstreamConfig struct {
	Timeout    time.Duration `mapstructure:"timeout"`
	MaxRetries int           `mapstructure:"max_retries"`
	UserAgent  string        `mapstructure:"user_agent"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

// envBindings maps config keys to their environment variables.
var envBindings = map[string]string{
	"server.port":                     "EXPLORER_PORT",
	"server.host":                     "EXPLORER_HOST",
	"redis.url":                       "EXPLORER_REDIS_URL",
	"explorer.page_limit":             "EXPLORER_PAGE_LIMIT",
	"explorer.poll_interval":          "EXPLORER_POLL_INTERVAL",
	"explorer.fetch_timeout":          "EXPLORER_FETCH_TIMEOUT",
	"explorer.repeated_endpoint_mode": "EXPLORER_REPEATED_ENDPOINT_MODE",
	"upstream.timeout":                "EXPLORER_UPSTREAM_TIMEOUT",
	"upstream.max_retries":            "EXPLORER_UPSTREAM_MAX_RETRIES",
	"upstream.user_agent":             "EXPLORER_UPSTREAM_USER_AGENT",
	"log.level":                       "EXPLORER_LOG_LEVEL",
	"log.pretty":                      "EXPLORER_LOG_PRETTY",
}

// Load reads the configuration. Environment variables take precedence over
// the config file. configPath may be empty, in which case config.yaml is
// looked up in . and ./config and is optional.
func Load(configPath string) (*AppConfig, error) {
	// Load .env file if it exists (ignore error if file doesn't exist)
	_ = godotenv.Load()

	v := viper.New()

	v.SetDefault("server.port", 8080)
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("redis.url", "")
	v.SetDefault("explorer.page_limit", 25)
	v.SetDefault("explorer.poll_interval", 2*time.Second)
	v.SetDefault("explorer.fetch_timeout", 15*time.Second)
	v.SetDefault("explorer.repeated_endpoint_mode", string(endpoint.RepeatedFirst))
	v.SetDefault("upstream.timeout", 30*time.Second)
	v.SetDefault("upstream.max_retries", 3)
	v.SetDefault("upstream.user_agent", "graphql-explorer/0.1.0")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configPath != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("bind %s: %w", env, err)
		}
	}
	if err := v.BindEnv(append([]string{"graphql_endpoints"}, endpointEnvVars...)...); err != nil {
		return nil, fmt.Errorf("bind endpoint list: %w", err)
	}

	var cfg AppConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	registry, err := loadEndpoints(v.Get("graphql_endpoints"))
	if err != nil {
		return nil, err
	}
	cfg.Endpoints = registry

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// loadEndpoints accepts the endpoint list as a JSON string (environment) or
// as a YAML list (config file).
func loadEndpoints(raw any) (*endpoint.Registry, error) {
	switch list := raw.(type) {
	case nil:
		return nil, &endpoint.ConfigError{Reason: "no endpoint list configured (set " + strings.Join(endpointEnvVars, " or ") + ")"}
	case string:
		return endpoint.Load(list)
	default:
		encoded, err := json.Marshal(list)
		if err != nil {
			return nil, &endpoint.ConfigError{Reason: "endpoint list is not serializable", Err: err}
		}
		return endpoint.Load(string(encoded))
	}
}

// validate checks value ranges.
func validate(cfg *AppConfig) error {
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", cfg.Server.Port)
	}
	if cfg.Explorer.PageLimit <= 0 {
		return fmt.Errorf("explorer.page_limit must be positive (got %d)", cfg.Explorer.PageLimit)
	}
	if cfg.Explorer.PollInterval <= 0 {
		return fmt.Errorf("explorer.poll_interval must be positive (got %v)", cfg.Explorer.PollInterval)
	}
	if cfg.Explorer.FetchTimeout <= 0 {
		return fmt.Errorf("explorer.fetch_timeout must be positive (got %v)", cfg.Explorer.FetchTimeout)
	}
	if _, err := endpoint.ParseRepeatedValueMode(cfg.Explorer.RepeatedEndpointMode); err != nil {
		return err
	}
	if cfg.Upstream.Timeout <= 0 {
		return fmt.Errorf("upstream.timeout must be positive (got %v)", cfg.Upstream.Timeout)
	}
	if cfg.Upstream.MaxRetries < 0 {
		return fmt.Errorf("upstream.max_retries must be >= 0 (got %d)", cfg.Upstream.MaxRetries)
	}
	if cfg.Upstream.UserAgent == "" {
		return fmt.Errorf("upstream.user_agent is required")
	}
	if _, err := logging.ParseLevel(cfg.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	return nil
}
