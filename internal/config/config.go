// Package config loads gateway settings from defaults, an optional config
// file and the environment.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all gateway settings. Keys match their environment
// variable names in lower case (DATABASE_URL -> database_url).
// Priority: env vars > config file > defaults.
type Config struct {
	Port     int    `mapstructure:"port"`
	LogLevel string `mapstructure:"log_level"`

	DatabaseURL string `mapstructure:"database_url"`

	AnthropicAPIKey    string `mapstructure:"anthropic_api_key"`
	AnthropicModel     string `mapstructure:"anthropic_model"`
	AnthropicMaxTokens int64  `mapstructure:"anthropic_max_tokens"`
	AgentMaxRounds     int    `mapstructure:"agent_max_rounds"`

	SMTPHost         string `mapstructure:"smtp_host"`
	SMTPPort         int    `mapstructure:"smtp_port"`
	GmailUser        string `mapstructure:"gmail_user"`
	GmailAppPassword string `mapstructure:"gmail_app_password"`
	MailFrom         string `mapstructure:"mail_from"`

	GoogleClientID     string `mapstructure:"google_client_id"`
	GoogleClientSecret string `mapstructure:"google_client_secret"`
	GoogleRefreshToken string `mapstructure:"google_refresh_token"`

	StorageEndpoint  string `mapstructure:"storage_endpoint"`
	StorageAccessKey string `mapstructure:"storage_access_key"`
	StorageSecretKey string `mapstructure:"storage_secret_key"`
	StorageBucket    string `mapstructure:"storage_bucket"`
	StorageUseSSL    bool   `mapstructure:"storage_use_ssl"`
	StoragePublicURL string `mapstructure:"storage_public_url"`

	HealthProbeTimeout      time.Duration `mapstructure:"health_probe_timeout"`
	HealthDegradedThreshold time.Duration `mapstructure:"health_degraded_threshold"`
	HealthSweepSchedule     string        `mapstructure:"health_sweep_schedule"`

	KeepaliveInterval  time.Duration `mapstructure:"keepalive_interval"`
	CORSAllowedOrigins []string      `mapstructure:"cors_allowed_origins"`
}

// MailConfigured reports whether SMTP credentials are present.
func (c *Config) MailConfigured() bool {
	return c.GmailUser != "" && c.GmailAppPassword != ""
}

// GoogleConfigured reports whether the OAuth refresh flow can run.
func (c *Config) GoogleConfigured() bool {
	return c.GoogleClientID != "" && c.GoogleClientSecret != "" && c.GoogleRefreshToken != ""
}

// StorageConfigured reports whether object storage is reachable.
func (c *Config) StorageConfigured() bool {
	return c.StorageEndpoint != "" && c.StorageAccessKey != "" && c.StorageSecretKey != ""
}

// LLMConfigured reports whether the completion API can be called.
func (c *Config) LLMConfigured() bool {
	return c.AnthropicAPIKey != ""
}

// Sender returns the From address for outbound mail.
func (c *Config) Sender() string {
	if c.MailFrom != "" {
		return c.MailFrom
	}
	return c.GmailUser
}

// Load reads configuration. cfgFile may be empty.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", cfgFile, err)
		}
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values that have no safe fallback.
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}
	if c.DatabaseURL == "" {
		return fmt.Errorf("database_url is required")
	}
	if c.AgentMaxRounds <= 0 {
		return fmt.Errorf("agent_max_rounds must be positive, got %d", c.AgentMaxRounds)
	}
	if c.HealthProbeTimeout <= 0 {
		return fmt.Errorf("health_probe_timeout must be positive")
	}
	if c.KeepaliveInterval <= 0 {
		return fmt.Errorf("keepalive_interval must be positive")
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", 3000)
	v.SetDefault("log_level", "info")

	v.SetDefault("database_url", "portfolio.db")

	v.SetDefault("anthropic_api_key", "")
	v.SetDefault("anthropic_model", "claude-sonnet-4-5-20250929")
	v.SetDefault("anthropic_max_tokens", 4096)
	v.SetDefault("agent_max_rounds", 10)

	v.SetDefault("smtp_host", "smtp.gmail.com")
	v.SetDefault("smtp_port", 587)
	v.SetDefault("gmail_user", "")
	v.SetDefault("gmail_app_password", "")
	v.SetDefault("mail_from", "")

	v.SetDefault("google_client_id", "")
	v.SetDefault("google_client_secret", "")
	v.SetDefault("google_refresh_token", "")

	v.SetDefault("storage_endpoint", "")
	v.SetDefault("storage_access_key", "")
	v.SetDefault("storage_secret_key", "")
	v.SetDefault("storage_bucket", "documents")
	v.SetDefault("storage_use_ssl", true)
	v.SetDefault("storage_public_url", "")

	v.SetDefault("health_probe_timeout", "10s")
	v.SetDefault("health_degraded_threshold", "5s")
	v.SetDefault("health_sweep_schedule", "")

	v.SetDefault("keepalive_interval", "30s")
	v.SetDefault("cors_allowed_origins", []string{"*"})
}
