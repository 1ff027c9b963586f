// Package config handles configuration loading and validation.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	// Server configuration
	Host string `envconfig:"FALA_HOST" yaml:"host"`
	Port int    `envconfig:"FALA_PORT" yaml:"port"`

	// Content configuration
	Content ContentConfig `yaml:"content"`

	// Search configuration
	Search SearchConfig `yaml:"search"`

	// Logging configuration
	Log LogConfig `yaml:"log"`

	// Security configuration
	Security SecurityConfig `yaml:"security"`

	// Metrics configuration
	Metrics MetricsConfig `yaml:"metrics"`

	// Bus configuration
	Bus BusConfig `yaml:"bus"`
}

// ContentConfig says where the searchable collections come from.
type ContentConfig struct {
	// Dir holds vocabulary, verbs and grammar files. Empty means the
	// embedded dataset.
	Dir string `envconfig:"FALA_CONTENT_DIR" yaml:"dir"`

	// Watch reloads Dir when its collection files change.
	Watch bool `envconfig:"FALA_CONTENT_WATCH" yaml:"watch"`
}

// SearchConfig holds search settings.
type SearchConfig struct {
	MaxResults     int `envconfig:"FALA_MAX_RESULTS" yaml:"max_results"`
	MinQueryLength int `envconfig:"FALA_MIN_QUERY_LENGTH" yaml:"min_query_length"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `envconfig:"FALA_LOG_LEVEL" yaml:"level"`
	Format string `envconfig:"FALA_LOG_FORMAT" yaml:"format"`
}

// SecurityConfig holds security settings.
type SecurityConfig struct {
	RateLimit      int    `envconfig:"FALA_RATE_LIMIT" yaml:"rate_limit"` // requests/s per client, 0 = disabled
	CORSOrigins    string `envconfig:"FALA_CORS_ORIGINS" yaml:"cors_origins"`
	MaxQueryLength int    `envconfig:"FALA_MAX_QUERY_LENGTH" yaml:"max_query_length"`
}

// MetricsConfig holds metrics settings.
type MetricsConfig struct {
	Enabled     bool   `envconfig:"FALA_METRICS_ENABLED" yaml:"enabled"`
	Persistence string `envconfig:"FALA_METRICS_PERSISTENCE" yaml:"persistence"`
	RedisURL    string `envconfig:"FALA_METRICS_REDIS_URL" yaml:"redis_url"`
}

// BusConfig holds event bus settings.
type BusConfig struct {
	Type         string `envconfig:"FALA_BUS_TYPE" yaml:"type"`
	KafkaBrokers string `envconfig:"FALA_KAFKA_BROKERS" yaml:"kafka_brokers"`
	KafkaGroup   string `envconfig:"FALA_KAFKA_GROUP" yaml:"kafka_group"`

	// EventLog is a JSON-lines file every published event is appended to.
	// Empty disables the journal.
	EventLog string `envconfig:"FALA_BUS_EVENT_LOG" yaml:"event_log"`
}

// Load loads configuration from environment variables and optional config file.
func Load(configPath string) (*Config, error) {
	cfg := &Config{}

	// Set defaults first
	setDefaults(cfg)

	// Load from YAML file if provided (overrides defaults)
	if configPath != "" {
		if err := loadFromFile(cfg, configPath); err != nil {
			return nil, fmt.Errorf("loading config file: %w", err)
		}
	}

	// Override with environment variables (highest priority)
	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("processing env config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// LoadFromEnv loads configuration from environment variables only.
func LoadFromEnv() (*Config, error) {
	return Load("")
}

// Default returns the built-in defaults.
func Default() *Config {
	cfg := &Config{}
	setDefaults(cfg)
	return cfg
}

func loadFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	return yaml.Unmarshal(data, cfg)
}

func setDefaults(cfg *Config) {
	cfg.Host = "0.0.0.0"
	cfg.Port = 8080

	cfg.Search = SearchConfig{
		MaxResults:     50,
		MinQueryLength: 2,
	}

	cfg.Log = LogConfig{
		Level:  "info",
		Format: "text",
	}

	cfg.Security = SecurityConfig{
		RateLimit:      20,
		CORSOrigins:    "*",
		MaxQueryLength: 200,
	}

	cfg.Metrics = MetricsConfig{
		Enabled:     true,
		Persistence: "memory",
		RedisURL:    "redis://localhost:6379",
	}

	cfg.Bus = BusConfig{
		Type:       "memory",
		KafkaGroup: "fala-search",
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	var errs []string

	// Server validation
	if c.Port < 1 || c.Port > 65535 {
		errs = append(errs, "port must be between 1 and 65535")
	}

	if c.Content.Watch && c.Content.Dir == "" {
		errs = append(errs, "content watch requires a content dir")
	}

	// Search validation
	if c.Search.MaxResults < 1 || c.Search.MaxResults > 50 {
		errs = append(errs, "max_results must be between 1 and 50")
	}

	if c.Search.MinQueryLength < 1 {
		errs = append(errs, "min_query_length must be positive")
	}

	// Log validation
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Log.Level] {
		errs = append(errs, fmt.Sprintf("invalid log level: %s (must be debug, info, warn, or error)", c.Log.Level))
	}

	validFormats := map[string]bool{"text": true, "json": true}
	if !validFormats[c.Log.Format] {
		errs = append(errs, fmt.Sprintf("invalid log format: %s (must be text or json)", c.Log.Format))
	}

	// Security validation
	if c.Security.RateLimit < 0 {
		errs = append(errs, "rate_limit must not be negative")
	}

	if c.Security.MaxQueryLength < 1 || c.Security.MaxQueryLength > 1000 {
		errs = append(errs, "max_query_length must be between 1 and 1000")
	}

	// Metrics validation
	validPersistence := map[string]bool{"memory": true, "redis": true}
	if !validPersistence[c.Metrics.Persistence] {
		errs = append(errs, fmt.Sprintf("invalid metrics persistence: %s (must be memory or redis)", c.Metrics.Persistence))
	}

	if c.Metrics.Persistence == "redis" && c.Metrics.RedisURL == "" {
		errs = append(errs, "metrics redis_url is required for redis persistence")
	}

	// Bus validation
	validBusTypes := map[string]bool{"memory": true, "kafka": true}
	if !validBusTypes[c.Bus.Type] {
		errs = append(errs, fmt.Sprintf("invalid bus type: %s (must be memory or kafka)", c.Bus.Type))
	}

	if c.Bus.Type == "kafka" && len(c.KafkaBrokerList()) == 0 {
		errs = append(errs, "kafka_brokers is required for the kafka bus")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}

// Address returns the server address.
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Log.Level == "debug"
}

// CORSOriginList splits the comma-separated CORS origins.
func (c *Config) CORSOriginList() []string {
	return splitList(c.Security.CORSOrigins)
}

// KafkaBrokerList splits the comma-separated Kafka brokers.
func (c *Config) KafkaBrokerList() []string {
	return splitList(c.Bus.KafkaBrokers)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
