package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("FALA_PORT", "9090")
	t.Setenv("FALA_LOG_LEVEL", "debug")
	t.Setenv("FALA_BUS_TYPE", "kafka")
	t.Setenv("FALA_KAFKA_BROKERS", "k1:9092, k2:9092")

	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv() error = %v", err)
	}

	if cfg.Port != 9090 {
		t.Errorf("Port = %d, want 9090", cfg.Port)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level = %s, want debug", cfg.Log.Level)
	}
	if got := cfg.KafkaBrokerList(); !reflect.DeepEqual(got, []string{"k1:9092", "k2:9092"}) {
		t.Errorf("KafkaBrokerList() = %v", got)
	}
}

func TestLoadFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
host: "127.0.0.1"
port: 8888
content:
  dir: /srv/fala/content
  watch: true
search:
  max_results: 20
log:
  level: warn
  format: json
metrics:
  persistence: redis
  redis_url: "redis://cache:6379/2"
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Host != "127.0.0.1" {
		t.Errorf("Host = %s, want 127.0.0.1", cfg.Host)
	}
	if cfg.Port != 8888 {
		t.Errorf("Port = %d, want 8888", cfg.Port)
	}
	if cfg.Content.Dir != "/srv/fala/content" || !cfg.Content.Watch {
		t.Errorf("Content = %+v", cfg.Content)
	}
	if cfg.Search.MaxResults != 20 {
		t.Errorf("Search.MaxResults = %d, want 20", cfg.Search.MaxResults)
	}
	// Unset keys keep their defaults.
	if cfg.Search.MinQueryLength != 2 {
		t.Errorf("Search.MinQueryLength = %d, want 2", cfg.Search.MinQueryLength)
	}
	if cfg.Log.Format != "json" {
		t.Errorf("Log.Format = %s, want json", cfg.Log.Format)
	}
	if cfg.Metrics.RedisURL != "redis://cache:6379/2" {
		t.Errorf("Metrics.RedisURL = %s", cfg.Metrics.RedisURL)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configPath, []byte("port: 7000\n"), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("FALA_PORT", "7001")

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Port != 7001 {
		t.Errorf("Port = %d, want 7001", cfg.Port)
	}
}

func TestLoad_Errors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(bad, []byte("port: [1, 2\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(bad); err == nil {
		t.Error("expected error for malformed YAML")
	}

	t.Setenv("FALA_PORT", "not-a-number")
	if _, err := LoadFromEnv(); err == nil {
		t.Error("expected error for non-numeric FALA_PORT")
	}
}

func TestValidation(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{"valid defaults", func(c *Config) {}, false},
		{"invalid port", func(c *Config) { c.Port = 0 }, true},
		{"max results zero", func(c *Config) { c.Search.MaxResults = 0 }, true},
		{"max results over cap", func(c *Config) { c.Search.MaxResults = 51 }, true},
		{"min query length zero", func(c *Config) { c.Search.MinQueryLength = 0 }, true},
		{"invalid log level", func(c *Config) { c.Log.Level = "invalid" }, true},
		{"invalid log format", func(c *Config) { c.Log.Format = "xml" }, true},
		{"negative rate limit", func(c *Config) { c.Security.RateLimit = -1 }, true},
		{"rate limit disabled", func(c *Config) { c.Security.RateLimit = 0 }, false},
		{"query length over cap", func(c *Config) { c.Security.MaxQueryLength = 5000 }, true},
		{"invalid persistence", func(c *Config) { c.Metrics.Persistence = "disk" }, true},
		{"redis without url", func(c *Config) {
			c.Metrics.Persistence = "redis"
			c.Metrics.RedisURL = ""
		}, true},
		{"invalid bus type", func(c *Config) { c.Bus.Type = "nats" }, true},
		{"kafka without brokers", func(c *Config) { c.Bus.Type = "kafka" }, true},
		{"kafka with brokers", func(c *Config) {
			c.Bus.Type = "kafka"
			c.Bus.KafkaBrokers = "localhost:9092"
		}, false},
		{"watch without dir", func(c *Config) { c.Content.Watch = true }, true},
		{"watch with dir", func(c *Config) {
			c.Content.Watch = true
			c.Content.Dir = "./content"
		}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)

			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestAddress(t *testing.T) {
	cfg := &Config{
		Host: "localhost",
		Port: 8080,
	}

	if addr := cfg.Address(); addr != "localhost:8080" {
		t.Errorf("Address() = %s, want localhost:8080", addr)
	}
}

func TestIsDevelopment(t *testing.T) {
	cfg := &Config{}

	cfg.Log.Level = "debug"
	if !cfg.IsDevelopment() {
		t.Error("IsDevelopment() = false, want true for debug level")
	}

	cfg.Log.Level = "info"
	if cfg.IsDevelopment() {
		t.Error("IsDevelopment() = true, want false for info level")
	}
}

func TestCORSOriginList(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"*", []string{"*"}},
		{"https://a.example, https://b.example", []string{"https://a.example", "https://b.example"}},
		{" , ", nil},
		{"", nil},
	}
	for _, tt := range tests {
		cfg := &Config{Security: SecurityConfig{CORSOrigins: tt.in}}
		if got := cfg.CORSOriginList(); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("CORSOriginList(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
