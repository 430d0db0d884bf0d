package config

import (
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// QueueConfig represents the overall configuration for the job queue service
type QueueConfig struct {
	DataDir         string          `yaml:"data_dir"`
	DefaultProvider string          `yaml:"default_provider"`
	PollIntervalMs  int             `yaml:"poll_interval_ms,omitempty"`
	MaxJobs         int             `yaml:"max_jobs,omitempty"`
	Archive         ArchiveConfig   `yaml:"archive,omitempty"`
	Mirror          MirrorConfig    `yaml:"mirror,omitempty"`
	Server          ServerConfig    `yaml:"server,omitempty"`
	Providers       ProvidersConfig `yaml:"providers,omitempty"`
}

// ArchiveConfig represents the relational archive of finished jobs
type ArchiveConfig struct {
	Enabled bool   `yaml:"enabled"`
	Driver  string `yaml:"driver,omitempty"`
	DSN     string `yaml:"dsn,omitempty"`
}

// MirrorConfig represents the object-store mirror for job artifacts
type MirrorConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Endpoint  string `yaml:"endpoint,omitempty"`
	AccessKey string `yaml:"access_key,omitempty"`
	SecretKey string `yaml:"secret_key,omitempty"`
	Bucket    string `yaml:"bucket,omitempty"`
	UseSSL    bool   `yaml:"use_ssl,omitempty"`
}

// ServerConfig represents the HTTP API server settings
type ServerConfig struct {
	Host      string          `yaml:"host,omitempty"`
	Port      int             `yaml:"port,omitempty"`
	RateLimit RateLimitConfig `yaml:"rate_limit,omitempty"`
}

// RateLimitConfig represents per-client enqueue throttling
type RateLimitConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Limit     int    `yaml:"limit,omitempty"`
	WindowSec int    `yaml:"window_sec,omitempty"`
	RedisAddr string `yaml:"redis_addr,omitempty"`
}

// ProvidersConfig represents per-provider model overrides
type ProvidersConfig struct {
	Gemini GeminiConfig `yaml:"gemini,omitempty"`
	OpenAI OpenAIConfig `yaml:"openai,omitempty"`
}

type GeminiConfig struct {
	Model string `yaml:"model,omitempty"`
}

type OpenAIConfig struct {
	Model     string `yaml:"model,omitempty"`
	ChatModel string `yaml:"chat_model,omitempty"`
}

// LoadQueueConfig loads queue configuration from a YAML file
func LoadQueueConfig(configPath string) (*QueueConfig, error) {
	// Expand environment variables in path
	configPath = os.ExpandEnv(configPath)

	// Check if file exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found: %s", configPath)
	}

	// Read file
	data, err := ioutil.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Parse YAML
	var config QueueConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	// Expand environment variables in configuration
	config.expandEnvironmentVariables()

	// Set defaults
	config.setDefaults()

	// Validate configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// SaveQueueConfig saves queue configuration to a YAML file
func SaveQueueConfig(config *QueueConfig, configPath string) error {
	// Expand environment variables in path
	configPath = os.ExpandEnv(configPath)

	// Create directory if it doesn't exist
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// Marshal to YAML
	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config to YAML: %w", err)
	}

	// Write file
	if err := ioutil.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// expandEnvironmentVariables expands ${VAR} references in secret-bearing fields
func (c *QueueConfig) expandEnvironmentVariables() {
	c.Archive.DSN = expandEnvValue(c.Archive.DSN)
	c.Mirror.AccessKey = expandEnvValue(c.Mirror.AccessKey)
	c.Mirror.SecretKey = expandEnvValue(c.Mirror.SecretKey)
	c.Server.RateLimit.RedisAddr = expandEnvValue(c.Server.RateLimit.RedisAddr)
}

func expandEnvValue(value string) string {
	if strings.HasPrefix(value, "${") && strings.HasSuffix(value, "}") {
		envVar := strings.TrimSuffix(strings.TrimPrefix(value, "${"), "}")
		return os.Getenv(envVar)
	}
	return value
}

// setDefaults sets default values for the configuration
func (c *QueueConfig) setDefaults() {
	if c.DataDir == "" {
		c.DataDir = "data/jobs"
	}
	if c.DefaultProvider == "" {
		c.DefaultProvider = "gemini"
	}
	if c.PollIntervalMs == 0 {
		c.PollIntervalMs = 1000
	}
	if c.Archive.Enabled && c.Archive.Driver == "" {
		c.Archive.Driver = "sqlite"
	}
	if c.Archive.Enabled && c.Archive.Driver == "sqlite" && c.Archive.DSN == "" {
		c.Archive.DSN = "data/transcription.db"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.RateLimit.Enabled {
		if c.Server.RateLimit.Limit == 0 {
			c.Server.RateLimit.Limit = 60
		}
		if c.Server.RateLimit.WindowSec == 0 {
			c.Server.RateLimit.WindowSec = 60
		}
		if c.Server.RateLimit.RedisAddr == "" {
			c.Server.RateLimit.RedisAddr = "localhost:6379"
		}
	}
}

// Validate validates the configuration
func (c *QueueConfig) Validate() error {
	validProviders := map[string]bool{
		"gemini": true,
		"openai": true,
	}
	if !validProviders[c.DefaultProvider] {
		return fmt.Errorf("invalid default provider '%s'", c.DefaultProvider)
	}

	if c.PollIntervalMs < 0 {
		return fmt.Errorf("poll_interval_ms cannot be negative")
	}
	if c.MaxJobs < 0 {
		return fmt.Errorf("max_jobs cannot be negative")
	}

	if c.Archive.Enabled {
		validDrivers := map[string]bool{
			"sqlite":   true,
			"postgres": true,
		}
		if !validDrivers[c.Archive.Driver] {
			return fmt.Errorf("invalid archive driver '%s'", c.Archive.Driver)
		}
		if c.Archive.DSN == "" {
			return fmt.Errorf("archive is enabled but dsn is empty")
		}
	}

	if c.Mirror.Enabled && c.Mirror.Bucket == "" {
		return fmt.Errorf("mirror is enabled but bucket is empty")
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}

	return nil
}

// GetDefaultConfigPath returns the default configuration file path
func GetDefaultConfigPath() string {
	// Check environment variable first
	if path := os.Getenv("A2T_CONFIG_PATH"); path != "" {
		return path
	}

	// Use home directory
	home, err := os.UserHomeDir()
	if err != nil {
		return "queue.yaml"
	}

	return filepath.Join(home, ".audio-whisper", "queue.yaml")
}

// CreateDefaultConfig creates a default configuration
func CreateDefaultConfig() *QueueConfig {
	return &QueueConfig{
		DataDir:         "data/jobs",
		DefaultProvider: "gemini",
		PollIntervalMs:  1000,
		Archive: ArchiveConfig{
			Enabled: true,
			Driver:  "sqlite",
			DSN:     "data/transcription.db",
		},
		Mirror: MirrorConfig{
			Enabled: false,
			Bucket:  "a2t-jobs",
		},
		Server: ServerConfig{
			Port: 8080,
			RateLimit: RateLimitConfig{
				Enabled:   false,
				Limit:     60,
				WindowSec: 60,
				RedisAddr: "${REDIS_ADDR}",
			},
		},
		Providers: ProvidersConfig{
			Gemini: GeminiConfig{
				Model: "gemini-2.5-flash",
			},
			OpenAI: OpenAIConfig{
				Model:     "whisper-1",
				ChatModel: "gpt-3.5-turbo",
			},
		},
	}
}
