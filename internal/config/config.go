package config

import (
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Pipeline  PipelineConfig  `yaml:"pipeline"`
	Providers ProvidersConfig `yaml:"providers"`
	Worker    WorkerConfig    `yaml:"worker"`
	Notify    NotifyConfig    `yaml:"notify"`
	Tagger    TaggerConfig    `yaml:"tagger"`
	Store     StoreConfig     `yaml:"store"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host         string        `yaml:"host" envconfig:"SERVER_HOST"`
	Port         int           `yaml:"port" envconfig:"SERVER_PORT"`
	APIKey       string        `yaml:"api_key" envconfig:"API_KEY"`
	ReadTimeout  time.Duration `yaml:"read_timeout" envconfig:"SERVER_READ_TIMEOUT"`
	WriteTimeout time.Duration `yaml:"write_timeout" envconfig:"SERVER_WRITE_TIMEOUT"`
}

// PipelineConfig holds acquisition pipeline configuration.
type PipelineConfig struct {
	OutputDir       string        `yaml:"output_dir" envconfig:"OUTPUT_DIR"`
	Quality         string        `yaml:"quality" envconfig:"PIPELINE_QUALITY"`
	SkipExisting    bool          `yaml:"skip_existing" envconfig:"PIPELINE_SKIP_EXISTING"`
	DirectorySystem bool          `yaml:"directory_system" envconfig:"PIPELINE_DIRECTORY_SYSTEM"`
	HaltOnError     bool          `yaml:"halt_on_error" envconfig:"PIPELINE_HALT_ON_ERROR"`
	ResultLimit     int           `yaml:"result_limit" envconfig:"PIPELINE_RESULT_LIMIT"`
	GraceDelay      time.Duration `yaml:"grace_delay" envconfig:"PIPELINE_GRACE_DELAY"`
	MinFreeBytes    int64         `yaml:"min_free_bytes" envconfig:"PIPELINE_MIN_FREE_BYTES"`
	// SearchProviders is the default fan-out set for search enumeration.
	// Only adapters with a native search capability belong here.
	SearchProviders []string `yaml:"search_providers" envconfig:"PIPELINE_SEARCH_PROVIDERS"`
}

// ProvidersConfig holds settings applied uniformly to every provider adapter.
type ProvidersConfig struct {
	RequestDelay  time.Duration `yaml:"request_delay" envconfig:"PROVIDER_REQUEST_DELAY"`
	Timeout       time.Duration `yaml:"timeout" envconfig:"PROVIDER_TIMEOUT"`
	MaxRetries    int           `yaml:"max_retries" envconfig:"PROVIDER_MAX_RETRIES"`
	RetryDelay    time.Duration `yaml:"retry_delay" envconfig:"PROVIDER_RETRY_DELAY"`
	MaxRetryDelay time.Duration `yaml:"max_retry_delay" envconfig:"PROVIDER_MAX_RETRY_DELAY"`
	// ReadTimeout is the stall window for streaming reads. A transfer is
	// aborted when no bytes arrive for this long.
	ReadTimeout time.Duration `yaml:"read_timeout" envconfig:"PROVIDER_READ_TIMEOUT"`
	UserAgent   string        `yaml:"user_agent" envconfig:"PROVIDER_USER_AGENT"`
	// FeedURLs are the RSS/Atom feeds the feed adapter searches across.
	FeedURLs []string `yaml:"feed_urls" envconfig:"PROVIDER_FEED_URLS"`
}

// WorkerConfig holds worker pool configuration.
type WorkerConfig struct {
	Count        int           `yaml:"count" envconfig:"WORKER_COUNT"`
	PollInterval time.Duration `yaml:"poll_interval" envconfig:"WORKER_POLL_INTERVAL"`
	StopTimeout  time.Duration `yaml:"stop_timeout" envconfig:"WORKER_STOP_TIMEOUT"`
}

// NotifyConfig holds completion registration configuration. Registration is
// active only when BaseURL is set.
type NotifyConfig struct {
	BaseURL string        `yaml:"base_url" envconfig:"NOTIFY_BASE_URL"`
	APIKey  string        `yaml:"api_key" envconfig:"NOTIFY_API_KEY"`
	Timeout time.Duration `yaml:"timeout" envconfig:"NOTIFY_TIMEOUT"`
}

// TaggerConfig holds post-transfer metadata tagging configuration.
type TaggerConfig struct {
	Enabled    bool   `yaml:"enabled" envconfig:"TAGGER_ENABLED"`
	FFmpegPath string `yaml:"ffmpeg_path" envconfig:"TAGGER_FFMPEG_PATH"`
}

// StoreConfig holds tracked-source store configuration.
type StoreConfig struct {
	Path string `yaml:"path" envconfig:"STORE_PATH"`
}

// LoggingConfig holds log output configuration.
type LoggingConfig struct {
	Level  string `yaml:"level" envconfig:"LOG_LEVEL"`
	Format string `yaml:"format" envconfig:"LOG_FORMAT"`
}

// Default returns the configuration baseline. File and environment values
// are layered on top of it, so a defaulted field set only in YAML takes
// effect without an env var shadowing it.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         8473,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 5 * time.Minute,
		},
		Pipeline: PipelineConfig{
			OutputDir:       "/data/videos",
			Quality:         "best",
			SkipExisting:    true,
			ResultLimit:     50,
			GraceDelay:      10 * time.Second,
			SearchProviders: []string{"feed"},
		},
		Providers: ProvidersConfig{
			RequestDelay:  500 * time.Millisecond,
			Timeout:       30 * time.Second,
			MaxRetries:    3,
			RetryDelay:    2 * time.Second,
			MaxRetryDelay: 30 * time.Second,
			ReadTimeout:   60 * time.Second,
			UserAgent:     "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36",
		},
		Worker: WorkerConfig{
			Count:        2,
			PollInterval: 2 * time.Second,
			StopTimeout:  25 * time.Second,
		},
		Notify: NotifyConfig{
			Timeout: 10 * time.Second,
		},
		Store: StoreConfig{
			Path: "mediahaul.db",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load reads configuration in three layers: defaults, then the YAML file,
// then environment variables. Later layers win.
func Load(configPath string) (*Config, error) {
	cfg := Default()

	if configPath != "" {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	// With no default tags, envconfig touches only variables that are
	// actually set, so unset env never reverts a YAML value.
	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("process environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// Validate checks that required configuration values are set.
func (c *Config) Validate() error {
	if c.Pipeline.OutputDir == "" {
		return fmt.Errorf("OUTPUT_DIR is required")
	}
	if c.Pipeline.Quality == "" {
		return fmt.Errorf("PIPELINE_QUALITY is required")
	}
	if c.Worker.Count < 1 {
		return fmt.Errorf("WORKER_COUNT must be at least 1")
	}
	if c.Store.Path == "" {
		return fmt.Errorf("STORE_PATH is required")
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("LOG_LEVEL must be one of debug, info, warn, error")
	}
	switch c.Logging.Format {
	case "json", "text":
	default:
		return fmt.Errorf("LOG_FORMAT must be json or text")
	}
	return nil
}

// Address returns the server address in host:port format.
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
