package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all collector configuration
type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Log      LogConfig
	HTTP     HTTPConfig
	Ingest   IngestConfig
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name string
	Env  string // development, production
	Port string
}

// DatabaseConfig holds SQLite settings
type DatabaseConfig struct {
	Path string
}

// LogConfig holds logging configuration
type LogConfig struct {
	Folder string
	File   string
	Level  string // debug, info, warn, error
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	ShutdownTimeout   time.Duration
	MaxBodySize       int64
	RateLimitEnabled  bool
	RateLimitRequests float64 // per second, per client
	RateLimitBurst    int
}

// IngestConfig holds settings of the synthetic ingest tool
type IngestConfig struct {
	CollectorURL string
	PageViews    int
	Timeout      time.Duration
}

func (c *Config) IsProduction() bool {
	return c.App.Env == "production"
}

// Load reads configuration.
// Priority (highest to lowest):
// 1. Environment variables with VITALS_ prefix (e.g., VITALS_DATABASE_PATH)
// 2. config.toml
// 3. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("..")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	v.SetEnvPrefix("VITALS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
			Port: v.GetString("app.port"),
		},
		Database: DatabaseConfig{
			Path: v.GetString("database.path"),
		},
		Log: LogConfig{
			Folder: v.GetString("log.folder"),
			File:   v.GetString("log.file"),
			Level:  v.GetString("log.level"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:       v.GetDuration("http.read_timeout"),
			WriteTimeout:      v.GetDuration("http.write_timeout"),
			IdleTimeout:       v.GetDuration("http.idle_timeout"),
			ShutdownTimeout:   v.GetDuration("http.shutdown_timeout"),
			MaxBodySize:       v.GetInt64("http.max_body_size"),
			RateLimitEnabled:  v.GetBool("http.rate_limit_enabled"),
			RateLimitRequests: v.GetFloat64("http.rate_limit_requests"),
			RateLimitBurst:    v.GetInt("http.rate_limit_burst"),
		},
		Ingest: IngestConfig{
			CollectorURL: v.GetString("ingest.collector_url"),
			PageViews:    v.GetInt("ingest.page_views"),
			Timeout:      v.GetDuration("ingest.timeout"),
		},
	}

	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "vitals-collector"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Port == "" {
		cfg.App.Port = "8080"
	}
	if cfg.Database.Path == "" {
		cfg.Database.Path = "../db/vitals.db"
	}
	if cfg.Log.Folder == "" {
		cfg.Log.Folder = "../log"
	}
	if cfg.Log.File == "" {
		cfg.Log.File = "webService.log"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.HTTP.ReadTimeout == 0 {
		cfg.HTTP.ReadTimeout = 5 * time.Second
	}
	if cfg.HTTP.WriteTimeout == 0 {
		cfg.HTTP.WriteTimeout = 10 * time.Second
	}
	if cfg.HTTP.IdleTimeout == 0 {
		cfg.HTTP.IdleTimeout = 120 * time.Second
	}
	if cfg.HTTP.ShutdownTimeout == 0 {
		cfg.HTTP.ShutdownTimeout = 25 * time.Second
	}
	if cfg.HTTP.MaxBodySize == 0 {
		cfg.HTTP.MaxBodySize = 64 << 10
	}
	if cfg.HTTP.RateLimitRequests == 0 {
		cfg.HTTP.RateLimitRequests = 20
	}
	if cfg.HTTP.RateLimitBurst == 0 {
		cfg.HTTP.RateLimitBurst = 40
	}
	if cfg.Ingest.CollectorURL == "" {
		cfg.Ingest.CollectorURL = "http://localhost:" + cfg.App.Port
	}
	if cfg.Ingest.PageViews == 0 {
		cfg.Ingest.PageViews = 30
	}
	if cfg.Ingest.Timeout == 0 {
		cfg.Ingest.Timeout = 5 * time.Second
	}
}

func (c *Config) validate() error {
	switch c.App.Env {
	case "development", "production":
	default:
		return fmt.Errorf("app.env must be development or production, got %q", c.App.Env)
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("log.level %q is not supported", c.Log.Level)
	}
	if c.HTTP.MaxBodySize < 0 {
		return fmt.Errorf("http.max_body_size must not be negative")
	}
	if c.HTTP.RateLimitRequests < 0 || c.HTTP.RateLimitBurst < 0 {
		return fmt.Errorf("http rate limit settings must not be negative")
	}
	if c.Ingest.PageViews < 0 {
		return fmt.Errorf("ingest.page_views must not be negative")
	}
	return nil
}
