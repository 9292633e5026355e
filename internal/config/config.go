// Package config loads and validates service configuration via Viper.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/viper"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Fetch    FetchConfig    `mapstructure:"fetch"`
	Headless HeadlessConfig `mapstructure:"headless"`
	Detector DetectorConfig `mapstructure:"detector"`
	Reports  ReportsConfig  `mapstructure:"reports"`
	Storage  StorageConfig  `mapstructure:"storage"`
	SMTP     SMTPConfig     `mapstructure:"smtp"`
	Delivery DeliveryConfig `mapstructure:"delivery"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// ServerConfig controls HTTP server behavior.
type ServerConfig struct {
	Port      int    `mapstructure:"port"`
	StaticDir string `mapstructure:"static_dir"`
}

// FetchConfig governs the probe fetch issued for each analysis.
type FetchConfig struct {
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
	UserAgent      string `mapstructure:"user_agent"`
}

// HeadlessConfig configures the rendered-fetch fallback for JS-heavy pages.
type HeadlessConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	MaxParallel   int  `mapstructure:"max_parallel"`
	NavTimeoutSec int  `mapstructure:"nav_timeout_seconds"`
}

// DetectorConfig tunes the JS-render heuristic.
type DetectorConfig struct {
	MinHTMLBytes int `mapstructure:"min_html_bytes"`
}

// ReportsConfig sets where report artifacts live.
type ReportsConfig struct {
	Dir      string `mapstructure:"dir"`
	LogoPath string `mapstructure:"logo_path"`
}

// StorageConfig selects the status store backend.
type StorageConfig struct {
	StatusProvider string `mapstructure:"status_provider"`
	PostgresDSN    string `mapstructure:"postgres_dsn"`
}

// SMTPConfig holds outbound relay settings fixed at deploy time.
type SMTPConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
	FromName string `mapstructure:"from_name"`
	UseTLS   bool   `mapstructure:"use_tls"`
}

// DeliveryConfig sizes the background delivery pool.
type DeliveryConfig struct {
	Workers    int `mapstructure:"workers"`
	QueueDepth int `mapstructure:"queue_depth"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load builds a Config from disk/environment. A bare PORT variable (the only
// externally documented knob) overrides server.port for PaaS deployments.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("WEBANALYZER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if raw := os.Getenv("PORT"); raw != "" {
		port, err := strconv.Atoi(raw)
		if err != nil {
			return Config{}, fmt.Errorf("parse PORT: %w", err)
		}
		cfg.Server.Port = port
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 5000)
	v.SetDefault("server.static_dir", "web")
	v.SetDefault("fetch.timeout_seconds", 10)
	v.SetDefault("fetch.user_agent", "webanalyzer-bot/0.1")
	v.SetDefault("headless.enabled", false)
	v.SetDefault("headless.max_parallel", 1)
	v.SetDefault("headless.nav_timeout_seconds", 25)
	v.SetDefault("detector.min_html_bytes", 2048)
	v.SetDefault("reports.dir", "reports")
	v.SetDefault("storage.status_provider", "memory")
	v.SetDefault("smtp.port", 587)
	v.SetDefault("smtp.from_name", "WebAnalyzer")
	v.SetDefault("smtp.use_tls", true)
	v.SetDefault("delivery.workers", 2)
	v.SetDefault("delivery.queue_depth", 64)
	v.SetDefault("logging.development", true)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	if c.Fetch.TimeoutSeconds <= 0 {
		return fmt.Errorf("fetch.timeout_seconds must be > 0")
	}
	if c.Delivery.Workers <= 0 {
		return fmt.Errorf("delivery.workers must be > 0")
	}
	if c.Delivery.QueueDepth <= 0 {
		return fmt.Errorf("delivery.queue_depth must be > 0")
	}
	if c.Headless.Enabled && c.Headless.MaxParallel <= 0 {
		return fmt.Errorf("headless.max_parallel must be > 0 when headless is enabled")
	}
	switch c.Storage.StatusProvider {
	case "memory":
	case "postgres":
		if c.Storage.PostgresDSN == "" {
			return fmt.Errorf("storage.postgres_dsn must be set when status_provider is postgres")
		}
	default:
		return fmt.Errorf("unknown status provider: %s", c.Storage.StatusProvider)
	}
	return nil
}
