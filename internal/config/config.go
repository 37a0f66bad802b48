package config

import (
	"strings"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Provider ProviderConfig `yaml:"provider" mapstructure:"provider"`
	Scrape   ScrapeConfig   `yaml:"scrape" mapstructure:"scrape"`
	Lookup   LookupConfig   `yaml:"lookup" mapstructure:"lookup"`
	Store    StoreConfig    `yaml:"store" mapstructure:"store"`
	Batch    BatchConfig    `yaml:"batch" mapstructure:"batch"`
	Server   ServerConfig   `yaml:"server" mapstructure:"server"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
}

// ProviderConfig configures the primary quote provider.
type ProviderConfig struct {
	UserAgent   string `yaml:"user_agent" mapstructure:"user_agent"`
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	BaseURL     string `yaml:"base_url" mapstructure:"base_url"`
	CookieURL   string `yaml:"cookie_url" mapstructure:"cookie_url"`
}

// ScrapeConfig configures the secondary-site fallback scraper.
type ScrapeConfig struct {
	TimeoutSecs int      `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	Sites       []string `yaml:"sites" mapstructure:"sites"`
	// Always runs the fallback chain even when the provider has every field.
	Always    bool              `yaml:"always" mapstructure:"always"`
	UserAgent string            `yaml:"user_agent" mapstructure:"user_agent"`
	BaseURLs  map[string]string `yaml:"base_urls" mapstructure:"base_urls"`
	// BreakerThreshold consecutive failures against a site host pause it for
	// BreakerCooldownSecs. Zero disables the breaker.
	BreakerThreshold    int `yaml:"breaker_threshold" mapstructure:"breaker_threshold"`
	BreakerCooldownSecs int `yaml:"breaker_cooldown_secs" mapstructure:"breaker_cooldown_secs"`
}

// LookupConfig configures a single ticker lookup.
type LookupConfig struct {
	HistoryPeriod string `yaml:"history_period" mapstructure:"history_period"`
}

// StoreConfig configures the lookup-history backend.
type StoreConfig struct {
	Driver        string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL   string `yaml:"database_url" mapstructure:"database_url"`
	RetentionDays int    `yaml:"retention_days" mapstructure:"retention_days"`
	PruneSchedule string `yaml:"prune_schedule" mapstructure:"prune_schedule"`
}

// BatchConfig configures watchlist processing.
type BatchConfig struct {
	MaxConcurrent int `yaml:"max_concurrent" mapstructure:"max_concurrent"`
}

// ServerConfig configures the dashboard server.
type ServerConfig struct {
	Port        int      `yaml:"port" mapstructure:"port"`
	CORSOrigins []string `yaml:"cors_origins" mapstructure:"cors_origins"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from .env, file and environment.
func Load() (*Config, error) {
	// A missing .env is normal.
	_ = godotenv.Load()

	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("SHORT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("provider.timeout_secs", 10)
	v.SetDefault("provider.base_url", "https://query1.finance.yahoo.com")
	v.SetDefault("provider.cookie_url", "https://fc.yahoo.com")
	v.SetDefault("scrape.timeout_secs", 5)
	v.SetDefault("scrape.sites", []string{"marketwatch", "finviz"})
	v.SetDefault("scrape.always", false)
	v.SetDefault("scrape.breaker_threshold", 3)
	v.SetDefault("scrape.breaker_cooldown_secs", 300)
	v.SetDefault("lookup.history_period", "3mo")
	v.SetDefault("store.driver", "none")
	v.SetDefault("store.retention_days", 90)
	v.SetDefault("store.prune_schedule", "@daily")
	v.SetDefault("batch.max_concurrent", 4)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks the settings a command mode depends on. Modes are
// "lookup", "batch", "serve" and "history".
func (c *Config) Validate(mode string) error {
	var errs []string

	switch mode {
	case "lookup", "batch", "serve", "history":
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	switch c.Store.Driver {
	case "none", "":
		if mode == "history" {
			errs = append(errs, "store.driver must be sqlite or postgres to list history")
		}
	case "sqlite", "postgres":
		if c.Store.DatabaseURL == "" {
			errs = append(errs, "store.database_url is required for driver "+c.Store.Driver)
		}
	default:
		errs = append(errs, "store.driver must be one of none, sqlite, postgres")
	}

	if mode != "history" {
		if c.Scrape.TimeoutSecs <= 0 {
			errs = append(errs, "scrape.timeout_secs must be > 0")
		}
		if c.Provider.TimeoutSecs <= 0 {
			errs = append(errs, "provider.timeout_secs must be > 0")
		}
		if c.Scrape.BreakerThreshold < 0 {
			errs = append(errs, "scrape.breaker_threshold must be >= 0")
		}
		if c.Scrape.BreakerThreshold > 0 && c.Scrape.BreakerCooldownSecs <= 0 {
			errs = append(errs, "scrape.breaker_cooldown_secs must be > 0 when the breaker is enabled")
		}
	}

	if mode == "batch" && (c.Batch.MaxConcurrent < 1 || c.Batch.MaxConcurrent > 32) {
		errs = append(errs, "batch.max_concurrent must be between 1 and 32")
	}

	if mode == "serve" {
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			errs = append(errs, "server.port must be > 0 and <= 65535")
		}
		if c.Store.RetentionDays < 0 {
			errs = append(errs, "store.retention_days must be >= 0")
		}
	}

	if len(errs) > 0 {
		return eris.New("config: " + strings.Join(errs, "; "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
