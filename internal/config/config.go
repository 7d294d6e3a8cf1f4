package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/newthinker/chartdesk/internal/core"
)

type Config struct {
	Server       ServerConfig              `mapstructure:"server"`
	Analysis     AnalysisConfig            `mapstructure:"analysis"`
	Refresh      RefreshConfig             `mapstructure:"refresh"`
	Collectors   CollectorsConfig          `mapstructure:"collectors"`
	Gainers      GainersConfig             `mapstructure:"gainers"`
	Cache        CacheConfig               `mapstructure:"cache"`
	Archive      ArchiveConfig             `mapstructure:"archive"`
	Sessions     SessionConfig             `mapstructure:"sessions"`
	Notifiers    map[string]NotifierConfig `mapstructure:"notifiers"`
	Router       RouterConfig              `mapstructure:"router"`
	LLM          LLMConfig                 `mapstructure:"llm"`
	Metrics      MetricsConfig             `mapstructure:"metrics"`
	Log          LogConfig                 `mapstructure:"log"`
	UniverseFile string                    `mapstructure:"universe_file"`
}

type ServerConfig struct {
	Host   string `mapstructure:"host"`
	Port   int    `mapstructure:"port"`
	APIKey string `mapstructure:"api_key"`
	MCP    bool   `mapstructure:"mcp"`
}

// AnalysisConfig holds the detector windows.
type AnalysisConfig struct {
	SRWindow    int `mapstructure:"sr_window"`
	SwingWindow int `mapstructure:"swing_window"`
}

// RefreshConfig controls the background re-fetch cycle.
type RefreshConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Interval time.Duration `mapstructure:"interval"`
}

type CollectorsConfig struct {
	HistoryDays int          `mapstructure:"history_days"`
	Interval    string       `mapstructure:"interval"`
	Yahoo       YahooConfig  `mapstructure:"yahoo"`
	Crypto      CryptoConfig `mapstructure:"crypto"`
}

// YahooConfig tunes the Yahoo Finance client.
type YahooConfig struct {
	ChartURL          string        `mapstructure:"chart_url"`
	QuoteURL          string        `mapstructure:"quote_url"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second"`
	Burst             int           `mapstructure:"burst"`
	MaxAttempts       int           `mapstructure:"max_attempts"`
	InitialBackoff    time.Duration `mapstructure:"initial_backoff"`
	Timeout           time.Duration `mapstructure:"timeout"`
}

// CryptoConfig enables the exchange fallbacks for crypto symbols.
type CryptoConfig struct {
	Enabled         bool     `mapstructure:"enabled"`
	Providers       []string `mapstructure:"providers"`
	CoinGeckoAPIKey string   `mapstructure:"coingecko_api_key"`
}

// GainersConfig controls the top gainers scan.
type GainersConfig struct {
	Threshold float64 `mapstructure:"threshold"`
	Limit     int     `mapstructure:"limit"`
	Workers   int     `mapstructure:"workers"`
}

// CacheConfig selects the bar cache backend.
type CacheConfig struct {
	Type string        `mapstructure:"type"` // "", "memory" or "sqlite"
	Path string        `mapstructure:"path"`
	TTL  time.Duration `mapstructure:"ttl"`
}

// ArchiveConfig selects where rendered charts are archived.
type ArchiveConfig struct {
	Enabled bool     `mapstructure:"enabled"`
	Type    string   `mapstructure:"type"` // "localfs" or "s3"
	Path    string   `mapstructure:"path"`
	S3      S3Config `mapstructure:"s3"`
}

type S3Config struct {
	Bucket    string `mapstructure:"bucket"`
	Endpoint  string `mapstructure:"endpoint"`
	Region    string `mapstructure:"region"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Prefix    string `mapstructure:"prefix"`
}

// SessionConfig controls dashboard sessions.
type SessionConfig struct {
	CookieName  string        `mapstructure:"cookie_name"`
	IdleTimeout time.Duration `mapstructure:"idle_timeout"`
}

type NotifierConfig struct {
	Enabled  bool              `mapstructure:"enabled"`
	BotToken string            `mapstructure:"bot_token"`
	ChatID   string            `mapstructure:"chat_id"`
	URL      string            `mapstructure:"url"`
	Headers  map[string]string `mapstructure:"headers"`
}

type RouterConfig struct {
	CooldownHours int `mapstructure:"cooldown_hours"`
}

type LLMConfig struct {
	Provider string       `mapstructure:"provider"`
	Claude   ClaudeConfig `mapstructure:"claude"`
	OpenAI   OpenAIConfig `mapstructure:"openai"`
	Ollama   OllamaConfig `mapstructure:"ollama"`
}

type ClaudeConfig struct {
	APIKey string `mapstructure:"api_key"`
	Model  string `mapstructure:"model"`
}

type OpenAIConfig struct {
	APIKey string `mapstructure:"api_key"`
	Model  string `mapstructure:"model"`
}

type OllamaConfig struct {
	Endpoint string `mapstructure:"endpoint"`
	Model    string `mapstructure:"model"`
}

// MetricsConfig holds metrics configuration.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// LogConfig holds the optional rotating log file.
type LogConfig struct {
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

// Load reads configuration from file on top of Defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	// Support environment variable overrides
	v.SetEnvPrefix("CHARTDESK")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	// Expand environment variables in string values
	for _, key := range v.AllKeys() {
		val := v.GetString(key)
		if strings.HasPrefix(val, "${") && strings.HasSuffix(val, "}") {
			envKey := strings.TrimSuffix(strings.TrimPrefix(val, "${"), "}")
			v.Set(key, os.Getenv(envKey))
		}
	}

	cfg := Defaults()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return cfg, nil
}

// Defaults returns a config with sensible defaults
func Defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
			MCP:  true,
		},
		Analysis: AnalysisConfig{
			SRWindow:    10,
			SwingWindow: 5,
		},
		Refresh: RefreshConfig{
			Enabled:  true,
			Interval: 120 * time.Second,
		},
		Collectors: CollectorsConfig{
			HistoryDays: 365,
			Interval:    "1d",
			Yahoo: YahooConfig{
				RequestsPerSecond: 2,
				Burst:             2,
				MaxAttempts:       5,
				InitialBackoff:    time.Second,
				Timeout:           10 * time.Second,
			},
			Crypto: CryptoConfig{
				Enabled:   true,
				Providers: []string{"coingecko", "binance"},
			},
		},
		Gainers: GainersConfig{
			Threshold: 3.0,
			Limit:     20,
			Workers:   4,
		},
		Cache: CacheConfig{
			Type: "memory",
			TTL:  5 * time.Minute,
		},
		Archive: ArchiveConfig{
			Type: "localfs",
			Path: "data/charts",
		},
		Sessions: SessionConfig{
			CookieName:  "chartdesk_session",
			IdleTimeout: 30 * time.Minute,
		},
		Router: RouterConfig{
			CooldownHours: 4,
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
		Log: LogConfig{
			MaxSizeMB:  50,
			MaxBackups: 5,
			MaxAgeDays: 28,
		},
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	invalid := func(format string, args ...any) error {
		return core.WrapError(core.ErrConfigInvalid, fmt.Errorf(format, args...))
	}

	// Server validation
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return invalid("port must be between 1 and 65535, got %d", c.Server.Port)
	}

	// Analysis windows
	if c.Analysis.SRWindow < 1 {
		return invalid("analysis.sr_window must be positive, got %d", c.Analysis.SRWindow)
	}
	if c.Analysis.SwingWindow < 1 {
		return invalid("analysis.swing_window must be positive, got %d", c.Analysis.SwingWindow)
	}

	if c.Refresh.Enabled && c.Refresh.Interval < time.Second {
		return invalid("refresh.interval must be at least 1s, got %s", c.Refresh.Interval)
	}

	if c.Gainers.Limit < 1 {
		return invalid("gainers.limit must be positive, got %d", c.Gainers.Limit)
	}
	if c.Gainers.Workers < 1 {
		return invalid("gainers.workers must be positive, got %d", c.Gainers.Workers)
	}

	switch c.Cache.Type {
	case "", "memory":
	case "sqlite":
		if c.Cache.Path == "" {
			return core.WrapError(core.ErrConfigMissing, fmt.Errorf("cache.path required for sqlite cache"))
		}
	default:
		return invalid("unknown cache type %q", c.Cache.Type)
	}

	if c.Archive.Enabled {
		switch c.Archive.Type {
		case "localfs":
			if c.Archive.Path == "" {
				return core.WrapError(core.ErrConfigMissing, fmt.Errorf("archive.path required for localfs"))
			}
		case "s3":
			if c.Archive.S3.Bucket == "" {
				return core.WrapError(core.ErrConfigMissing, fmt.Errorf("archive.s3.bucket required for s3"))
			}
		default:
			return invalid("unknown archive type %q", c.Archive.Type)
		}
	}

	if c.Router.CooldownHours < 0 {
		return invalid("cooldown_hours cannot be negative, got %d", c.Router.CooldownHours)
	}

	// LLM validation - if provider set, check config exists
	if c.LLM.Provider != "" {
		switch c.LLM.Provider {
		case "claude":
			if c.LLM.Claude.APIKey == "" {
				return core.WrapError(core.ErrConfigMissing,
					fmt.Errorf("claude api_key required when provider is claude"))
			}
		case "openai":
			if c.LLM.OpenAI.APIKey == "" {
				return core.WrapError(core.ErrConfigMissing,
					fmt.Errorf("openai api_key required when provider is openai"))
			}
		case "ollama":
			if c.LLM.Ollama.Endpoint == "" {
				return core.WrapError(core.ErrConfigMissing,
					fmt.Errorf("ollama endpoint required when provider is ollama"))
			}
		default:
			return invalid("unknown llm provider %q", c.LLM.Provider)
		}
	}

	return nil
}
