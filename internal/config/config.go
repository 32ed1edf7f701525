// Package config loads dexscout configuration from an optional YAML file, a .env file
// and the environment, using Viper
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/raykavin/dexscout/pkg/core"
	"github.com/spf13/viper"
	"github.com/xhit/go-str2duration/v2"
)

const (
	EnvPrefix         = "DEXSCOUT"
	DefaultConfigName = "dexscout"
	DefaultEnvFile    = ".env"

	StorageBunt     = "bunt"
	StorageJSON     = "json"
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

var (
	ErrStartup         = errors.New("invalid startup configuration")
	ErrUnknownStorage  = errors.New("unknown storage driver")
	ErrInvalidDuration = errors.New("invalid duration")
)

// Config is the complete runtime configuration
type Config struct {
	core.Settings

	Source   SourceConfig
	Delivery DeliveryConfig
	Storage  StorageConfig
	Metrics  MetricsConfig

	// ErrorBackoff is the wait after a failed cycle, growing up to MaxErrorBackoff
	ErrorBackoff    time.Duration
	MaxErrorBackoff time.Duration
}

// SourceConfig bounds the market-data requests
type SourceConfig struct {
	BaseURL       string
	FetchTimeout  time.Duration
	DetailTimeout time.Duration
	DetailDelay   time.Duration
	Delay         time.Duration // pause between two sources
	ProfileLimit  int
	Attempts      int
}

// DeliveryConfig paces outgoing alerts
type DeliveryConfig struct {
	Delay time.Duration
}

// StorageConfig selects the snapshot store
type StorageConfig struct {
	Driver string
	Path   string
	DSN    string

	// MaxSnapshots bounds the bunt and memory stores, zero keeps everything
	MaxSnapshots int
}

// MetricsConfig controls the Prometheus endpoint
type MetricsConfig struct {
	Enabled bool
	Address string
}

var defaults = map[string]any{
	"scan.min_volume_5m":            100_000,
	"scan.min_market_cap":           50_000,
	"scan.max_market_cap":           10_000_000,
	"scan.min_liquidity":            20_000,
	"scan.max_token_age_hours":      48,
	"scan.enable_age_filter":        true,
	"scan.enable_high_volume_alert": true,
	"scan.high_volume_threshold":    500_000,
	"scan.max_age_for_high_volume":  24,
	"scan.excluded_symbols":         core.DefaultExcludedSymbols,
	"scan.interval":                 "60s",

	"telegram.enabled": true,

	"source.base_url":       "https://api.dexscreener.com",
	"source.fetch_timeout":  "20s",
	"source.detail_timeout": "10s",
	"source.detail_delay":   "300ms",
	"source.delay":          "2s",
	"source.profile_limit":  20,
	"source.attempts":       2,

	"delivery.delay": "2s",

	"error_backoff":     "2m",
	"max_error_backoff": "2m",

	"storage.driver":        StorageJSON,
	"storage.path":          "scanned_tokens.json",
	"storage.dsn":           "",
	"storage.max_snapshots": 1440,

	"metrics.enabled": false,
	"metrics.address": ":9090",
}

// Load reads configuration. A non-empty path must point to a readable config file; with
// an empty path ./dexscout.yaml is used when present. Variables from .env are loaded
// first and never override the real environment.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(DefaultEnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load %s: %w", DefaultEnvFile, err)
	}

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.BindEnv("telegram.token", "TELEGRAM_BOT_TOKEN", EnvPrefix+"_TELEGRAM_TOKEN"); err != nil {
		return nil, fmt.Errorf("failed to bind telegram token: %w", err)
	}
	if err := v.BindEnv("telegram.chat_id", "TELEGRAM_CHAT_ID", EnvPrefix+"_TELEGRAM_CHAT_ID"); err != nil {
		return nil, fmt.Errorf("failed to bind telegram chat id: %w", err)
	}

	if err := readConfigFile(v, path); err != nil {
		return nil, err
	}

	return build(v)
}

func readConfigFile(v *viper.Viper, path string) error {
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		return nil
	}

	v.SetConfigName(DefaultConfigName)
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("failed to read config file: %w", err)
		}
	}
	return nil
}

func build(v *viper.Viper) (*Config, error) {
	config := &Config{
		Settings: core.Settings{
			Scan: core.ScanSettings{
				MinVolume5m:           v.GetFloat64("scan.min_volume_5m"),
				MinMarketCap:          v.GetFloat64("scan.min_market_cap"),
				MaxMarketCap:          v.GetFloat64("scan.max_market_cap"),
				MinLiquidity:          v.GetFloat64("scan.min_liquidity"),
				MaxTokenAgeHours:      v.GetFloat64("scan.max_token_age_hours"),
				EnableAgeFilter:       v.GetBool("scan.enable_age_filter"),
				EnableHighVolumeAlert: v.GetBool("scan.enable_high_volume_alert"),
				HighVolumeThreshold:   v.GetFloat64("scan.high_volume_threshold"),
				MaxAgeForHighVolume:   v.GetFloat64("scan.max_age_for_high_volume"),
				ExcludedSymbols:       symbolList(v.GetStringSlice("scan.excluded_symbols")),
			},
			Telegram: core.TelegramSettings{
				Enabled: v.GetBool("telegram.enabled"),
				Token:   strings.TrimSpace(v.GetString("telegram.token")),
				ChatID:  strings.TrimSpace(v.GetString("telegram.chat_id")),
			},
		},
		Source: SourceConfig{
			BaseURL:      v.GetString("source.base_url"),
			ProfileLimit: v.GetInt("source.profile_limit"),
			Attempts:     v.GetInt("source.attempts"),
		},
		Storage: StorageConfig{
			Driver: strings.ToLower(v.GetString("storage.driver")),
			Path:   v.GetString("storage.path"),
			DSN:    v.GetString("storage.dsn"),

			MaxSnapshots: v.GetInt("storage.max_snapshots"),
		},
		Metrics: MetricsConfig{
			Enabled: v.GetBool("metrics.enabled"),
			Address: v.GetString("metrics.address"),
		},
	}

	durations := map[string]*time.Duration{
		"scan.interval":         &config.Scan.Interval,
		"source.fetch_timeout":  &config.Source.FetchTimeout,
		"source.detail_timeout": &config.Source.DetailTimeout,
		"source.detail_delay":   &config.Source.DetailDelay,
		"source.delay":          &config.Source.Delay,
		"delivery.delay":        &config.Delivery.Delay,
		"error_backoff":         &config.ErrorBackoff,
		"max_error_backoff":     &config.MaxErrorBackoff,
	}

	for key, target := range durations {
		parsed, err := parseDuration(v.GetString(key))
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrStartup, key, err)
		}
		*target = parsed
	}

	return config, nil
}

// parseDuration accepts Go durations plus day and week units, e.g. "1d12h"
func parseDuration(value string) (time.Duration, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, fmt.Errorf("%w: empty value", ErrInvalidDuration)
	}

	d, err := str2duration.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidDuration, value)
	}
	return d, nil
}

// symbolList accepts both YAML lists and comma separated environment values
func symbolList(values []string) []string {
	symbols := make([]string, 0, len(values))
	for _, value := range values {
		for _, symbol := range strings.Split(value, ",") {
			if symbol = strings.TrimSpace(symbol); symbol != "" {
				symbols = append(symbols, symbol)
			}
		}
	}
	return symbols
}

// Validate reports the first setting the scanner cannot start with. Telegram credentials
// are only required when delivery is enabled.
func (c *Config) Validate() error {
	if err := c.Scan.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrStartup, err)
	}

	if err := c.Telegram.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrStartup, err)
	}

	switch c.Storage.Driver {
	case StorageBunt, StorageJSON:
		if c.Storage.Path == "" {
			return fmt.Errorf("%w: storage.path is required for %s", ErrStartup, c.Storage.Driver)
		}
	case StoragePostgres:
		if c.Storage.DSN == "" {
			return fmt.Errorf("%w: storage.dsn is required for postgres", ErrStartup)
		}
	case StorageMemory:
	default:
		return fmt.Errorf("%w: %w %q", ErrStartup, ErrUnknownStorage, c.Storage.Driver)
	}

	if c.Source.FetchTimeout <= 0 || c.Source.DetailTimeout <= 0 {
		return fmt.Errorf("%w: source timeouts must be positive", ErrStartup)
	}

	if c.Storage.MaxSnapshots < 0 {
		return fmt.Errorf("%w: storage.max_snapshots must not be negative", ErrStartup)
	}

	if c.ErrorBackoff <= c.Scan.Interval {
		return fmt.Errorf("%w: error_backoff %s must be longer than scan.interval %s",
			ErrStartup, c.ErrorBackoff, c.Scan.Interval)
	}

	if c.MaxErrorBackoff < c.ErrorBackoff {
		return fmt.Errorf("%w: max_error_backoff must not be below error_backoff", ErrStartup)
	}

	return nil
}
