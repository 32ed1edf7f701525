package core

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrMissingToken  = errors.New("telegram bot token is required")
	ErrMissingChatID = errors.New("telegram chat id is required")
	ErrInvalidBand   = errors.New("invalid market cap band")
	ErrInvalidValue  = errors.New("invalid setting value")
)

// Settings represents the main configuration for the application
type Settings struct {
	Scan     ScanSettings     // Filtering thresholds and scan cadence
	Telegram TelegramSettings // Telegram delivery settings
}

// ScanSettings holds the thresholds the filter engine applies to every record.
// It is set once at startup and never mutated afterwards.
type ScanSettings struct {
	MinVolume5m  float64
	MinMarketCap float64
	MaxMarketCap float64
	MinLiquidity float64

	MaxTokenAgeHours float64
	EnableAgeFilter  bool

	EnableHighVolumeAlert bool
	HighVolumeThreshold   float64
	MaxAgeForHighVolume   float64

	ExcludedSymbols []string

	Interval time.Duration
}

// TelegramSettings holds configuration for Telegram integration
type TelegramSettings struct {
	Enabled bool   // Whether alerts are pushed to Telegram
	Token   string // Telegram bot token
	ChatID  string // Channel username (@name) or numeric chat id
}

// DefaultExcludedSymbols lists established Solana assets that would otherwise dominate alerts
var DefaultExcludedSymbols = []string{
	"SOL", "USDC", "USDT", "BONK", "JTO", "PYTH", "WIF", "JUP", "ORCA", "RAY", "MSOL", "WSOL", "BAGS",
}

// DefaultScanSettings returns the stock thresholds
func DefaultScanSettings() ScanSettings {
	return ScanSettings{
		MinVolume5m:           100_000,
		MinMarketCap:          50_000,
		MaxMarketCap:          10_000_000,
		MinLiquidity:          20_000,
		MaxTokenAgeHours:      48,
		EnableAgeFilter:       true,
		EnableHighVolumeAlert: true,
		HighVolumeThreshold:   500_000,
		MaxAgeForHighVolume:   24,
		ExcludedSymbols:       append([]string(nil), DefaultExcludedSymbols...),
		Interval:              60 * time.Second,
	}
}

// Validate checks the thresholds for values the filter engine cannot work with
func (s ScanSettings) Validate() error {
	if s.MinMarketCap < 0 || s.MaxMarketCap < s.MinMarketCap {
		return fmt.Errorf("%w: [%.0f, %.0f]", ErrInvalidBand, s.MinMarketCap, s.MaxMarketCap)
	}

	for name, value := range map[string]float64{
		"min_volume_5m":           s.MinVolume5m,
		"min_liquidity":           s.MinLiquidity,
		"max_token_age_hours":     s.MaxTokenAgeHours,
		"high_volume_threshold":   s.HighVolumeThreshold,
		"max_age_for_high_volume": s.MaxAgeForHighVolume,
	} {
		if value < 0 {
			return fmt.Errorf("%w: %s must not be negative", ErrInvalidValue, name)
		}
	}

	if s.Interval <= 0 {
		return fmt.Errorf("%w: interval must be positive", ErrInvalidValue)
	}
	return nil
}

// Validate checks that credentials are present when delivery is enabled
func (t TelegramSettings) Validate() error {
	if !t.Enabled {
		return nil
	}
	if t.Token == "" {
		return ErrMissingToken
	}
	if t.ChatID == "" {
		return ErrMissingChatID
	}
	return nil
}
