package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/raykavin/dexscout/pkg/core"
	"github.com/stretchr/testify/require"
)

func chdir(t *testing.T, dir string) {
	t.Helper()

	previous, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(previous) })
}

func TestLoad_Defaults(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("TELEGRAM_BOT_TOKEN", "123:abc")
	t.Setenv("TELEGRAM_CHAT_ID", "@alerts")

	config, err := Load("")
	require.NoError(t, err)
	require.NoError(t, config.Validate())

	require.Equal(t, core.DefaultScanSettings(), config.Scan)
	require.Equal(t, "123:abc", config.Telegram.Token)
	require.Equal(t, "@alerts", config.Telegram.ChatID)
	require.True(t, config.Telegram.Enabled)
	require.Equal(t, 20*time.Second, config.Source.FetchTimeout)
	require.Equal(t, 10*time.Second, config.Source.DetailTimeout)
	require.Equal(t, 300*time.Millisecond, config.Source.DetailDelay)
	require.Equal(t, 2*time.Second, config.Source.Delay)
	require.Equal(t, 2*time.Second, config.Delivery.Delay)
	require.Equal(t, 20, config.Source.ProfileLimit)
	require.Equal(t, 2*time.Minute, config.ErrorBackoff)
	require.Greater(t, config.ErrorBackoff, config.Scan.Interval)
	require.Equal(t, StorageJSON, config.Storage.Driver)
	require.Equal(t, "scanned_tokens.json", config.Storage.Path)
	require.Equal(t, 1440, config.Storage.MaxSnapshots)
}

func TestLoad_EnvOverrides(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("TELEGRAM_BOT_TOKEN", "token")
	t.Setenv("TELEGRAM_CHAT_ID", "-100")
	t.Setenv("DEXSCOUT_SCAN_MIN_VOLUME_5M", "250000")
	t.Setenv("DEXSCOUT_SCAN_ENABLE_AGE_FILTER", "false")
	t.Setenv("DEXSCOUT_SCAN_EXCLUDED_SYMBOLS", "SOL, USDC,BONK")
	t.Setenv("DEXSCOUT_SCAN_INTERVAL", "1d")
	t.Setenv("DEXSCOUT_STORAGE_DRIVER", "BUNT")
	t.Setenv("DEXSCOUT_ERROR_BACKOFF", "2d")
	t.Setenv("DEXSCOUT_MAX_ERROR_BACKOFF", "3d")

	config, err := Load("")
	require.NoError(t, err)

	require.Equal(t, 250_000.0, config.Scan.MinVolume5m)
	require.False(t, config.Scan.EnableAgeFilter)
	require.Equal(t, []string{"SOL", "USDC", "BONK"}, config.Scan.ExcludedSymbols)
	require.Equal(t, 24*time.Hour, config.Scan.Interval)
	require.Equal(t, 48*time.Hour, config.ErrorBackoff)
	require.Equal(t, StorageBunt, config.Storage.Driver)
}

func TestLoad_DotEnv(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"),
		[]byte("TELEGRAM_BOT_TOKEN=from-dotenv\nTELEGRAM_CHAT_ID=@dotenv\n"), 0o600))

	t.Setenv("TELEGRAM_CHAT_ID", "@real")
	t.Setenv("TELEGRAM_BOT_TOKEN", "")
	require.NoError(t, os.Unsetenv("TELEGRAM_BOT_TOKEN"))

	config, err := Load("")
	require.NoError(t, err)
	require.Equal(t, "from-dotenv", config.Telegram.Token)
	require.Equal(t, "@real", config.Telegram.ChatID)
}

func TestLoad_YAMLFile(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)

	path := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
scan:
  min_market_cap: 10000
  max_market_cap: 2000000
  excluded_symbols: [SOL, JUP]
  interval: 30s
telegram:
  enabled: false
storage:
  driver: memory
`), 0o600))

	config, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, config.Validate())
	require.Equal(t, 10_000.0, config.Scan.MinMarketCap)
	require.Equal(t, 2_000_000.0, config.Scan.MaxMarketCap)
	require.Equal(t, []string{"SOL", "JUP"}, config.Scan.ExcludedSymbols)
	require.Equal(t, 30*time.Second, config.Scan.Interval)
	require.False(t, config.Telegram.Enabled)
	require.Equal(t, StorageMemory, config.Storage.Driver)
}

func TestLoad_MissingFile(t *testing.T) {
	chdir(t, t.TempDir())

	_, err := Load("does-not-exist.yaml")
	require.Error(t, err)
}

func TestLoad_InvalidDuration(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("DEXSCOUT_DELIVERY_DELAY", "soon")

	_, err := Load("")
	require.ErrorIs(t, err, ErrStartup)
	require.ErrorIs(t, err, ErrInvalidDuration)
}

func TestValidate(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("TELEGRAM_BOT_TOKEN", "")
	t.Setenv("TELEGRAM_CHAT_ID", "")

	config, err := Load("")
	require.NoError(t, err)

	err = config.Validate()
	require.ErrorIs(t, err, ErrStartup)
	require.ErrorIs(t, err, core.ErrMissingToken)

	config.Telegram.Token = "token"
	require.ErrorIs(t, config.Validate(), core.ErrMissingChatID)

	config.Telegram.ChatID = "@alerts"
	require.NoError(t, config.Validate())

	config.Scan.MinMarketCap = 20_000_000
	require.ErrorIs(t, config.Validate(), core.ErrInvalidBand)
	config.Scan.MinMarketCap = 50_000

	config.Storage.Driver = "redis"
	require.ErrorIs(t, config.Validate(), ErrUnknownStorage)

	config.Storage.Driver = StoragePostgres
	require.ErrorIs(t, config.Validate(), ErrStartup)

	config.Storage.DSN = "postgres://localhost/dexscout"
	config.MaxErrorBackoff = time.Second
	require.ErrorIs(t, config.Validate(), ErrStartup)
}

func TestValidate_ErrorBackoff(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("TELEGRAM_BOT_TOKEN", "token")
	t.Setenv("TELEGRAM_CHAT_ID", "@alerts")

	tests := []struct {
		name       string
		interval   time.Duration
		backoff    time.Duration
		maxBackoff time.Duration
		wantErr    bool
	}{
		{"longer than interval", time.Minute, 2 * time.Minute, 2 * time.Minute, false},
		{"growing", time.Minute, 2 * time.Minute, 10 * time.Minute, false},
		{"shorter than interval", 5 * time.Minute, 2 * time.Minute, 2 * time.Minute, true},
		{"equal to interval", 2 * time.Minute, 2 * time.Minute, 2 * time.Minute, true},
		{"max below backoff", time.Minute, 2 * time.Minute, time.Minute, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config, err := Load("")
			require.NoError(t, err)

			config.Scan.Interval = tt.interval
			config.ErrorBackoff = tt.backoff
			config.MaxErrorBackoff = tt.maxBackoff

			err = config.Validate()
			if tt.wantErr {
				require.ErrorIs(t, err, ErrStartup)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestValidate_MaxSnapshots(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("TELEGRAM_BOT_TOKEN", "token")
	t.Setenv("TELEGRAM_CHAT_ID", "@alerts")
	t.Setenv("DEXSCOUT_STORAGE_MAX_SNAPSHOTS", "-1")

	config, err := Load("")
	require.NoError(t, err)
	require.Equal(t, -1, config.Storage.MaxSnapshots)
	require.ErrorIs(t, config.Validate(), ErrStartup)
}
