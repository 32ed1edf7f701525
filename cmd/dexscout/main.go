package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/raykavin/dexscout"
	"github.com/raykavin/dexscout/internal/config"
	"github.com/raykavin/dexscout/pkg/core"
	"github.com/raykavin/dexscout/pkg/dexscreener"
	"github.com/raykavin/dexscout/pkg/metric"
	"github.com/raykavin/dexscout/pkg/notification"
	"github.com/raykavin/dexscout/pkg/storage"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"gorm.io/driver/postgres"
)

const metricsNamespace = "dexscout"

// Command line flags
var (
	configFile string
	noProgress bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "dexscout",
		Short:        "Scans DexScreener for new Solana tokens and alerts on Telegram",
		Version:      "1.0.0",
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Config file (default ./dexscout.yaml when present)")

	rootCmd.AddCommand(buildRunCmd())
	rootCmd.AddCommand(buildScanCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func buildRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Scan continuously and deliver alerts",
		RunE:  runScanner,
	}
}

func buildScanCmd() *cobra.Command {
	scanCmd := &cobra.Command{
		Use:   "scan",
		Short: "Run a single scan without sending anything and print a report",
		RunE:  runDryScan,
	}

	scanCmd.Flags().BoolVar(&noProgress, "no-progress", false, "Hide the lookup progress bar")
	return scanCmd
}

func runScanner(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return err
	}

	log := dexscout.DefaultLog
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	snapshots, err := openStorage(cfg.Storage)
	if err != nil {
		return err
	}
	defer snapshots.Close()

	var metrics *metric.Metrics
	if cfg.Metrics.Enabled {
		metrics = metric.NewMetrics(prometheus.NewRegistry(), metricsNamespace)
		serveMetrics(ctx, cfg.Metrics.Address, metrics)
	}

	var notifier core.Notifier = notification.NewLogNotifier(log)
	if cfg.Telegram.Enabled {
		notifier, err = notification.NewTelegram(cfg.Telegram.Token, notification.WithLogger(log))
		if err != nil {
			return fmt.Errorf("failed to connect to telegram: %w", err)
		}
	}

	scout, err := dexscout.NewScout(cfg.Settings, buildSources(cfg, metrics),
		dexscout.WithLogger(log),
		dexscout.WithStorage(snapshots),
		dexscout.WithNotifier(notifier),
		dexscout.WithMetrics(metrics),
		dexscout.WithSourceDelay(cfg.Source.Delay),
		dexscout.WithDeliveryDelay(cfg.Delivery.Delay),
		dexscout.WithErrorBackoff(cfg.ErrorBackoff, cfg.MaxErrorBackoff),
	)
	if err != nil {
		return err
	}

	printBanner(cfg)
	return scout.Run(ctx)
}

func runDryScan(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return err
	}

	cfg.Telegram.Enabled = false
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var options []dexscreener.SourceOption
	if !noProgress {
		options = append(options, dexscreener.WithLookupProgress(
			progressbar.Default(int64(cfg.Source.ProfileLimit), "profile lookups"),
		))
	}

	scout, err := dexscout.NewScout(cfg.Settings, buildSources(cfg, nil, options...),
		dexscout.WithLogger(dexscout.DefaultLog),
		dexscout.WithSourceDelay(cfg.Source.Delay),
		dexscout.WithDeliveryDelay(0),
	)
	if err != nil {
		return err
	}

	report, err := scout.Scan(ctx)
	if err != nil {
		return err
	}

	fmt.Println()
	return dexscout.Summary(os.Stdout, report, time.Now())
}

func buildSources(cfg *config.Config, metrics *metric.Metrics, options ...dexscreener.SourceOption) []core.Source {
	log := dexscout.DefaultLog

	client := dexscreener.NewClient(
		dexscreener.WithBaseURL(cfg.Source.BaseURL),
		dexscreener.WithAttempts(cfg.Source.Attempts),
		dexscreener.WithClientLogger(log),
	)

	settings := dexscreener.SourceSettings{
		FetchTimeout:  cfg.Source.FetchTimeout,
		DetailTimeout: cfg.Source.DetailTimeout,
		DetailDelay:   cfg.Source.DetailDelay,
		ProfileLimit:  cfg.Source.ProfileLimit,
	}

	options = append(options,
		dexscreener.WithSourceLogger(log),
		dexscreener.WithSkipObserver(func(source string, outcome dexscreener.Outcome) {
			metrics.RecordSourceSkip(source, string(outcome.Skip))
		}),
	)

	return []core.Source{
		dexscreener.NewProfilesSource(client, settings, options...),
		dexscreener.NewPairsSource(client, settings, options...),
	}
}

func openStorage(cfg config.StorageConfig) (core.SnapshotStorage, error) {
	switch cfg.Driver {
	case config.StorageBunt:
		return storage.FromFile(cfg.Path, storage.WithMaxSnapshots(cfg.MaxSnapshots))
	case config.StorageJSON:
		return storage.FromJSONFile(cfg.Path), nil
	case config.StoragePostgres:
		return storage.FromSQL(postgres.Open(cfg.DSN))
	case config.StorageMemory:
		return storage.FromMemory(storage.WithMaxSnapshots(cfg.MaxSnapshots))
	default:
		return nil, fmt.Errorf("%w %q", config.ErrUnknownStorage, cfg.Driver)
	}
}

func serveMetrics(ctx context.Context, address string, metrics *metric.Metrics) {
	log := dexscout.DefaultLog

	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	server := &http.Server{Addr: address, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		log.WithField("address", address).Info("metrics endpoint listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("metrics endpoint stopped")
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()
}

func printBanner(cfg *config.Config) {
	scan := cfg.Scan

	fmt.Println("🚀 SOLANA NEW TOKEN SCANNER")
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Criteria", "Value"})
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.AppendBulk([][]string{
		{"Min volume 5m", fmt.Sprintf("$%.0f", scan.MinVolume5m)},
		{"Market cap", fmt.Sprintf("$%.0f - $%.0f", scan.MinMarketCap, scan.MaxMarketCap)},
		{"Min liquidity", fmt.Sprintf("$%.0f", scan.MinLiquidity)},
		{"Max age", fmt.Sprintf("%.0fh (filter %t)", scan.MaxTokenAgeHours, scan.EnableAgeFilter)},
		{"High volume", fmt.Sprintf("$%.0f within %.0fh (%t)", scan.HighVolumeThreshold, scan.MaxAgeForHighVolume, scan.EnableHighVolumeAlert)},
		{"Interval", scan.Interval.String()},
		{"Storage", cfg.Storage.Driver},
		{"Telegram", fmt.Sprintf("%t", cfg.Telegram.Enabled)},
	})
	table.Render()
}
