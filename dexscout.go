package dexscout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jpillora/backoff"
	"github.com/raykavin/dexscout/pkg/core"
	"github.com/raykavin/dexscout/pkg/filter"
	"github.com/raykavin/dexscout/pkg/ledger"
	"github.com/raykavin/dexscout/pkg/logger"
	"github.com/raykavin/dexscout/pkg/metric"
	"github.com/raykavin/dexscout/pkg/notification"
	"github.com/raykavin/dexscout/pkg/storage"
	"github.com/raykavin/dexscout/pkg/throttle"
)

// DefaultLog is the default logger instance
var DefaultLog logger.Logger

const (
	defaultSourceDelay   = 2 * time.Second
	defaultDeliveryDelay = 2 * time.Second
	defaultErrorBackoff  = 2 * time.Minute

	// snapshots kept by the in-memory fallback store
	defaultMemorySnapshots = 60
)

var (
	ErrNoSources  = errors.New("at least one source is required")
	ErrCyclePanic = errors.New("scan cycle panicked")
)

// Scout polls the sources, filters what they return and delivers alerts for every token
// that qualifies for the first time
type Scout struct {
	settings core.Settings
	sources  []core.Source

	engine    *filter.Engine
	ledger    *ledger.Ledger
	formatter *notification.Formatter
	notifier  core.Notifier
	storage   core.SnapshotStorage
	metrics   *metric.Metrics
	log       logger.Logger
	clock     core.Clock
	sleep     throttle.Sleeper

	sourceDelay     time.Duration
	deliveryDelay   time.Duration
	errorBackoff    time.Duration
	maxErrorBackoff time.Duration

	sourceThrottle   *throttle.Throttle
	deliveryThrottle *throttle.Throttle
	cycleBackoff     *backoff.Backoff

	subscribers []core.DecisionSubscriber
	sequence    int64
}

// ScanReport describes one finished scan
type ScanReport struct {
	Sequence  int64
	RunID     string
	StartedAt time.Time
	Duration  time.Duration

	Records      []core.TokenRecord
	Outcomes     []filter.Outcome
	Decisions    []core.Decision
	SourceErrors map[string]error

	Delivered int
	Failed    int
}

// NewScout creates a scout for settings reading from sources, in order
func NewScout(settings core.Settings, sources []core.Source, options ...Option) (*Scout, error) {
	if len(sources) == 0 {
		return nil, ErrNoSources
	}

	if err := settings.Scan.Validate(); err != nil {
		return nil, fmt.Errorf("failed to validate scan settings: %w", err)
	}

	scout := &Scout{
		settings:      settings,
		sources:       sources,
		ledger:        ledger.New(),
		formatter:     notification.NewFormatter(settings.Scan),
		log:           DefaultLog,
		clock:         time.Now,
		sleep:         throttle.Sleep,
		sourceDelay:   defaultSourceDelay,
		deliveryDelay: defaultDeliveryDelay,
		errorBackoff:  defaultErrorBackoff,
	}

	for _, option := range options {
		option(scout)
	}

	if scout.log == nil {
		scout.log = logger.Nop{}
	}

	if scout.notifier == nil {
		scout.notifier = notification.NewLogNotifier(scout.log)
	}

	if scout.storage == nil {
		memory, err := storage.FromMemory(storage.WithMaxSnapshots(defaultMemorySnapshots))
		if err != nil {
			return nil, err
		}
		scout.storage = memory
	}

	if scout.maxErrorBackoff < scout.errorBackoff {
		scout.maxErrorBackoff = scout.errorBackoff
	}

	scout.engine = filter.New(settings.Scan, filter.WithClock(scout.clock))
	scout.sourceThrottle = throttle.New(scout.sourceDelay, throttle.WithClock(scout.clock), throttle.WithSleeper(scout.sleep))
	scout.deliveryThrottle = throttle.New(scout.deliveryDelay, throttle.WithClock(scout.clock), throttle.WithSleeper(scout.sleep))
	scout.cycleBackoff = &backoff.Backoff{
		Min:    scout.errorBackoff,
		Max:    scout.maxErrorBackoff,
		Factor: 2,
	}

	return scout, nil
}

// SubscribeDecision registers subscribers notified of every qualifying token
func (s *Scout) SubscribeDecision(subscribers ...core.DecisionSubscriber) {
	s.subscribers = append(s.subscribers, subscribers...)
}

// Alerted returns the number of tokens alerted since the scout was created
func (s *Scout) Alerted() int {
	return s.ledger.Len()
}

// Run announces the scanner once, then scans every interval until ctx is cancelled.
// A failed cycle is logged and followed by the error backoff instead of the interval.
// Cancellation is only observed between cycles: a started cycle delivers every alert
// it qualified, bounded by the per-request timeouts.
func (s *Scout) Run(ctx context.Context) error {
	if starter, ok := s.notifier.(core.NotifierWithStart); ok {
		if err := starter.Start(ctx); err != nil {
			return fmt.Errorf("failed to start notifier: %w", err)
		}
	}

	startup := s.formatter.FormatStartup(s.clock())
	if err := s.notifier.Send(ctx, s.settings.Telegram.ChatID, startup); err != nil {
		return fmt.Errorf("failed to send startup message: %w", err)
	}
	s.log.Info("startup message sent")

	cycleCtx := context.WithoutCancel(ctx)

	for {
		if ctx.Err() != nil {
			s.log.Info("scanner stopped")
			return nil
		}

		wait := s.settings.Scan.Interval

		report, err := s.safeScan(cycleCtx)
		switch {
		case err != nil:
			wait = s.cycleBackoff.Duration()
			s.log.WithError(err).
				WithField("wait", wait.String()).
				Error("scan cycle failed")
		default:
			s.cycleBackoff.Reset()
			s.log.WithFields(map[string]any{
				"scan":      report.Sequence,
				"tokens":    len(report.Records),
				"qualified": len(report.Decisions),
				"delivered": report.Delivered,
				"wait":      wait.String(),
			}).Info("scan finished")
		}

		if err := s.sleep(ctx, wait); err != nil {
			s.log.Info("scanner stopped")
			return nil
		}
	}
}

func (s *Scout) safeScan(ctx context.Context) (report ScanReport, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrCyclePanic, r)
		}
	}()
	return s.Scan(ctx)
}

// Scan runs one cycle. Every source is fetched in order, the combined batch is saved as
// a snapshot and filtered, then alerts are delivered one at a time. Failures of a single
// source, snapshot or alert are logged and never abort the cycle.
func (s *Scout) Scan(ctx context.Context) (ScanReport, error) {
	s.sequence++
	report := ScanReport{
		Sequence:     s.sequence,
		RunID:        uuid.NewString(),
		StartedAt:    s.clock(),
		SourceErrors: make(map[string]error),
	}

	log := s.log.WithFields(map[string]any{"scan": report.Sequence, "run_id": report.RunID})
	log.Info("scan started")

	err := s.scan(ctx, log, &report)
	report.Duration = s.clock().Sub(report.StartedAt)
	s.metrics.RecordScan(err, report.Duration, s.clock())

	return report, err
}

func (s *Scout) scan(ctx context.Context, log logger.Logger, report *ScanReport) error {
	if err := s.collect(ctx, log, report); err != nil {
		return err
	}

	if len(report.Records) == 0 {
		log.Warn("no tokens found")
		return nil
	}

	s.persist(ctx, log, report)
	s.evaluate(log, report)

	return s.deliver(ctx, log, report)
}

func (s *Scout) collect(ctx context.Context, log logger.Logger, report *ScanReport) error {
	s.sourceThrottle.Reset()

	for _, source := range s.sources {
		if err := s.sourceThrottle.Wait(ctx); err != nil {
			return err
		}

		records, err := source.Fetch(ctx)
		s.sourceThrottle.Touch()
		s.metrics.RecordFetch(source.Name(), len(records), err)

		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		if err != nil {
			report.SourceErrors[source.Name()] = err
			log.WithError(err).WithField("source", source.Name()).Warn("source fetch failed")
			continue
		}

		log.WithFields(map[string]any{"source": source.Name(), "tokens": len(records)}).Info("source fetched")
		report.Records = append(report.Records, records...)
	}

	return nil
}

func (s *Scout) persist(ctx context.Context, log logger.Logger, report *ScanReport) {
	err := s.storage.Save(ctx, core.Snapshot{
		Sequence:  report.Sequence,
		RunID:     report.RunID,
		Timestamp: report.StartedAt,
		Count:     len(report.Records),
		Tokens:    report.Records,
	})
	s.metrics.RecordPersist(err)

	if err != nil {
		log.WithError(err).Error("failed to save snapshot")
		return
	}
	log.WithField("tokens", len(report.Records)).Debug("snapshot saved")
}

func (s *Scout) evaluate(log logger.Logger, report *ScanReport) {
	report.Outcomes = make([]filter.Outcome, 0, len(report.Records))
	report.Decisions = make([]core.Decision, 0)

	for _, record := range report.Records {
		outcome := s.engine.Classify(record, s.ledger)
		report.Outcomes = append(report.Outcomes, outcome)

		if !outcome.Qualified() {
			s.metrics.RecordFilterSkip(string(outcome.Reason))
			if outcome.Err != nil {
				log.WithError(outcome.Err).WithField("address", record.Address).Warn("record could not be evaluated")
			}
			continue
		}

		s.metrics.RecordDecision(outcome.Decision.Category.String())
		report.Decisions = append(report.Decisions, outcome.Decision)
		for _, subscriber := range s.subscribers {
			subscriber.OnDecision(outcome.Decision)
		}
	}

	s.metrics.RecordLedgerSize(s.ledger.Len())

	if len(report.Decisions) == 0 {
		log.Info("no token matches the criteria")
		return
	}
	log.WithField("qualified", len(report.Decisions)).Info("tokens match the criteria")
}

func (s *Scout) deliver(ctx context.Context, log logger.Logger, report *ScanReport) error {
	s.deliveryThrottle.Reset()

	for _, decision := range report.Decisions {
		if err := s.deliveryThrottle.Wait(ctx); err != nil {
			return err
		}

		record := decision.Record
		text := s.formatter.FormatAlert(decision, s.clock())
		err := s.notifier.Send(ctx, s.settings.Telegram.ChatID, text)
		s.metrics.RecordDelivery(decision.Category.String(), err)

		entry := log.WithFields(map[string]any{
			"symbol":   record.Symbol,
			"address":  record.Address,
			"category": decision.Category.String(),
		})

		if err != nil {
			report.Failed++
			entry.WithError(err).Error("failed to deliver alert")
			continue
		}

		report.Delivered++
		if decision.Category == core.CategoryHighVolume {
			entry.Info("high volume alert sent")
		} else {
			entry.Info("alert sent")
		}
	}

	return nil
}
