// Package filter decides which token records are worth an alert and under which category
package filter

import (
	"fmt"
	"math"
	"time"

	"github.com/raykavin/dexscout/pkg/core"
	"github.com/samber/lo"
)

// Ledger is the dedup state consulted and updated by the engine
type Ledger interface {
	Has(address string) bool
	Add(address string)
}

// Engine applies the scan thresholds to normalized records
type Engine struct {
	settings core.ScanSettings
	excluded map[string]struct{}
	clock    core.Clock
}

// Option configures an Engine
type Option func(*Engine)

// WithClock replaces the wall clock used to compute token ages
func WithClock(clock core.Clock) Option {
	return func(e *Engine) {
		e.clock = clock
	}
}

// New creates an engine for the given thresholds
func New(settings core.ScanSettings, options ...Option) *Engine {
	engine := &Engine{
		settings: settings,
		excluded: lo.SliceToMap(settings.ExcludedSymbols, func(symbol string) (string, struct{}) {
			return symbol, struct{}{}
		}),
		clock: time.Now,
	}

	for _, option := range options {
		option(engine)
	}

	return engine
}

// Evaluate classifies every record in order and returns the decisions of the qualifying
// ones, in the order they were encountered. Qualifying addresses are added to the ledger.
func (e *Engine) Evaluate(records []core.TokenRecord, ledger Ledger) []core.Decision {
	decisions := make([]core.Decision, 0)
	for _, record := range records {
		if outcome := e.Classify(record, ledger); outcome.Qualified() {
			decisions = append(decisions, outcome.Decision)
		}
	}
	return decisions
}

// Classify evaluates a single record. The first matching rule wins: hard rejects, then
// the high-volume category, then the normal category. A failure while evaluating the
// record is returned as an invalid outcome and never escapes.
func (e *Engine) Classify(record core.TokenRecord, ledger Ledger) (outcome Outcome) {
	defer func() {
		if r := recover(); r != nil {
			outcome = Outcome{Reason: ReasonInvalid, Err: fmt.Errorf("%w: %v", ErrInvalidRecord, r)}
		}
	}()

	if record.Address == "" {
		return skip(ReasonEmptyAddress)
	}

	if ledger.Has(record.Address) {
		return skip(ReasonAlreadySent)
	}

	if _, ok := e.excluded[record.Symbol]; ok {
		return skip(ReasonExcluded)
	}

	age, ageKnown := record.AgeHours(e.clock())
	if e.settings.EnableAgeFilter && ageKnown && age > e.settings.MaxTokenAgeHours {
		return skip(ReasonTooOld)
	}

	if err := validate(record); err != nil {
		return Outcome{Reason: ReasonInvalid, Err: err}
	}

	if e.isHighVolume(record, age, ageKnown) {
		ledger.Add(record.Address)
		return qualify(record, core.CategoryHighVolume)
	}

	if e.isNormal(record) {
		ledger.Add(record.Address)
		return qualify(record, core.CategoryNormal)
	}

	return skip(ReasonBelowCriteria)
}

// isHighVolume matches very fresh tokens already trading heavily. Unknown age never qualifies.
func (e *Engine) isHighVolume(record core.TokenRecord, age float64, ageKnown bool) bool {
	if !e.settings.EnableHighVolumeAlert || !ageKnown {
		return false
	}

	return age <= e.settings.MaxAgeForHighVolume &&
		record.Volume5m >= e.settings.HighVolumeThreshold &&
		e.inMarketCapBand(record.MarketCap) &&
		record.Liquidity >= e.settings.MinLiquidity
}

func (e *Engine) isNormal(record core.TokenRecord) bool {
	return e.inMarketCapBand(record.MarketCap) &&
		record.Volume5m >= e.settings.MinVolume5m &&
		record.Liquidity >= e.settings.MinLiquidity
}

// inMarketCapBand is inclusive at both ends
func (e *Engine) inMarketCapBand(marketCap float64) bool {
	return marketCap >= e.settings.MinMarketCap && marketCap <= e.settings.MaxMarketCap
}

func validate(record core.TokenRecord) error {
	fields := map[string]float64{
		"market_cap": record.MarketCap,
		"volume_5m":  record.Volume5m,
		"liquidity":  record.Liquidity,
	}

	for name, value := range fields {
		if math.IsNaN(value) || math.IsInf(value, 0) || value < 0 {
			return fmt.Errorf("%w: %s=%v for %s", ErrInvalidRecord, name, value, record.Address)
		}
	}
	return nil
}
