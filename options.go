package dexscout

import (
	"time"

	"github.com/raykavin/dexscout/pkg/core"
	"github.com/raykavin/dexscout/pkg/logger"
	"github.com/raykavin/dexscout/pkg/metric"
	"github.com/raykavin/dexscout/pkg/throttle"
)

// Option is a functional option for configuring a Scout instance
type Option func(*Scout)

// WithStorage sets the snapshot storage, by default snapshots are kept in an in-memory buntdb
func WithStorage(storage core.SnapshotStorage) Option {
	return func(scout *Scout) {
		scout.storage = storage
	}
}

// WithNotifier sets where alerts are delivered, by default they are only logged
func WithNotifier(notifier core.Notifier) Option {
	return func(scout *Scout) {
		scout.notifier = notifier
	}
}

// WithMetrics records scan, filter and delivery metrics
func WithMetrics(metrics *metric.Metrics) Option {
	return func(scout *Scout) {
		scout.metrics = metrics
	}
}

// WithLogger sets the logger used by the scout
func WithLogger(log logger.Logger) Option {
	return func(scout *Scout) {
		scout.log = log
	}
}

// WithClock replaces the wall clock used for ages, snapshots and throttling
func WithClock(clock core.Clock) Option {
	return func(scout *Scout) {
		scout.clock = clock
	}
}

// WithSleeper replaces the context-aware sleep used between sources, deliveries and cycles
func WithSleeper(sleep throttle.Sleeper) Option {
	return func(scout *Scout) {
		scout.sleep = sleep
	}
}

// WithSourceDelay sets the pause between two sources of the same scan
func WithSourceDelay(delay time.Duration) Option {
	return func(scout *Scout) {
		scout.sourceDelay = delay
	}
}

// WithDeliveryDelay sets the pause between two alerts
func WithDeliveryDelay(delay time.Duration) Option {
	return func(scout *Scout) {
		scout.deliveryDelay = delay
	}
}

// WithErrorBackoff sets the wait after a failed cycle. Consecutive failures double it up to max.
func WithErrorBackoff(minWait, maxWait time.Duration) Option {
	return func(scout *Scout) {
		scout.errorBackoff = minWait
		scout.maxErrorBackoff = maxWait
	}
}

// WithDecisionSubscription subscribes a given struct to the qualified tokens feed
func WithDecisionSubscription(subscriber core.DecisionSubscriber) Option {
	return func(scout *Scout) {
		scout.SubscribeDecision(subscriber)
	}
}
