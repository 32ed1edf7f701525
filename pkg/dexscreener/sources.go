package dexscreener

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/raykavin/dexscout/pkg/core"
	"github.com/raykavin/dexscout/pkg/logger"
	"github.com/raykavin/dexscout/pkg/throttle"
	"github.com/tidwall/gjson"
)

const (
	profilesPath = "/token-profiles/latest/v1"
	tokensPath   = "/latest/dex/tokens/"

	DefaultProfileLimit  = 20
	DefaultFetchTimeout  = 20 * time.Second
	DefaultDetailTimeout = 10 * time.Second
	DefaultDetailDelay   = 300 * time.Millisecond
)

// SourceSettings bounds the work done by a source
type SourceSettings struct {
	FetchTimeout  time.Duration
	DetailTimeout time.Duration
	DetailDelay   time.Duration
	ProfileLimit  int
}

// DefaultSourceSettings returns the limits used against the public API
func DefaultSourceSettings() SourceSettings {
	return SourceSettings{
		FetchTimeout:  DefaultFetchTimeout,
		DetailTimeout: DefaultDetailTimeout,
		DetailDelay:   DefaultDetailDelay,
		ProfileLimit:  DefaultProfileLimit,
	}
}

// Progress tracks the per-token lookups of a profiles fetch
type Progress interface {
	ChangeMax(max int)
	Add(num int) error
}

// SkipObserver is notified of every record a source had to drop
type SkipObserver func(source string, outcome Outcome)

type base struct {
	client     *Client
	normalizer *Normalizer
	settings   SourceSettings
	log        logger.Logger
	observe    SkipObserver
	progress   Progress
}

// SourceOption configures a source
type SourceOption func(*base)

// WithSourceLogger sets the logger of a source
func WithSourceLogger(log logger.Logger) SourceOption {
	return func(b *base) {
		b.log = log
	}
}

// WithLookupProgress reports every finished per-token lookup to progress
func WithLookupProgress(progress Progress) SourceOption {
	return func(b *base) {
		b.progress = progress
	}
}

// WithSkipObserver registers a callback for dropped records
func WithSkipObserver(observe SkipObserver) SourceOption {
	return func(b *base) {
		b.observe = observe
	}
}

func newBase(client *Client, settings SourceSettings, options []SourceOption) base {
	b := base{
		client:     client,
		normalizer: NewNormalizer(client.TokenURL),
		settings:   settings,
		log:        logger.Nop{},
		observe:    func(string, Outcome) {},
	}

	for _, option := range options {
		option(&b)
	}

	return b
}

func (b *base) skipped(source string, outcome Outcome) {
	b.observe(source, outcome)

	entry := b.log.WithFields(map[string]any{
		"source":  source,
		"reason":  string(outcome.Skip),
		"address": outcome.Record.Address,
	})
	if outcome.Err != nil {
		entry = entry.WithError(outcome.Err)
	}
	entry.Debug("record skipped")
}

// ProfilesSource reads the latest token profiles and enriches each Solana profile with
// the first pair returned by a per-token lookup.
type ProfilesSource struct {
	base
	throttle *throttle.Throttle
}

// NewProfilesSource creates the token profiles source
func NewProfilesSource(client *Client, settings SourceSettings, options ...SourceOption) *ProfilesSource {
	return &ProfilesSource{
		base:     newBase(client, settings, options),
		throttle: throttle.New(settings.DetailDelay),
	}
}

func (s *ProfilesSource) Name() string {
	return SourceProfiles
}

// Fetch returns the normalized records of up to ProfileLimit Solana profiles. A failed
// per-token lookup skips that token only.
func (s *ProfilesSource) Fetch(ctx context.Context) ([]core.TokenRecord, error) {
	payload, err := s.client.Get(ctx, profilesPath, s.settings.FetchTimeout)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch token profiles: %w", err)
	}

	if !gjson.ValidBytes(payload) || !gjson.ParseBytes(payload).IsArray() {
		return nil, fmt.Errorf("failed to fetch token profiles: %w", ErrMalformedPayload)
	}

	profiles := make([]gjson.Result, 0)
	for _, profile := range gjson.ParseBytes(payload).Array() {
		if isSolana(profile) {
			profiles = append(profiles, profile)
		}
	}

	if limit := s.settings.ProfileLimit; limit > 0 && len(profiles) > limit {
		profiles = profiles[:limit]
	}

	s.log.WithField("profiles", len(profiles)).Debug("solana profiles listed")

	if s.progress != nil {
		s.progress.ChangeMax(len(profiles))
	}

	s.throttle.Reset()
	records := make([]core.TokenRecord, 0, len(profiles))
	for _, profile := range profiles {
		address := profile.Get("tokenAddress").String()
		if address == "" {
			s.advance()
			s.skipped(SourceProfiles, Outcome{Skip: SkipNoAddress})
			continue
		}

		if err := s.throttle.Wait(ctx); err != nil {
			return records, err
		}

		outcome := s.lookup(ctx, address)
		s.advance()
		if !outcome.OK() {
			s.skipped(SourceProfiles, outcome)
			continue
		}

		records = append(records, outcome.Record)
	}

	return records, nil
}

func (s *ProfilesSource) advance() {
	if s.progress == nil {
		return
	}
	if err := s.progress.Add(1); err != nil {
		s.log.WithError(err).Debug("progress update failed")
	}
}

func (s *ProfilesSource) lookup(ctx context.Context, address string) Outcome {
	payload, err := s.client.Get(ctx, tokensPath+url.PathEscape(address), s.settings.DetailTimeout)
	if err != nil {
		return Outcome{Record: core.TokenRecord{Address: address}, Skip: SkipLookupFailed, Err: err}
	}

	outcome := s.normalizer.FirstPair(payload, address, SourceProfiles)
	outcome.Record.Address = address
	return outcome
}

// PairsSource reads the pairs quoted against wrapped SOL
type PairsSource struct {
	base
}

// NewPairsSource creates the SOL pairs source
func NewPairsSource(client *Client, settings SourceSettings, options ...SourceOption) *PairsSource {
	return &PairsSource{base: newBase(client, settings, options)}
}

func (s *PairsSource) Name() string {
	return SourcePairs
}

// Fetch returns one record per Solana pair, keyed by the pair's base token
func (s *PairsSource) Fetch(ctx context.Context) ([]core.TokenRecord, error) {
	payload, err := s.client.Get(ctx, tokensPath+WrappedSOL, s.settings.FetchTimeout)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch sol pairs: %w", err)
	}

	if !gjson.ValidBytes(payload) {
		return nil, fmt.Errorf("failed to fetch sol pairs: %w", ErrMalformedPayload)
	}

	pairs := gjson.GetBytes(payload, "pairs").Array()
	records := make([]core.TokenRecord, 0, len(pairs))
	for _, pair := range pairs {
		if !isSolana(pair) {
			continue
		}

		outcome := s.normalizer.Pair(pair, "", SourcePairs)
		if !outcome.OK() {
			s.skipped(SourcePairs, outcome)
			continue
		}

		records = append(records, outcome.Record)
	}

	s.log.WithField("pairs", len(records)).Debug("solana pairs listed")

	return records, nil
}

var (
	_ core.Source = (*ProfilesSource)(nil)
	_ core.Source = (*PairsSource)(nil)
)
