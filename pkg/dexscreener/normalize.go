package dexscreener

import (
	"fmt"

	"github.com/raykavin/dexscout/pkg/core"
	"github.com/tidwall/gjson"
)

const (
	Platform = "dexscreener"

	SourceProfiles = "profiles"
	SourcePairs    = "sol_pairs"

	chainSolana   = "solana"
	unknownSymbol = "UNKNOWN"
	unknownName   = "Unknown"
)

// SkipReason explains why a payload did not produce a record
type SkipReason string

const (
	SkipNone         SkipReason = ""
	SkipNoAddress    SkipReason = "no_address"
	SkipMalformed    SkipReason = "malformed"
	SkipNoPairs      SkipReason = "no_pairs"
	SkipLookupFailed SkipReason = "lookup_failed"
)

// Outcome is the result of normalizing one provider record
type Outcome struct {
	Record core.TokenRecord
	Skip   SkipReason
	Err    error
}

// OK reports whether the outcome carries a usable record
func (o Outcome) OK() bool {
	return o.Skip == SkipNone
}

// Normalizer maps DexScreener pair objects to token records
type Normalizer struct {
	tokenURL func(address string) string
}

// NewNormalizer creates a normalizer building links with tokenURL
func NewNormalizer(tokenURL func(address string) string) *Normalizer {
	return &Normalizer{tokenURL: tokenURL}
}

// Pair normalizes a pair object. When address is empty the pair's base token address is
// used. Missing numeric fields default to zero; a missing creation time stays unknown.
// Market cap falls back to the fully diluted valuation only when marketCap is absent.
func (n *Normalizer) Pair(pair gjson.Result, address, source string) Outcome {
	if !pair.IsObject() {
		return Outcome{Skip: SkipMalformed, Err: fmt.Errorf("%w: pair is %s", ErrMalformedPayload, pair.Type)}
	}

	base := pair.Get("baseToken")
	if address == "" {
		address = base.Get("address").String()
	}
	if address == "" {
		return Outcome{Skip: SkipNoAddress}
	}

	marketCap := pair.Get("marketCap")
	if !marketCap.Exists() || marketCap.Type == gjson.Null {
		marketCap = pair.Get("fdv")
	}

	return Outcome{
		Record: core.TokenRecord{
			Address:   address,
			Symbol:    stringOr(base.Get("symbol"), unknownSymbol),
			Name:      stringOr(base.Get("name"), unknownName),
			MarketCap: marketCap.Float(),
			Volume5m:  pair.Get("volume.m5").Float(),
			Liquidity: pair.Get("liquidity.usd").Float(),
			PriceUSD:  pair.Get("priceUsd").Float(),
			CreatedAt: pair.Get("pairCreatedAt").Int(),
			URL:       n.tokenURL(address),
			Source:    source,
			Platform:  Platform,
		},
	}
}

// FirstPair normalizes the first pair of a token lookup response
func (n *Normalizer) FirstPair(payload []byte, address, source string) Outcome {
	if !gjson.ValidBytes(payload) {
		return Outcome{Skip: SkipMalformed, Err: fmt.Errorf("%w: invalid json", ErrMalformedPayload)}
	}

	pair := gjson.GetBytes(payload, "pairs.0")
	if !pair.Exists() {
		return Outcome{Skip: SkipNoPairs}
	}

	return n.Pair(pair, address, source)
}

func stringOr(value gjson.Result, fallback string) string {
	if s := value.String(); value.Exists() && value.Type != gjson.Null && s != "" {
		return s
	}
	return fallback
}

func isSolana(item gjson.Result) bool {
	return item.Get("chainId").String() == chainSolana
}
