package core

import "time"

const millisPerHour = 3_600_000

// TokenRecord is the canonical shape of a token listing, independent of the provider
// payload it was built from
type TokenRecord struct {
	Address   string  `json:"address"`
	Symbol    string  `json:"symbol"`
	Name      string  `json:"name"`
	MarketCap float64 `json:"market_cap"`
	Volume5m  float64 `json:"volume_5m"`
	Liquidity float64 `json:"liquidity"`
	PriceUSD  float64 `json:"price_usd"`

	// CreatedAt is the pair creation time in epoch milliseconds, zero when unknown
	CreatedAt int64 `json:"created_timestamp"`

	URL      string `json:"url"`
	Source   string `json:"source"`
	Platform string `json:"platform"`
}

// AgeHours returns the age of the token relative to now. The second value is false
// when the creation time is unknown.
func (t TokenRecord) AgeHours(now time.Time) (float64, bool) {
	if t.CreatedAt == 0 {
		return 0, false
	}
	return float64(now.UnixMilli()-t.CreatedAt) / millisPerHour, true
}

// Created returns the creation time, or the zero time when unknown
func (t TokenRecord) Created() time.Time {
	if t.CreatedAt == 0 {
		return time.Time{}
	}
	return time.UnixMilli(t.CreatedAt)
}
