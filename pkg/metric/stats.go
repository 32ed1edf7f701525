// Package metric exposes scanner metrics and batch statistics
package metric

import (
	"sort"

	"github.com/raykavin/dexscout/pkg/core"
	"github.com/samber/lo"
	"gonum.org/v1/gonum/stat"
)

// Interval is a bootstrap confidence interval
type Interval struct {
	Lower  float64
	Upper  float64
	StdDev float64
	Mean   float64
}

// Distribution describes one numeric field across a batch
type Distribution struct {
	Mean   float64
	Median float64
	P90    float64
	Max    float64
}

// BatchStats summarizes the records collected by one scan
type BatchStats struct {
	Count     int
	Volume5m  Distribution
	MarketCap Distribution
	Liquidity Distribution

	// MedianVolume is the 95% confidence interval of the median 5m volume
	MedianVolume Interval
}

// Summarize computes batch statistics. Resamples bounds the bootstrap work.
func Summarize(records []core.TokenRecord, resamples int) BatchStats {
	stats := BatchStats{Count: len(records)}
	if len(records) == 0 {
		return stats
	}

	volumes := lo.Map(records, func(r core.TokenRecord, _ int) float64 { return r.Volume5m })

	stats.Volume5m = distribution(volumes)
	stats.MarketCap = distribution(lo.Map(records, func(r core.TokenRecord, _ int) float64 { return r.MarketCap }))
	stats.Liquidity = distribution(lo.Map(records, func(r core.TokenRecord, _ int) float64 { return r.Liquidity }))
	stats.MedianVolume = Bootstrap(volumes, Median, resamples, 0.95)

	return stats
}

func distribution(values []float64) Distribution {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	return Distribution{
		Mean:   stat.Mean(sorted, nil),
		Median: Median(sorted),
		P90:    stat.Quantile(0.9, stat.Empirical, sorted, nil),
		Max:    sorted[len(sorted)-1],
	}
}

// Median of values, which need not be sorted
func Median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}

	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	return stat.Quantile(0.5, stat.Empirical, sorted, nil)
}

// Bootstrap estimates a confidence interval of measure by resampling values with replacement
func Bootstrap(values []float64, measure func([]float64) float64, resamples int, confidence float64) Interval {
	if len(values) == 0 || resamples <= 0 {
		return Interval{}
	}

	data := make([]float64, 0, resamples)
	for i := 0; i < resamples; i++ {
		sample := make([]float64, len(values))
		for j := range sample {
			sample[j] = lo.Sample(values)
		}
		data = append(data, measure(sample))
	}

	sort.Float64s(data)
	tail := 1 - confidence
	mean, stdDev := stat.MeanStdDev(data, nil)

	return Interval{
		Lower:  stat.Quantile(tail/2, stat.LinInterp, data, nil),
		Upper:  stat.Quantile(1-tail/2, stat.LinInterp, data, nil),
		StdDev: stdDev,
		Mean:   mean,
	}
}
