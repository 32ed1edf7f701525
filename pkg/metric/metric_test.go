package metric

import (
	"errors"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/raykavin/dexscout/pkg/core"
	"github.com/stretchr/testify/require"
)

func TestSummarize(t *testing.T) {
	records := []core.TokenRecord{
		{Volume5m: 100, MarketCap: 1_000, Liquidity: 10},
		{Volume5m: 300, MarketCap: 3_000, Liquidity: 30},
		{Volume5m: 200, MarketCap: 2_000, Liquidity: 20},
	}

	stats := Summarize(records, 200)
	require.Equal(t, 3, stats.Count)
	require.InDelta(t, 200, stats.Volume5m.Mean, 1e-9)
	require.Equal(t, 200.0, stats.Volume5m.Median)
	require.Equal(t, 300.0, stats.Volume5m.Max)
	require.Equal(t, 3_000.0, stats.MarketCap.Max)
	require.InDelta(t, 20, stats.Liquidity.Mean, 1e-9)
	require.GreaterOrEqual(t, stats.MedianVolume.Lower, 100.0)
	require.LessOrEqual(t, stats.MedianVolume.Upper, 300.0)
}

func TestSummarize_Empty(t *testing.T) {
	require.Equal(t, BatchStats{}, Summarize(nil, 100))
}

func TestBootstrap_ConstantSample(t *testing.T) {
	interval := Bootstrap([]float64{5, 5, 5, 5}, Median, 50, 0.95)
	require.Equal(t, 5.0, interval.Lower)
	require.Equal(t, 5.0, interval.Upper)
	require.Equal(t, 5.0, interval.Mean)
	require.Zero(t, interval.StdDev)
}

func TestMetrics_Record(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry(), "")

	m.RecordScan(nil, time.Second, time.Unix(1_700_000_000, 0))
	m.RecordScan(errors.New("boom"), time.Second, time.Now())
	m.RecordFetch("profiles", 3, nil)
	m.RecordFetch("sol_pairs", 0, errors.New("timeout"))
	m.RecordSourceSkip("profiles", "no_pairs")
	m.RecordDecision("high_volume")
	m.RecordFilterSkip("too_old")
	m.RecordLedgerSize(4)
	m.RecordDelivery("normal", nil)
	m.RecordDelivery("normal", errors.New("chat not found"))
	m.RecordPersist(errors.New("disk full"))
	m.RecordPersist(nil)

	require.Equal(t, 1.0, testutil.ToFloat64(m.ScansTotal.WithLabelValues("ok")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.ScansTotal.WithLabelValues("failed")))
	require.Equal(t, 1_700_000_000.0, testutil.ToFloat64(m.LastSuccessfulScan))
	require.Equal(t, 3.0, testutil.ToFloat64(m.RecordsFetched.WithLabelValues("profiles")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.FetchErrors.WithLabelValues("sol_pairs")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.RecordsSkipped.WithLabelValues("profiles", "no_pairs")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.Decisions.WithLabelValues("high_volume")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.FilterSkips.WithLabelValues("too_old")))
	require.Equal(t, 4.0, testutil.ToFloat64(m.LedgerSize))
	require.Equal(t, 1.0, testutil.ToFloat64(m.AlertsSent.WithLabelValues("normal")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.DeliveryFailures))
	require.Equal(t, 1.0, testutil.ToFloat64(m.PersistFailures))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	m.RecordScan(nil, time.Second, time.Now())
	m.RecordDecision("normal")
	m.RecordDelivery("normal", errors.New("x"))
}

func TestMetrics_Handler(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry(), "test")
	m.RecordDecision("normal")

	recorder := httptest.NewRecorder()
	m.Handler().ServeHTTP(recorder, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(recorder.Result().Body)
	require.NoError(t, err)
	require.Contains(t, string(body), `test_filter_decisions_total{category="normal"} 1`)
}
