package dexscout

import (
	"bytes"
	"fmt"
	"io"
	"sort"
	"strconv"
	"time"

	"github.com/aybabtme/uniplot/histogram"
	"github.com/olekukonko/tablewriter"
	"github.com/raykavin/dexscout/pkg/core"
	"github.com/raykavin/dexscout/pkg/filter"
	"github.com/raykavin/dexscout/pkg/metric"
	"github.com/raykavin/dexscout/pkg/notification"
	"github.com/samber/lo"
)

const (
	summaryResamples = 2000
	summaryBins      = 10
)

// Summary writes a human readable report of one scan, followed by the 5m volume
// distribution of the whole batch
func Summary(w io.Writer, report ScanReport, now time.Time) error {
	buffer := bytes.NewBuffer(nil)
	fmt.Fprintf(buffer, "scan #%d (%s) fetched %d tokens in %s\n\n",
		report.Sequence, report.RunID, len(report.Records), report.Duration.Round(time.Millisecond))

	for source, err := range report.SourceErrors {
		fmt.Fprintf(buffer, "source %s failed: %v\n", source, err)
	}

	table := tablewriter.NewWriter(buffer)
	table.SetHeader([]string{"Symbol", "Category", "Market Cap", "Vol 5m", "Liquidity", "Age", "Source"})
	table.SetFooterAlignment(tablewriter.ALIGN_RIGHT)
	for _, decision := range report.Decisions {
		record := decision.Record
		age, known := record.AgeHours(now)
		table.Append([]string{
			record.Symbol,
			decision.Category.String(),
			fmt.Sprintf("%.0f", record.MarketCap),
			fmt.Sprintf("%.0f", record.Volume5m),
			fmt.Sprintf("%.0f", record.Liquidity),
			notification.FormatAge(age, known),
			record.Source,
		})
	}
	table.SetFooter([]string{"QUALIFIED", strconv.Itoa(len(report.Decisions)), "", "", "", "", ""})
	table.Render()

	fmt.Fprintln(buffer, "------ SKIPPED -------")
	skipped := lo.CountValuesBy(
		lo.Reject(report.Outcomes, func(o filter.Outcome, _ int) bool { return o.Qualified() }),
		func(o filter.Outcome) filter.Reason { return o.Reason },
	)
	reasons := lo.Keys(skipped)
	sort.Slice(reasons, func(i, j int) bool { return reasons[i] < reasons[j] })
	for _, reason := range reasons {
		fmt.Fprintf(buffer, "%-16s %d\n", reason, skipped[reason])
	}
	fmt.Fprintln(buffer)

	stats := metric.Summarize(report.Records, summaryResamples)
	if stats.Count > 0 {
		fmt.Fprintln(buffer, "------ VOLUME 5M (k USD) -------")
		volumes := lo.Map(report.Records, func(r core.TokenRecord, _ int) float64 { return r.Volume5m / 1000 })
		if len(lo.Uniq(volumes)) > 1 {
			hist := histogram.Hist(summaryBins, volumes)
			if err := histogram.Fprint(buffer, hist, histogram.Linear(10)); err != nil {
				return fmt.Errorf("failed to render volume histogram: %w", err)
			}
		}
		fmt.Fprintln(buffer)

		fmt.Fprintln(buffer, "------ BATCH -------")
		fmt.Fprintf(buffer, "VOLUME 5M:   mean %.0f  median %.0f  p90 %.0f  max %.0f\n",
			stats.Volume5m.Mean, stats.Volume5m.Median, stats.Volume5m.P90, stats.Volume5m.Max)
		fmt.Fprintf(buffer, "MARKET CAP:  mean %.0f  median %.0f  p90 %.0f  max %.0f\n",
			stats.MarketCap.Mean, stats.MarketCap.Median, stats.MarketCap.P90, stats.MarketCap.Max)
		fmt.Fprintf(buffer, "LIQUIDITY:   mean %.0f  median %.0f  p90 %.0f  max %.0f\n",
			stats.Liquidity.Mean, stats.Liquidity.Median, stats.Liquidity.P90, stats.Liquidity.Max)
		fmt.Fprintf(buffer, "MEDIAN VOLUME (95%%): %.0f (%.0f ~ %.0f)\n",
			stats.MedianVolume.Mean, stats.MedianVolume.Lower, stats.MedianVolume.Upper)
	}

	_, err := w.Write(buffer.Bytes())
	return err
}
