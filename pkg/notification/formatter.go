// Package notification renders alerts and delivers them to chat channels
package notification

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/raykavin/dexscout/pkg/core"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const (
	footerLayout = "02/01/2006 15:04:05"

	hotVolume    = 500_000
	risingVolume = 250_000
)

var markdownEscaper = strings.NewReplacer("_", "\\_", "*", "\\*", "`", "\\`", "[", "\\[")

// Formatter renders Telegram Markdown messages for the configured thresholds
type Formatter struct {
	settings core.ScanSettings
	printer  *message.Printer
}

func NewFormatter(settings core.ScanSettings) *Formatter {
	return &Formatter{
		settings: settings,
		printer:  message.NewPrinter(language.English),
	}
}

// FormatAlert renders one alert. It never fails: if the record cannot be rendered a
// single line naming the symbol is returned instead.
func (f *Formatter) FormatAlert(decision core.Decision, now time.Time) (text string) {
	defer func() {
		if r := recover(); r != nil {
			text = fmt.Sprintf("Token: %s", decision.Record.Symbol)
		}
	}()

	record := decision.Record

	var b strings.Builder
	fmt.Fprintf(&b, "%s\n\n", record.URL)
	fmt.Fprintf(&b, "%s\n", f.header(decision))
	if decision.Category == core.CategoryHighVolume {
		fmt.Fprintf(&b, "\n⚠️ *LAUNCHED WITHIN %sH WITH 5M VOLUME %s+!*\n",
			f.number(f.settings.MaxAgeForHighVolume), f.usd(f.settings.HighVolumeThreshold))
	}
	fmt.Fprintf(&b, "\n🏷️ *%s* ($%s)\n", escapeMarkdown(record.Name), escapeMarkdown(record.Symbol))
	fmt.Fprintf(&b, "💎 *Source:* DexScreener\n")
	fmt.Fprintf(&b, "📍 `%s`\n\n", record.Address)
	fmt.Fprintf(&b, "💰 *Price:* %s\n", FormatPrice(record.PriceUSD))
	fmt.Fprintf(&b, "📊 *Market Cap:* %s\n", f.usd(record.MarketCap))
	fmt.Fprintf(&b, "📈 *5m Volume:* %s\n", f.usd(record.Volume5m))
	fmt.Fprintf(&b, "💧 *Liquidity:* %s\n\n", f.usd(record.Liquidity))
	fmt.Fprintf(&b, "⏰ *Age:* %s\n\n", FormatAge(record.AgeHours(now)))
	fmt.Fprintf(&b, "🔗 [DexScreener](%s)\n\n", record.URL)
	fmt.Fprintf(&b, "_%s_", now.Format(footerLayout))

	return b.String()
}

// FormatStartup renders the one-time confirmation announcing the active criteria
func (f *Formatter) FormatStartup(now time.Time) string {
	s := f.settings

	lines := []string{
		"🤖 *SOLANA SCANNER ONLINE!*",
		"",
		"✅ Scanner started successfully",
		"📡 Source: DexScreener",
		fmt.Sprintf("⏰ Scan interval: %s", s.Interval),
		"",
		"📊 *Filter criteria:*",
		fmt.Sprintf("• 5m volume: %s+", f.usd(s.MinVolume5m)),
		fmt.Sprintf("• Market cap: %s - %s", f.usd(s.MinMarketCap), f.usd(s.MaxMarketCap)),
		fmt.Sprintf("• Liquidity: %s+", f.usd(s.MinLiquidity)),
	}

	if s.EnableAgeFilter {
		lines = append(lines, fmt.Sprintf("• Max token age: %s hours", f.number(s.MaxTokenAgeHours)))
	}

	if s.EnableHighVolumeAlert {
		lines = append(lines,
			"",
			"🔥 *High volume alert:*",
			fmt.Sprintf("• Token age: under %s hours", f.number(s.MaxAgeForHighVolume)),
			fmt.Sprintf("• 5m volume: %s+", f.usd(s.HighVolumeThreshold)),
		)
	}

	lines = append(lines,
		"",
		"💎 Tokens matching the criteria will be posted to this channel automatically!",
		"",
		fmt.Sprintf("_%s_", now.Format(footerLayout)),
	)

	return strings.Join(lines, "\n")
}

func (f *Formatter) header(decision core.Decision) string {
	if decision.Category == core.CategoryHighVolume {
		return "🚨🔥 HIGH VOLUME ALERT! 🔥🚨"
	}

	emoji := "💎"
	switch volume := decision.Record.Volume5m; {
	case volume >= hotVolume:
		emoji = "🔥"
	case volume >= risingVolume:
		emoji = "🚀"
	}

	return fmt.Sprintf("%s *NEW SOLANA TOKEN!*", emoji)
}

// usd renders a whole-dollar amount with thousands separators
func (f *Formatter) usd(value float64) string {
	return "$" + f.number(value)
}

func (f *Formatter) number(value float64) string {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		panic(fmt.Sprintf("cannot render %v", value))
	}
	return f.printer.Sprintf("%d", int64(math.Round(value)))
}

// FormatPrice scales precision with magnitude so sub-cent prices stay readable.
// A price that is not a finite number renders as N/A.
func FormatPrice(price float64) string {
	if math.IsNaN(price) || math.IsInf(price, 0) {
		return "N/A"
	}

	places := int32(6)
	switch {
	case price < 0.000001:
		places = 10
	case price < 0.01:
		places = 8
	}

	return "$" + decimal.NewFromFloat(price).StringFixed(places)
}

// FormatAge renders an age in whole minutes, hours or days
func FormatAge(hours float64, known bool) string {
	switch {
	case !known:
		return "Unknown"
	case hours < 1:
		return fmt.Sprintf("⚡ %d minutes", int(hours*60))
	case hours < 24:
		return fmt.Sprintf("🔥 %d hours", int(hours))
	default:
		return fmt.Sprintf("📅 %d days", int(hours/24))
	}
}

func escapeMarkdown(text string) string {
	return markdownEscaper.Replace(text)
}
