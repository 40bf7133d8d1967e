package notifier

import (
	"fmt"
	"strings"

	"github.com/guregu/null/v6"

	"MarketBreadth/internal/model"
	"MarketBreadth/internal/sentiment"
)

// FormatBreadthReport formats the latest breadth reading into a Telegram message.
func FormatBreadthReport(title string, s model.Summary, ma model.MovingAverage, bands sentiment.Bands) string {
	var b strings.Builder

	if s.TradingDays == 0 {
		b.WriteString(fmt.Sprintf("📊 <b>%s</b>\n\nNo trading days in the dataset.", title))
		return b.String()
	}

	latest := s.Latest
	b.WriteString(fmt.Sprintf("📊 <b>%s</b> | %s\n\n", title, latest.Day.Format("2006-01-02")))

	zone := bands.Classify(latest.URSI)
	b.WriteString(fmt.Sprintf("URSI: %s (%s)\n", value(latest.URSI), sentiment.Describe[zone]))
	if ma.Window > 0 {
		b.WriteString(fmt.Sprintf("MA-%d: %s\n", ma.Window, value(ma.Last())))
	}
	b.WriteString("\n")

	b.WriteString(fmt.Sprintf("Advancing: %d | Declining: %d | Unchanged: %d\n",
		latest.Advancing, latest.Declining, latest.Unchanged))
	b.WriteString(fmt.Sprintf("Instruments: %d\n\n", latest.Total))

	b.WriteString(fmt.Sprintf("📈 <b>%s to %s</b> (%d days)\n",
		s.Start.Format("2006-01-02"), s.End.Format("2006-01-02"), s.TradingDays))
	b.WriteString(fmt.Sprintf("  Average: %s | Median: %s\n", value(s.Mean), value(s.Median)))
	b.WriteString(fmt.Sprintf("  Overbought: %d | Oversold: %d | Neutral: %d\n",
		s.DaysOverbought, s.DaysOversold, s.DaysNeutral))

	switch zone {
	case sentiment.ZoneOverbought:
		b.WriteString(fmt.Sprintf("\n⚠️ Breadth above %g: participation is stretched", bands.Overbought))
	case sentiment.ZoneOversold:
		b.WriteString(fmt.Sprintf("\n⚠️ Breadth below %g: selling is broad", bands.Oversold))
	}

	return b.String()
}

// FormatHelp lists the chat commands understood in serve mode.
func FormatHelp() string {
	return "Commands:\n• /ursi latest breadth reading\n• /refresh recompute now\n• /help this message"
}

func value(v null.Float) string {
	if !v.Valid {
		return "n/a"
	}
	return fmt.Sprintf("%.2f", v.Float64)
}
