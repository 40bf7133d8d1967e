package calculator

import (
	"sort"
	"time"

	"github.com/guregu/null/v6"
	"github.com/shopspring/decimal"

	"MarketBreadth/internal/dataset"
	"MarketBreadth/internal/model"
)

// Classify compares a close with the same instrument's previous close.
func Classify(price, prev decimal.Decimal) model.Status {
	switch price.Cmp(prev) {
	case 1:
		return model.StatusAdvancing
	case -1:
		return model.StatusDeclining
	default:
		return model.StatusUnchanged
	}
}

// URSI returns 100*advancing/(advancing+declining).
// The result is invalid when nothing advanced or declined.
func URSI(advancing, declining int) null.Float {
	moved := advancing + declining
	if moved == 0 {
		return null.Float{}
	}
	return null.FloatFrom(100 * float64(advancing) / float64(moved))
}

// AggregateDay counts the statuses recorded for one day and derives its URSI.
func AggregateDay(day time.Time, statuses []model.Status) model.DailyBreadth {
	b := model.DailyBreadth{Day: day}
	for _, s := range statuses {
		switch s {
		case model.StatusAdvancing:
			b.Advancing++
		case model.StatusDeclining:
			b.Declining++
		default:
			b.Unchanged++
		}
	}
	b.Total = b.Advancing + b.Declining + b.Unchanged
	b.URSI = URSI(b.Advancing, b.Declining)
	return b
}

// ComputeBreadth classifies every observation against the instrument's preceding
// observation and aggregates per day, ascending. First observations carry no status
// and contribute to no day.
func ComputeBreadth(ds *dataset.Dataset) []model.DailyBreadth {
	byDay := make(map[time.Time][]model.Status)
	for _, inst := range ds.Instruments() {
		series := ds.Series(inst)
		for i := 1; i < len(series); i++ {
			day := series[i].Day
			byDay[day] = append(byDay[day], Classify(series[i].Close, series[i-1].Close))
		}
	}

	days := make([]time.Time, 0, len(byDay))
	for d := range byDay {
		days = append(days, d)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })

	out := make([]model.DailyBreadth, 0, len(days))
	for _, d := range days {
		out = append(out, AggregateDay(d, byDay[d]))
	}
	return out
}

// Values extracts the URSI column of a breadth series.
func Values(series []model.DailyBreadth) []null.Float {
	out := make([]null.Float, len(series))
	for i, b := range series {
		out[i] = b.URSI
	}
	return out
}
